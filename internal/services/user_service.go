package services

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// LoginRequest identifies a customer by phone.
type LoginRequest struct {
	Phone string `json:"phone" form:"phone" validate:"required,numeric,min=10,max=15"`
	Name  string `json:"name" form:"name" validate:"omitempty,max=100"`
}

// ProfileUpdate holds the fields a customer may change on their profile.
type ProfileUpdate struct {
	Name    string `json:"name" form:"name" validate:"required,max=100"`
	Email   string `json:"email" form:"email" validate:"omitempty,email"`
	Address string `json:"address" form:"address" validate:"omitempty,max=500"`
	State   string `json:"state" form:"state" validate:"omitempty,max=100"`
	City    string `json:"city" form:"city" validate:"omitempty,max=100"`
}

// UserDetail is a user together with their orders.
type UserDetail struct {
	User   *models.User   `json:"user"`
	Orders []models.Order `json:"orders"`
}

// UserService manages customer accounts.
type UserService struct {
	users    repositories.UserRepository
	orders   repositories.OrderRepository
	validate *validator.Validate
}

// NewUserService creates a new UserService.
func NewUserService(users repositories.UserRepository, orders repositories.OrderRepository, validate *validator.Validate) *UserService {
	return &UserService{users: users, orders: orders, validate: validate}
}

// Login returns the user with the given phone, registering it on first sight.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*models.User, error) {
	req.Phone = strings.TrimSpace(req.Phone)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, invalid(err)
	}
	return s.users.FirstOrCreateByPhone(ctx, req.Phone, models.User{
		ID:   uuid.New().String(),
		Name: req.Name,
	})
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user %s", id)
	}
	return user, nil
}

// UpdateProfile applies a customer's own edit. The phone stays unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error) {
	if err := s.validate.Struct(upd); err != nil {
		return nil, invalid(err)
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = upd.Name
	user.Email = upd.Email
	user.Address = upd.Address
	user.State = upd.State
	user.City = upd.City
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFound(err, "user %s", id)
	}
	return user, nil
}

// List returns users matching query, newest first.
func (s *UserService) List(ctx context.Context, query string) ([]models.User, error) {
	return s.users.List(ctx, strings.TrimSpace(query))
}

// Detail returns a user with their order history.
func (s *UserService) Detail(ctx context.Context, id string) (*UserDetail, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: user, Orders: orders}, nil
}

// Update replaces every editable field of a user, phone included.
func (s *UserService) Update(ctx context.Context, id string, user models.User) (*models.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	user.ID = id
	if err := s.validate.Struct(user); err != nil {
		return nil, invalid(err)
	}
	if err := s.users.Update(ctx, &user); err != nil {
		return nil, notFound(err, "user %s", id)
	}
	return s.Get(ctx, id)
}

// Delete removes a user and all of their orders.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return notFound(err, "user %s", id)
	}
	return nil
}
