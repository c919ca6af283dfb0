// Package auditlog appends a human-readable line per order event to a side file.
// The file is an operational trail only; nothing reads it back.
package auditlog

import (
	"os"
	"sync"

	"storefront/internal/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is an append-only order audit file.
type Log struct {
	mu     sync.Mutex
	file   *os.File
	logger *zap.Logger
}

// Open opens (or creates) path for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout(models.OrderDateLayout)
	enc.LevelKey = zapcore.OmitKey
	enc.CallerKey = zapcore.OmitKey
	enc.NameKey = zapcore.OmitKey
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(f), zapcore.InfoLevel)
	return &Log{file: f, logger: zap.New(core)}, nil
}

// OrderPlaced records a new order.
func (l *Log) OrderPlaced(o *models.Order) {
	l.write("order placed", o,
		zap.String("name", o.Name),
		zap.String("phone", o.Phone),
		zap.String("destination", o.City+", "+o.State),
		zap.String("address", o.Address),
		zap.String("transaction_id", o.TransactionID),
		zap.String("items", o.ItemsSummary()),
		zap.String("subtotal", o.Subtotal.StringFixed(2)),
		zap.String("delivery", o.DeliveryCharge.StringFixed(2)),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.String("advance", o.AdvancePayment.StringFixed(2)),
	)
}

// OrderCancelled records a customer cancellation.
func (l *Log) OrderCancelled(o *models.Order) {
	l.write("order cancelled by customer", o, zap.String("phone", o.Phone))
}

// OrderUpdated records an admin edit.
func (l *Log) OrderUpdated(o *models.Order, admin string) {
	l.write("order updated by admin", o,
		zap.String("admin", admin),
		zap.String("status", string(o.Status)),
		zap.Bool("can_cancel", o.CanCancel),
	)
}

func (l *Log) write(msg string, o *models.Order, fields ...zap.Field) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fields = append([]zap.Field{
		zap.String("order_id", o.ID),
		zap.String("order_date", o.FormattedDate()),
	}, fields...)
	l.logger.Info(msg, fields...)
}

// Close flushes and closes the file.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.logger.Sync()
	return l.file.Close()
}
