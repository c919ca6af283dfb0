package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewMessage(t *testing.T) {
	at := time.Date(2026, 1, 10, 15, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	msg, err := NewMessage("order.placed", map[string]interface{}{"order_id": "o-1", "total_amount": "18200"}, at)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "order.placed", msg.Type)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())
	assert.True(t, at.Equal(msg.Timestamp))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "o-1", body["order_id"])

	_, err = NewMessage("", nil, at)
	assert.Error(t, err)
	_, err = NewMessage("order.placed", map[string]interface{}{"bad": func() {}}, at)
	assert.Error(t, err)
}

func TestClient_PublishWithoutChannel(t *testing.T) {
	c := &Client{logger: zap.NewNop()}
	err := c.PublishOrderEvent("order.placed", map[string]interface{}{"order_id": "o-1"})
	assert.EqualError(t, err, "RabbitMQ channel is not available")
	assert.NoError(t, c.Close())
}
