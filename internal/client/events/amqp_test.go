package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPForwarder_PublishesJSON(t *testing.T) {
	ch := &fakeChannel{}
	f := newAMQPForwarder(ch, logging.NewNop())

	b := NewBus(nil)
	b.Subscribe(f.Listener())

	ev := models.ModeChanged{
		ID:         "evt-1",
		From:       models.ModeUser,
		To:         models.ModeProvider,
		Source:     "settings",
		OccurredAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	b.Publish(context.Background(), ev)

	require.Len(t, ch.sent, 1)
	p := ch.sent[0]
	assert.Equal(t, ExchangeName, p.exchange)
	assert.Equal(t, RoutingKeyModeChanged, p.key)
	assert.Equal(t, "application/json", p.msg.ContentType)
	assert.Equal(t, "evt-1", p.msg.MessageId)

	var decoded models.ModeChanged
	require.NoError(t, json.Unmarshal(p.msg.Body, &decoded))
	assert.Equal(t, ev, decoded)
}

func TestAMQPForwarder_PublishError(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	f := newAMQPForwarder(ch, nil)

	err := f.Forward(context.Background(), models.ModeChanged{ID: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, amqp.ErrClosed))
}

func TestAMQPForwarder_Close(t *testing.T) {
	ch := &fakeChannel{}
	f := newAMQPForwarder(ch, nil)

	require.NoError(t, f.Close())
	assert.True(t, ch.closed)
}
