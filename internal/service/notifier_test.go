package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelNaming(t *testing.T) {
	assert.Equal(t, "project:7:tickets", ProjectChannel(7))
	assert.Equal(t, "ticket:42:comments", TicketChannel(42))
}

func TestNotifierPublishWithoutTransport(t *testing.T) {
	// Publishing with no Redis client configured must be a safe no-op;
	// the write path may never fail because of a missing notifier.
	n := NewNotifier(nil)
	assert.NotPanics(t, func() {
		n.Publish(context.Background(), ProjectChannel(1), Event{Type: EventMoved})
	})

	var nilNotifier *Notifier
	assert.NotPanics(t, func() {
		nilNotifier.Publish(context.Background(), ProjectChannel(1), Event{Type: EventMoved})
	})
}

func TestNotifierSubscribeWithoutTransport(t *testing.T) {
	n := NewNotifier(nil)
	_, _, err := n.Subscribe(context.Background(), ProjectChannel(1))
	assert.Error(t, err)
}
