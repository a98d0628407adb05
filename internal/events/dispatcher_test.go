package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var got []string
	dispatcher.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e.TicketID)
		return nil
	})
	dispatcher.Subscribe(EventTicketOverdue, func(_ context.Context, e Event) error {
		t.Fatalf("unexpected overdue delivery for %s", e.TicketID)
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t-1"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"t-1"}, got)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var second bool
	dispatcher.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		return errors.New("boom")
	})
	dispatcher.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		second = true
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventTicketStatusChanged})
	assert.NoError(t, err)
	assert.True(t, second)
}
