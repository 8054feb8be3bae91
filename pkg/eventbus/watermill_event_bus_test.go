package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlabs/cascade/pkg/channels/gochannel"
	"github.com/driftlabs/cascade/pkg/eventbus"
	"github.com/driftlabs/cascade/pkg/events"
	"github.com/driftlabs/cascade/pkg/models"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	return eventbus.NewWatermillEventBus(pub, sub)
}

func TestWatermillEventBus_TriggerReceivedRoundTrip(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.TriggerReceived, 1)

	err := bus.Handle(events.TriggerReceivedEvent, func(_ context.Context, event any) error {
		trigger, ok := event.(*events.TriggerReceived)
		require.True(t, ok)

		received <- trigger

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	sent := events.NewTriggerReceived("company-1", models.TriggerPurchaseIntent, map[string]any{
		"intent": "buy_plan",
	})
	require.NoError(t, bus.Publish(ctx, "company-1", sent))

	select {
	case trigger := <-received:
		assert.Equal(t, sent.ID, trigger.ID)
		assert.Equal(t, "company-1", trigger.CompanyID)
		assert.Equal(t, models.TriggerPurchaseIntent, trigger.TriggerType)
		assert.Equal(t, "buy_plan", trigger.TriggerData["intent"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for trigger event")
	}
}

func TestWatermillEventBus_ExecutionFinishedRoundTrip(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.ExecutionFinished, 1)

	err := bus.Handle(events.ExecutionFinishedEvent, func(_ context.Context, event any) error {
		finished, ok := event.(*events.ExecutionFinished)
		require.True(t, ok)

		received <- finished

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	sent := events.NewExecutionFinished(&models.WorkflowExecution{
		ID:              "exec-1",
		WorkflowID:      "wf-1",
		CompanyID:       "company-1",
		Status:          models.ExecutionStatusPartialFailure,
		ExecutionTimeMs: 42,
	})
	require.NoError(t, bus.Publish(ctx, "company-1", sent))

	select {
	case finished := <-received:
		assert.Equal(t, "exec-1", finished.ExecutionID)
		assert.Equal(t, models.ExecutionStatusPartialFailure, finished.Status)
		assert.Equal(t, int64(42), finished.DurationMs)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for finished event")
	}
}

func TestWatermillEventBus_UnhandledEventIsAcked(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Only the finished handler is registered; trigger events pass through
	// without blocking the stream.
	received := make(chan struct{}, 1)

	err := bus.Handle(events.ExecutionFinishedEvent, func(_ context.Context, _ any) error {
		received <- struct{}{}

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	trigger := events.NewTriggerReceived("company-1", models.TriggerDealCreated, nil)
	require.NoError(t, bus.Publish(ctx, "company-1", trigger))

	finished := events.NewExecutionFinished(&models.WorkflowExecution{
		ID: "exec-1", WorkflowID: "wf-1", CompanyID: "company-1",
		Status: models.ExecutionStatusSuccess,
	})
	require.NoError(t, bus.Publish(ctx, "company-1", finished))

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for finished event")
	}

	assert.NotEmpty(t, bus.GenerateID())
}
