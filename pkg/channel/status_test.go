package channel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStatusStartsFree(t *testing.T) {
	s := NewStatus()
	s.FreeThreshold = 0
	assert.True(t, s.Free())
}

func TestSetBusyThenFreeThreshold(t *testing.T) {
	s := NewStatus()
	s.FreeThreshold = 50 * time.Millisecond
	s.ForceThreshold = time.Hour
	s.SetReceiving()
	assert.False(t, s.Free())
	s.SetFree()
	time.Sleep(75 * time.Millisecond)
	assert.True(t, s.Free())
}

func TestForceFreeWatchdog(t *testing.T) {
	s := NewStatus()
	s.FreeThreshold = time.Hour
	s.ForceThreshold = 50 * time.Millisecond
	s.SetSending()
	assert.False(t, s.Free())
	time.Sleep(75 * time.Millisecond)
	assert.True(t, s.Free())
}

func TestWaitForFreeUnblocksOnSetFree(t *testing.T) {
	s := NewStatus()
	s.FreeThreshold = 0
	s.ForceThreshold = time.Hour
	s.PollInterval = 5 * time.Millisecond
	s.SetReceiving()

	done := make(chan error, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { done <- s.WaitForFree(ctx) }()

	time.Sleep(20 * time.Millisecond)
	s.SetFree()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitForFree did not return after SetFree")
	}
}

func TestWaitForFreeRespectsContext(t *testing.T) {
	s := NewStatus()
	s.FreeThreshold = time.Hour
	s.ForceThreshold = time.Hour
	s.PollInterval = 5 * time.Millisecond
	s.SetReceiving()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.WaitForFree(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
