package poll

import (
	"testing"
	"time"

	"github.com/globalsign/mgo/bson"
)

func newTestScheduler() (*RefreshScheduler, *int, *time.Time) {
	renders := 0
	current := testNow

	s := newRefreshScheduler(func(pollID bson.ObjectId, messageID string) {
		renders++
	})
	s.now = func() time.Time { return current }

	return s, &renders, &current
}

func TestSchedulerCoalescesBurst(t *testing.T) {
	s, renders, _ := newTestScheduler()
	pollID := bson.NewObjectId()

	// a burst of requests inside one window
	for i := 0; i < 20; i++ {
		s.Request(pollID, "message-1", false)
	}

	if *renders != 1 {
		t.Fatalf("expected 1 immediate render for the burst, got %d", *renders)
	}
}

func TestSchedulerTrailingEdgeFlush(t *testing.T) {
	s, renders, current := newTestScheduler()
	pollID := bson.NewObjectId()

	s.Request(pollID, "message-1", false)
	s.Request(pollID, "message-1", false)
	s.Request(pollID, "message-1", false)

	// window still running, nothing flushes
	s.flushExpired()
	if *renders != 1 {
		t.Fatalf("expected no early flush, got %d renders", *renders)
	}

	*current = current.Add(refreshCooldown + time.Second)
	s.flushExpired()
	if *renders != 2 {
		t.Fatalf("expected exactly one trailing render, got %d", *renders)
	}

	// state is cleared, no further flushes
	s.flushExpired()
	if *renders != 2 {
		t.Fatalf("expected no extra renders, got %d", *renders)
	}
}

func TestSchedulerNoTrailingRenderWithoutPending(t *testing.T) {
	s, renders, current := newTestScheduler()
	pollID := bson.NewObjectId()

	s.Request(pollID, "message-1", false)

	*current = current.Add(refreshCooldown + time.Second)
	s.flushExpired()

	if *renders != 1 {
		t.Fatalf("expected no trailing render for a single request, got %d", *renders)
	}
}

func TestSchedulerRendersAgainAfterWindow(t *testing.T) {
	s, renders, current := newTestScheduler()
	pollID := bson.NewObjectId()

	s.Request(pollID, "message-1", false)
	*current = current.Add(refreshCooldown + time.Second)
	s.Request(pollID, "message-1", false)

	if *renders != 2 {
		t.Fatalf("expected a fresh window to render immediately, got %d", *renders)
	}
}

func TestSchedulerForceBypassesWindow(t *testing.T) {
	s, renders, _ := newTestScheduler()
	pollID := bson.NewObjectId()

	s.Request(pollID, "message-1", false)
	s.Request(pollID, "message-1", true)

	if *renders != 2 {
		t.Fatalf("expected the forced request to render, got %d", *renders)
	}
}

func TestSchedulerWindowsArePerPoll(t *testing.T) {
	s, renders, _ := newTestScheduler()

	s.Request(bson.NewObjectId(), "message-1", false)
	s.Request(bson.NewObjectId(), "message-2", false)

	if *renders != 2 {
		t.Fatalf("expected independent windows per poll, got %d renders", *renders)
	}
}

func TestSchedulerForgetDropsPending(t *testing.T) {
	s, renders, current := newTestScheduler()
	pollID := bson.NewObjectId()

	s.Request(pollID, "message-1", false)
	s.Request(pollID, "message-1", false)
	s.Forget(pollID)

	*current = current.Add(refreshCooldown + time.Second)
	s.flushExpired()

	if *renders != 1 {
		t.Fatalf("expected the pending render to be forgotten, got %d", *renders)
	}
}

func TestSchedulerFlushUsesLatestMessage(t *testing.T) {
	var lastMessage string
	current := testNow

	s := newRefreshScheduler(func(pollID bson.ObjectId, messageID string) {
		lastMessage = messageID
	})
	s.now = func() time.Time { return current }

	pollID := bson.NewObjectId()
	s.Request(pollID, "message-1", false)
	s.Request(pollID, "message-2", false)
	s.Request(pollID, "message-3", false)

	current = current.Add(refreshCooldown + time.Second)
	s.flushExpired()

	if lastMessage != "message-3" {
		t.Fatalf("expected the latest parked message to flush, got %s", lastMessage)
	}
}
