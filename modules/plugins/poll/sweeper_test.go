package poll

import (
	"strconv"
	"testing"
	"time"

	"github.com/tallybot/tallybot/models"
)

func TestSweepClosesOverduePolls(t *testing.T) {
	h, polls, _, messenger, renders := newTestHandler()
	poll := testPoll(polls, func(poll *models.PollEntry) {
		poll.Deadline = testNow.Add(-time.Minute)
	})

	h.sweepOnce(testNow)

	saved := polls.get(poll.ID)
	if saved.Open {
		t.Fatal("expected the overdue poll to be closed")
	}
	if len(messenger.messages) != 1 {
		t.Fatalf("expected a closing announcement, got %d messages", len(messenger.messages))
	}
	if messenger.cleared != 1 {
		t.Fatal("expected the poll message to be corrected")
	}
	if *renders != 1 {
		t.Fatalf("expected one forced render, got %d", *renders)
	}
}

func TestSweepActivatesScheduledPolls(t *testing.T) {
	h, polls, _, messenger, _ := newTestHandler()
	poll := testPoll(polls, func(poll *models.PollEntry) {
		poll.Active = false
		poll.Activation = testNow.Add(-time.Minute)
	})

	h.sweepOnce(testNow)

	saved := polls.get(poll.ID)
	if !saved.Active {
		t.Fatal("expected the scheduled poll to activate")
	}
	if len(messenger.messages) != 1 {
		t.Fatalf("expected an activation announcement, got %d messages", len(messenger.messages))
	}
	if messenger.embedsSent != 1 {
		t.Fatal("expected the poll message to be published")
	}
}

func TestSweepSkipsPollsNotYetDue(t *testing.T) {
	h, polls, _, messenger, _ := newTestHandler()
	testPoll(polls, func(poll *models.PollEntry) {
		poll.Deadline = testNow.Add(time.Hour)
	})
	testPoll(polls, func(poll *models.PollEntry) {
		poll.Label = "later"
		poll.MessageID = "message-2"
		poll.Active = false
		poll.Activation = testNow.Add(time.Hour)
	})

	h.sweepOnce(testNow)

	if len(messenger.messages) != 0 {
		t.Fatalf("expected no announcements, got %v", messenger.messages)
	}
}

func TestSweepCorrectsFlagsOnUnreachableGuilds(t *testing.T) {
	h, polls, _, messenger, _ := newTestHandler()
	messenger.unreachable = true
	poll := testPoll(polls, func(poll *models.PollEntry) {
		poll.Deadline = testNow.Add(-time.Minute)
	})

	h.sweepOnce(testNow)

	if polls.get(poll.ID).Open {
		t.Fatal("expected the flags to be corrected anyway")
	}
	if len(messenger.messages) != 0 {
		t.Fatal("expected no announcement without a reachable guild")
	}
}

func TestSweepHonorsTransitionCaps(t *testing.T) {
	h, polls, _, _, _ := newTestHandler()

	for i := 0; i < sweepCloseLimit+10; i++ {
		testPoll(polls, func(poll *models.PollEntry) {
			poll.Label = "poll" + strconv.Itoa(i)
			poll.MessageID = "message-" + strconv.Itoa(i)
			poll.Deadline = testNow.Add(-time.Minute)
		})
	}

	h.sweepOnce(testNow)

	stillOpen := 0
	for _, entry := range polls.polls {
		if entry.Open {
			stillOpen++
		}
	}
	if stillOpen != 10 {
		t.Fatalf("expected the cap to leave 10 polls for the next pass, got %d", stillOpen)
	}

	// the next pass catches the rest
	h.sweepOnce(testNow)
	for _, entry := range polls.polls {
		if entry.Open {
			t.Fatal("expected every overdue poll to be closed after two passes")
		}
	}
}
