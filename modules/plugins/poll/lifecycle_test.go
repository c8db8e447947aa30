package poll

import (
	"testing"
	"time"

	"github.com/tallybot/tallybot/models"
)

func TestEvaluateClosesAtDeadline(t *testing.T) {
	poll := &models.PollEntry{
		Open:     true,
		Active:   true,
		Deadline: testNow.Add(-time.Minute),
	}

	if !Evaluate(poll, testNow) {
		t.Fatal("expected the record to go dirty")
	}
	if poll.Open {
		t.Fatal("expected the poll to close")
	}
}

func TestEvaluateExactDeadlineCloses(t *testing.T) {
	poll := &models.PollEntry{
		Open:     true,
		Active:   true,
		Deadline: testNow,
	}

	if !Evaluate(poll, testNow) {
		t.Fatal("expected the deadline instant itself to close the poll")
	}
}

func TestEvaluateFutureDeadlineStaysOpen(t *testing.T) {
	poll := &models.PollEntry{
		Open:     true,
		Active:   true,
		Deadline: testNow.Add(time.Hour),
	}

	if Evaluate(poll, testNow) {
		t.Fatal("expected no change")
	}
	if !poll.Open {
		t.Fatal("expected the poll to stay open")
	}
}

func TestEvaluateWithoutDeadlineStaysOpen(t *testing.T) {
	poll := &models.PollEntry{Open: true, Active: true}

	if Evaluate(poll, testNow) {
		t.Fatal("expected no change for a poll without deadline")
	}
}

func TestEvaluateActivates(t *testing.T) {
	poll := &models.PollEntry{
		Open:       true,
		Active:     false,
		Activation: testNow.Add(-time.Minute),
	}

	if !Evaluate(poll, testNow) {
		t.Fatal("expected the record to go dirty")
	}
	if !poll.Active {
		t.Fatal("expected the poll to activate")
	}
}

func TestEvaluatePreparedPollStaysInactive(t *testing.T) {
	poll := &models.PollEntry{Open: true, Active: false}

	if Evaluate(poll, testNow) {
		t.Fatal("expected no change for a poll without activation time")
	}
	if poll.Active {
		t.Fatal("expected the poll to stay inactive")
	}
}

func TestEvaluateActivatesAndClosesInOnePass(t *testing.T) {
	// both instants long past, e.g. the bot was down for a while
	poll := &models.PollEntry{
		Open:       true,
		Active:     false,
		Activation: testNow.Add(-2 * time.Hour),
		Deadline:   testNow.Add(-time.Hour),
	}

	if !Evaluate(poll, testNow) {
		t.Fatal("expected the record to go dirty")
	}
	if !poll.Active || poll.Open {
		t.Fatalf("expected active and closed, got active=%t open=%t", poll.Active, poll.Open)
	}
}

func TestEvaluateAndSavePersistsDirtyRecords(t *testing.T) {
	h, polls, _, _, _ := newTestHandler()
	poll := testPoll(polls, func(poll *models.PollEntry) {
		poll.Deadline = testNow.Add(-time.Minute)
	})
	savesBefore := polls.saves

	if err := h.evaluateAndSave(poll, testNow); err != nil {
		t.Fatal(err)
	}

	if polls.saves != savesBefore+1 {
		t.Fatal("expected the dirty record to be saved")
	}
	if polls.get(poll.ID).Open {
		t.Fatal("expected the stored record to be closed")
	}

	// a clean record does not touch the store
	if err := h.evaluateAndSave(poll, testNow); err != nil {
		t.Fatal(err)
	}
	if polls.saves != savesBefore+1 {
		t.Fatal("expected no save for a clean record")
	}
}
