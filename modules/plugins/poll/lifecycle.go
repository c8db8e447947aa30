package poll

import (
	"time"

	"github.com/tallybot/tallybot/models"
)

// Evaluate brings a poll's lifecycle flags up to date for $now and
// reports whether the record changed. Deadlines are stored as absolute
// instants, the Tz fields only carry the display offset, so comparison
// is a plain instant check.
//
// Every code path that reads poll state for display or permission
// decisions runs through this before using the flags, there is no
// per poll timer.
func Evaluate(poll *models.PollEntry, now time.Time) (dirty bool) {
	if !poll.Active && !poll.Activation.IsZero() && !now.Before(poll.Activation) {
		poll.Active = true
		dirty = true
	}

	if poll.Open && !poll.Deadline.IsZero() && !now.Before(poll.Deadline) {
		poll.Open = false
		dirty = true
	}

	return dirty
}

// evaluateAndSave runs Evaluate and persists the record when it went
// dirty, so no caller ever acts on stale flags. When the guild is no
// longer reachable the flags are still written back, just without any
// notification attempt.
func (h *Handler) evaluateAndSave(poll *models.PollEntry, now time.Time) error {
	if !Evaluate(poll, now) {
		return nil
	}

	return h.polls.Save(poll)
}
