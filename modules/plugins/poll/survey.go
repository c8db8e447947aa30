package poll

import (
	"strings"
	"sync"
	"time"

	"github.com/tallybot/tallybot/helpers"
	"github.com/tallybot/tallybot/models"
)

const (
	surveyTimeout       = 10 * time.Minute
	surveyFallbackReply = "No Answer"
)

// replyRouter hands inbound direct messages to the transaction waiting
// for them. One waiter per user, a newer prompt replaces the older one.
type replyRouter struct {
	mu      sync.Mutex
	waiters map[string]chan string
}

func newReplyRouter() *replyRouter {
	return &replyRouter{waiters: make(map[string]chan string)}
}

// await blocks until the user's next reply arrives or the timeout hits
func (r *replyRouter) await(userID string, timeout time.Duration) (string, bool) {
	ch := make(chan string, 1)

	r.mu.Lock()
	r.waiters[userID] = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.waiters[userID] == ch {
			delete(r.waiters, userID)
		}
		r.mu.Unlock()
	}()

	select {
	case reply := <-ch:
		return reply, true
	case <-time.After(timeout):
		return "", false
	}
}

// deliver routes a reply to a pending waiter, reports whether one took it
func (r *replyRouter) deliver(userID string, content string) bool {
	r.mu.Lock()
	ch, ok := r.waiters[userID]
	if ok {
		delete(r.waiters, userID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	ch <- content
	return true
}

// surveyAnswer prompts the voter for the free text answer of a survey
// option. A timeout or empty reply yields the fallback placeholder,
// the vote itself is never lost because the prompt failed.
func (h *Handler) surveyAnswer(poll *models.PollEntry, userID string, choice int) string {
	err := h.messenger.SendPrivateMessage(userID, helpers.GetTextF(
		"plugins.poll.survey.prompt", poll.Options[choice], poll.Question))
	if err != nil {
		// DMs closed, vote with the placeholder
		return surveyFallbackReply
	}

	answer, ok := h.replies.await(userID, h.surveyTimeout)
	answer = strings.TrimSpace(answer)
	if !ok || answer == "" {
		return surveyFallbackReply
	}

	if len(answer) > 1000 {
		answer = answer[:1000]
	}
	return answer
}
