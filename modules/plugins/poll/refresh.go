package poll

import (
	"sync"
	"time"

	"github.com/globalsign/mgo/bson"
)

const refreshCooldown = 5 * time.Second

// renderFunc pushes the current state of a poll to its discord message
type renderFunc func(pollID bson.ObjectId, messageID string)

// RefreshScheduler coalesces render requests per poll. The first
// request in a window renders immediately and blocks the poll for the
// cooldown, later requests only park their message in the pending slot
// (latest wins). A ticker flushes expired windows with exactly one
// trailing render, so after the last vote at most one cooldown passes
// before the message matches the store.
type RefreshScheduler struct {
	mu           sync.Mutex
	blockedUntil map[bson.ObjectId]time.Time
	pending      map[bson.ObjectId]string

	cooldown time.Duration
	render   renderFunc
	now      func() time.Time
	stop     chan struct{}
}

func newRefreshScheduler(render renderFunc) *RefreshScheduler {
	return &RefreshScheduler{
		blockedUntil: make(map[bson.ObjectId]time.Time),
		pending:      make(map[bson.ObjectId]string),
		cooldown:     refreshCooldown,
		render:       render,
		now:          time.Now,
	}
}

// Request asks for a re-render of the poll's message. force bypasses
// the throttle, used when a closed poll has to be corrected right away.
func (s *RefreshScheduler) Request(pollID bson.ObjectId, messageID string, force bool) {
	now := s.now()

	s.mu.Lock()
	if !force {
		if until, ok := s.blockedUntil[pollID]; ok && until.After(now) {
			// window still running, park the request
			s.pending[pollID] = messageID
			s.mu.Unlock()
			return
		}
	}
	s.blockedUntil[pollID] = now.Add(s.cooldown)
	delete(s.pending, pollID)
	s.mu.Unlock()

	// render outside the lock, it does I/O
	s.render(pollID, messageID)
}

// flushExpired performs the trailing edge renders for all polls whose
// window has passed and clears their throttle state.
func (s *RefreshScheduler) flushExpired() {
	now := s.now()

	type flush struct {
		pollID    bson.ObjectId
		messageID string
	}
	var due []flush

	s.mu.Lock()
	for pollID, until := range s.blockedUntil {
		if until.After(now) {
			continue
		}
		if messageID, ok := s.pending[pollID]; ok {
			due = append(due, flush{pollID: pollID, messageID: messageID})
		}
		delete(s.blockedUntil, pollID)
		delete(s.pending, pollID)
	}
	s.mu.Unlock()

	for _, f := range due {
		s.render(f.pollID, f.messageID)
	}
}

// Forget drops all throttle state for a poll, used on poll deletion
func (s *RefreshScheduler) Forget(pollID bson.ObjectId) {
	s.mu.Lock()
	delete(s.blockedUntil, pollID)
	delete(s.pending, pollID)
	s.mu.Unlock()
}

// Start runs the trailing edge ticker until Stop is called
func (s *RefreshScheduler) Start() {
	s.stop = make(chan struct{})

	go func() {
		ticker := time.NewTicker(s.cooldown)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.flushExpired()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *RefreshScheduler) Stop() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
