package poll

import (
	"time"

	"github.com/tallybot/tallybot/cache"
	"github.com/tallybot/tallybot/helpers"
	"github.com/tallybot/tallybot/models"
)

const (
	sweepInterval = 30 * time.Second

	// transition caps per tick, keeps the outbound API sane after the
	// bot was down for a while and a backlog of overdue polls piled up
	sweepCloseLimit    = 30
	sweepActivateLimit = 10
)

// startSweeper runs the periodic catch-up pass that closes and
// activates overdue polls even when no vote event ever arrives for
// them. Errors on single polls never end the loop.
func (h *Handler) startSweeper() {
	h.sweeperStop = make(chan struct{})

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				h.sweepOnce(h.now())
			case <-h.sweeperStop:
				return
			}
		}
	}()
}

func (h *Handler) stopSweeper() {
	if h.sweeperStop != nil {
		close(h.sweeperStop)
		h.sweeperStop = nil
	}
}

func (h *Handler) sweepOnce(now time.Time) {
	defer helpers.Recover()

	log := cache.GetLogger().WithField("module", "poll")

	overdue, err := h.polls.OverdueOpen(now, sweepCloseLimit)
	if err != nil {
		log.Error("sweeper failed to query overdue polls: ", err.Error())
	}
	for i := range overdue {
		h.sweepClose(&overdue[i], now)
	}

	pending, err := h.polls.PendingActivation(now, sweepActivateLimit)
	if err != nil {
		log.Error("sweeper failed to query pending activations: ", err.Error())
	}
	for i := range pending {
		h.sweepActivate(&pending[i], now)
	}
}

func (h *Handler) sweepClose(poll *models.PollEntry, now time.Time) {
	defer helpers.Recover()

	id := helpers.MdbIdToHuman(poll.ID)
	h.lockPoll(id)
	defer h.unlockPoll(id)

	if !Evaluate(poll, now) || poll.Open {
		return
	}
	if err := h.polls.Save(poll); err != nil {
		cache.GetLogger().WithField("module", "poll").Error("sweeper failed to close poll "+poll.Label+": ", err.Error())
		return
	}

	// bot kicked from the guild, flags are corrected but nobody to tell
	if !h.messenger.GuildReachable(poll.GuildID) {
		return
	}

	h.messenger.SendMessage(poll.ChannelID, helpers.GetTextF("plugins.poll.sweeper.closed", poll.Label))
	h.correctClosedPoll(poll, poll.MessageID)
}

func (h *Handler) sweepActivate(poll *models.PollEntry, now time.Time) {
	defer helpers.Recover()

	id := helpers.MdbIdToHuman(poll.ID)
	h.lockPoll(id)
	defer h.unlockPoll(id)

	if !Evaluate(poll, now) || !poll.Active {
		return
	}
	if err := h.polls.Save(poll); err != nil {
		cache.GetLogger().WithField("module", "poll").Error("sweeper failed to activate poll "+poll.Label+": ", err.Error())
		return
	}

	if !h.messenger.GuildReachable(poll.GuildID) {
		return
	}

	h.messenger.SendMessage(poll.ChannelID, helpers.GetTextF("plugins.poll.sweeper.activated", poll.Label))
	h.publishPoll(poll)
}
