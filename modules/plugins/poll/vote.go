package poll

import (
	"strings"
	"sync"
	"time"

	"github.com/tallybot/tallybot/helpers"
	"github.com/tallybot/tallybot/models"
)

// lockPoll serializes vote transactions per poll. Correctness of the
// vote rows comes from the store's upsert key, the lock only keeps the
// read-modify-write of limits and toggles from interleaving.
func (h *Handler) lockPoll(id string) {
	h.locksMutex.Lock()
	if _, ok := h.locks[id]; !ok {
		h.locks[id] = &sync.Mutex{}
	}
	lock := h.locks[id]
	h.locksMutex.Unlock()

	lock.Lock()
}

func (h *Handler) unlockPoll(id string) {
	h.locksMutex.Lock()
	lock := h.locks[id]
	h.locksMutex.Unlock()

	if lock != nil {
		lock.Unlock()
	}
}

// Vote handles one inbound "reaction added" event for a poll message.
// Stale events on closed or inactive polls are normal no-op outcomes,
// not errors.
func (h *Handler) Vote(poll *models.PollEntry, userID string, symbol string, messageID string) error {
	id := helpers.MdbIdToHuman(poll.ID)
	h.lockPoll(id)
	defer h.unlockPoll(id)

	now := h.now()
	if err := h.evaluateAndSave(poll, now); err != nil {
		return err
	}

	// a closed poll must never look votable, correct the message and bail
	if !poll.Open {
		h.correctClosedPoll(poll, messageID)
		return nil
	}
	if !poll.Active {
		return nil
	}

	choice, ok := EncodingFor(poll).ResolveChoice(symbol)
	if !ok {
		return nil
	}

	if !h.mayVote(poll, userID) {
		h.messenger.SendPrivateMessage(userID, helpers.GetTextF(
			"plugins.poll.vote.role-missing", strings.Join(poll.AllowedRoles, ", ")))
		return nil
	}

	weight := h.resolveWeight(poll, userID)

	userVotes, err := h.votes.VotesForUser(poll.ID, userID)
	if err != nil {
		return err
	}

	hasThisChoice := false
	for _, vote := range userVotes {
		if vote.Choice == choice {
			hasThisChoice = true
			break
		}
	}

	// In anonymous or hidden count polls the bot strips reactions right
	// after counting them, so the platform cannot tell a re-add from a
	// remove. A second click on the same option therefore means "undo".
	if poll.Anonymous || poll.HideCount {
		if hasThisChoice {
			if err := h.votes.Delete(poll.ID, userID, choice); err != nil {
				return err
			}
			h.messenger.SendPrivateMessage(userID, helpers.GetText("plugins.poll.vote.removed"))
			h.requestRefresh(poll, messageID, false)
			return nil
		}
	} else if hasThisChoice {
		// idempotent re-vote
		return nil
	}

	if poll.MultipleChoice > 0 && len(userVotes) >= poll.MultipleChoice {
		choices := make([]string, 0, len(userVotes))
		for _, vote := range userVotes {
			if vote.Choice < len(poll.Options) {
				choices = append(choices, poll.Options[vote.Choice])
			}
		}
		h.messenger.SendPrivateMessage(userID, helpers.GetTextF(
			"plugins.poll.vote.limit-reached", poll.MultipleChoice, strings.Join(choices, ", ")))
		return nil
	}

	answer := ""
	if isSurveyOption(poll, choice) {
		answer = h.surveyAnswer(poll, userID, choice)
	}

	err = h.votes.Upsert(models.VoteEntry{
		PollID: poll.ID,
		UserID: userID,
		Choice: choice,
		Weight: weight,
		Answer: answer,
	})
	if err != nil {
		return err
	}

	if poll.HideCount {
		// no public refresh while the count is hidden, only the voter learns
		h.messenger.SendPrivateMessage(userID, helpers.GetText("plugins.poll.vote.counted"))
		return nil
	}

	h.requestRefresh(poll, messageID, false)
	return nil
}

// Unvote handles one inbound "reaction removed" event for a poll message
func (h *Handler) Unvote(poll *models.PollEntry, userID string, symbol string, messageID string) error {
	id := helpers.MdbIdToHuman(poll.ID)
	h.lockPoll(id)
	defer h.unlockPoll(id)

	now := h.now()
	if err := h.evaluateAndSave(poll, now); err != nil {
		return err
	}

	if !poll.Open {
		h.correctClosedPoll(poll, messageID)
		return nil
	}
	if !poll.Active {
		return nil
	}

	choice, ok := EncodingFor(poll).ResolveChoice(symbol)
	if !ok {
		return nil
	}

	userVotes, err := h.votes.VotesForUser(poll.ID, userID)
	if err != nil {
		return err
	}
	found := false
	for _, vote := range userVotes {
		if vote.Choice == choice {
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	if err := h.votes.Delete(poll.ID, userID, choice); err != nil {
		return err
	}

	if poll.HideCount {
		if poll.Anonymous {
			h.messenger.SendPrivateMessage(userID, helpers.GetText("plugins.poll.vote.removed"))
		}
		return nil
	}

	h.requestRefresh(poll, messageID, false)
	return nil
}

// mayVote checks the poll's allowed role restriction
func (h *Handler) mayVote(poll *models.PollEntry, userID string) bool {
	if len(poll.AllowedRoles) == 0 {
		return true
	}
	for _, role := range poll.AllowedRoles {
		if strings.EqualFold(role, "@everyone") {
			return true
		}
	}

	roleNames, err := h.messenger.MemberRoleNames(poll.GuildID, userID)
	if err != nil {
		return false
	}

	for _, allowed := range poll.AllowedRoles {
		for _, name := range roleNames {
			if strings.EqualFold(allowed, name) {
				return true
			}
		}
	}
	return false
}

// resolveWeight picks the maximum configured weight among the roles the
// user holds, 1 when nothing matches
func (h *Handler) resolveWeight(poll *models.PollEntry, userID string) float64 {
	weight := 1.0
	if len(poll.WeightRoles) == 0 {
		return weight
	}

	roleNames, err := h.messenger.MemberRoleNames(poll.GuildID, userID)
	if err != nil {
		return weight
	}

	for i, weightRole := range poll.WeightRoles {
		if i >= len(poll.WeightNumbers) {
			break
		}
		for _, name := range roleNames {
			if strings.EqualFold(weightRole, name) && poll.WeightNumbers[i] > weight {
				weight = poll.WeightNumbers[i]
			}
		}
	}
	return weight
}

// correctClosedPoll forces the message of a closed poll back into shape,
// always the same policy: strip every reaction, re-render, re-seed the
// info and report affordances.
func (h *Handler) correctClosedPoll(poll *models.PollEntry, messageID string) {
	if messageID == "" {
		messageID = poll.MessageID
	}

	h.messenger.ClearReactions(poll.ChannelID, messageID)
	h.scheduler.Request(poll.ID, messageID, true)
	h.messenger.AddReaction(poll.ChannelID, messageID, infoReaction)
	h.messenger.AddReaction(poll.ChannelID, messageID, exportReaction)
}

func (h *Handler) requestRefresh(poll *models.PollEntry, messageID string, force bool) {
	if messageID == "" {
		messageID = poll.MessageID
	}
	h.scheduler.Request(poll.ID, messageID, force)
}

// markIgnoreRemoval records that the next reaction-removed event for
// (message, emoji, user) is the bot stripping its own echo and must not
// be treated as an unvote
func (h *Handler) markIgnoreRemoval(messageID string, emoji string, userID string) {
	h.ignoreMutex.Lock()
	h.ignoreRemovals[messageID+":"+emoji+":"+userID] = h.now().Add(30 * time.Second)
	h.ignoreMutex.Unlock()
}

func (h *Handler) consumeIgnoreRemoval(messageID string, emoji string, userID string) bool {
	key := messageID + ":" + emoji + ":" + userID

	h.ignoreMutex.Lock()
	defer h.ignoreMutex.Unlock()

	deadline, ok := h.ignoreRemovals[key]
	if ok {
		delete(h.ignoreRemovals, key)
	}

	// drop stale markers on the way through
	now := h.now()
	for k, d := range h.ignoreRemovals {
		if d.Before(now) {
			delete(h.ignoreRemovals, k)
		}
	}

	return ok && deadline.After(now)
}
