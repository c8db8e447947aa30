package poll

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/globalsign/mgo/bson"
	"github.com/tallybot/tallybot/cache"
	"github.com/tallybot/tallybot/helpers"
	"github.com/tallybot/tallybot/models"
)

const (
	infoReaction   = "❔"
	exportReaction = "📎"
)

// Handler is the poll plugin. It owns the vote transaction path, the
// refresh scheduler and the background sweeper.
type Handler struct {
	polls     PollStore
	votes     VoteStore
	messenger Messenger
	scheduler *RefreshScheduler
	replies   *replyRouter

	locks      map[string]*sync.Mutex
	locksMutex sync.Mutex

	ignoreRemovals map[string]time.Time
	ignoreMutex    sync.Mutex

	surveyTimeout time.Duration
	now           func() time.Time

	sweeperStop chan struct{}
}

func (h *Handler) Commands() []string {
	return []string{
		"poll",
		"quick",
		"new",
		"advanced",
		"prepare",
		"cmd",
		"show",
		"activate",
		"close",
		"delete",
		"copy",
		"export",
	}
}

func (h *Handler) Init(session *discordgo.Session) {
	h.polls = &mongoPollStore{}
	h.votes = &mongoVoteStore{}
	h.messenger = &discordMessenger{}
	h.replies = newReplyRouter()
	h.locks = make(map[string]*sync.Mutex)
	h.ignoreRemovals = make(map[string]time.Time)
	h.surveyTimeout = surveyTimeout
	h.now = time.Now

	h.scheduler = newRefreshScheduler(h.renderPoll)
	h.scheduler.Start()
	h.startSweeper()
}

func (h *Handler) Uninit(session *discordgo.Session) {
	h.stopSweeper()
	h.scheduler.Stop()
}

// renderPoll is the scheduler's render target: load fresh state, build
// the embed, push it to the message
func (h *Handler) renderPoll(pollID bson.ObjectId, messageID string) {
	defer helpers.Recover()

	var poll models.PollEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.PollsTable).Find(bson.M{"_id": pollID}),
		&poll,
	)
	if err != nil {
		if !helpers.IsMdbNotFound(err) {
			cache.GetLogger().WithField("module", "poll").Error("render failed to load poll: ", err.Error())
		}
		return
	}

	h.evaluateAndSave(&poll, h.now())

	votes, err := h.votes.AllVotes(poll.ID)
	if err != nil {
		cache.GetLogger().WithField("module", "poll").Error("render failed to load votes: ", err.Error())
		return
	}

	if messageID == "" {
		messageID = poll.MessageID
	}
	err = h.messenger.EditEmbed(poll.ChannelID, messageID, pollEmbed(&poll, votes))
	if err != nil {
		cache.GetLogger().WithField("module", "poll").Error("render failed to edit message: ", err.Error())
	}
}

// publishPoll posts a fresh poll message, seeds the reactions and
// remembers the new message as the poll's live view
func (h *Handler) publishPoll(poll *models.PollEntry) error {
	votes, err := h.votes.AllVotes(poll.ID)
	if err != nil {
		return err
	}

	messageID, err := h.messenger.SendEmbed(poll.ChannelID, pollEmbed(poll, votes))
	if err != nil {
		return err
	}

	poll.MessageID = messageID
	if err := h.polls.Save(poll); err != nil {
		return err
	}

	if poll.Active && poll.Open {
		encoding := EncodingFor(poll)
		for i := range poll.Options {
			h.messenger.AddReaction(poll.ChannelID, messageID, encoding.Symbol(i))
		}
	}
	h.messenger.AddReaction(poll.ChannelID, messageID, infoReaction)
	if !poll.Open {
		h.messenger.AddReaction(poll.ChannelID, messageID, exportReaction)
	}

	return nil
}

// OnMessage feeds direct message replies to waiting survey prompts
func (h *Handler) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	if err != nil || channel.Type != discordgo.ChannelTypeDM {
		return
	}

	h.replies.deliver(msg.Author.ID, content)
}

// OnReactionAdd is the inbound edge of the vote protocol
func (h *Handler) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
	if reaction.UserID == session.State.User.ID {
		return
	}

	poll, err := h.polls.ByMessageID(reaction.MessageID)
	if err != nil {
		cache.GetLogger().WithField("module", "poll").Error("reaction lookup failed: ", err.Error())
		return
	}
	if poll == nil {
		return
	}

	switch reaction.Emoji.Name {
	case infoReaction:
		h.sendPollInfo(poll, reaction.UserID)
		h.messenger.RemoveReaction(poll.ChannelID, reaction.MessageID, infoReaction, reaction.UserID)
		return
	case exportReaction:
		h.exportToUser(poll, reaction.UserID)
		h.messenger.RemoveReaction(poll.ChannelID, reaction.MessageID, exportReaction, reaction.UserID)
		return
	}

	err = h.Vote(poll, reaction.UserID, reaction.Emoji.Name, reaction.MessageID)
	if err != nil {
		cache.GetLogger().WithField("module", "poll").Error("vote transaction failed: ", err.Error())
		return
	}

	// in anonymous and hidden count polls the reaction is stripped right
	// away, the echoed removal event must not read as an unvote
	if poll.Open && poll.Active && (poll.Anonymous || poll.HideCount) {
		h.markIgnoreRemoval(reaction.MessageID, reaction.Emoji.Name, reaction.UserID)
		h.messenger.RemoveReaction(poll.ChannelID, reaction.MessageID, reaction.Emoji.Name, reaction.UserID)
	}
}

// OnReactionRemove is the inbound edge of the unvote protocol
func (h *Handler) OnReactionRemove(reaction *discordgo.MessageReactionRemove, session *discordgo.Session) {
	if reaction.UserID == session.State.User.ID {
		return
	}

	if h.consumeIgnoreRemoval(reaction.MessageID, reaction.Emoji.Name, reaction.UserID) {
		return
	}

	poll, err := h.polls.ByMessageID(reaction.MessageID)
	if err != nil || poll == nil {
		return
	}

	// anonymous and hidden count polls undo via the toggle rule instead,
	// their reactions are removed by the bot, not by voters
	if poll.Anonymous || poll.HideCount {
		return
	}

	err = h.Unvote(poll, reaction.UserID, reaction.Emoji.Name, reaction.MessageID)
	if err != nil {
		cache.GetLogger().WithField("module", "poll").Error("unvote transaction failed: ", err.Error())
	}
}

// sendPollInfo DMs the detailed poll summary behind the ❔ reaction
func (h *Handler) sendPollInfo(poll *models.PollEntry, userID string) {
	h.evaluateAndSave(poll, h.now())

	info := helpers.GetTextF("plugins.poll.info",
		poll.Question,
		poll.Label,
		len(poll.Options),
		multipleChoiceText(poll.MultipleChoice),
		onOff(poll.Anonymous),
		onOff(poll.HideCount),
		formatInstant(poll.Deadline, poll.DeadlineTz),
	)
	h.messenger.SendPrivateMessage(userID, info)
}

func multipleChoiceText(limit int) string {
	if limit == 0 {
		return helpers.GetText("plugins.poll.info.unlimited")
	}
	return helpers.GetTextF("plugins.poll.info.up-to", limit)
}

func onOff(flag bool) string {
	if flag {
		return helpers.GetText("plugins.poll.info.yes")
	}
	return helpers.GetText("plugins.poll.info.no")
}
