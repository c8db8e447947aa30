package poll

import (
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/renstrom/fuzzysearch/fuzzy"
	"github.com/tallybot/tallybot/helpers"
	"github.com/tallybot/tallybot/models"
)

func (h *Handler) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	defer helpers.Recover()

	channel, err := helpers.GetChannel(msg.ChannelID)
	if err != nil || channel.GuildID == "" {
		return
	}
	guildID := channel.GuildID

	// "poll <subcommand> ..." is the spelled out form of the bare commands
	if command == "poll" {
		fields := strings.Fields(content)
		if len(fields) == 0 {
			h.actionShow(guildID, "", msg)
			return
		}
		command = fields[0]
		content = strings.TrimSpace(strings.TrimPrefix(content, fields[0]))
	}

	switch command {
	case "quick":
		h.actionQuick(guildID, content, msg)
	case "new", "advanced", "cmd":
		h.actionNew(guildID, content, msg, false)
	case "prepare":
		h.actionNew(guildID, content, msg, true)
	case "show":
		h.actionShow(guildID, content, msg)
	case "activate":
		h.actionActivate(guildID, content, msg)
	case "close":
		h.actionClose(guildID, content, msg)
	case "delete":
		h.actionDelete(guildID, content, msg)
	case "copy":
		h.actionCopy(guildID, content, msg)
	case "export":
		h.actionExport(guildID, content, msg)
	default:
		helpers.SendMessage(msg.ChannelID, helpers.GetText("bot.arguments.invalid"))
	}
}

// mayCreatePolls allows admins and holders of the configured roles
func (h *Handler) mayCreatePolls(guildID string, msg *discordgo.Message) bool {
	if helpers.IsAdmin(msg) {
		return true
	}

	settings := helpers.GuildSettingsGetCached(guildID)
	return helpers.HasRoleByName(guildID, msg.Author.ID, settings.AdminRole) ||
		helpers.HasRoleByName(guildID, msg.Author.ID, settings.UserRole)
}

// mayManagePoll allows admins, the poll admin role, and authors on
// their own polls
func (h *Handler) mayManagePoll(poll *models.PollEntry, msg *discordgo.Message) bool {
	if helpers.IsAdmin(msg) {
		return true
	}

	settings := helpers.GuildSettingsGetCached(poll.GuildID)
	if helpers.HasRoleByName(poll.GuildID, msg.Author.ID, settings.AdminRole) {
		return true
	}

	return poll.AuthorID == msg.Author.ID && h.mayCreatePolls(poll.GuildID, msg)
}

func (h *Handler) actionQuick(guildID string, content string, msg *discordgo.Message) {
	if !h.mayCreatePolls(guildID, msg) {
		helpers.SendMessage(msg.ChannelID, helpers.GetText("plugins.poll.no-permission"))
		return
	}

	question := strings.TrimSpace(content)
	if err := validateQuestion(question); err != nil {
		helpers.SendMessage(msg.ChannelID, err.Error())
		return
	}

	preset := optionPresets["1"]
	poll := &models.PollEntry{
		GuildID:        guildID,
		ChannelID:      msg.ChannelID,
		AuthorID:       msg.Author.ID,
		Label:          h.autoLabel(guildID, question),
		Question:       question,
		Options:        preset.options,
		OptionsPreset:  true,
		MultipleChoice: 1,
		CreatedAt:      h.now(),
		Open:           true,
		Active:         true,
	}

	if err := h.polls.Insert(poll); err != nil {
		helpers.SendError(msg, err)
		return
	}
	helpers.Relax(h.publishPoll(poll))
}

func (h *Handler) actionNew(guildID string, content string, msg *discordgo.Message, prepared bool) {
	if !h.mayCreatePolls(guildID, msg) {
		helpers.SendMessage(msg.ChannelID, helpers.GetText("plugins.poll.no-permission"))
		return
	}

	poll, err := h.parseFlags(guildID, content, h.now())
	if err != nil {
		helpers.SendMessage(msg.ChannelID, err.Error())
		return
	}

	poll.ChannelID = msg.ChannelID
	poll.AuthorID = msg.Author.ID
	if prepared {
		poll.Active = false
	}

	if err := h.polls.Insert(poll); err != nil {
		helpers.SendError(msg, err)
		return
	}

	if !poll.Active && poll.Activation.IsZero() {
		// prepared poll, nothing posted until it is activated
		helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.poll.prepared", poll.Label))
		return
	}

	helpers.Relax(h.publishPoll(poll))
}

func (h *Handler) actionShow(guildID string, content string, msg *discordgo.Message) {
	filter := strings.ToLower(strings.TrimSpace(content))

	if filter == "" || filter == "open" || filter == "closed" || filter == "prepared" {
		if filter == "" {
			filter = "open"
		}
		h.listPolls(guildID, filter, msg)
		return
	}

	poll := h.pollByLabelOrSuggest(guildID, filter, msg)
	if poll == nil {
		return
	}

	h.evaluateAndSave(poll, h.now())
	if !poll.Active && !h.mayManagePoll(poll, msg) {
		helpers.SendMessage(msg.ChannelID, helpers.GetText("plugins.poll.not-active"))
		return
	}

	poll.ChannelID = msg.ChannelID
	helpers.Relax(h.publishPoll(poll))
}

func (h *Handler) listPolls(guildID string, filter string, msg *discordgo.Message) {
	entries, err := h.polls.ByGuild(guildID)
	if err != nil {
		helpers.SendError(msg, err)
		return
	}

	now := h.now()
	var lines []string
	for i := range entries {
		entry := &entries[i]
		h.evaluateAndSave(entry, now)

		switch filter {
		case "open":
			if !entry.Open || !entry.Active {
				continue
			}
		case "closed":
			if entry.Open {
				continue
			}
		case "prepared":
			if entry.Active {
				continue
			}
			if !h.mayManagePoll(entry, msg) {
				continue
			}
		}

		lines = append(lines, "**"+entry.Label+"**: "+entry.Question)
	}

	if len(lines) == 0 {
		helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.poll.list-empty", filter))
		return
	}

	helpers.SendMessage(msg.ChannelID, strings.Join(lines, "\n"))
}

func (h *Handler) actionActivate(guildID string, content string, msg *discordgo.Message) {
	poll := h.managedPoll(guildID, content, msg)
	if poll == nil {
		return
	}

	if poll.Active {
		helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.poll.already-active", poll.Label))
		return
	}

	poll.Active = true
	poll.ChannelID = msg.ChannelID
	if err := h.polls.Save(poll); err != nil {
		helpers.SendError(msg, err)
		return
	}

	helpers.Relax(h.publishPoll(poll))
}

func (h *Handler) actionClose(guildID string, content string, msg *discordgo.Message) {
	poll := h.managedPoll(guildID, content, msg)
	if poll == nil {
		return
	}

	if !poll.Open {
		helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.poll.already-closed", poll.Label))
		return
	}

	poll.Open = false
	if err := h.polls.Save(poll); err != nil {
		helpers.SendError(msg, err)
		return
	}

	helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.poll.closed", poll.Label))
	h.correctClosedPoll(poll, poll.MessageID)
}

func (h *Handler) actionDelete(guildID string, content string, msg *discordgo.Message) {
	poll := h.managedPoll(guildID, content, msg)
	if poll == nil {
		return
	}

	if !helpers.ConfirmEmbed(msg.ChannelID, msg.Author,
		helpers.GetTextF("plugins.poll.delete-confirm", poll.Label), "✅", "🚫") {
		return
	}

	// votes are cleaned up by the deleting operation, not by cascade
	if err := h.votes.DeleteAll(poll.ID); err != nil {
		helpers.SendError(msg, err)
		return
	}
	if err := h.polls.Delete(poll.ID); err != nil {
		helpers.SendError(msg, err)
		return
	}
	h.scheduler.Forget(poll.ID)

	helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.poll.deleted", poll.Label))
}

func (h *Handler) actionCopy(guildID string, content string, msg *discordgo.Message) {
	fields := strings.Fields(content)
	if len(fields) != 2 {
		helpers.SendMessage(msg.ChannelID, helpers.GetText("bot.arguments.too-few"))
		return
	}

	poll := h.pollByLabelOrSuggest(guildID, strings.ToLower(fields[0]), msg)
	if poll == nil {
		return
	}
	if !h.mayCreatePolls(guildID, msg) {
		helpers.SendMessage(msg.ChannelID, helpers.GetText("plugins.poll.no-permission"))
		return
	}

	newLabel := strings.ToLower(fields[1])
	err := validateLabel(newLabel, func(label string) bool {
		existing, lookupErr := h.polls.ByLabel(guildID, label)
		return lookupErr == nil && existing != nil
	})
	if err != nil {
		helpers.SendMessage(msg.ChannelID, err.Error())
		return
	}

	clone := *poll
	clone.ID = ""
	clone.Label = newLabel
	clone.AuthorID = msg.Author.ID
	clone.ChannelID = msg.ChannelID
	clone.MessageID = ""
	clone.CreatedAt = h.now()
	clone.Open = true
	clone.Active = false

	if err := h.polls.Insert(&clone); err != nil {
		helpers.SendError(msg, err)
		return
	}

	helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.poll.copied", poll.Label, clone.Label))
}

func (h *Handler) actionExport(guildID string, content string, msg *discordgo.Message) {
	poll := h.managedPoll(guildID, content, msg)
	if poll == nil {
		return
	}

	if err := h.exportToUser(poll, msg.Author.ID); err != nil {
		helpers.SendError(msg, err)
		return
	}
}

// managedPoll loads a poll by label and checks management rights
func (h *Handler) managedPoll(guildID string, content string, msg *discordgo.Message) *models.PollEntry {
	label := strings.ToLower(strings.TrimSpace(content))
	if label == "" {
		helpers.SendMessage(msg.ChannelID, helpers.GetText("bot.arguments.too-few"))
		return nil
	}

	poll := h.pollByLabelOrSuggest(guildID, label, msg)
	if poll == nil {
		return nil
	}

	if !h.mayManagePoll(poll, msg) {
		helpers.SendMessage(msg.ChannelID, helpers.GetText("plugins.poll.no-permission"))
		return nil
	}

	h.evaluateAndSave(poll, h.now())
	return poll
}

// pollByLabelOrSuggest resolves a label, offering close matches when
// nothing fits exactly
func (h *Handler) pollByLabelOrSuggest(guildID string, label string, msg *discordgo.Message) *models.PollEntry {
	poll, err := h.polls.ByLabel(guildID, label)
	if err != nil {
		helpers.SendError(msg, err)
		return nil
	}
	if poll != nil {
		return poll
	}

	entries, err := h.polls.ByGuild(guildID)
	if err == nil && len(entries) > 0 {
		labels := make([]string, 0, len(entries))
		for _, entry := range entries {
			labels = append(labels, entry.Label)
		}
		if matches := fuzzy.RankFindFold(label, labels); len(matches) > 0 {
			sort.Sort(matches)
			helpers.SendMessage(msg.ChannelID, helpers.GetTextF(
				"plugins.poll.label-suggest", label, matches[0].Target))
			return nil
		}
	}

	helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.poll.label-not-found", label))
	return nil
}
