package poll

import (
	"io"

	"github.com/bwmarrin/discordgo"
	"github.com/tallybot/tallybot/cache"
	"github.com/tallybot/tallybot/helpers"
)

// Messenger is the outbound discord surface the poll engine needs.
// Everything going through it may fail without aborting a vote
// transaction.
type Messenger interface {
	SendMessage(channelID string, content string) error
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (messageID string, err error)
	EditEmbed(channelID string, messageID string, embed *discordgo.MessageEmbed) error
	SendPrivateMessage(userID string, content string) error
	SendPrivateFile(userID string, filename string, reader io.Reader, message string) error
	AddReaction(channelID string, messageID string, emoji string) error
	RemoveReaction(channelID string, messageID string, emoji string, userID string) error
	ClearReactions(channelID string, messageID string) error
	MemberRoleNames(guildID string, userID string) ([]string, error)
	UserName(userID string) string
	GuildReachable(guildID string) bool
}

type discordMessenger struct{}

func (m *discordMessenger) SendMessage(channelID string, content string) error {
	_, err := helpers.SendMessage(channelID, content)
	return err
}

func (m *discordMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	messages, err := helpers.SendEmbed(channelID, embed)
	if err != nil {
		return "", err
	}
	return messages[0].ID, nil
}

func (m *discordMessenger) EditEmbed(channelID string, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := helpers.EditEmbed(channelID, messageID, embed)
	return err
}

func (m *discordMessenger) SendPrivateMessage(userID string, content string) error {
	_, err := helpers.SendPrivateMessage(userID, content)
	return err
}

func (m *discordMessenger) SendPrivateFile(userID string, filename string, reader io.Reader, message string) error {
	_, err := helpers.SendPrivateFile(userID, filename, reader, message)
	return err
}

func (m *discordMessenger) AddReaction(channelID string, messageID string, emoji string) error {
	return cache.GetSession().MessageReactionAdd(channelID, messageID, emoji)
}

func (m *discordMessenger) RemoveReaction(channelID string, messageID string, emoji string, userID string) error {
	return cache.GetSession().MessageReactionRemove(channelID, messageID, emoji, userID)
}

func (m *discordMessenger) ClearReactions(channelID string, messageID string) error {
	return cache.GetSession().MessageReactionsRemoveAll(channelID, messageID)
}

func (m *discordMessenger) MemberRoleNames(guildID string, userID string) ([]string, error) {
	return helpers.MemberRoleNames(guildID, userID)
}

func (m *discordMessenger) UserName(userID string) string {
	user, err := helpers.GetUser(userID)
	if err != nil {
		return userID
	}
	return user.Username + "#" + user.Discriminator
}

func (m *discordMessenger) GuildReachable(guildID string) bool {
	_, err := helpers.GetGuild(guildID)
	return err == nil
}
