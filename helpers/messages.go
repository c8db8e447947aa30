package helpers

import (
	"io"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/tallybot/tallybot/cache"
)

// maximum length of a single discord message
const messageCharacterLimit = 1950

// SendMessage sends $content to $channelID, splitting it into multiple
// messages if it exceeds the discord message length limit
func SendMessage(channelID string, content string) (messages []*discordgo.Message, err error) {
	for _, page := range Pagify(content) {
		message, err := cache.GetSession().ChannelMessageSend(channelID, page)
		if err != nil {
			return messages, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}

// SendComplex sends a MessageSend to $channelID
func SendComplex(channelID string, data *discordgo.MessageSend) (messages []*discordgo.Message, err error) {
	message, err := cache.GetSession().ChannelMessageSendComplex(channelID, data)
	if err != nil {
		return nil, err
	}

	return []*discordgo.Message{message}, nil
}

// SendEmbed sends an embed to $channelID
func SendEmbed(channelID string, embed *discordgo.MessageEmbed) (messages []*discordgo.Message, err error) {
	message, err := cache.GetSession().ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return nil, err
	}

	return []*discordgo.Message{message}, nil
}

// SendFile sends a file with an accompanying message to $channelID
func SendFile(channelID string, filename string, reader io.Reader, message string) (messages []*discordgo.Message, err error) {
	return SendComplex(channelID, &discordgo.MessageSend{
		Content: message,
		Files: []*discordgo.File{
			{
				Name:   filename,
				Reader: reader,
			},
		},
	})
}

// EditMessage replaces the content of $messageID in $channelID
func EditMessage(channelID string, messageID string, content string) (message *discordgo.Message, err error) {
	return cache.GetSession().ChannelMessageEdit(channelID, messageID, content)
}

// EditEmbed replaces the embed of $messageID in $channelID
func EditEmbed(channelID string, messageID string, embed *discordgo.MessageEmbed) (message *discordgo.Message, err error) {
	return cache.GetSession().ChannelMessageEditEmbed(channelID, messageID, embed)
}

// SendPrivateMessage DMs $content to $userID
func SendPrivateMessage(userID string, content string) (messages []*discordgo.Message, err error) {
	dmChannel, err := cache.GetSession().UserChannelCreate(userID)
	if err != nil {
		return nil, err
	}

	return SendMessage(dmChannel.ID, content)
}

// SendPrivateFile DMs a file to $userID
func SendPrivateFile(userID string, filename string, reader io.Reader, message string) (messages []*discordgo.Message, err error) {
	dmChannel, err := cache.GetSession().UserChannelCreate(userID)
	if err != nil {
		return nil, err
	}

	return SendFile(dmChannel.ID, filename, reader, message)
}

// GetChannel returns the channel from the state cache, falling back to the API
func GetChannel(channelID string) (*discordgo.Channel, error) {
	channel, err := cache.GetSession().State.Channel(channelID)
	if err == nil {
		return channel, nil
	}

	return cache.GetSession().Channel(channelID)
}

// GetGuild returns the guild from the state cache, falling back to the API
func GetGuild(guildID string) (*discordgo.Guild, error) {
	guild, err := cache.GetSession().State.Guild(guildID)
	if err == nil {
		return guild, nil
	}

	return cache.GetSession().Guild(guildID)
}

// GetGuildMember returns the member from the state cache, falling back to the API
func GetGuildMember(guildID string, userID string) (*discordgo.Member, error) {
	member, err := cache.GetSession().State.Member(guildID, userID)
	if err == nil {
		return member, nil
	}

	return cache.GetSession().GuildMember(guildID, userID)
}

// GetUser returns the user, preferring the state cache
func GetUser(userID string) (*discordgo.User, error) {
	for _, guild := range cache.GetSession().State.Guilds {
		member, err := cache.GetSession().State.Member(guild.ID, userID)
		if err == nil {
			return member.User, nil
		}
	}

	return cache.GetSession().User(userID)
}

// GetMessage fetches a message from the API
func GetMessage(channelID string, messageID string) (*discordgo.Message, error) {
	return cache.GetSession().ChannelMessage(channelID, messageID)
}

// Pagify splits $text into chunks that fit into single discord messages,
// preferring newline boundaries
func Pagify(text string) (pages []string) {
	for _, page := range strings.Split(text, "\n") {
		if len(pages) > 0 && len(pages[len(pages)-1])+len(page)+1 <= messageCharacterLimit {
			pages[len(pages)-1] += "\n" + page
			continue
		}

		for len(page) > messageCharacterLimit {
			pages = append(pages, page[:messageCharacterLimit])
			page = page[messageCharacterLimit:]
		}
		pages = append(pages, page)
	}

	return pages
}
