package helpers

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tallybot/tallybot/cache"
)

// IsBotAdmin checks if $id is listed as a bot operator in the config
func IsBotAdmin(id string) bool {
	admins, err := GetConfig().Path("discord.admins").Children()
	if err != nil {
		return false
	}

	for _, admin := range admins {
		if adminID, ok := admin.Data().(string); ok && adminID == id {
			return true
		}
	}

	return false
}

// IsAdmin checks if the message author is the guild owner, a bot operator,
// or holds a role with the administrator or manage server permission
func IsAdmin(msg *discordgo.Message) bool {
	channel, e := GetChannel(msg.ChannelID)
	if e != nil {
		return false
	}

	guild, e := GetGuild(channel.GuildID)
	if e != nil {
		return false
	}

	if msg.Author.ID == guild.OwnerID || IsBotAdmin(msg.Author.ID) {
		return true
	}

	guildMember, e := GetGuildMember(guild.ID, msg.Author.ID)
	if e != nil {
		return false
	}
	for _, role := range guild.Roles {
		for _, userRole := range guildMember.Roles {
			if userRole == role.ID &&
				(role.Permissions&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator ||
					role.Permissions&discordgo.PermissionManageServer == discordgo.PermissionManageServer) {
				return true
			}
		}
	}

	return false
}

// HasRoleByName checks if the user holds a role called $roleName on $guildID
func HasRoleByName(guildID string, userID string, roleName string) bool {
	if roleName == "" {
		return false
	}

	guild, err := GetGuild(guildID)
	if err != nil {
		return false
	}

	member, err := GetGuildMember(guildID, userID)
	if err != nil {
		return false
	}

	for _, role := range guild.Roles {
		if !strings.EqualFold(role.Name, roleName) {
			continue
		}
		for _, userRole := range member.Roles {
			if userRole == role.ID {
				return true
			}
		}
	}

	return false
}

// MemberRoleNames resolves the names of all roles the user holds on $guildID
func MemberRoleNames(guildID string, userID string) ([]string, error) {
	guild, err := GetGuild(guildID)
	if err != nil {
		return nil, err
	}

	member, err := GetGuildMember(guildID, userID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(member.Roles))
	for _, userRole := range member.Roles {
		for _, role := range guild.Roles {
			if role.ID == userRole {
				names = append(names, role.Name)
				break
			}
		}
	}

	return names, nil
}

// RequireAdmin only calls $cb if the author is an admin or has MANAGE_SERVER permission
func RequireAdmin(msg *discordgo.Message, cb Callback) {
	if !IsAdmin(msg) {
		SendMessage(msg.ChannelID, GetText("admin.no_permission"))
		return
	}

	cb()
}

// ConfirmEmbed posts a confirmation embed and waits for the author to react
func ConfirmEmbed(channelID string, author *discordgo.User, confirmMessageText string, confirmEmojiID string, abortEmojiID string) bool {
	// send embed asking the user to confirm
	confirmMessage, err := cache.GetSession().ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       GetTextF("bot.embeds.please-confirm-title", author.Username),
		Description: confirmMessageText,
	})
	if err != nil {
		SendMessage(channelID, GetTextF("bot.errors.general", err.Error()))
		return false
	}

	// delete embed after everything is done
	defer cache.GetSession().ChannelMessageDelete(confirmMessage.ChannelID, confirmMessage.ID)

	// add default reactions to embed
	cache.GetSession().MessageReactionAdd(confirmMessage.ChannelID, confirmMessage.ID, confirmEmojiID)
	cache.GetSession().MessageReactionAdd(confirmMessage.ChannelID, confirmMessage.ID, abortEmojiID)

	// check every second if a reaction has been clicked
	for i := 0; i < 60; i++ {
		confirms, _ := cache.GetSession().MessageReactions(confirmMessage.ChannelID, confirmMessage.ID, confirmEmojiID, 100)
		for _, confirm := range confirms {
			if confirm.ID == author.ID {
				// user has confirmed the call
				return true
			}
		}
		aborts, _ := cache.GetSession().MessageReactions(confirmMessage.ChannelID, confirmMessage.ID, abortEmojiID, 100)
		for _, abort := range aborts {
			if abort.ID == author.ID {
				// User has aborted the call
				return false
			}
		}

		time.Sleep(1 * time.Second)
	}

	return false
}
