package plugins

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/tallybot/tallybot/helpers"
)

// Settings manages the per guild bot configuration: the command prefix
// and the two poll permission roles.
type Settings struct{}

func (s *Settings) Commands() []string {
	return []string{
		"prefix",
		"polladmin",
		"polluser",
	}
}

func (s *Settings) Init(session *discordgo.Session) {
}

func (s *Settings) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	defer helpers.Recover()

	channel, err := helpers.GetChannel(msg.ChannelID)
	if err != nil || channel.GuildID == "" {
		return
	}
	guildID := channel.GuildID

	content = strings.TrimSpace(content)
	settings := helpers.GuildSettingsGetCached(guildID)

	switch command {
	case "prefix":
		if content == "" {
			helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.settings.prefix.is", settings.Prefix))
			return
		}
		helpers.RequireAdmin(msg, func() {
			helpers.Relax(helpers.SetPrefixForServer(guildID, content))
			helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.settings.prefix.saved", content))
		})
	case "polladmin":
		if content == "" {
			helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.settings.polladmin.is", settings.AdminRole))
			return
		}
		helpers.RequireAdmin(msg, func() {
			if !roleExists(guildID, content) {
				helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.settings.role-not-found", content))
				return
			}
			settings.AdminRole = content
			helpers.Relax(helpers.GuildSettingsSet(guildID, settings))
			helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.settings.polladmin.saved", content))
		})
	case "polluser":
		if content == "" {
			helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.settings.polluser.is", settings.UserRole))
			return
		}
		helpers.RequireAdmin(msg, func() {
			if !roleExists(guildID, content) {
				helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.settings.role-not-found", content))
				return
			}
			settings.UserRole = content
			helpers.Relax(helpers.GuildSettingsSet(guildID, settings))
			helpers.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.settings.polluser.saved", content))
		})
	}
}

func roleExists(guildID string, roleName string) bool {
	guild, err := helpers.GetGuild(guildID)
	if err != nil {
		return false
	}

	for _, role := range guild.Roles {
		if strings.EqualFold(role.Name, roleName) {
			return true
		}
	}
	return false
}
