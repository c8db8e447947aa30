package plugins

import (
	"github.com/bwmarrin/discordgo"
	"github.com/tallybot/tallybot/helpers"
)

type About struct{}

func (a *About) Commands() []string {
	return []string{
		"about",
		"invite",
	}
}

func (a *About) Init(session *discordgo.Session) {
}

func (a *About) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	defer helpers.Recover()

	switch command {
	case "invite":
		helpers.SendMessage(msg.ChannelID, helpers.GetTextF(
			"plugins.about.invite",
			helpers.GetConfig().Path("discord.id").Data().(string),
			helpers.GetConfig().Path("discord.perms").Data().(string),
		))
	default:
		helpers.SendMessage(msg.ChannelID, helpers.GetText("plugins.about.text"))
	}
}
