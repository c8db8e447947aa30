package modules

import (
	"github.com/tallybot/tallybot/modules/plugins"
	"github.com/tallybot/tallybot/modules/plugins/poll"
)

var (
	pluginCache         map[string]*Plugin
	extendedPluginCache map[string]*ExtendedPlugin

	PluginList = []Plugin{
		&plugins.About{},
		&plugins.Settings{},
	}

	PluginExtendedList = []ExtendedPlugin{
		&poll.Handler{},
	}
)
