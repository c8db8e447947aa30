package models

import (
	"github.com/globalsign/mgo/bson"
)

const (
	GuildConfigTable MongoDbCollection = "guild_configs"
)

// Config are the per guild bot settings
type Config struct {
	ID      bson.ObjectId `bson:"_id,omitempty"`
	GuildID string

	Prefix string

	// members with the admin role manage all polls,
	// members with the user role manage their own polls
	AdminRole string
	UserRole  string
}

func (c Config) Default(guild string) Config {
	return Config{
		GuildID: guild,

		Prefix: "pm!",

		AdminRole: "polladmin",
		UserRole:  "polluser",
	}
}
