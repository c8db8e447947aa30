package models

import (
	"github.com/globalsign/mgo/bson"
)

const (
	VotesTable MongoDbCollection = "votes"
)

// VoteEntry is one (user, option) selection within a poll.
// At most one entry exists per (PollID, UserID, Choice).
type VoteEntry struct {
	ID     bson.ObjectId `bson:"_id,omitempty"`
	PollID bson.ObjectId
	UserID string
	Choice int
	Weight float64
	Answer string // free text for survey options, empty otherwise
}
