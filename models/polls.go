package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	PollsTable MongoDbCollection = "polls"
)

// PollEntry is the full configuration and lifecycle state of one poll.
// The label is unique per guild while the poll exists, the ObjectId is
// the stable identity votes are keyed on.
type PollEntry struct {
	ID        bson.ObjectId `bson:"_id,omitempty"`
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string

	Label    string
	Question string

	Options          []string
	OptionsPreset    bool  // options are one of the canonical preset sets
	OptionsEmojiOnly bool  // every option is a single native emoji
	SurveyFlags      []int // option indexes that solicit a free text answer

	Anonymous      bool
	HideCount      bool
	MultipleChoice int // 0 = unlimited, 1 = single choice, N = up to N

	AllowedRoles  []string
	WeightRoles   []string
	WeightNumbers []float64

	CreatedAt time.Time

	Open       bool
	Deadline   time.Time // zero = no deadline
	DeadlineTz float64   // hours offset the deadline was entered in

	Active       bool
	Activation   time.Time // zero = no scheduled activation
	ActivationTz float64
}
