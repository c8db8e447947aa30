package poll

import (
	"time"

	"github.com/globalsign/mgo/bson"
	rediscache "github.com/go-redis/cache"
	"github.com/tallybot/tallybot/cache"
	"github.com/tallybot/tallybot/helpers"
	"github.com/tallybot/tallybot/models"
)

// PollStore persists poll documents. ByLabel and ByMessageID return
// a nil poll when nothing matches.
type PollStore interface {
	Insert(poll *models.PollEntry) error
	Save(poll *models.PollEntry) error
	Delete(id bson.ObjectId) error
	ByLabel(guildID string, label string) (*models.PollEntry, error)
	ByMessageID(messageID string) (*models.PollEntry, error)
	ByGuild(guildID string) ([]models.PollEntry, error)
	OverdueOpen(now time.Time, limit int) ([]models.PollEntry, error)
	PendingActivation(now time.Time, limit int) ([]models.PollEntry, error)
}

// VoteStore is the only reader/writer of vote rows. Upsert is keyed by
// (PollID, UserID, Choice), Delete is a no-op when the row is absent.
type VoteStore interface {
	VotesForUser(pollID bson.ObjectId, userID string) ([]models.VoteEntry, error)
	AllVotes(pollID bson.ObjectId) ([]models.VoteEntry, error)
	VoteCounts(pollID bson.ObjectId) (map[int]int, error)
	DistinctVoterCount(pollID bson.ObjectId) (int, error)
	Upsert(vote models.VoteEntry) error
	Delete(pollID bson.ObjectId, userID string, choice int) error
	DeleteAll(pollID bson.ObjectId) error
}

const messageCacheKeyPrefix = "tallybot:poll:message:"

// messageRef is the redis cached pointer from a discord message to its poll
type messageRef struct {
	PollID string
}

type mongoPollStore struct{}

func (s *mongoPollStore) Insert(poll *models.PollEntry) error {
	_, err := helpers.MDbInsert(models.PollsTable, poll)
	if err == nil && poll.MessageID != "" {
		s.cacheMessage(poll)
	}
	return err
}

func (s *mongoPollStore) Save(poll *models.PollEntry) error {
	err := helpers.MDbUpdate(models.PollsTable, poll.ID, poll)
	if err == nil && poll.MessageID != "" {
		s.cacheMessage(poll)
	}
	return err
}

func (s *mongoPollStore) Delete(id bson.ObjectId) error {
	return helpers.MDbDelete(models.PollsTable, id)
}

func (s *mongoPollStore) ByLabel(guildID string, label string) (*models.PollEntry, error) {
	var entry models.PollEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.PollsTable).Find(bson.M{"guildid": guildID, "label": label}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *mongoPollStore) ByMessageID(messageID string) (*models.PollEntry, error) {
	// hot path for every reaction event, try redis first
	var ref messageRef
	if err := cache.GetRedisCacheCodec().Get(messageCacheKeyPrefix+messageID, &ref); err == nil {
		if ref.PollID == "" {
			return nil, nil
		}
		var entry models.PollEntry
		err = helpers.MdbOne(
			helpers.MdbCollection(models.PollsTable).Find(bson.M{"_id": helpers.HumanToMdbId(ref.PollID)}),
			&entry,
		)
		if err == nil {
			return &entry, nil
		}
	}

	var entry models.PollEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.PollsTable).Find(bson.M{"messageid": messageID}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		// negative entry, keeps unrelated messages off the database
		cache.GetRedisCacheCodec().Set(&rediscache.Item{
			Key:        messageCacheKeyPrefix + messageID,
			Object:     messageRef{},
			Expiration: 10 * time.Minute,
		})
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.cacheMessage(&entry)
	return &entry, nil
}

func (s *mongoPollStore) cacheMessage(poll *models.PollEntry) {
	cache.GetRedisCacheCodec().Set(&rediscache.Item{
		Key:        messageCacheKeyPrefix + poll.MessageID,
		Object:     messageRef{PollID: helpers.MdbIdToHuman(poll.ID)},
		Expiration: time.Hour,
	})
}

func (s *mongoPollStore) ByGuild(guildID string) ([]models.PollEntry, error) {
	var entries []models.PollEntry
	err := helpers.MDbIter(
		helpers.MdbCollection(models.PollsTable).Find(bson.M{"guildid": guildID}).Sort("createdat"),
	).All(&entries)
	return entries, err
}

func (s *mongoPollStore) OverdueOpen(now time.Time, limit int) ([]models.PollEntry, error) {
	var entries []models.PollEntry
	err := helpers.MDbIter(
		helpers.MdbCollection(models.PollsTable).Find(bson.M{
			"open":     true,
			"deadline": bson.M{"$gt": time.Time{}, "$lte": now},
		}).Limit(limit),
	).All(&entries)
	return entries, err
}

func (s *mongoPollStore) PendingActivation(now time.Time, limit int) ([]models.PollEntry, error) {
	var entries []models.PollEntry
	err := helpers.MDbIter(
		helpers.MdbCollection(models.PollsTable).Find(bson.M{
			"active":     false,
			"activation": bson.M{"$gt": time.Time{}, "$lte": now},
		}).Limit(limit),
	).All(&entries)
	return entries, err
}

type mongoVoteStore struct{}

func (s *mongoVoteStore) VotesForUser(pollID bson.ObjectId, userID string) ([]models.VoteEntry, error) {
	var entries []models.VoteEntry
	err := helpers.MDbIter(
		helpers.MdbCollection(models.VotesTable).Find(bson.M{"pollid": pollID, "userid": userID}),
	).All(&entries)
	return entries, err
}

func (s *mongoVoteStore) AllVotes(pollID bson.ObjectId) ([]models.VoteEntry, error) {
	var entries []models.VoteEntry
	err := helpers.MDbIter(
		helpers.MdbCollection(models.VotesTable).Find(bson.M{"pollid": pollID}),
	).All(&entries)
	return entries, err
}

func (s *mongoVoteStore) VoteCounts(pollID bson.ObjectId) (map[int]int, error) {
	var results []struct {
		Choice int `bson:"_id"`
		Count  int `bson:"count"`
	}
	err := helpers.MdbPipe(models.VotesTable, []bson.M{
		{"$match": bson.M{"pollid": pollID}},
		{"$group": bson.M{"_id": "$choice", "count": bson.M{"$sum": 1}}},
	}, &results)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(results))
	for _, result := range results {
		counts[result.Choice] = result.Count
	}
	return counts, nil
}

func (s *mongoVoteStore) DistinctVoterCount(pollID bson.ObjectId) (int, error) {
	var userIDs []string
	err := helpers.MdbCollection(models.VotesTable).
		Find(bson.M{"pollid": pollID}).
		Distinct("userid", &userIDs)
	return len(userIDs), err
}

func (s *mongoVoteStore) Upsert(vote models.VoteEntry) error {
	return helpers.MDbUpsert(
		models.VotesTable,
		bson.M{"pollid": vote.PollID, "userid": vote.UserID, "choice": vote.Choice},
		bson.M{"$set": bson.M{"weight": vote.Weight, "answer": vote.Answer}},
	)
}

func (s *mongoVoteStore) Delete(pollID bson.ObjectId, userID string, choice int) error {
	err := helpers.MdbDeleteQuery(models.VotesTable, bson.M{
		"pollid": pollID, "userid": userID, "choice": choice,
	})
	if helpers.IsMdbNotFound(err) {
		return nil
	}
	return err
}

func (s *mongoVoteStore) DeleteAll(pollID bson.ObjectId) error {
	return helpers.MdbDeleteAllQuery(models.VotesTable, bson.M{"pollid": pollID})
}
