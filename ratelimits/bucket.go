package ratelimits

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	// How many keys a bucket may contain when created
	BUCKET_INITIAL_FILL = 16

	// The maximum amount of keys a user may possess
	BUCKET_UPPER_BOUND = 32

	// How often new keys drip into the buckets
	DROP_INTERVAL = 10 * time.Second

	// How many keys may drop at a time
	DROP_SIZE = 1
)

// Global pointer to a container instance
var Container = &BucketContainer{}

// Container struct to lock the bucket map
type BucketContainer struct {
	sync.RWMutex

	// Maps discord ids to key-counts
	buckets map[string]int8
}

// Init allocates the map and starts the refill routine
func (b *BucketContainer) Init() {
	b.Lock()
	b.buckets = make(map[string]int8)
	b.Unlock()

	go b.refiller()
}

// refiller refills user buckets in a set interval
func (b *BucketContainer) refiller() {
	for {
		b.Lock()
		for user, keys := range b.buckets {
			switch {
			// Chill zone
			case keys == -1:
				b.buckets[user]++

			// Chill zone exit
			case keys == 0:
				b.buckets[user] = BUCKET_INITIAL_FILL

			// More free keys for nice users
			case keys < BUCKET_UPPER_BOUND:
				b.buckets[user] += DROP_SIZE
			}
		}
		b.Unlock()

		time.Sleep(DROP_INTERVAL)
	}
}

// createBucketIfNotExists creates a bucket for $user if there is none yet
func (b *BucketContainer) createBucketIfNotExists(user string) {
	b.RLock()
	_, e := b.buckets[user]
	b.RUnlock()

	if !e {
		b.Lock()
		b.buckets[user] = BUCKET_INITIAL_FILL
		b.Unlock()
	}
}

// Drain drains $amount from $user if there are enough keys left
func (b *BucketContainer) Drain(amount int8, user string) error {
	b.createBucketIfNotExists(user)

	// Check if there are enough keys left
	b.RLock()
	userAmount := b.buckets[user]
	b.RUnlock()

	if amount > userAmount {
		return errors.New("no keys left")
	}

	// Remove keys from bucket
	b.Lock()
	b.buckets[user] -= amount
	b.Unlock()

	return nil
}

// HasKeys checks if the user still has keys
func (b *BucketContainer) HasKeys(user string) bool {
	b.createBucketIfNotExists(user)

	b.RLock()
	defer b.RUnlock()

	return b.buckets[user] > 0
}

func (b *BucketContainer) Get(user string) int8 {
	b.RLock()
	defer b.RUnlock()

	return b.buckets[user]
}

func (b *BucketContainer) Set(user string, value int8) {
	b.Lock()
	b.buckets[user] = value
	b.Unlock()
}
