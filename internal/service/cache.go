package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"

	"trailrunner/internal/activity"
	"trailrunner/internal/strava"
)

// ActivityCache keeps recently listed activity windows in memory. Entries
// hold provider payloads so derived fields are recomputed on the way out.
type ActivityCache struct {
	cache *freecache.Cache
	ttl   time.Duration
}

// NewActivityCache creates a cache whose entries expire after ttl.
// A non-positive ttl disables caching.
func NewActivityCache(sizeBytes int, ttl time.Duration) *ActivityCache {
	return &ActivityCache{
		cache: freecache.NewCache(sizeBytes),
		ttl:   ttl,
	}
}

func cacheKey(athleteID int64, from, to time.Time) []byte {
	return []byte(fmt.Sprintf("%d:%d:%d", athleteID, unixOrZero(from), unixOrZero(to)))
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// Get returns the cached records of a window
func (c *ActivityCache) Get(athleteID int64, from, to time.Time) ([]activity.Record, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	key := cacheKey(athleteID, from, to)
	data, err := c.cache.Get(key)
	if err != nil {
		return nil, false
	}

	var payloads []strava.Activity
	if err := json.Unmarshal(data, &payloads); err != nil {
		log.WithField("key", string(key)).WithError(err).Warn("Dropping unreadable cache entry")
		c.cache.Del(key)
		return nil, false
	}

	records := make([]activity.Record, len(payloads))
	for i, p := range payloads {
		records[i] = activity.FromPayload(p)
	}
	return records, true
}

// Set stores the records of a window
func (c *ActivityCache) Set(athleteID int64, from, to time.Time, records []activity.Record) {
	if c == nil || c.ttl <= 0 {
		return
	}
	payloads := make([]strava.Activity, len(records))
	for i, r := range records {
		payloads[i] = r.Payload()
	}

	data, err := json.Marshal(payloads)
	if err != nil {
		log.WithError(err).Warn("Encoding activities for cache")
		return
	}
	key := cacheKey(athleteID, from, to)
	if err := c.cache.Set(key, data, int(c.ttl.Seconds())); err != nil {
		log.WithField("key", string(key)).WithError(err).Debug("Activity window not cached")
	}
}

// Invalidate drops every cached window
func (c *ActivityCache) Invalidate() {
	if c == nil {
		return
	}
	c.cache.Clear()
}
