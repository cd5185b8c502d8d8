package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

func TestEntryKey(t *testing.T) {
	areaID := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	key := domain.AvailabilityKey{AreaID: areaID, From: from, To: from.AddDate(0, 0, 1), SlotMinutes: 30}

	assert.Equal(t,
		"availability:7c9e6679-7425-40de-944b-e07fc1f90ae7:v3:2026-03-02T00:00:00Z:2026-03-03T00:00:00Z:s30",
		entryKey(key, 3))
	assert.NotEqual(t, entryKey(key, 3), entryKey(key, 4), "a version bump must change every key")
	assert.Equal(t, "availability:7c9e6679-7425-40de-944b-e07fc1f90ae7:version", versionKey(areaID))
}

func TestEntryKey_NormalizesZones(t *testing.T) {
	areaID := uuid.New()
	utc := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("CST", -6*3600))

	a := entryKey(domain.AvailabilityKey{AreaID: areaID, From: utc, To: utc}, 0)
	b := entryKey(domain.AvailabilityKey{AreaID: areaID, From: local, To: local}, 0)

	assert.Equal(t, a, b)
}

func TestNewRedisClient_EmptyAddrDisablesCache(t *testing.T) {
	assert.Nil(t, NewRedisClient(context.Background(), RedisOptions{}))
}
