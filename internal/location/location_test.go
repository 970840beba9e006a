package location

import (
	"context"
	"errors"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimezoneFor(t *testing.T) {
	assert.Equal(t, "Australia/Perth", TimezoneFor("perth"))
	assert.Equal(t, "Australia/Brisbane", TimezoneFor("gold coast"))
	assert.Equal(t, "Australia/Sydney", TimezoneFor("Melbourne"))
	assert.Equal(t, DefaultTimezone, TimezoneFor("Alice Springs"))
}

func TestHotel(t *testing.T) {
	loc := Location{Address: "Hilton Adelaide, 233 Victoria Square"}
	assert.Equal(t, "Hilton Adelaide", loc.Hotel())
	assert.Equal(t, "Adelaide CBD - Location details on confirmation", Default().Hotel())
}

func TestParseUpdate(t *testing.T) {
	current := Default()

	tests := []struct {
		name string
		body string
		want Location
	}{
		{
			name: "city and address with intercom",
			body: "LOCATION sydney: Hilton, 488 George St INTERCOM 1205",
			want: Location{City: "Sydney", Address: "Hilton, 488 George St", Intercom: "1205", Timezone: "Australia/Sydney"},
		},
		{
			name: "address only keeps city and intercom",
			body: "LOCATION Crowne Plaza, 16 Hindmarsh Square",
			want: Location{City: "Adelaide", Address: "Crowne Plaza, 16 Hindmarsh Square", Intercom: "TBA", Timezone: "Australia/Adelaide"},
		},
		{
			name: "lowercase intercom keyword",
			body: "LOCATION Perth: Crown Towers intercom 42",
			want: Location{City: "Perth", Address: "Crown Towers", Intercom: "42", Timezone: "Australia/Perth"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUpdate(tt.body, current)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseUpdate("LOCATION   ", current)
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestIsUpdateMessage(t *testing.T) {
	assert.True(t, IsUpdateMessage("LOCATION Perth: Crown"))
	assert.False(t, IsUpdateMessage("location Perth: Crown"))
	assert.False(t, IsUpdateMessage("LOCATIONS"))
}

func TestRegistryUpdatePersists(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)
	ctx := context.Background()

	reg := NewRegistry(store, nil)
	require.NoError(t, reg.Load(ctx))
	assert.Equal(t, Default(), reg.Current())

	updated, err := reg.ApplyUpdateMessage(ctx, "LOCATION Brisbane: Emporium, 1000 Ann St INTERCOM 7")
	require.NoError(t, err)
	assert.Equal(t, "Australia/Brisbane", updated.Timezone)

	fresh := NewRegistry(store, nil)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, updated, fresh.Current())
}

func TestRegistryLoadMissingKeepsDefault(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	_, err := store.LoadLocation(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	reg := NewRegistry(store, nil)
	require.NoError(t, reg.Load(context.Background()))
	assert.Equal(t, Default(), reg.Current())
}

type failingStore struct{}

func (failingStore) LoadLocation(context.Context) (Location, error) {
	return Location{}, errors.New("down")
}

func (failingStore) SaveLocation(context.Context, Location) error {
	return errors.New("down")
}

func TestRegistryUpdateFailureKeepsCurrent(t *testing.T) {
	reg := NewRegistry(failingStore{}, nil)
	_, err := reg.Update(context.Background(), Location{City: "Perth", Address: "Crown"})
	require.Error(t, err)
	assert.Equal(t, Default(), reg.Current())
	assert.Error(t, reg.Load(context.Background()))
}

func TestRegistryConcurrentReadsAndWrites(t *testing.T) {
	reg := NewRegistry(nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = reg.Update(ctx, Location{City: "Darwin", Address: "Mantra"})
		}()
		go func() {
			defer wg.Done()
			_ = reg.Current()
		}()
	}
	wg.Wait()
	assert.Equal(t, "Australia/Darwin", reg.Current().Timezone)
}
