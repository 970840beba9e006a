package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// ErrNotFound is returned by stores that have no saved location yet.
var ErrNotFound = errors.New("location: not found")

// Store persists the current location.
type Store interface {
	LoadLocation(ctx context.Context) (Location, error)
	SaveLocation(ctx context.Context, loc Location) error
}

// Registry holds the shared location that extraction and composing read and
// only the admin path writes.
type Registry struct {
	mu      sync.RWMutex
	current Location
	store   Store
	logger  *logging.Logger
}

// NewRegistry starts from the default location. A nil store keeps the
// location in memory only.
func NewRegistry(store Store, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		current: Default(),
		store:   store,
		logger:  logger,
	}
}

// Load hydrates the registry from its store.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	loc, err := r.store.LoadLocation(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("location: load: %w", err)
	}
	r.mu.Lock()
	r.current = normalize(loc)
	r.mu.Unlock()
	return nil
}

// Current returns a copy of the active location.
func (r *Registry) Current() Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Update persists loc and makes it current. The timezone is derived from the city.
func (r *Registry) Update(ctx context.Context, loc Location) (Location, error) {
	loc = normalize(loc)
	if loc.City == "" || loc.Address == "" {
		return Location{}, errors.New("location: city and address required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store != nil {
		if err := r.store.SaveLocation(ctx, loc); err != nil {
			return Location{}, fmt.Errorf("location: save: %w", err)
		}
	}
	r.current = loc
	r.logger.Info("incall location updated", "city", loc.City, "timezone", loc.Timezone)
	return loc, nil
}

// ApplyUpdateMessage parses an admin LOCATION command against the current
// location and stores the result.
func (r *Registry) ApplyUpdateMessage(ctx context.Context, body string) (Location, error) {
	next, err := ParseUpdate(body, r.Current())
	if err != nil {
		return Location{}, err
	}
	return r.Update(ctx, next)
}

func normalize(loc Location) Location {
	loc.City = TitleCase(loc.City)
	loc.Address = strings.TrimSpace(loc.Address)
	loc.Intercom = strings.TrimSpace(loc.Intercom)
	if loc.Intercom == "" {
		loc.Intercom = "TBA"
	}
	loc.Timezone = TimezoneFor(loc.City)
	return loc
}
