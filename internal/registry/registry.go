// Package registry tracks which leagues this pipeline instance seeds and
// resolves events for. Adapted from the teacher's SportRegistry
// (internal/registry/registry.go), which held pluggable per-sport polling
// modules; generalized here from a fetch-behavior registry into a
// reference-data registry, since this system's events already arrive
// league-tagged from the provider rather than being pulled per sport.
package registry

import (
	"fmt"
	"sync"

	"github.com/boompicks/pickengine/internal/leagues/nba"
)

// LeagueSeed is the reference data a league contributes to seeding.
type LeagueSeed struct {
	Name  string
	Teams []nba.TeamSeed
}

// LeagueRegistry holds the set of leagues this pipeline instance knows how
// to seed and normalize against.
type LeagueRegistry struct {
	leagues map[string]LeagueSeed
	mu      sync.RWMutex
}

// NewLeagueRegistry returns an empty registry.
func NewLeagueRegistry() *LeagueRegistry {
	return &LeagueRegistry{leagues: make(map[string]LeagueSeed)}
}

// NewDefaultLeagueRegistry returns a registry pre-populated with every
// league this build ships reference data for.
func NewDefaultLeagueRegistry() *LeagueRegistry {
	r := NewLeagueRegistry()
	_ = r.Register(LeagueSeed{Name: nba.LeagueName, Teams: nba.TeamSeeds()})
	return r
}

// Register adds a league's seed data to the registry.
func (r *LeagueRegistry) Register(seed LeagueSeed) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.leagues[seed.Name]; exists {
		return fmt.Errorf("league %s is already registered", seed.Name)
	}
	r.leagues[seed.Name] = seed
	return nil
}

// Get retrieves a league's seed data by name.
func (r *LeagueRegistry) Get(name string) (LeagueSeed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seed, exists := r.leagues[name]
	return seed, exists
}

// GetAll returns every registered league's seed data.
func (r *LeagueRegistry) GetAll() []LeagueSeed {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seeds := make([]LeagueSeed, 0, len(r.leagues))
	for _, seed := range r.leagues {
		seeds = append(seeds, seed)
	}
	return seeds
}

// Count returns the number of registered leagues.
func (r *LeagueRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leagues)
}
