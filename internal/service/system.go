package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_system_service.go -package=mocks logstudio/internal/service SystemService

import (
	"context"
	"time"

	"logstudio/internal/contextutil"
	"logstudio/internal/seed"
	"logstudio/internal/storage"
)

// healthTimeout bounds the database ping.
const healthTimeout = 5 * time.Second

// SystemStore is satisfied by *storage.SystemRepo.
type SystemStore interface {
	Ping(ctx context.Context) error
	Reseed(ctx context.Context, entries []storage.EntryBundle, posts []storage.JournalBundle) error
}

// Health is the result of a database ping.
type Health struct {
	OK      bool
	Version string
}

// SeedResult reports the number of records restored by Seed.
type SeedResult struct {
	Entries int
	Journal int
}

// SystemService exposes health checks and the destructive reseed.
type SystemService interface {
	// Health pings the database. It never returns an error; failures are reported in Health.OK.
	Health(ctx context.Context) Health
	// Seed replaces all content with the built-in dataset in one transaction.
	Seed(ctx context.Context) (SeedResult, error)
}

// systemService implements SystemService.
type systemService struct {
	store   SystemStore
	dataset *seed.Dataset
	version string
	clock   *clock
}

// NewSystemService creates a new SystemService that seeds from dataset and reports version.
func NewSystemService(store SystemStore, dataset *seed.Dataset, version string, opts ...Option) SystemService {
	o := buildOptions(opts)
	return &systemService{
		store:   store,
		dataset: dataset,
		version: version,
		clock:   newClock(o.now),
	}
}

// Health runs SELECT 1 with a five second timeout.
func (s *systemService) Health(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "database health check failed", "error", err)
		return Health{OK: false, Version: s.version}
	}
	return Health{OK: true, Version: s.version}
}

// Seed deletes every entry, update, post and block and inserts the dataset.
// On failure the previous contents are kept.
func (s *systemService) Seed(ctx context.Context) (SeedResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	now := s.clock.stamp()
	entries := s.dataset.EntryBundles(now)
	posts := s.dataset.JournalBundles(now)

	if err := s.store.Reseed(ctx, entries, posts); err != nil {
		logger.ErrorContext(ctx, "failed to seed database", "error", err)
		return SeedResult{}, WrapError(err, "failed to seed database")
	}

	logger.InfoContext(ctx, "database seeded", "entries", len(entries), "journal", len(posts))
	return SeedResult{Entries: len(entries), Journal: len(posts)}, nil
}
