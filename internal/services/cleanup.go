package services

import (
	"context"
	"sync"
	"time"

	"github.com/amaumene/gostremiocz/internal/constants"
	"github.com/amaumene/gostremiocz/internal/database"
	"github.com/amaumene/gostremiocz/pkg/logger"
)

// Sweeper drops expired entries from an in-memory cache.
type Sweeper interface {
	CleanExpired() int
}

// CleanupService periodically purges expired titles from the memory cache
// and the persistent store. Reads already ignore expired entries; the sweep
// only bounds memory and file size.
type CleanupService struct {
	db       database.Database
	cache    Sweeper
	logger   logger.Logger
	interval time.Duration
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewCleanupService creates a new cleanup service. Either store may be nil.
func NewCleanupService(db database.Database, cache Sweeper, log logger.Logger) *CleanupService {
	if log == nil {
		log = logger.Discard()
	}
	return &CleanupService{
		db:       db,
		cache:    cache,
		logger:   log,
		interval: constants.CacheCleanupInterval,
	}
}

// SetInterval sets how often cleanup runs
func (c *CleanupService) SetInterval(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if duration > 0 {
		c.interval = duration
	}
}

// Start begins the cleanup service
func (c *CleanupService) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopChan = make(chan struct{})
	interval, stop := c.interval, c.stopChan
	c.mu.Unlock()

	c.logger.Infof("[Cleanup] starting with interval %v", interval)
	c.CleanupNow()
	go c.cleanupLoop(ctx, interval, stop)
}

// Stop stops the cleanup service
func (c *CleanupService) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.running = false
	close(c.stopChan)
	c.logger.Infof("[Cleanup] stopped")
}

func (c *CleanupService) cleanupLoop(ctx context.Context, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Stop()
			return
		case <-stop:
			return
		case <-ticker.C:
			c.CleanupNow()
		}
	}
}

// CleanupNow performs one sweep and returns the number of removed entries.
func (c *CleanupService) CleanupNow() int {
	removed := 0
	if c.cache != nil {
		removed += c.cache.CleanExpired()
	}
	if c.db != nil {
		n, err := c.db.DeleteExpired()
		if err != nil {
			c.logger.Errorf("[Cleanup] failed to purge stored titles: %v", err)
		}
		removed += n
	}
	if removed > 0 {
		c.logger.Debugf("[Cleanup] removed %d expired entries", removed)
	}
	return removed
}
