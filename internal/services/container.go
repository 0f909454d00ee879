// Package services wires the title resolver, the prehraj.to scraper and the
// resolution pipeline together.
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/gostremiocz/internal/cache"
	"github.com/amaumene/gostremiocz/internal/config"
	"github.com/amaumene/gostremiocz/internal/constants"
	"github.com/amaumene/gostremiocz/internal/database"
	"github.com/amaumene/gostremiocz/pkg/logger"
	"github.com/amaumene/gostremiocz/pkg/prehrajto"
)

// Container holds all application services for dependency injection.
type Container struct {
	Config    *config.Config
	TMDB      *TMDB
	Prehrajto *prehrajto.Client
	Resolver  *Resolver
	Cache     *cache.TTLCache
	DB        database.Database
	Cleanup   *CleanupService
	Logger    logger.Logger

	mu       sync.Mutex
	sessions *cache.TTLCache
}

// NewContainer builds every service from cfg. db may be nil to run without
// persistence.
func NewContainer(cfg *config.Config, db database.Database, log logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.Discard()
	}

	memCache := cache.New(cfg.CacheSize, cfg.CacheTTL)

	pace := prehrajto.DefaultPace
	if cfg.RatePerSecond > 0 {
		pace = time.Second / time.Duration(cfg.RatePerSecond)
	}

	client, err := prehrajto.New(prehrajto.Config{
		BaseURL:    cfg.BaseURL,
		MaxResults: cfg.MaxResults,
		MaxPages:   cfg.MaxPages,
		Pace:       pace,
	}, memCache, log)
	if err != nil {
		return nil, fmt.Errorf("prehrajto client: %w", err)
	}

	tmdb := NewTMDB(cfg.TMDBAPIKey, memCache, log)
	if cfg.TMDBBaseURL != "" {
		tmdb.SetBaseURL(cfg.TMDBBaseURL)
	}
	if db != nil {
		tmdb.SetDB(db)
	}

	return &Container{
		Config:    cfg,
		TMDB:      tmdb,
		Prehrajto: client,
		Resolver:  NewResolver(tmdb, client, client, cfg.ExtractWorkers, log),
		Cache:     memCache,
		DB:        db,
		Cleanup:   NewCleanupService(db, memCache, log),
		Logger:    log,
		sessions:  cache.New(constants.MaxPremiumSessions, constants.PremiumSessionTTL),
	}, nil
}

// ForRequest returns the pipeline and premium session for a per-request
// configuration. A nil reqCfg uses the server configuration.
func (c *Container) ForRequest(reqCfg *config.Config) (*Resolver, *prehrajto.Session) {
	if reqCfg == nil {
		reqCfg = c.Config
	}

	resolver := c.Resolver
	if tmdb := c.TMDB.WithAPIKey(reqCfg.TMDBAPIKey); tmdb != c.TMDB {
		resolver = resolver.WithTitles(tmdb)
	}
	return resolver, c.session(prehrajto.Credentials{
		Email:    reqCfg.PrehrajtoEmail,
		Password: reqCfg.PrehrajtoPassword,
	})
}

// session returns the shared logged-in session for creds, creating it on
// first use. Sessions share the client's limiter so premium requests count
// against the same pacing budget. Entries are keyed by a digest of the
// credentials and evicted when idle or over capacity.
func (c *Container) session(creds prehrajto.Credentials) *prehrajto.Session {
	if creds.Empty() {
		return nil
	}

	key := sessionKey(creds)

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.sessions.Get(key); ok {
		s := v.(*prehrajto.Session)
		c.sessions.Set(key, s)
		return s
	}
	s, err := prehrajto.NewSession(c.Prehrajto.BaseURL(), creds, c.Prehrajto.Limiter(), 0)
	if err != nil {
		c.Logger.Errorf("[Prehrajto] failed to create premium session: %v", err)
		return nil
	}
	c.sessions.Set(key, s)
	return s
}

func sessionKey(creds prehrajto.Credentials) string {
	sum := sha256.Sum256([]byte(creds.Email + "\x00" + creds.Password))
	return hex.EncodeToString(sum[:])
}

// Close releases the persistent store.
func (c *Container) Close() error {
	c.Cleanup.Stop()
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
