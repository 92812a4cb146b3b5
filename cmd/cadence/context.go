package main

import (
	"strings"
	"sync"

	"cadence/internal/catalog"
	"cadence/internal/config"
	"cadence/internal/downloads"
	"cadence/internal/importer"
	"cadence/internal/library"
	"cadence/internal/review"
)

// commandContext lazily loads configuration and opens the stores commands
// need. Stores share the daemon's sqlite files; WAL keeps concurrent access
// safe.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	mu        sync.Mutex
	downloads *downloads.Store
	catalog   *catalog.Store
	reviews   *review.Store
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) downloadStore() (*downloads.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.downloads == nil {
		store, err := downloads.Open(cfg)
		if err != nil {
			return nil, err
		}
		c.downloads = store
	}
	return c.downloads, nil
}

func (c *commandContext) catalogStore() (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog == nil {
		store, err := catalog.Open(cfg)
		if err != nil {
			return nil, err
		}
		c.catalog = store
	}
	return c.catalog, nil
}

func (c *commandContext) reviewStore() (*review.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reviews == nil {
		store, err := review.Open(cfg)
		if err != nil {
			return nil, err
		}
		c.reviews = store
	}
	return c.reviews, nil
}

// reviewQueue builds a decision queue backed by a fresh orchestrator, so
// approvals commit through the same pipeline the daemon uses.
func (c *commandContext) reviewQueue() (*review.Queue, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	catalogStore, err := c.catalogStore()
	if err != nil {
		return nil, err
	}
	reviewStore, err := c.reviewStore()
	if err != nil {
		return nil, err
	}
	orch := importer.New(cfg, catalogStore, reviewStore, importer.Deps{})
	return review.NewQueue(reviewStore, orch, nil), nil
}

func (c *commandContext) materializer() (*library.Materializer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	catalogStore, err := c.catalogStore()
	if err != nil {
		return nil, err
	}
	return library.New(cfg, catalogStore, nil), nil
}
