package main

import (
	"context"
	"strings"
	"sync"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/config"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/database"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/logger"
	"go.uber.org/zap"
)

type commandContext struct {
	driverFlag   *string
	databaseFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error

	log   *zap.SugaredLogger
	store *database.Store
}

func newCommandContext(driverFlag, databaseFlag *string) *commandContext {
	return &commandContext{
		driverFlag:   driverFlag,
		databaseFlag: databaseFlag,
	}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(*c.driverFlag); v != "" {
			cfg.DatabaseDriver = v
		}
		if v := strings.TrimSpace(*c.databaseFlag); v != "" {
			cfg.DatabaseURL = v
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *zap.SugaredLogger {
	if c.log == nil {
		c.log = logger.ProvideLogger()
	}
	return c.log
}

// withStore opens the configured database once per invocation.
func (c *commandContext) withStore(ctx context.Context, fn func(*database.Store) error) error {
	if c.store == nil {
		cfg, err := c.ensureConfig()
		if err != nil {
			return err
		}
		store, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, c.logger())
		if err != nil {
			return err
		}
		c.store = store
	}
	return fn(c.store)
}

func (c *commandContext) close() error {
	if c.log != nil {
		_ = c.log.Sync()
	}
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}
