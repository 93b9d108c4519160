// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"fmt"
	"log/slog"

	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/database"
	"codeberg.org/cyberguard-ng/cyberguard/internal/repository"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store/memory"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store/redisstore"
)

// DriverMemory keeps everything in process memory.
const DriverMemory = "memory"

// openStore opens the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	var (
		primary store.Store
		closers []func() error
	)

	switch cfg.Database.Driver {
	case DriverMemory:
		slog.Warn("using in-memory store, data is lost on restart")
		primary = memory.New()
	default:
		db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		primary = repository.New(db)
		closers = append(closers, db.Close)
	}

	st := primary
	if cfg.Redis.URL != "" {
		rs, err := redisstore.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			closeAll(closers)
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("sessions and OTP codes stored in redis")
		st = store.Compose(primary, rs)
		closers = append(closers, rs.Close)
	}

	return st, func() { closeAll(closers) }, nil
}

func closeAll(closers []func() error) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}
}
