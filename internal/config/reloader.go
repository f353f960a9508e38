package config

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Reloader swaps the live configuration without restarting the session.
// Current is a lock-free read; Reload re-reads .env and the config file,
// bumps the generation, and fans the new snapshot out to listeners.
type Reloader struct {
	configPath string
	dotenvPath string

	snapshot   atomic.Pointer[Config]
	generation atomic.Int64

	mu        sync.Mutex // serializes Reload and guards the fields below
	envHooks  []func() error
	listeners []func(*Config)
}

// NewReloader wraps the already-loaded initial config.
func NewReloader(configPath, dotenvPath string, initial *Config) *Reloader {
	r := &Reloader{
		configPath: configPath,
		dotenvPath: dotenvPath,
	}
	r.snapshot.Store(initial)
	return r
}

// Current returns the live config snapshot.
func (r *Reloader) Current() *Config {
	return r.snapshot.Load()
}

// Generation counts successful reloads; the initial config is generation 0.
func (r *Reloader) Generation() int64 {
	return r.generation.Load()
}

// AfterEnvReload registers a hook that runs once the .env file has been
// re-applied and before the config file is parsed. Secret decryption
// hangs off this so rotated keys take effect on reload.
func (r *Reloader) AfterEnvReload(fn func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envHooks = append(r.envHooks, fn)
}

// OnSwap registers a callback invoked with each new snapshot.
func (r *Reloader) OnSwap(fn func(*Config)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Reload re-reads the .env file and the config file. On any failure the
// previous snapshot stays live and listeners are not notified.
func (r *Reloader) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ReloadDotenv(r.dotenvPath); err != nil {
		return fmt.Errorf("reload dotenv: %w", err)
	}
	for _, hook := range r.envHooks {
		if err := hook(); err != nil {
			return fmt.Errorf("env reload hook: %w", err)
		}
	}

	cfg, err := Load(r.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	r.snapshot.Store(cfg)
	gen := r.generation.Add(1)
	slog.Info("config reloaded", "generation", gen)

	for _, fn := range r.listeners {
		fn(cfg)
	}
	return nil
}
