// Package models turns provider configuration into ready-to-use eino chat
// models. Providers are initialized lazily so a misconfigured entry only
// fails when actually selected.
package models

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudwego/eino/components/model"

	"github.com/quill-sh/quill/internal/config"
)

// provider is one named entry. The model is built on first use; the
// sync.Once also latches a build failure so retries return the same error.
type provider struct {
	cfg   config.ProviderConfig
	once  sync.Once
	model model.ToolCallingChatModel
	err   error
}

func (p *provider) resolve(ctx context.Context) (model.ToolCallingChatModel, error) {
	p.once.Do(func() {
		p.model, p.err = CreateModel(ctx, p.cfg)
	})
	return p.model, p.err
}

// Registry maps provider names to lazily-built chat models. The table is
// fixed at construction, so lookups need no locking.
type Registry struct {
	providers   map[string]*provider
	defaultName string
}

// NewRegistry creates a model registry from config.
func NewRegistry(cfg config.ModelsConfig) *Registry {
	r := &Registry{
		providers:   make(map[string]*provider, len(cfg.Providers)),
		defaultName: cfg.Default,
	}
	for name, provCfg := range cfg.Providers {
		r.providers[name] = &provider{cfg: provCfg}
	}
	return r
}

// Get returns the named model, initializing it lazily.
func (r *Registry) Get(ctx context.Context, name string) (model.ToolCallingChatModel, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("model provider %q not found", name)
	}
	return p.resolve(ctx)
}

// Default returns the default model.
func (r *Registry) Default(ctx context.Context) (model.ToolCallingChatModel, error) {
	if r.defaultName == "" {
		return nil, fmt.Errorf("no default model configured")
	}
	return r.Get(ctx, r.defaultName)
}

// DefaultName returns the name of the default provider.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// Names returns all configured provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the provider config for display, without initializing it.
func (r *Registry) Describe(name string) (config.ProviderConfig, bool) {
	p, ok := r.providers[name]
	if !ok {
		return config.ProviderConfig{}, false
	}
	return p.cfg, true
}
