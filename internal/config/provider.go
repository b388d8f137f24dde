package config

import "sync"

// Provider holds the current configuration snapshot. Decision evaluations
// read one snapshot up front and never see a torn update; the file
// watcher and the configuration API are the only writers.
type Provider struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewProvider creates a Provider seeded with the given config.
func NewProvider(cfg *Config) *Provider {
	return &Provider{cfg: cfg}
}

// Current returns the full configuration snapshot.
func (p *Provider) Current() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Global returns the system-wide restart settings from the current
// snapshot.
func (p *Provider) Global() Global {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.Restart
}

// Local returns the per-job override for the given job ID, or nil when
// the job follows the global settings.
func (p *Provider) Local(jobID string) *Local {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if local, ok := p.cfg.Jobs[jobID]; ok {
		l := local
		return &l
	}
	return nil
}

// Replace swaps in a new configuration snapshot.
func (p *Provider) Replace(cfg *Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
}

// SetGlobal replaces only the system-wide restart settings, keeping the
// rest of the snapshot. The caller validates first.
func (p *Provider) SetGlobal(g Global) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := *p.cfg
	next.Restart = g
	p.cfg = &next
}
