// Package registry maintains the process-wide catalog of known record sources:
// which jurisdictions exist, how each one can be reached, and which connector
// builders are available to reach them.
//
// The registry is read-mostly after startup. Reads are safe under concurrent
// access; occasional administrative writes are serialized by the mutex.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"titlesearch/internal/connector"
	"titlesearch/internal/connector/models"
	"titlesearch/pkg/domain"
	"titlesearch/pkg/platform/sentinel"
	pstrings "titlesearch/pkg/platform/strings"
)

// knownUniverse is the number of US counties coverage is measured against.
const knownUniverse = 3143

// Builder constructs a live connector for a jurisdiction from one access
// strategy and the credentials resolved for it. Builders return
// sentinel.ErrCredentialMissing when required credentials are absent so the
// factory can skip the strategy rather than fail the request.
type Builder func(ctx context.Context, j domain.Jurisdiction, strategy AccessStrategy, creds map[string]string) (connector.Connector, error)

// Registry holds source descriptors keyed by jurisdiction and connector
// builders keyed by name. Construct with New and share the instance; there is
// no hidden global.
type Registry struct {
	mu       sync.RWMutex
	sources  map[string]*SourceDescriptor
	builders map[string]Builder
	logger   *slog.Logger
}

// New creates an empty registry. Callers typically follow up with
// RegisterBuilder calls and either LoadFile or AddDefaults.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sources:  make(map[string]*SourceDescriptor),
		builders: make(map[string]Builder),
		logger:   logger,
	}
}

// AddSource registers or replaces a jurisdiction's descriptor. The strategy
// list is re-sorted on the way in, keeping the priority-order invariant even
// for descriptors built by hand.
func (r *Registry) AddSource(d *SourceDescriptor) {
	cp := d.clone()
	cp.sortStrategies()

	r.mu.Lock()
	r.sources[cp.Jurisdiction.Key()] = cp
	r.mu.Unlock()

	r.logger.Debug("registered source", "jurisdiction", cp.Jurisdiction.String())
}

// GetSource returns the descriptor for a jurisdiction, or sentinel.ErrNotFound.
// The returned descriptor is a copy; mutating it does not affect the registry.
func (r *Registry) GetSource(j domain.Jurisdiction) (*SourceDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.sources[j.Key()]; ok {
		return d.clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// RegisterBuilder registers a connector builder under a unique name.
func (r *Registry) RegisterBuilder(name string, b Builder) {
	r.mu.Lock()
	r.builders[name] = b
	r.mu.Unlock()

	r.logger.Info("registered connector builder", "builder", name)
}

// Builder returns the builder registered under name.
func (r *Registry) Builder(name string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[name]
	return b, ok
}

// ListFilter narrows ListSources. Zero values mean "no filter".
type ListFilter struct {
	State string
	// OnlineAccess filters on metadata when non-nil.
	OnlineAccess *bool
}

// ListSources returns descriptors matching the filter, stably sorted by state
// then county.
func (r *Registry) ListSources(f ListFilter) []*SourceDescriptor {
	r.mu.RLock()
	out := make([]*SourceDescriptor, 0, len(r.sources))
	for _, d := range r.sources {
		out = append(out, d.clone())
	}
	r.mu.RUnlock()

	filtered := out[:0]
	stateKey := normalizedState(f.State)
	for _, d := range out {
		if stateKey != "" && normalizedState(d.Jurisdiction.State) != stateKey {
			continue
		}
		if f.OnlineAccess != nil && d.Metadata.HasOnlineAccess != *f.OnlineAccess {
			continue
		}
		filtered = append(filtered, d)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i].Jurisdiction, filtered[j].Jurisdiction
		if a.State != b.State {
			return a.State < b.State
		}
		return a.County < b.County
	})
	return filtered
}

// CoverageStats summarizes how much of the known universe the registry covers.
type CoverageStats struct {
	Total            int                         `json:"total_sources"`
	WithOnlineAccess int                         `json:"with_online_access"`
	ByAccessMethod   map[models.AccessMethod]int `json:"by_access_method"`
	StubOnly         int                         `json:"stub_only"`
	DistinctStates   int                         `json:"distinct_states"`
	CoveragePercent  float64                     `json:"coverage_percent"`
}

// Coverage computes registry-wide coverage statistics.
func (r *Registry) Coverage() CoverageStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := CoverageStats{ByAccessMethod: make(map[models.AccessMethod]int)}
	states := make(map[string]struct{})

	for _, d := range r.sources {
		stats.Total++
		if d.Metadata.HasOnlineAccess {
			stats.WithOnlineAccess++
		}
		seen := make(map[models.AccessMethod]struct{}, len(d.Strategies))
		for _, s := range d.Strategies {
			if _, ok := seen[s.Method]; ok {
				continue
			}
			seen[s.Method] = struct{}{}
			stats.ByAccessMethod[s.Method]++
		}
		states[normalizedState(d.Jurisdiction.State)] = struct{}{}
	}

	stats.StubOnly = stats.Total - stats.WithOnlineAccess
	stats.DistinctStates = len(states)
	if stats.Total > 0 {
		stats.CoveragePercent = float64(stats.Total) / knownUniverse * 100
	}
	return stats
}

func normalizedState(state string) string {
	return pstrings.NormalizeKey(state)
}
