// Package factory turns a jurisdiction plus caller credentials into a live
// connector, trying access strategies in priority order and degrading to the
// stub connector when nothing else can be built.
package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"titlesearch/internal/connector"
	"titlesearch/internal/registry"
	"titlesearch/pkg/domain"
	"titlesearch/pkg/platform/sentinel"
)

var stubFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "titlesearch_factory_stub_fallbacks_total",
	Help: "Times every real strategy failed and the stub connector was returned",
})

// GlobalCredentialKey is the fallback bucket consulted when no
// strategy-specific credentials exist.
const GlobalCredentialKey = "global"

// Credentials maps a builder name (or the global fallback key) to an opaque
// key-value bundle. Callers supply them per request; the factory never
// inspects the values beyond handing them to builders.
type Credentials map[string]map[string]string

// ForBuilder resolves the bundle for a builder, falling back to the global
// bucket. Returns nil when neither exists.
func (c Credentials) ForBuilder(name string) map[string]string {
	if creds, ok := c[name]; ok && len(creds) > 0 {
		return creds
	}
	return c[GlobalCredentialKey]
}

// Factory constructs connectors against the registry's strategy lists.
type Factory struct {
	registry *registry.Registry
	logger   *slog.Logger

	// strict disables the stub fallback: total strategy exhaustion surfaces
	// sentinel.ErrUnavailable so callers can tell "empty result" from "could
	// not reach any source". Off by default, preserving availability-first
	// behavior.
	strict bool
}

// Option configures a Factory.
type Option func(*Factory)

// WithStrictMode makes strategy exhaustion an error instead of a stub.
func WithStrictMode(strict bool) Option {
	return func(f *Factory) { f.strict = strict }
}

// New creates a factory over the given registry.
func New(reg *registry.Registry, logger *slog.Logger, opts ...Option) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Factory{registry: reg, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateConnector builds a live connector for the jurisdiction.
//
// Strategies at or below maxPriority (0 = no ceiling) are attempted ascending
// by priority. A strategy whose builder needs credentials the caller did not
// supply is skipped, not retried. The first successful construction wins.
// When every strategy fails the factory returns the guaranteed-available stub
// (or sentinel.ErrUnavailable in strict mode); construction failures are only
// logged, never propagated.
//
// Returns sentinel.ErrNotFound for an unknown jurisdiction and
// sentinel.ErrNoStrategy when the ceiling leaves no strategy to try.
func (f *Factory) CreateConnector(ctx context.Context, j domain.Jurisdiction, creds Credentials, maxPriority int) (connector.Connector, error) {
	desc, err := f.registry.GetSource(j)
	if err != nil {
		return nil, fmt.Errorf("jurisdiction %s: %w", j, err)
	}

	strategies := desc.StrategiesUpTo(maxPriority)
	if len(strategies) == 0 {
		return nil, fmt.Errorf("jurisdiction %s at priority <= %d: %w", j, maxPriority, sentinel.ErrNoStrategy)
	}

	for _, strategy := range strategies {
		builder, ok := f.registry.Builder(strategy.Builder)
		if !ok {
			f.logger.WarnContext(ctx, "strategy names unregistered builder",
				"jurisdiction", j.String(),
				"builder", strategy.Builder,
			)
			continue
		}

		conn, err := builder(ctx, j, strategy, creds.ForBuilder(strategy.Builder))
		if err != nil {
			if errors.Is(err, sentinel.ErrCredentialMissing) {
				f.logger.DebugContext(ctx, "skipping strategy, credentials missing",
					"jurisdiction", j.String(),
					"builder", strategy.Builder,
				)
			} else {
				f.logger.WarnContext(ctx, "connector construction failed",
					"jurisdiction", j.String(),
					"builder", strategy.Builder,
					"priority", strategy.Priority,
					"error", err,
				)
			}
			continue
		}

		f.logger.InfoContext(ctx, "created connector",
			"jurisdiction", j.String(),
			"builder", strategy.Builder,
			"priority", strategy.Priority,
		)
		return conn, nil
	}

	if f.strict {
		return nil, fmt.Errorf("jurisdiction %s: all strategies failed: %w", j, sentinel.ErrUnavailable)
	}

	stubFallbacks.Inc()
	f.logger.WarnContext(ctx, "all strategies failed, falling back to stub",
		"jurisdiction", j.String(),
	)
	return connector.NewStub(j), nil
}
