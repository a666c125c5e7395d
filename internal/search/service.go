// Package search is the multi-jurisdiction search orchestrator: it fans one
// logical request out to per-jurisdiction tasks under a concurrency bound,
// consults the result cache, and folds the independent outcomes into a single
// aggregate with a derived status.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"titlesearch/internal/cache"
	"titlesearch/internal/connector"
	"titlesearch/internal/connector/models"
	"titlesearch/internal/factory"
	"titlesearch/internal/registry"
	"titlesearch/internal/search/metrics"
	"titlesearch/pkg/requestcontext"
)

// DefaultMaxConcurrent bounds simultaneously in-flight jurisdiction searches.
const DefaultMaxConcurrent = 5

// Service orchestrates multi-jurisdiction searches.
type Service struct {
	registry *registry.Registry
	factory  *factory.Factory
	cache    cache.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics

	maxConcurrent int64
}

// Option configures the service.
type Option func(*Service)

// WithMaxConcurrent overrides the in-flight task bound.
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrent = int64(n)
		}
	}
}

// WithMetrics attaches orchestrator metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the orchestrator.
func New(reg *registry.Registry, f *factory.Factory, store cache.Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		registry:      reg,
		factory:       f,
		cache:         store,
		logger:        logger,
		maxConcurrent: DefaultMaxConcurrent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListSources exposes the registry's filtered listing to external collaborators.
func (s *Service) ListSources(f registry.ListFilter) []*registry.SourceDescriptor {
	return s.registry.ListSources(f)
}

// Coverage exposes the registry's coverage statistics.
func (s *Service) Coverage() registry.CoverageStats {
	return s.registry.Coverage()
}

// Search executes one logical request and always returns a complete aggregate:
// per-jurisdiction problems become error entries, never errors past this
// boundary. Only a malformed request produces an immediately FAILED aggregate.
func (s *Service) Search(ctx context.Context, req Request) *AggregateResult {
	now := requestcontext.Now(ctx)
	result := &AggregateResult{
		RequestID:               uuid.NewString(),
		StartedAt:               now,
		DocumentsByJurisdiction: make(map[string][]models.Document),
	}

	if len(req.Jurisdictions) == 0 {
		return s.failRequest(ctx, result, "no jurisdictions specified for search")
	}
	criteria := req.criteria(now)
	if !criteria.HasIdentifyingField() {
		return s.failRequest(ctx, result, "at least one of parcel number, property address, or owner name is required")
	}

	s.logger.InfoContext(ctx, "starting search",
		"request_id", result.RequestID,
		"jurisdictions", len(req.Jurisdictions),
	)

	tasks := make([]*Task, 0, len(req.Jurisdictions))
	for _, j := range req.Jurisdictions {
		tasks = append(tasks, newTask(j, criteria))
	}

	s.executeAll(ctx, req, tasks)
	s.aggregate(result, tasks)

	s.logger.InfoContext(ctx, "search finished",
		"request_id", result.RequestID,
		"status", string(result.Status),
		"documents", result.TotalDocuments,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duration", result.CompletedAt.Sub(result.StartedAt),
	)
	if s.metrics != nil {
		s.metrics.ObserveSearch(string(result.Status))
	}
	return result
}

func (s *Service) failRequest(ctx context.Context, result *AggregateResult, msg string) *AggregateResult {
	s.logger.WarnContext(ctx, "rejecting search request", "request_id", result.RequestID, "reason", msg)
	result.Status = StatusFailed
	result.CompletedAt = time.Now()
	result.Errors = append(result.Errors, ErrorEntry{Message: msg})
	if s.metrics != nil {
		s.metrics.ObserveSearch(string(StatusFailed))
	}
	return result
}

// executeAll runs every task under the concurrency bound and blocks until all
// reach a terminal state. The per-request deadline doubles as the per-task
// deadline, so a stuck source marks its task FAILED rather than holding the
// barrier open indefinitely.
func (s *Service) executeAll(ctx context.Context, req Request, tasks []*Task) {
	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	sem := semaphore.NewWeighted(s.maxConcurrent)
	done := make(chan struct{})

	for _, task := range tasks {
		go func(task *Task) {
			defer func() { done <- struct{}{} }()

			if err := sem.Acquire(ctx, 1); err != nil {
				s.finishTask(ctx, task, nil, fmt.Errorf("timed out waiting for a search slot: %w", err))
				return
			}

			task.Status = StatusInProgress
			task.StartedAt = time.Now()

			outcome := make(chan taskOutcome, 1)
			go func() {
				defer sem.Release(1)
				docs, err := s.performSearch(ctx, req, task)
				outcome <- taskOutcome{docs: docs, err: err}
			}()

			select {
			case out := <-outcome:
				s.finishTask(ctx, task, out.docs, out.err)
			case <-ctx.Done():
				// The in-flight call is abandoned; its connector closes its
				// own resources on the deferred path whenever it returns.
				s.finishTask(ctx, task, nil, fmt.Errorf("search deadline exceeded: %w", ctx.Err()))
			}
		}(task)
	}

	for range tasks {
		<-done
	}
}

type taskOutcome struct {
	docs []models.Document
	err  error
}

// performSearch is one jurisdiction's cache-then-connector path. Every error
// is returned, not raised; the caller records it at the task boundary.
func (s *Service) performSearch(ctx context.Context, req Request, task *Task) (docs []models.Document, err error) {
	// A misbehaving connector must fail its own task only, never the request.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("connector panic: %v", r)
		}
	}()

	fingerprint := cache.Fingerprint(task.Jurisdiction, task.Criteria)

	cached, hit, err := s.cache.Get(ctx, fingerprint)
	if err != nil {
		// A broken cache should degrade to a source hit, not fail the task.
		s.logger.WarnContext(ctx, "cache read failed",
			"jurisdiction", task.Jurisdiction.String(),
			"error", err,
		)
	}
	if hit {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		s.logger.DebugContext(ctx, "cache hit", "jurisdiction", task.Jurisdiction.String())
		return cached, nil
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}

	conn, err := s.factory.CreateConnector(ctx, task.Jurisdiction, req.Credentials, req.MaxPriority)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.WarnContext(ctx, "connector close failed",
				"jurisdiction", task.Jurisdiction.String(),
				"error", cerr,
			)
		}
	}()

	docs, err = connector.UnifiedSearch(ctx, conn, task.Criteria)
	if err != nil {
		return nil, err
	}

	if perr := s.cache.Put(ctx, fingerprint, docs); perr != nil {
		s.logger.WarnContext(ctx, "cache write failed",
			"jurisdiction", task.Jurisdiction.String(),
			"error", perr,
		)
	}
	return docs, nil
}

// finishTask moves a task to its terminal state exactly once.
func (s *Service) finishTask(ctx context.Context, task *Task, docs []models.Document, err error) {
	task.CompletedAt = time.Now()
	if err != nil {
		task.Status = StatusFailed
		task.Error = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			task.Error = "timeout: " + task.Error
		}
		s.logger.WarnContext(ctx, "jurisdiction search failed",
			"task_id", task.ID,
			"jurisdiction", task.Jurisdiction.String(),
			"error", err,
		)
	} else {
		task.Status = StatusCompleted
		task.Documents = docs
		s.logger.InfoContext(ctx, "jurisdiction search completed",
			"task_id", task.ID,
			"jurisdiction", task.Jurisdiction.String(),
			"documents", len(docs),
		)
	}
	if s.metrics != nil && !task.StartedAt.IsZero() {
		s.metrics.ObserveTask(task.CompletedAt.Sub(task.StartedAt))
	}
}

// aggregate folds terminal tasks into the result. Task completion order is
// not guaranteed; within one jurisdiction's list the connector's return order
// is preserved. No cross-jurisdiction de-duplication happens here.
func (s *Service) aggregate(result *AggregateResult, tasks []*Task) {
	for _, task := range tasks {
		result.Searched++
		key := task.Jurisdiction.String()

		if task.Status == StatusCompleted {
			result.Succeeded++
			result.DocumentsByJurisdiction[key] = task.Documents
			result.AllDocuments = append(result.AllDocuments, task.Documents...)
		} else {
			result.Failed++
			msg := task.Error
			if msg == "" {
				msg = "unknown error"
			}
			result.Errors = append(result.Errors, ErrorEntry{Jurisdiction: key, Message: msg})
		}
	}

	result.TotalDocuments = len(result.AllDocuments)
	result.CompletedAt = time.Now()
	result.Status = deriveStatus(result.Searched, result.Succeeded)
}
