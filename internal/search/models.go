package search

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"titlesearch/internal/connector/models"
	"titlesearch/internal/factory"
	"titlesearch/pkg/domain"
)

// Status tracks the lifecycle of a task or the derived outcome of a request.
//
// Task lifecycle: PENDING → IN_PROGRESS → {COMPLETED | FAILED}. Terminal
// states are final; a task is never retried within a request. PARTIAL applies
// only to aggregates, never to individual tasks.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusPartial    Status = "partial"
)

// Defaults applied when the corresponding request field is unset.
const (
	DefaultYearsBack    = 60
	DefaultMaxDocuments = 1000
	DefaultTimeout      = 300 * time.Second
)

// Request is one logical multi-jurisdiction search.
type Request struct {
	Jurisdictions []domain.Jurisdiction `json:"jurisdictions"`

	ParcelNumber    string `json:"parcel_number,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
	OwnerName       string `json:"owner_name,omitempty"`

	// YearsBack bounds the recording-date range searched, counted back from
	// the request time.
	YearsBack int                   `json:"years_back,omitempty"`
	Kinds     []models.DocumentKind `json:"kinds,omitempty"`

	MaxDocuments int           `json:"max_documents,omitempty"`
	Timeout      time.Duration `json:"-"`

	// MaxPriority caps which access strategies the factory may try; 0 means
	// no ceiling.
	MaxPriority int `json:"max_priority,omitempty"`

	// Credentials are passed through to connector builders, keyed by builder
	// name with a "global" fallback bucket.
	Credentials factory.Credentials `json:"-"`
}

// criteria derives the per-jurisdiction search criteria from the request's
// shared fields at the given request time.
func (r Request) criteria(now time.Time) models.SearchCriteria {
	yearsBack := r.YearsBack
	if yearsBack <= 0 {
		yearsBack = DefaultYearsBack
	}
	maxDocs := r.MaxDocuments
	if maxDocs <= 0 {
		maxDocs = DefaultMaxDocuments
	}
	return models.SearchCriteria{
		ParcelNumber:    r.ParcelNumber,
		PropertyAddress: r.PropertyAddress,
		OwnerName:       r.OwnerName,
		StartDate:       now.AddDate(0, 0, -365*yearsBack),
		EndDate:         now,
		Kinds:           r.Kinds,
		MaxResults:      maxDocs,
	}
}

func (r Request) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

// Task is one jurisdiction's unit of work within a request. Created per
// request, never reused.
type Task struct {
	ID           string                `json:"task_id"`
	Jurisdiction domain.Jurisdiction   `json:"jurisdiction"`
	Criteria     models.SearchCriteria `json:"criteria"`
	Status       Status                `json:"status"`
	Documents    []models.Document     `json:"documents,omitempty"`
	Error        string                `json:"error,omitempty"`
	StartedAt    time.Time             `json:"started_at,omitempty"`
	CompletedAt  time.Time             `json:"completed_at,omitempty"`
}

// newTask derives the deterministic task ID from the jurisdiction and a
// content hash of the criteria.
func newTask(j domain.Jurisdiction, criteria models.SearchCriteria) *Task {
	payload, _ := json.Marshal(criteria)
	sum := sha256.Sum256(payload)
	return &Task{
		ID:           j.Key() + "_" + hex.EncodeToString(sum[:])[:8],
		Jurisdiction: j,
		Criteria:     criteria,
		Status:       StatusPending,
	}
}

// ErrorEntry is one structured failure in an aggregate result.
type ErrorEntry struct {
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Message      string `json:"message"`
}

// AggregateResult is one request's outcome. Immutable once returned.
type AggregateResult struct {
	RequestID   string    `json:"request_id"`
	Status      Status    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	DocumentsByJurisdiction map[string][]models.Document `json:"documents_by_jurisdiction"`
	AllDocuments            []models.Document            `json:"all_documents"`

	Searched       int `json:"jurisdictions_searched"`
	Succeeded      int `json:"jurisdictions_succeeded"`
	Failed         int `json:"jurisdictions_failed"`
	TotalDocuments int `json:"total_documents"`

	Errors []ErrorEntry `json:"errors,omitempty"`
}

// deriveStatus computes the overall status from per-task outcomes.
func deriveStatus(searched, succeeded int) Status {
	switch {
	case searched > 0 && succeeded == searched:
		return StatusCompleted
	case succeeded > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}
