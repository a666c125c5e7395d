// Package models defines the canonical shapes exchanged with source-system
// connectors: retrieved documents and the search criteria that select them.
package models

import (
	"time"

	"titlesearch/pkg/domain"
)

// DocumentKind classifies a land record document. The set is closed; anything
// a source system reports outside it maps to KindOther.
type DocumentKind string

const (
	KindDeed     DocumentKind = "deed"
	KindMortgage DocumentKind = "mortgage"
	KindLien     DocumentKind = "lien"
	KindRelease  DocumentKind = "release"
	KindEasement DocumentKind = "easement"
	KindPlat     DocumentKind = "plat"
	KindJudgment DocumentKind = "judgment"
	KindUCC      DocumentKind = "ucc"
	KindOther    DocumentKind = "other"
)

// AccessMethod declares how a strategy reaches a jurisdiction's records.
type AccessMethod string

const (
	MethodAPI      AccessMethod = "rest_api"
	MethodSOAP     AccessMethod = "soap_api"
	MethodPortal   AccessMethod = "web_scraper"
	MethodFTP      AccessMethod = "ftp"
	MethodDatabase AccessMethod = "database"
	MethodStub     AccessMethod = "stub"
)

// Document is one retrieved land record. Connectors create documents at
// retrieval time; they are never mutated afterwards and are copied, not
// shared, across cache and aggregate boundaries.
//
// DocumentID is unique within the jurisdiction and source system that
// produced it, not globally.
type Document struct {
	DocumentID   string              `json:"document_id"`
	Jurisdiction domain.Jurisdiction `json:"jurisdiction"`

	// Recording reference
	Book             string    `json:"book,omitempty"`
	Page             string    `json:"page,omitempty"`
	InstrumentNumber string    `json:"instrument_number,omitempty"`
	RecordingDate    time.Time `json:"recording_date,omitempty"`

	Kind DocumentKind `json:"kind"`

	// Parties; each list is ordered and non-empty when present.
	Grantors []string `json:"grantors,omitempty"`
	Grantees []string `json:"grantees,omitempty"`

	// Property reference
	ParcelNumber     string `json:"parcel_number,omitempty"`
	PropertyAddress  string `json:"property_address,omitempty"`
	LegalDescription string `json:"legal_description,omitempty"`

	Consideration float64 `json:"consideration,omitempty"`

	// ConfidenceScore reflects extraction reliability, in [0,1].
	ConfidenceScore float64   `json:"confidence_score"`
	SourceSystem    string    `json:"source_system,omitempty"`
	RetrievedAt     time.Time `json:"retrieved_at"`
}

// SearchCriteria is a normalized query against one jurisdiction. All fields
// are optional; the orchestrator enforces that at least one identifying field
// (parcel, address, owner, or document reference) is set.
type SearchCriteria struct {
	ParcelNumber    string `json:"parcel_number,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
	OwnerName       string `json:"owner_name,omitempty"`

	Book             string `json:"book,omitempty"`
	Page             string `json:"page,omitempty"`
	InstrumentNumber string `json:"instrument_number,omitempty"`

	StartDate time.Time `json:"start_date,omitempty"`
	EndDate   time.Time `json:"end_date,omitempty"`

	Kinds []DocumentKind `json:"kinds,omitempty"`

	MaxResults int `json:"max_results,omitempty"`
}

// DefaultMaxResults caps a criteria's result set when the caller leaves
// MaxResults unset.
const DefaultMaxResults = 100

// HasIdentifyingField reports whether the criteria can select any records.
func (c SearchCriteria) HasIdentifyingField() bool {
	return c.ParcelNumber != "" || c.PropertyAddress != "" || c.OwnerName != "" ||
		c.Book != "" || c.Page != "" || c.InstrumentNumber != ""
}

// HasReference reports whether a book/page or instrument lookup applies.
func (c SearchCriteria) HasReference() bool {
	return c.Book != "" || c.Page != "" || c.InstrumentNumber != ""
}

// ResultCap returns MaxResults with the default applied.
func (c SearchCriteria) ResultCap() int {
	if c.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return c.MaxResults
}

// MatchesKind reports whether the document's kind passes the criteria's kind
// filter. An empty filter admits everything.
func (c SearchCriteria) MatchesKind(d Document) bool {
	if len(c.Kinds) == 0 {
		return true
	}
	for _, k := range c.Kinds {
		if d.Kind == k {
			return true
		}
	}
	return false
}

// MatchesDateRange reports whether the document's recording date falls inside
// the criteria's inclusive range. Documents without a recording date are
// excluded once either bound is set, since their position is unknowable.
func (c SearchCriteria) MatchesDateRange(d Document) bool {
	if c.StartDate.IsZero() && c.EndDate.IsZero() {
		return true
	}
	if d.RecordingDate.IsZero() {
		return false
	}
	if !c.StartDate.IsZero() && d.RecordingDate.Before(c.StartDate) {
		return false
	}
	if !c.EndDate.IsZero() && d.RecordingDate.After(c.EndDate) {
		return false
	}
	return true
}
