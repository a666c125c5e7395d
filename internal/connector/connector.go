// Package connector defines the capability contract every per-jurisdiction
// connector satisfies, and the unified search composition built on top of it.
//
// Concrete connectors (portal scrapers, future REST/SOAP integrations) live
// behind this contract; the orchestrator and factory never branch on connector
// type. New jurisdictions are reached by registering new builders, not by
// editing shared logic.
package connector

import (
	"context"

	"titlesearch/internal/connector/models"
	"titlesearch/pkg/domain"
)

// Connector is a live session against one jurisdiction's record system.
//
// Every network-touching operation is independently fallible; failures surface
// as error returns, never panics. Implementations may lazily authenticate on
// first use. Close must be safe to call regardless of how the session ended.
type Connector interface {
	// Jurisdiction identifies the authority this session is bound to.
	Jurisdiction() domain.Jurisdiction

	// Authenticated reports whether a prior Authenticate succeeded.
	Authenticated() bool

	// Authenticate establishes a session. Returns false without error when the
	// backend rejects the credentials.
	Authenticate(ctx context.Context) (bool, error)

	// SearchByParcel returns all documents recorded against a parcel number.
	SearchByParcel(ctx context.Context, parcelNumber string) ([]models.Document, error)

	// SearchByAddress returns documents matching a property address.
	SearchByAddress(ctx context.Context, address string) ([]models.Document, error)

	// SearchByOwner returns documents where the named party appears as grantee.
	SearchByOwner(ctx context.Context, ownerName string) ([]models.Document, error)

	// SearchByReference looks up a single document by book/page or instrument
	// number. Returns (nil, nil) when no document matches.
	SearchByReference(ctx context.Context, book, page, instrumentNumber string) (*models.Document, error)

	// FetchContent retrieves the recorded image/PDF bytes for a document.
	// Returns (nil, nil) when the source has no content for the ID.
	FetchContent(ctx context.Context, documentID string) ([]byte, error)

	// Close releases any open sessions or connections.
	Close() error
}

// UnifiedSearch composes the contract's per-field searches for one criteria:
// it runs each identifying-field search the criteria populates, concatenates
// the results, applies the kind and date-range filters, removes duplicates by
// document ID (first occurrence wins, order preserved), and truncates to the
// criteria's result cap.
//
// The connector is authenticated lazily if it is not already.
func UnifiedSearch(ctx context.Context, c Connector, criteria models.SearchCriteria) ([]models.Document, error) {
	if !c.Authenticated() {
		if _, err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	var results []models.Document

	if criteria.ParcelNumber != "" {
		docs, err := c.SearchByParcel(ctx, criteria.ParcelNumber)
		if err != nil {
			return nil, err
		}
		results = append(results, docs...)
	}

	if criteria.PropertyAddress != "" {
		docs, err := c.SearchByAddress(ctx, criteria.PropertyAddress)
		if err != nil {
			return nil, err
		}
		results = append(results, docs...)
	}

	if criteria.OwnerName != "" {
		docs, err := c.SearchByOwner(ctx, criteria.OwnerName)
		if err != nil {
			return nil, err
		}
		results = append(results, docs...)
	}

	if criteria.HasReference() {
		doc, err := c.SearchByReference(ctx, criteria.Book, criteria.Page, criteria.InstrumentNumber)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			results = append(results, *doc)
		}
	}

	filtered := results[:0:0]
	for _, doc := range results {
		if criteria.MatchesKind(doc) && criteria.MatchesDateRange(doc) {
			filtered = append(filtered, doc)
		}
	}

	seen := make(map[string]struct{}, len(filtered))
	unique := make([]models.Document, 0, len(filtered))
	for _, doc := range filtered {
		if _, ok := seen[doc.DocumentID]; ok {
			continue
		}
		seen[doc.DocumentID] = struct{}{}
		unique = append(unique, doc)
	}

	if limit := criteria.ResultCap(); len(unique) > limit {
		unique = unique[:limit]
	}
	return unique, nil
}
