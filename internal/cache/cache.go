// Package cache provides the short-lived result cache that spares repeated
// searches from hitting the same source system twice within the TTL window.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"titlesearch/internal/connector/models"
	"titlesearch/pkg/domain"
)

// DefaultTTL is how long a cached document set stays servable.
const DefaultTTL = time.Hour

// Store is the cache contract. Entries are replaced wholesale, never patched;
// an entry older than the TTL is treated as absent.
type Store interface {
	// Get returns the cached documents for a fingerprint, or ok=false when the
	// entry is absent or expired.
	Get(ctx context.Context, fingerprint string) (docs []models.Document, ok bool, err error)

	// Put unconditionally overwrites the entry for a fingerprint.
	Put(ctx context.Context, fingerprint string, docs []models.Document) error
}

// Fingerprint derives the deterministic cache identity for one jurisdiction's
// search. Only the identifying criteria fields participate: parcel number,
// property address, and owner name. Date range and max results are
// intentionally excluded, so two requests differing only in those fields share
// an entry. That is a documented approximation, not a bug; widening the field
// set would trade cache hit rate for precision nobody has asked for.
func Fingerprint(j domain.Jurisdiction, criteria models.SearchCriteria) string {
	parts := []string{
		j.Key(),
		criteria.ParcelNumber,
		criteria.PropertyAddress,
		criteria.OwnerName,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
