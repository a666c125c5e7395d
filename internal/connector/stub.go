package connector

import (
	"context"
	"strings"
	"sync"
	"time"

	"titlesearch/internal/connector/models"
	"titlesearch/pkg/domain"
)

// StubBuilderName is the builder the stub connector registers under.
const StubBuilderName = "stub"

// Stub is the guaranteed-available fallback connector. It serves deterministic
// sample data with no network dependency and never fails, which is what lets
// the factory promise a live connector even when every real strategy is down.
type Stub struct {
	mu            sync.Mutex
	jurisdiction  domain.Jurisdiction
	authenticated bool
	documents     []models.Document
}

// NewStub creates a stub connector preloaded with two sample documents (a deed
// and a mortgage against the same parcel) attributed to the jurisdiction.
func NewStub(jurisdiction domain.Jurisdiction) *Stub {
	s := &Stub{jurisdiction: jurisdiction}
	s.documents = sampleDocuments(jurisdiction)
	return s
}

// NewStubWithDocuments creates a stub serving the given documents. Tests use
// this to stage known result sets.
func NewStubWithDocuments(jurisdiction domain.Jurisdiction, docs []models.Document) *Stub {
	return &Stub{jurisdiction: jurisdiction, documents: docs}
}

func sampleDocuments(j domain.Jurisdiction) []models.Document {
	return []models.Document{
		{
			DocumentID:       "stub-001",
			Jurisdiction:     j,
			Book:             "1234",
			Page:             "567",
			InstrumentNumber: "2024-0001",
			RecordingDate:    time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
			Kind:             models.KindDeed,
			Grantors:         []string{"John Doe", "Jane Doe"},
			Grantees:         []string{"Alice Smith"},
			ParcelNumber:     "12-345-6789",
			PropertyAddress:  "123 Main St",
			LegalDescription: "LOT 1, BLOCK A",
			Consideration:    500000,
			ConfidenceScore:  1.0,
			SourceSystem:     "Stub System",
			RetrievedAt:      time.Now().UTC(),
		},
		{
			DocumentID:       "stub-002",
			Jurisdiction:     j,
			Book:             "1234",
			Page:             "789",
			InstrumentNumber: "2024-0002",
			RecordingDate:    time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
			Kind:             models.KindMortgage,
			Grantors:         []string{"Alice Smith"},
			Grantees:         []string{"First National Bank"},
			ParcelNumber:     "12-345-6789",
			PropertyAddress:  "123 Main St",
			Consideration:    400000,
			ConfidenceScore:  1.0,
			SourceSystem:     "Stub System",
			RetrievedAt:      time.Now().UTC(),
		},
	}
}

func (s *Stub) Jurisdiction() domain.Jurisdiction { return s.jurisdiction }

func (s *Stub) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Stub) Authenticate(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	return true, nil
}

func (s *Stub) SearchByParcel(_ context.Context, parcelNumber string) ([]models.Document, error) {
	var out []models.Document
	for _, doc := range s.documents {
		if doc.ParcelNumber == parcelNumber {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *Stub) SearchByAddress(_ context.Context, address string) ([]models.Document, error) {
	var out []models.Document
	needle := strings.ToLower(address)
	for _, doc := range s.documents {
		if strings.Contains(strings.ToLower(doc.PropertyAddress), needle) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *Stub) SearchByOwner(_ context.Context, ownerName string) ([]models.Document, error) {
	var out []models.Document
	needle := strings.ToLower(ownerName)
	for _, doc := range s.documents {
		for _, grantee := range doc.Grantees {
			if strings.Contains(strings.ToLower(grantee), needle) {
				out = append(out, doc)
				break
			}
		}
	}
	return out, nil
}

func (s *Stub) SearchByReference(_ context.Context, book, page, instrumentNumber string) (*models.Document, error) {
	for _, doc := range s.documents {
		if instrumentNumber != "" && doc.InstrumentNumber == instrumentNumber {
			d := doc
			return &d, nil
		}
		if book != "" && page != "" && doc.Book == book && doc.Page == page {
			d := doc
			return &d, nil
		}
	}
	return nil, nil
}

func (s *Stub) FetchContent(_ context.Context, documentID string) ([]byte, error) {
	for _, doc := range s.documents {
		if doc.DocumentID == documentID {
			return []byte("STUB_PDF_CONTENT_FOR_" + documentID), nil
		}
	}
	return nil, nil
}

func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	return nil
}
