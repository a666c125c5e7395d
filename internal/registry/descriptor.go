package registry

import (
	"sort"

	"titlesearch/internal/connector/models"
	"titlesearch/pkg/domain"
)

// Strategy priority ranks. Lower is attempted first.
const (
	PriorityPrimary   = 1 // official API, highest reliability
	PrioritySecondary = 2 // portal scraper, reliable but may break
	PriorityTertiary  = 3 // alternative source, less reliable
	PriorityFallback  = 4 // stub data only
)

// AccessStrategy is one named way to reach a jurisdiction's records.
// Immutable once added to a descriptor.
type AccessStrategy struct {
	Builder             string              `json:"builder"`
	Priority            int                 `json:"priority"`
	Method              models.AccessMethod `json:"access_method"`
	RequiresCredentials bool                `json:"requires_credentials"`
	Endpoint            string              `json:"endpoint,omitempty"`
}

// SourceMetadata is the human-readable block carried alongside a descriptor.
type SourceMetadata struct {
	Population           int     `json:"population,omitempty"`
	HasOnlineAccess      bool    `json:"has_online_access"`
	RequiresSubscription bool    `json:"requires_subscription,omitempty"`
	CostPerSearch        float64 `json:"cost_per_search,omitempty"`
	CostPerDocument      float64 `json:"cost_per_document,omitempty"`
	WebsiteURL           string  `json:"website_url,omitempty"`
	ContactEmail         string  `json:"contact_email,omitempty"`
	ContactPhone         string  `json:"contact_phone,omitempty"`
	Notes                string  `json:"notes,omitempty"`
	LastUpdated          string  `json:"last_updated,omitempty"`
}

// RateLimit bounds request volume against a source system. A zero PerDay means
// no daily cap.
type RateLimit struct {
	PerMinute int `json:"requests_per_minute"`
	PerDay    int `json:"requests_per_day,omitempty"`
}

// SourceDescriptor is one jurisdiction's configuration: identity, metadata,
// rate limits, and the ordered list of access strategies.
//
// Invariant: Strategies is always sorted ascending by priority. The sort is
// re-applied whenever the list is constructed or mutated.
type SourceDescriptor struct {
	Jurisdiction domain.Jurisdiction `json:"jurisdiction"`
	FIPSCode     string              `json:"fips_code,omitempty"`
	Strategies   []AccessStrategy    `json:"strategies"`
	Metadata     SourceMetadata      `json:"metadata"`
	RateLimit    RateLimit           `json:"rate_limit"`
}

// NewSourceDescriptor builds a descriptor with its strategy list sorted.
func NewSourceDescriptor(j domain.Jurisdiction, strategies []AccessStrategy) *SourceDescriptor {
	d := &SourceDescriptor{
		Jurisdiction: j,
		Strategies:   strategies,
		RateLimit:    RateLimit{PerMinute: 10},
	}
	d.sortStrategies()
	return d
}

// AddStrategy appends a strategy and restores priority order.
func (d *SourceDescriptor) AddStrategy(s AccessStrategy) {
	d.Strategies = append(d.Strategies, s)
	d.sortStrategies()
}

// StrategiesUpTo returns the strategies at or below the priority ceiling, in
// ascending priority order. A ceiling of 0 means no ceiling.
func (d *SourceDescriptor) StrategiesUpTo(maxPriority int) []AccessStrategy {
	if maxPriority <= 0 {
		return d.Strategies
	}
	out := make([]AccessStrategy, 0, len(d.Strategies))
	for _, s := range d.Strategies {
		if s.Priority <= maxPriority {
			out = append(out, s)
		}
	}
	return out
}

// HasMethod reports whether any strategy declares the access method.
func (d *SourceDescriptor) HasMethod(m models.AccessMethod) bool {
	for _, s := range d.Strategies {
		if s.Method == m {
			return true
		}
	}
	return false
}

func (d *SourceDescriptor) sortStrategies() {
	sort.SliceStable(d.Strategies, func(i, j int) bool {
		return d.Strategies[i].Priority < d.Strategies[j].Priority
	})
}

// clone returns a deep copy so registry readers never share mutable state.
func (d *SourceDescriptor) clone() *SourceDescriptor {
	cp := *d
	cp.Strategies = append([]AccessStrategy(nil), d.Strategies...)
	return &cp
}
