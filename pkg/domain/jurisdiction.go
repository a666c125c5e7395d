// Package domain defines identity types shared across the system.
package domain

import (
	"fmt"

	pstrings "titlesearch/pkg/platform/strings"
)

// Jurisdiction identifies one independent record-keeping authority: a county
// within a state. The pair is case-insensitive and whitespace-normalized;
// two jurisdictions are the same iff their Keys are equal.
type Jurisdiction struct {
	County string `json:"county"`
	State  string `json:"state"`
}

// NewJurisdiction builds a jurisdiction from raw county/state strings.
func NewJurisdiction(county, state string) Jurisdiction {
	return Jurisdiction{County: county, State: state}
}

// Key returns the normalized registry key, unique per jurisdiction.
func (j Jurisdiction) Key() string {
	return pstrings.NormalizeKey(j.State) + "_" + pstrings.NormalizeKey(j.County)
}

// IsZero reports whether either component is missing after normalization.
func (j Jurisdiction) IsZero() bool {
	return pstrings.NormalizeKey(j.County) == "" || pstrings.NormalizeKey(j.State) == ""
}

// String renders the human-readable "County, State" form used in aggregate
// result maps and error entries.
func (j Jurisdiction) String() string {
	return fmt.Sprintf("%s, %s", j.County, j.State)
}
