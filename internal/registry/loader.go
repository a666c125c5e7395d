package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"titlesearch/internal/connector"
	"titlesearch/internal/connector/models"
	"titlesearch/pkg/domain"
)

// configFile is the persisted registry shape. This is the only on-disk
// contract the core owns.
type configFile struct {
	Version string              `json:"version"`
	Sources []*SourceDescriptor `json:"sources"`
}

const configVersion = "1.0"

// LoadFile replaces nothing and adds every descriptor from a JSON config file.
// Strategy lists are re-sorted as descriptors are added.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read registry config: %w", err)
	}

	var cfg configFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse registry config: %w", err)
	}

	for _, d := range cfg.Sources {
		if d == nil || d.Jurisdiction.IsZero() {
			return fmt.Errorf("registry config: source entry missing jurisdiction")
		}
		r.AddSource(d)
	}

	r.logger.Info("loaded registry config", "path", path, "sources", len(cfg.Sources))
	return nil
}

// SaveFile writes the current descriptor set as a JSON config file, creating
// parent directories as needed.
func (r *Registry) SaveFile(path string) error {
	cfg := configFile{
		Version: configVersion,
		Sources: r.ListSources(ListFilter{}),
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create registry config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write registry config: %w", err)
	}

	r.logger.Info("saved registry config", "path", path, "sources", len(cfg.Sources))
	return nil
}

// AddDefaults seeds the registry with the built-in descriptor set used when no
// config file is present.
func (r *Registry) AddDefaults() {
	montgomery := NewSourceDescriptor(domain.NewJurisdiction("Montgomery", "MD"), []AccessStrategy{
		{
			Builder:             "portal",
			Priority:            PriorityPrimary,
			Method:              models.MethodPortal,
			RequiresCredentials: true,
			Endpoint:            "https://landrec.msa.maryland.gov",
		},
		{
			Builder:  connector.StubBuilderName,
			Priority: PriorityFallback,
			Method:   models.MethodStub,
		},
	})
	montgomery.FIPSCode = "24031"
	montgomery.Metadata = SourceMetadata{
		Population:           1062061,
		HasOnlineAccess:      true,
		RequiresSubscription: true,
		WebsiteURL:           "https://landrec.msa.maryland.gov",
		Notes:                "Free access with email registration. Portal scraping required.",
		LastUpdated:          "2026-01-08",
	}
	montgomery.RateLimit = RateLimit{PerMinute: 10}
	r.AddSource(montgomery)

	losAngeles := NewSourceDescriptor(domain.NewJurisdiction("Los Angeles", "CA"), []AccessStrategy{
		{
			Builder:  connector.StubBuilderName,
			Priority: PriorityFallback,
			Method:   models.MethodStub,
		},
	})
	losAngeles.FIPSCode = "06037"
	losAngeles.Metadata = SourceMetadata{
		Population:      10014009,
		HasOnlineAccess: true,
		WebsiteURL:      "https://lavote.gov/",
		Notes:           "Has public API - connector not yet implemented",
		LastUpdated:     "2026-01-08",
	}
	losAngeles.RateLimit = RateLimit{PerMinute: 10}
	r.AddSource(losAngeles)

	cook := NewSourceDescriptor(domain.NewJurisdiction("Cook", "IL"), []AccessStrategy{
		{
			Builder:  connector.StubBuilderName,
			Priority: PriorityFallback,
			Method:   models.MethodStub,
		},
	})
	cook.FIPSCode = "17031"
	cook.Metadata = SourceMetadata{
		Population:      5275541,
		HasOnlineAccess: true,
		WebsiteURL:      "https://www.cookcountyassessor.com/",
		Notes:           "Public data portal available - connector not yet implemented",
		LastUpdated:     "2026-01-08",
	}
	cook.RateLimit = RateLimit{PerMinute: 10}
	r.AddSource(cook)
}
