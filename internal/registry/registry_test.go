package registry

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"titlesearch/internal/connector"
	"titlesearch/internal/connector/models"
	"titlesearch/pkg/domain"
	"titlesearch/pkg/platform/sentinel"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func (s *RegistrySuite) SetupTest() {
	s.registry = New(slog.Default())
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) descriptor(county, state string, strategies ...AccessStrategy) *SourceDescriptor {
	return NewSourceDescriptor(domain.NewJurisdiction(county, state), strategies)
}

// TestSourceLookups verifies add/get semantics including key normalization.
func (s *RegistrySuite) TestSourceLookups() {
	s.Run("finds source case-insensitively", func() {
		s.registry.AddSource(s.descriptor("Montgomery", "MD"))

		d, err := s.registry.GetSource(domain.NewJurisdiction("  montgomery ", "md"))
		s.Require().NoError(err)
		s.Equal("Montgomery", d.Jurisdiction.County)
	})

	s.Run("returns ErrNotFound for unknown jurisdiction", func() {
		_, err := s.registry.GetSource(domain.NewJurisdiction("Nowhere", "ZZ"))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned descriptor is a copy", func() {
		s.registry.AddSource(s.descriptor("Cook", "IL", AccessStrategy{Builder: "stub", Priority: PriorityFallback}))

		d, err := s.registry.GetSource(domain.NewJurisdiction("Cook", "IL"))
		s.Require().NoError(err)
		d.Strategies[0].Priority = 99

		again, err := s.registry.GetSource(domain.NewJurisdiction("Cook", "IL"))
		s.Require().NoError(err)
		s.Equal(PriorityFallback, again.Strategies[0].Priority)
	})
}

// TestStrategyOrdering verifies the priority-sorted invariant survives both
// construction and mutation.
func (s *RegistrySuite) TestStrategyOrdering() {
	s.Run("AddSource re-sorts an unsorted strategy list", func() {
		d := &SourceDescriptor{
			Jurisdiction: domain.NewJurisdiction("Harris", "TX"),
			Strategies: []AccessStrategy{
				{Builder: "stub", Priority: PriorityFallback},
				{Builder: "api", Priority: PriorityPrimary},
				{Builder: "portal", Priority: PrioritySecondary},
			},
		}
		s.registry.AddSource(d)

		got, err := s.registry.GetSource(d.Jurisdiction)
		s.Require().NoError(err)
		s.Equal([]string{"api", "portal", "stub"}, builderNames(got.Strategies))
	})

	s.Run("AddStrategy keeps the list sorted", func() {
		d := s.descriptor("Wayne", "MI", AccessStrategy{Builder: "stub", Priority: PriorityFallback})
		d.AddStrategy(AccessStrategy{Builder: "api", Priority: PriorityPrimary})
		s.Equal([]string{"api", "stub"}, builderNames(d.Strategies))
	})

	s.Run("priority ceiling filters strategies", func() {
		d := s.descriptor("Wayne", "MI",
			AccessStrategy{Builder: "api", Priority: PriorityPrimary},
			AccessStrategy{Builder: "stub", Priority: PriorityFallback},
		)
		s.Equal([]string{"api"}, builderNames(d.StrategiesUpTo(PriorityTertiary)))
		s.Empty(d.StrategiesUpTo(PriorityPrimary - 1))
		s.Len(d.StrategiesUpTo(0), 2)
	})
}

// TestListing verifies filtered, stably sorted listing.
func (s *RegistrySuite) TestListing() {
	online := func(d *SourceDescriptor) *SourceDescriptor {
		d.Metadata.HasOnlineAccess = true
		return d
	}

	s.registry.AddSource(online(s.descriptor("Montgomery", "MD")))
	s.registry.AddSource(s.descriptor("Baltimore", "MD"))
	s.registry.AddSource(online(s.descriptor("Cook", "IL")))

	s.Run("sorts by state then county", func() {
		got := s.registry.ListSources(ListFilter{})
		s.Require().Len(got, 3)
		s.Equal("Cook", got[0].Jurisdiction.County)
		s.Equal("Baltimore", got[1].Jurisdiction.County)
		s.Equal("Montgomery", got[2].Jurisdiction.County)
	})

	s.Run("filters by state", func() {
		got := s.registry.ListSources(ListFilter{State: "md"})
		s.Require().Len(got, 2)
		for _, d := range got {
			s.Equal("MD", d.Jurisdiction.State)
		}
	})

	s.Run("filters by online access", func() {
		yes := true
		got := s.registry.ListSources(ListFilter{State: "MD", OnlineAccess: &yes})
		s.Require().Len(got, 1)
		s.Equal("Montgomery", got[0].Jurisdiction.County)
	})
}

func (s *RegistrySuite) TestCoverage() {
	s.registry.AddDefaults()

	stats := s.registry.Coverage()
	s.Equal(3, stats.Total)
	s.Equal(3, stats.WithOnlineAccess)
	s.Equal(1, stats.ByAccessMethod[models.MethodPortal])
	s.Equal(3, stats.ByAccessMethod[models.MethodStub])
	s.Equal(3, stats.DistinctStates)
	s.InDelta(float64(3)/3143*100, stats.CoveragePercent, 0.001)
}

func (s *RegistrySuite) TestBuilders() {
	s.registry.RegisterBuilder("stub", func(_ context.Context, j domain.Jurisdiction, _ AccessStrategy, _ map[string]string) (connector.Connector, error) {
		return connector.NewStub(j), nil
	})

	_, ok := s.registry.Builder("stub")
	s.True(ok)
	_, ok = s.registry.Builder("unknown")
	s.False(ok)
}

// TestConfigRoundTrip verifies the JSON on-disk contract.
func (s *RegistrySuite) TestConfigRoundTrip() {
	s.registry.AddDefaults()
	path := filepath.Join(s.T().TempDir(), "sources.json")
	s.Require().NoError(s.registry.SaveFile(path))

	reloaded := New(slog.Default())
	s.Require().NoError(reloaded.LoadFile(path))

	s.Equal(s.registry.Coverage(), reloaded.Coverage())

	d, err := reloaded.GetSource(domain.NewJurisdiction("Montgomery", "MD"))
	s.Require().NoError(err)
	s.Require().Len(d.Strategies, 2)
	s.Equal("portal", d.Strategies[0].Builder)
	s.True(d.Strategies[0].RequiresCredentials)
	s.Equal(10, d.RateLimit.PerMinute)
}

func builderNames(strategies []AccessStrategy) []string {
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Builder)
	}
	return names
}
