package search

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"titlesearch/internal/cache"
	"titlesearch/internal/connector"
	"titlesearch/internal/connector/models"
	"titlesearch/internal/factory"
	"titlesearch/internal/registry"
	"titlesearch/pkg/domain"
)

// scriptedConnector lets tests control each capability independently.
type scriptedConnector struct {
	jurisdiction domain.Jurisdiction
	searchFn     func(ctx context.Context, parcel string) ([]models.Document, error)
	closed       atomic.Bool
}

func (c *scriptedConnector) Jurisdiction() domain.Jurisdiction { return c.jurisdiction }
func (c *scriptedConnector) Authenticated() bool               { return true }
func (c *scriptedConnector) Authenticate(context.Context) (bool, error) {
	return true, nil
}

func (c *scriptedConnector) SearchByParcel(ctx context.Context, parcel string) ([]models.Document, error) {
	if c.searchFn != nil {
		return c.searchFn(ctx, parcel)
	}
	return nil, nil
}

func (c *scriptedConnector) SearchByAddress(context.Context, string) ([]models.Document, error) {
	return nil, nil
}

func (c *scriptedConnector) SearchByOwner(context.Context, string) ([]models.Document, error) {
	return nil, nil
}

func (c *scriptedConnector) SearchByReference(context.Context, string, string, string) (*models.Document, error) {
	return nil, nil
}

func (c *scriptedConnector) FetchContent(context.Context, string) ([]byte, error) {
	return nil, nil
}

func (c *scriptedConnector) Close() error {
	c.closed.Store(true)
	return nil
}

type OrchestratorSuite struct {
	suite.Suite
	ctx      context.Context
	registry *registry.Registry
}

func (s *OrchestratorSuite) SetupTest() {
	s.ctx = context.Background()
	s.registry = registry.New(slog.Default())
	factory.RegisterBuiltinBuilders(s.registry)
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

// addStubSource registers a jurisdiction reachable only through the stub.
func (s *OrchestratorSuite) addStubSource(county, state string) domain.Jurisdiction {
	j := domain.NewJurisdiction(county, state)
	s.registry.AddSource(registry.NewSourceDescriptor(j, []registry.AccessStrategy{
		{Builder: connector.StubBuilderName, Priority: registry.PriorityFallback, Method: models.MethodStub},
	}))
	return j
}

// addScriptedSource registers a jurisdiction backed by a dedicated builder.
func (s *OrchestratorSuite) addScriptedSource(county, state, builderName string, b registry.Builder) domain.Jurisdiction {
	j := domain.NewJurisdiction(county, state)
	s.registry.RegisterBuilder(builderName, b)
	s.registry.AddSource(registry.NewSourceDescriptor(j, []registry.AccessStrategy{
		{Builder: builderName, Priority: registry.PriorityPrimary, Method: models.MethodAPI},
	}))
	return j
}

func (s *OrchestratorSuite) newService(opts ...Option) *Service {
	f := factory.New(s.registry, slog.Default(), factory.WithStrictMode(true))
	return New(s.registry, f, cache.NewInMemory(time.Hour), slog.Default(), opts...)
}

func (s *OrchestratorSuite) TestRequestValidation() {
	svc := s.newService()

	s.Run("no jurisdictions fails immediately without counting a failure", func() {
		result := svc.Search(s.ctx, Request{ParcelNumber: "12-345-6789"})
		s.Equal(StatusFailed, result.Status)
		s.Zero(result.Searched)
		s.Zero(result.Failed)
		s.Require().Len(result.Errors, 1)
		s.Empty(result.Errors[0].Jurisdiction)
	})

	s.Run("missing identifying field fails immediately", func() {
		s.addStubSource("Alpha", "ST")
		result := svc.Search(s.ctx, Request{Jurisdictions: []domain.Jurisdiction{domain.NewJurisdiction("Alpha", "ST")}})
		s.Equal(StatusFailed, result.Status)
		s.Zero(result.Searched)
	})
}

// TestEndToEnd runs the canonical single-jurisdiction stub search.
func (s *OrchestratorSuite) TestEndToEnd() {
	alpha := s.addStubSource("Alpha", "ST")
	svc := s.newService()

	result := svc.Search(s.ctx, Request{
		Jurisdictions: []domain.Jurisdiction{alpha},
		ParcelNumber:  "12-345-6789",
	})

	s.Equal(StatusCompleted, result.Status)
	s.Equal(1, result.Searched)
	s.Equal(1, result.Succeeded)
	s.Zero(result.Failed)
	s.Equal(2, result.TotalDocuments)
	s.NotEmpty(result.RequestID)

	docs := result.DocumentsByJurisdiction["Alpha, ST"]
	s.Require().Len(docs, 2)
	s.Equal(models.KindDeed, docs[0].Kind)
	s.Equal(models.KindMortgage, docs[1].Kind)
}

// TestCountsAndStatus pins the aggregate invariants: searched == n,
// succeeded + failed == n, and the status derivation table.
func (s *OrchestratorSuite) TestCountsAndStatus() {
	s.Run("all succeed is COMPLETED", func() {
		a := s.addStubSource("Alpha", "ST")
		b := s.addStubSource("Beta", "ST")
		svc := s.newService()

		result := svc.Search(s.ctx, Request{
			Jurisdictions: []domain.Jurisdiction{a, b},
			ParcelNumber:  "12-345-6789",
		})
		s.Equal(StatusCompleted, result.Status)
		s.Equal(2, result.Searched)
		s.Equal(result.Searched, result.Succeeded+result.Failed)
	})

	s.Run("none succeed is FAILED", func() {
		j := s.addScriptedSource("Gamma", "ST", "gamma-broken", func(context.Context, domain.Jurisdiction, registry.AccessStrategy, map[string]string) (connector.Connector, error) {
			return nil, errors.New("backend down")
		})
		svc := s.newService()

		result := svc.Search(s.ctx, Request{
			Jurisdictions: []domain.Jurisdiction{j},
			ParcelNumber:  "12-345-6789",
		})
		s.Equal(StatusFailed, result.Status)
		s.Equal(1, result.Failed)
		s.Require().Len(result.Errors, 1)
		s.Equal("Gamma, ST", result.Errors[0].Jurisdiction)
	})
}

// TestFaultIsolation verifies one jurisdiction's failure never disturbs its
// siblings' results.
func (s *OrchestratorSuite) TestFaultIsolation() {
	a := s.addStubSource("Alpha", "ST")
	b := s.addStubSource("Beta", "ST")
	broken := s.addScriptedSource("Gamma", "ST", "gamma-broken", func(context.Context, domain.Jurisdiction, registry.AccessStrategy, map[string]string) (connector.Connector, error) {
		return nil, errors.New("backend down")
	})
	svc := s.newService()

	result := svc.Search(s.ctx, Request{
		Jurisdictions: []domain.Jurisdiction{a, broken, b},
		ParcelNumber:  "12-345-6789",
	})

	s.Equal(StatusPartial, result.Status)
	s.Equal(3, result.Searched)
	s.Equal(2, result.Succeeded)
	s.Equal(1, result.Failed)
	s.Len(result.DocumentsByJurisdiction["Alpha, ST"], 2)
	s.Len(result.DocumentsByJurisdiction["Beta, ST"], 2)
	s.Require().Len(result.Errors, 1)
	s.Equal("Gamma, ST", result.Errors[0].Jurisdiction)
}

// TestPanicIsolation verifies a panicking connector fails only its own task.
func (s *OrchestratorSuite) TestPanicIsolation() {
	a := s.addStubSource("Alpha", "ST")
	panicky := s.addScriptedSource("Delta", "ST", "delta-panic", func(_ context.Context, j domain.Jurisdiction, _ registry.AccessStrategy, _ map[string]string) (connector.Connector, error) {
		return &scriptedConnector{jurisdiction: j, searchFn: func(context.Context, string) ([]models.Document, error) {
			panic("connector bug")
		}}, nil
	})
	svc := s.newService()

	result := svc.Search(s.ctx, Request{
		Jurisdictions: []domain.Jurisdiction{a, panicky},
		ParcelNumber:  "12-345-6789",
	})

	s.Equal(StatusPartial, result.Status)
	s.Equal(1, result.Succeeded)
	s.Equal(1, result.Failed)
}

// TestCacheIdempotence verifies a repeat search within the TTL issues no
// second connector search and returns equal documents.
func (s *OrchestratorSuite) TestCacheIdempotence() {
	var searches atomic.Int32
	j := s.addScriptedSource("Alpha", "ST", "alpha-counting", func(_ context.Context, j domain.Jurisdiction, _ registry.AccessStrategy, _ map[string]string) (connector.Connector, error) {
		return &scriptedConnector{jurisdiction: j, searchFn: func(context.Context, string) ([]models.Document, error) {
			searches.Add(1)
			return []models.Document{{DocumentID: "d1", Jurisdiction: j, Kind: models.KindDeed, RecordingDate: time.Now()}}, nil
		}}, nil
	})
	svc := s.newService()

	req := Request{Jurisdictions: []domain.Jurisdiction{j}, ParcelNumber: "12-345-6789"}

	first := svc.Search(s.ctx, req)
	s.Require().Equal(StatusCompleted, first.Status)
	second := svc.Search(s.ctx, req)
	s.Require().Equal(StatusCompleted, second.Status)

	s.Equal(int32(1), searches.Load(), "second request must be served from cache")
	s.Equal(first.AllDocuments, second.AllDocuments)
}

// TestConcurrencyBound verifies no more than the configured number of tasks
// are in flight at once.
func (s *OrchestratorSuite) TestConcurrencyBound() {
	const limit = 2

	var inFlight, maxInFlight atomic.Int32
	jurisdictions := make([]domain.Jurisdiction, 0, 5)
	counties := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"}
	for _, county := range counties {
		builderName := "slow-" + county
		j := s.addScriptedSource(county, "ST", builderName, func(_ context.Context, j domain.Jurisdiction, _ registry.AccessStrategy, _ map[string]string) (connector.Connector, error) {
			return &scriptedConnector{jurisdiction: j, searchFn: func(context.Context, string) ([]models.Document, error) {
				n := inFlight.Add(1)
				for {
					prev := maxInFlight.Load()
					if n <= prev || maxInFlight.CompareAndSwap(prev, n) {
						break
					}
				}
				time.Sleep(30 * time.Millisecond)
				inFlight.Add(-1)
				return nil, nil
			}}, nil
		})
		jurisdictions = append(jurisdictions, j)
	}

	svc := s.newService(WithMaxConcurrent(limit))
	result := svc.Search(s.ctx, Request{Jurisdictions: jurisdictions, ParcelNumber: "12-345-6789"})

	s.Equal(StatusCompleted, result.Status)
	s.LessOrEqual(maxInFlight.Load(), int32(limit))
}

// TestTaskTimeout verifies a stuck source fails its task without holding the
// join barrier open.
func (s *OrchestratorSuite) TestTaskTimeout() {
	fast := s.addStubSource("Alpha", "ST")
	stuck := s.addScriptedSource("Omega", "ST", "omega-stuck", func(_ context.Context, j domain.Jurisdiction, _ registry.AccessStrategy, _ map[string]string) (connector.Connector, error) {
		return &scriptedConnector{jurisdiction: j, searchFn: func(ctx context.Context, _ string) ([]models.Document, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}, nil
	})
	svc := s.newService()

	start := time.Now()
	result := svc.Search(s.ctx, Request{
		Jurisdictions: []domain.Jurisdiction{fast, stuck},
		ParcelNumber:  "12-345-6789",
		Timeout:       200 * time.Millisecond,
	})

	s.Less(time.Since(start), 5*time.Second, "barrier must respect the deadline")
	s.Equal(StatusPartial, result.Status)
	s.Equal(1, result.Succeeded)
	s.Equal(1, result.Failed)
	s.Require().Len(result.Errors, 1)
	s.Contains(result.Errors[0].Message, "timeout")
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name                string
		searched, succeeded int
		want                Status
	}{
		{"all succeeded", 3, 3, StatusCompleted},
		{"some succeeded", 3, 1, StatusPartial},
		{"none succeeded", 3, 0, StatusFailed},
		{"zero tasks", 0, 0, StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := deriveStatus(tc.searched, tc.succeeded); got != tc.want {
				t.Fatalf("deriveStatus(%d, %d) = %s, want %s", tc.searched, tc.succeeded, got, tc.want)
			}
		})
	}
}
