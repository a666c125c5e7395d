package factory

import (
	"context"
	"fmt"

	"titlesearch/internal/connector"
	"titlesearch/internal/registry"
	"titlesearch/pkg/domain"
	"titlesearch/pkg/platform/sentinel"
)

// PortalBuilderName is the builder name for web-portal scraping strategies.
const PortalBuilderName = "portal"

// RegisterBuiltinBuilders registers the connector builders every deployment
// carries: the guaranteed-available stub and the credentialed portal builder.
// Deployment-specific builders register alongside these at startup.
func RegisterBuiltinBuilders(reg *registry.Registry) {
	reg.RegisterBuilder(connector.StubBuilderName, StubBuilder)
	reg.RegisterBuilder(PortalBuilderName, PortalBuilder)
}

// StubBuilder always succeeds; it needs neither credentials nor network.
func StubBuilder(_ context.Context, j domain.Jurisdiction, _ registry.AccessStrategy, _ map[string]string) (connector.Connector, error) {
	return connector.NewStub(j), nil
}

// PortalBuilder validates the credential contract for portal-scraping
// strategies. The concrete scraper for each portal is registered separately by
// the deployment; without one, construction fails and the factory moves on to
// the next strategy.
func PortalBuilder(_ context.Context, j domain.Jurisdiction, strategy registry.AccessStrategy, creds map[string]string) (connector.Connector, error) {
	if strategy.RequiresCredentials {
		if creds["email"] == "" || creds["password"] == "" {
			return nil, fmt.Errorf("portal connector for %s requires email and password: %w", j, sentinel.ErrCredentialMissing)
		}
	}
	return nil, fmt.Errorf("no portal scraper registered for %s (endpoint %s)", j, strategy.Endpoint)
}
