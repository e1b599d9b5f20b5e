// Package provider defines the odds-provider interface the PipelineEngine
// consumes and the deterministic in-process providers used for local runs
// and tests. Grounded on original_source's provider.py (MockOddsProvider,
// DeterministicMockOddsProvider) for the fixture shapes, and on the
// teacher's pkg/contracts.VendorAdapter for the interface-segregation style
// (a narrow interface the engine depends on, with concrete adapters living
// in their own package — see provider/vendor).
package provider

import (
	"context"

	"github.com/boompicks/pickengine/internal/domain"
)

// Provider is the odds-provider interface consumed by the PipelineEngine: an
// async producer of a list of event records for a single sweep.
type Provider interface {
	FetchEvents(ctx context.Context) ([]domain.ProviderEvent, error)
}
