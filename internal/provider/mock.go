package provider

import (
	"context"
	"time"

	"github.com/boompicks/pickengine/internal/domain"
)

// MockProvider returns a single fixed event with two books, matching the
// "happy path" scenario's exact prices (book_a -110/+100, book_b -105/-105).
// Grounded on original_source's basic MockOddsProvider.
type MockProvider struct {
	Now func() time.Time
}

func NewMockProvider() *MockProvider {
	return &MockProvider{Now: time.Now}
}

func (p *MockProvider) FetchEvents(_ context.Context) ([]domain.ProviderEvent, error) {
	now := p.Now()
	start := now.Add(5 * time.Minute)

	return []domain.ProviderEvent{
		{
			Source:          "mock",
			ExternalEventID: "mock-event-1",
			League:          "NBA",
			StartTime:       start,
			HomeTeam:        "Los Angeles Lakers",
			AwayTeam:        "Golden State Warriors",
			Odds: []domain.ProviderOddsLine{
				{Book: "book_a", Market: "h2h", Side: domain.SideHome, Price: -110, Timestamp: now},
				{Book: "book_a", Market: "h2h", Side: domain.SideAway, Price: 100, Timestamp: now},
				{Book: "book_b", Market: "h2h", Side: domain.SideHome, Price: -105, Timestamp: now},
				{Book: "book_b", Market: "h2h", Side: domain.SideAway, Price: -105, Timestamp: now},
			},
		},
	}, nil
}

// DeterministicProvider returns a single event backed by three books so it
// clears every gate (mapping confidence, freshness, consensus min-books,
// edge) by construction. Grounded on original_source's
// DeterministicMockOddsProvider, including its choice to backdate line
// timestamps by 15 seconds to guarantee freshness under any reasonable
// staleness threshold.
type DeterministicProvider struct {
	Now func() time.Time
}

func NewDeterministicProvider() *DeterministicProvider {
	return &DeterministicProvider{Now: time.Now}
}

func (p *DeterministicProvider) FetchEvents(_ context.Context) ([]domain.ProviderEvent, error) {
	now := p.Now()
	start := now.Add(10 * time.Minute)
	lineTS := now.Add(-15 * time.Second)

	return []domain.ProviderEvent{
		{
			Source:          "deterministic",
			ExternalEventID: "deterministic-event-1",
			League:          "NBA",
			StartTime:       start,
			HomeTeam:        "Boston Celtics",
			AwayTeam:        "Miami Heat",
			Odds: []domain.ProviderOddsLine{
				{Book: "book_a", Market: "h2h", Side: domain.SideHome, Price: -115, Timestamp: lineTS},
				{Book: "book_a", Market: "h2h", Side: domain.SideAway, Price: -105, Timestamp: lineTS},
				{Book: "book_b", Market: "h2h", Side: domain.SideHome, Price: -110, Timestamp: lineTS},
				{Book: "book_b", Market: "h2h", Side: domain.SideAway, Price: -110, Timestamp: lineTS},
				{Book: "book_c", Market: "h2h", Side: domain.SideHome, Price: -120, Timestamp: lineTS},
				{Book: "book_c", Market: "h2h", Side: domain.SideAway, Price: 100, Timestamp: lineTS},
			},
		},
	}, nil
}
