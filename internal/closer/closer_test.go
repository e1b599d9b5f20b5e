package closer

import (
	"testing"
	"time"

	"github.com/boompicks/pickengine/internal/consensus"
	"github.com/boompicks/pickengine/internal/domain"
)

func snap(book string, side domain.Side, price int, ts time.Time) domain.OddsSnapshot {
	return domain.OddsSnapshot{Book: book, Side: side, Price: price, Timestamp: ts}
}

func TestSelectClosingLinePicksLatestInWindow(t *testing.T) {
	start := time.Date(2026, 7, 31, 19, 0, 0, 0, time.UTC)
	window := 10 * time.Minute

	lines := []domain.OddsSnapshot{
		snap("book_a", domain.SideHome, -110, start.Add(-8*time.Minute)),
		snap("book_a", domain.SideHome, -115, start.Add(-3*time.Minute)),
		snap("book_a", domain.SideAway, 100, start.Add(-3*time.Minute)),
		snap("book_b", domain.SideHome, -105, start.Add(-2*time.Minute)),
	}

	selected, ok := SelectClosingLine(lines, "book_a", domain.SideHome, start, window)
	if !ok {
		t.Fatalf("expected a selection")
	}
	if selected.Price != -115 {
		t.Errorf("expected the latest book_a home price -115, got %d", selected.Price)
	}
}

func TestSelectClosingLineExcludesOutsideWindow(t *testing.T) {
	start := time.Date(2026, 7, 31, 19, 0, 0, 0, time.UTC)
	window := 10 * time.Minute

	lines := []domain.OddsSnapshot{
		snap("book_a", domain.SideHome, -110, start.Add(-20*time.Minute)),
	}

	_, ok := SelectClosingLine(lines, "book_a", domain.SideHome, start, window)
	if ok {
		t.Fatalf("expected no selection when the only line is outside the closing window")
	}
}

func TestClosingConsensusUsesOnlyWindowedLines(t *testing.T) {
	start := time.Date(2026, 7, 31, 19, 0, 0, 0, time.UTC)
	window := 10 * time.Minute

	lines := []domain.OddsSnapshot{
		snap("book_a", domain.SideHome, -110, start.Add(-5*time.Minute)),
		snap("book_a", domain.SideAway, 100, start.Add(-5*time.Minute)),
		snap("book_b", domain.SideHome, -105, start.Add(-5*time.Minute)),
		snap("book_b", domain.SideAway, -105, start.Add(-5*time.Minute)),
		snap("book_c", domain.SideHome, -999, start.Add(-30*time.Minute)),
		snap("book_c", domain.SideAway, 900, start.Add(-30*time.Minute)),
	}

	prob := ClosingConsensus(lines, start, window, consensus.Options{MinBooks: 2})
	if prob == nil {
		t.Fatalf("expected a closing consensus result")
	}
	if *prob < 0.5 || *prob > 0.53 {
		t.Errorf("expected closing consensus near 0.513, got %v", *prob)
	}
}

func TestClosingConsensusNoneWhenInsufficientBooks(t *testing.T) {
	start := time.Date(2026, 7, 31, 19, 0, 0, 0, time.UTC)
	window := 10 * time.Minute

	lines := []domain.OddsSnapshot{
		snap("book_a", domain.SideHome, -110, start.Add(-5*time.Minute)),
		snap("book_a", domain.SideAway, 100, start.Add(-5*time.Minute)),
	}

	prob := ClosingConsensus(lines, start, window, consensus.Options{MinBooks: 2})
	if prob != nil {
		t.Errorf("expected nil consensus, got %v", *prob)
	}
}

func TestCLV(t *testing.T) {
	marketProb := 0.50
	closeProb, pickProb := 0.55, 0.52
	clvBook, clvMarket := CLV(closeProb, pickProb, &marketProb)
	if clvBook != closeProb-pickProb {
		t.Errorf("unexpected clvBook: %v", clvBook)
	}
	if clvMarket == nil || *clvMarket != marketProb-pickProb {
		t.Errorf("unexpected clvMarket: %v", clvMarket)
	}

	clvBook2, clvMarket2 := CLV(closeProb, pickProb, nil)
	if clvBook2 != closeProb-pickProb {
		t.Errorf("unexpected clvBook2: %v", clvBook2)
	}
	if clvMarket2 != nil {
		t.Errorf("expected nil clvMarket2, got %v", *clvMarket2)
	}
}

func TestSimulatedSettlement(t *testing.T) {
	settledAt := time.Date(2026, 7, 31, 22, 0, 0, 0, time.UTC)
	decimalOdds := 1.91
	st := SimulatedSettlement(42, decimalOdds, 0.04, nil, nil, settledAt)

	if st.Result != domain.ResultWin {
		t.Errorf("expected simulated settlements to always record a win, got %s", st.Result)
	}
	if st.SettlementSource != domain.SettlementSourceSimulated {
		t.Errorf("expected settlement_source=simulated, got %s", st.SettlementSource)
	}
	if st.PnL != decimalOdds-1 {
		t.Errorf("expected pnl = decimal_odds - 1 = %v, got %v", decimalOdds-1, st.PnL)
	}
}
