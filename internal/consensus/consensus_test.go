package consensus

import (
	"math"
	"testing"
	"time"

	"github.com/boompicks/pickengine/internal/domain"
)

func line(book string, side domain.Side, price int) Line {
	return Line{Book: book, Side: side, Price: price, Timestamp: time.Now()}
}

func TestBuildMarketConsensusHappyPath(t *testing.T) {
	lines := []Line{
		line("book_a", domain.SideHome, -110),
		line("book_a", domain.SideAway, 100),
		line("book_b", domain.SideHome, -105),
		line("book_b", domain.SideAway, -105),
	}

	decision := BuildMarketConsensus(lines, Options{MinBooks: 2, TrimOutliers: true})
	if decision.Result == nil {
		t.Fatalf("expected a result, got missing reason %q", decision.MissingReason)
	}
	if decision.Result.BooksUsed != 2 {
		t.Fatalf("expected 2 books used, got %d", decision.Result.BooksUsed)
	}
	if math.Abs(decision.Result.HomeProb-0.513) > 0.01 {
		t.Errorf("expected home prob near 0.513, got %v", decision.Result.HomeProb)
	}
}

func TestBuildMarketConsensusInsufficientBooks(t *testing.T) {
	lines := []Line{
		line("book_a", domain.SideHome, -110),
		line("book_a", domain.SideAway, 100),
	}
	decision := BuildMarketConsensus(lines, Options{MinBooks: 3})
	if decision.Result != nil {
		t.Fatalf("expected no result, got %+v", decision.Result)
	}
	if decision.MissingReason != domain.ReasonInsufficientBooks {
		t.Fatalf("expected INSUFFICIENT_BOOKS, got %s", decision.MissingReason)
	}
}

func TestBuildMarketConsensusIncompleteTwoWay(t *testing.T) {
	lines := []Line{
		line("book_a", domain.SideHome, -110),
		line("book_a", domain.SideAway, 100),
		line("book_b", domain.SideHome, -105), // missing away side
		line("book_c", domain.SideHome, -120),
		line("book_c", domain.SideAway, 110),
	}
	decision := BuildMarketConsensus(lines, Options{MinBooks: 3})
	if decision.Result != nil {
		t.Fatalf("expected no result, got %+v", decision.Result)
	}
	if decision.MissingReason != domain.ReasonIncompleteTwoWay {
		t.Fatalf("expected INCOMPLETE_TWO_WAY_MARKET, got %s", decision.MissingReason)
	}
}

func TestBuildMarketConsensusDropsStaleLines(t *testing.T) {
	stale := line("book_a", domain.SideHome, -110)
	stale.IsStale = true
	lines := []Line{
		stale,
		line("book_a", domain.SideAway, 100),
		line("book_b", domain.SideHome, -105),
		line("book_b", domain.SideAway, -105),
	}
	decision := BuildMarketConsensus(lines, Options{MinBooks: 2})
	if decision.Result != nil {
		t.Fatalf("expected no result because book_a has no fresh home line, got %+v", decision.Result)
	}
}

func TestBuildMarketConsensusInvalidBookWeights(t *testing.T) {
	lines := []Line{
		line("book_a", domain.SideHome, -110),
		line("book_a", domain.SideAway, 100),
		line("book_b", domain.SideHome, -105),
		line("book_b", domain.SideAway, -105),
	}
	decision := BuildMarketConsensus(lines, Options{
		MinBooks:    2,
		BookWeights: map[string]float64{"book_a": 0, "book_b": 0},
	})
	if decision.Result != nil {
		t.Fatalf("expected no result, got %+v", decision.Result)
	}
	if decision.MissingReason != domain.ReasonInvalidBookWeights {
		t.Fatalf("expected INVALID_BOOK_WEIGHTS, got %s", decision.MissingReason)
	}
}

func TestBuildMarketConsensusOutlierTrimInertBelowSix(t *testing.T) {
	lines := []Line{}
	for i, book := range []string{"a", "b", "c", "d", "e"} {
		price := -110 - i
		lines = append(lines, line(book, domain.SideHome, price))
		lines = append(lines, line(book, domain.SideAway, 100+i))
	}
	withTrim := BuildMarketConsensus(lines, Options{MinBooks: 3, TrimOutliers: true})
	withoutTrim := BuildMarketConsensus(lines, Options{MinBooks: 3, TrimOutliers: false})
	if withTrim.Result == nil || withoutTrim.Result == nil {
		t.Fatalf("expected both to produce a result")
	}
	if withTrim.Result.BooksUsed != withoutTrim.Result.BooksUsed {
		t.Errorf("outlier trim should be inert below 6 books: got %d vs %d", withTrim.Result.BooksUsed, withoutTrim.Result.BooksUsed)
	}
}

func TestBuildMarketConsensusMonotonicity(t *testing.T) {
	base := []Line{
		line("book_a", domain.SideHome, -110),
		line("book_a", domain.SideAway, 100),
		line("book_b", domain.SideHome, -105),
		line("book_b", domain.SideAway, -105),
	}
	baseline := BuildMarketConsensus(base, Options{MinBooks: 2})
	if baseline.Result == nil {
		t.Fatalf("expected baseline result")
	}

	// book_c's de-vigged home probability equals the current mean exactly
	// when both sides are priced at the same implied probability as the mean.
	meanHome := baseline.Result.HomeProb
	meanAway := 1 - meanHome
	extended := append(append([]Line{}, base...),
		Line{Book: "book_c", Side: domain.SideHome, Price: americanFromProb(meanHome), Timestamp: time.Now()},
		Line{Book: "book_c", Side: domain.SideAway, Price: americanFromProb(meanAway), Timestamp: time.Now()},
	)
	withExtra := BuildMarketConsensus(extended, Options{MinBooks: 2})
	if withExtra.Result == nil {
		t.Fatalf("expected result with extra book")
	}
	if math.Abs(withExtra.Result.HomeProb-meanHome) > 0.005 {
		t.Errorf("adding a book at the mean should leave the mean roughly unchanged: %v vs %v", withExtra.Result.HomeProb, meanHome)
	}
}

// americanFromProb inverts implied probability to an approximate American
// price for test fixture construction only.
func americanFromProb(p float64) int {
	decimal := 1 / p
	if decimal >= 2.0 {
		return int((decimal - 1.0) * 100)
	}
	return -int(100 / (decimal - 1.0))
}
