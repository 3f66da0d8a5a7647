package search

import (
	"math"
	"sort"
	"strings"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/xrash/smetrics"
)

// MinScore drops candidates that only matched the SQL prefilter by accident.
const MinScore = 0.55

type Result struct {
	Listing *domain.Listing
	Score   float64
}

// Rank orders listings by Jaro-Winkler similarity of the query against title, card name and set.
// An empty query keeps the original order.
func Rank(query string, listings []*domain.Listing) []Result {
	q := normalize(query)
	results := make([]Result, 0, len(listings))
	for _, l := range listings {
		if q == "" {
			results = append(results, Result{Listing: l, Score: 1})
			continue
		}
		score := Score(q, l)
		if score < MinScore {
			continue
		}
		results = append(results, Result{Listing: l, Score: score})
	}
	if q != "" {
		sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	}
	return results
}

// Score is the best of whole-string and per-token similarity.
func Score(query string, l *domain.Listing) float64 {
	q := normalize(query)
	whole := max3(
		jaroWinkler(q, l.Title()),
		jaroWinkler(q, l.CardName),
		jaroWinkler(q, l.SetName),
	)
	return math.Max(whole, tokenScore(q, l))
}

// tokenScore averages, over query tokens, the best match among the listing's tokens.
func tokenScore(q string, l *domain.Listing) float64 {
	qTokens := strings.Fields(q)
	if len(qTokens) == 0 {
		return 0
	}
	lTokens := strings.Fields(normalize(l.Title()))
	if len(lTokens) == 0 {
		return 0
	}
	var total float64
	for _, qt := range qTokens {
		best := 0.0
		for _, lt := range lTokens {
			if s := smetrics.JaroWinkler(qt, lt, 0.7, 4); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(qTokens))
}

func jaroWinkler(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return 0
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }
