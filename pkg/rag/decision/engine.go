package decision

import (
	"time"

	"video-intel-be/pkg/ragerr"
	"video-intel-be/pkg/store"
)

// Config encapsulates switching parameters. The window size and margin are
// empirically tuned, so they stay configuration rather than constants.
type Config struct {
	// StickyWindow is how deep in the source ranking the current source may
	// sit and still be kept. 0 disables stickiness entirely.
	StickyWindow int

	// Margin, when > 0, requires best(top1) - best(top2) >= Margin before a
	// switch away from the current source is trusted.
	Margin float64
}

// DefaultConfig returns the default switching configuration.
func DefaultConfig() Config {
	return Config{
		StickyWindow: 3,
		Margin:       0, // guard disabled
	}
}

// rankedSource is one source with its best hit score.
type rankedSource struct {
	SourceId  string
	BestScore float64
}

// Decide selects the source a turn must be grounded in.
//
// Pure and deterministic given its inputs: identical (query state, hits,
// config) always yields an identical Decision. Hits are expected in the
// retrieval client's order (score descending with deterministic ties), which
// makes the source ranking deterministic too.
func Decide(currentSourceId string, hits []store.SearchHit, cfg Config) (*store.Decision, error) {
	if len(hits) == 0 {
		return nil, ragerr.ErrNoContentAvailable
	}

	ranked := rankSources(hits)

	selected := ""
	if currentSourceId != "" && cfg.StickyWindow > 0 {
		// Stability check: keep the active source if it is plausibly still
		// what the question is about, even when a slightly better-scoring
		// chunk exists elsewhere.
		window := cfg.StickyWindow
		if window > len(ranked) {
			window = len(ranked)
		}
		for _, rs := range ranked[:window] {
			if rs.SourceId == currentSourceId {
				selected = currentSourceId
				break
			}
		}
	}

	if selected == "" {
		// Switch check: globally best source wins, unless the margin guard
		// is on and the top two are too close to call. The guard can only
		// fall back to a current source that actually retrieved evidence;
		// the selected source must always come from the hits.
		selected = ranked[0].SourceId
		if cfg.Margin > 0 && len(ranked) > 1 {
			if ranked[0].BestScore-ranked[1].BestScore < cfg.Margin {
				for _, rs := range ranked {
					if rs.SourceId == currentSourceId {
						selected = currentSourceId
						break
					}
				}
			}
		}
	}

	return &store.Decision{
		SelectedSourceId: selected,
		Switched:         currentSourceId != "" && selected != currentSourceId,
		CandidateHits:    hits,
		DecidedAt:        time.Now().UTC(),
	}, nil
}

// rankSources groups hits by source and orders sources by their best hit
// score descending. Hit order within the input breaks ties: the source whose
// best hit appears first keeps the earlier rank.
func rankSources(hits []store.SearchHit) []rankedSource {
	best := make(map[string]float64)
	order := make([]string, 0)

	for _, h := range hits {
		if score, seen := best[h.SourceId]; !seen {
			best[h.SourceId] = h.Score
			order = append(order, h.SourceId)
		} else if h.Score > score {
			best[h.SourceId] = h.Score
		}
	}

	ranked := make([]rankedSource, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, rankedSource{SourceId: id, BestScore: best[id]})
	}

	// Stable insertion sort: preserves first-seen order for equal scores.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].BestScore > ranked[j-1].BestScore; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	return ranked
}

// EvidenceForSource filters hits down to the selected source, preserving
// order. The coordinator feeds the result to the prompt builder.
func EvidenceForSource(hits []store.SearchHit, sourceId string) []store.SearchHit {
	var out []store.SearchHit
	for _, h := range hits {
		if h.SourceId == sourceId {
			out = append(out, h)
		}
	}
	return out
}
