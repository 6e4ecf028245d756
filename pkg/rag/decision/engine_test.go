package decision

import (
	"errors"
	"testing"

	"video-intel-be/pkg/ragerr"
	"video-intel-be/pkg/store"
)

func hit(sourceId string, score float64) store.SearchHit {
	return store.SearchHit{SourceId: sourceId, Score: score}
}

func TestDecideFirstTurn(t *testing.T) {
	hits := []store.SearchHit{
		hit("video-a", 0.91),
		hit("video-b", 0.88),
		hit("video-a", 0.80),
	}

	dec, err := Decide("", hits, DefaultConfig())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if dec.SelectedSourceId != "video-a" {
		t.Errorf("SelectedSourceId = %q, want %q", dec.SelectedSourceId, "video-a")
	}
	if dec.Switched {
		t.Errorf("Switched = true, want false on first turn")
	}
}

func TestDecideNoHits(t *testing.T) {
	_, err := Decide("video-a", nil, DefaultConfig())
	if !errors.Is(err, ragerr.ErrNoContentAvailable) {
		t.Errorf("error = %v, want ErrNoContentAvailable", err)
	}
}

func TestDecideStickiness(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		hits       []store.SearchHit
		cfg        Config
		wantSource string
		wantSwitch bool
	}{
		{
			name:    "current kept when inside sticky window",
			current: "video-b",
			hits: []store.SearchHit{
				hit("video-a", 0.93),
				hit("video-b", 0.90),
				hit("video-c", 0.85),
			},
			cfg:        Config{StickyWindow: 3},
			wantSource: "video-b",
			wantSwitch: false,
		},
		{
			name:    "switch when current falls outside window",
			current: "video-d",
			hits: []store.SearchHit{
				hit("video-a", 0.93),
				hit("video-b", 0.90),
				hit("video-c", 0.85),
				hit("video-d", 0.40),
			},
			cfg:        Config{StickyWindow: 3},
			wantSource: "video-a",
			wantSwitch: true,
		},
		{
			name:    "switch when current absent from hits",
			current: "video-z",
			hits: []store.SearchHit{
				hit("video-a", 0.93),
				hit("video-b", 0.90),
			},
			cfg:        Config{StickyWindow: 3},
			wantSource: "video-a",
			wantSwitch: true,
		},
		{
			name:    "zero window disables stickiness",
			current: "video-b",
			hits: []store.SearchHit{
				hit("video-a", 0.93),
				hit("video-b", 0.90),
			},
			cfg:        Config{StickyWindow: 0},
			wantSource: "video-a",
			wantSwitch: true,
		},
		{
			name:    "window larger than ranking is clamped",
			current: "video-b",
			hits: []store.SearchHit{
				hit("video-a", 0.93),
				hit("video-b", 0.90),
			},
			cfg:        Config{StickyWindow: 10},
			wantSource: "video-b",
			wantSwitch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := Decide(tt.current, tt.hits, tt.cfg)
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if dec.SelectedSourceId != tt.wantSource {
				t.Errorf("SelectedSourceId = %q, want %q", dec.SelectedSourceId, tt.wantSource)
			}
			if dec.Switched != tt.wantSwitch {
				t.Errorf("Switched = %v, want %v", dec.Switched, tt.wantSwitch)
			}
		})
	}
}

func TestDecideMarginGuard(t *testing.T) {
	hits := []store.SearchHit{
		hit("video-a", 0.905),
		hit("video-b", 0.900),
	}

	// Too close to call: stay on the current source.
	dec, err := Decide("video-b", hits, Config{StickyWindow: 1, Margin: 0.05})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if dec.SelectedSourceId != "video-b" {
		t.Errorf("SelectedSourceId = %q, want current kept under margin", dec.SelectedSourceId)
	}
	if dec.Switched {
		t.Errorf("Switched = true, want false under margin guard")
	}

	// Clear winner: margin satisfied, switch goes through.
	hits[0].Score = 0.99
	dec, err = Decide("video-b", hits, Config{StickyWindow: 1, Margin: 0.05})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if dec.SelectedSourceId != "video-a" {
		t.Errorf("SelectedSourceId = %q, want %q", dec.SelectedSourceId, "video-a")
	}
	if !dec.Switched {
		t.Errorf("Switched = false, want true for clear winner")
	}
}

func TestDecideMarginGuardCurrentWithoutEvidence(t *testing.T) {
	// Current source retrieved nothing this turn: the guard has no evidence
	// to fall back to, so the best-scoring source wins even under margin.
	hits := []store.SearchHit{
		hit("video-a", 0.91),
		hit("video-b", 0.90),
	}
	dec, err := Decide("video-z", hits, Config{StickyWindow: 1, Margin: 0.05})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if dec.SelectedSourceId != "video-a" {
		t.Errorf("SelectedSourceId = %q, want %q", dec.SelectedSourceId, "video-a")
	}
	if !dec.Switched {
		t.Errorf("Switched = false, want true")
	}

	// The selection must always be backed by retrieved evidence.
	found := false
	for _, h := range dec.CandidateHits {
		if h.SourceId == dec.SelectedSourceId {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("selected source %q has no hits in CandidateHits", dec.SelectedSourceId)
	}
}

func TestDecideMarginGuardFirstTurn(t *testing.T) {
	// No current source: the guard has nothing to fall back to, best wins.
	hits := []store.SearchHit{
		hit("video-a", 0.905),
		hit("video-b", 0.900),
	}
	dec, err := Decide("", hits, Config{StickyWindow: 3, Margin: 0.05})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if dec.SelectedSourceId != "video-a" {
		t.Errorf("SelectedSourceId = %q, want %q", dec.SelectedSourceId, "video-a")
	}
}

func TestDecideDeterministic(t *testing.T) {
	hits := []store.SearchHit{
		hit("video-a", 0.90),
		hit("video-b", 0.90), // exact tie with video-a
		hit("video-c", 0.70),
	}

	first, err := Decide("", hits, DefaultConfig())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	for i := 0; i < 50; i++ {
		dec, err := Decide("", hits, DefaultConfig())
		if err != nil {
			t.Fatalf("Decide() error = %v", err)
		}
		if dec.SelectedSourceId != first.SelectedSourceId {
			t.Fatalf("run %d: SelectedSourceId = %q, want stable %q", i, dec.SelectedSourceId, first.SelectedSourceId)
		}
	}

	// Tie broken by input order: video-a appears first.
	if first.SelectedSourceId != "video-a" {
		t.Errorf("tie broken to %q, want first-seen %q", first.SelectedSourceId, "video-a")
	}
}

func TestRankSourcesUsesBestHitPerSource(t *testing.T) {
	hits := []store.SearchHit{
		hit("video-a", 0.60),
		hit("video-b", 0.95),
		hit("video-a", 0.90),
		hit("video-b", 0.50),
	}

	ranked := rankSources(hits)
	if len(ranked) != 2 {
		t.Fatalf("len(ranked) = %d, want 2", len(ranked))
	}
	if ranked[0].SourceId != "video-b" || ranked[0].BestScore != 0.95 {
		t.Errorf("ranked[0] = %+v, want video-b @ 0.95", ranked[0])
	}
	if ranked[1].SourceId != "video-a" || ranked[1].BestScore != 0.90 {
		t.Errorf("ranked[1] = %+v, want video-a @ 0.90", ranked[1])
	}
}

func TestEvidenceForSource(t *testing.T) {
	hits := []store.SearchHit{
		{SourceId: "video-a", ChunkId: "1"},
		{SourceId: "video-b", ChunkId: "2"},
		{SourceId: "video-a", ChunkId: "3"},
	}

	evidence := EvidenceForSource(hits, "video-a")
	if len(evidence) != 2 {
		t.Fatalf("len(evidence) = %d, want 2", len(evidence))
	}
	if evidence[0].ChunkId != "1" || evidence[1].ChunkId != "3" {
		t.Errorf("evidence order = [%s %s], want [1 3]", evidence[0].ChunkId, evidence[1].ChunkId)
	}

	if got := EvidenceForSource(hits, "video-z"); len(got) != 0 {
		t.Errorf("evidence for unknown source = %d hits, want 0", len(got))
	}
}
