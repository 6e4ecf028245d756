package playback

import "testing"

func TestSyncSeekWhileReady(t *testing.T) {
	s := NewSync()
	s.OnSwitch("video-a")
	s.OnSourceLoaded()

	cmds := s.OnSeek(135)
	if len(cmds) != 1 || cmds[0].Action != "seek" || cmds[0].Seconds != 135 {
		t.Fatalf("cmds = %+v, want immediate seek", cmds)
	}
	if s.State() != StateReady {
		t.Errorf("state = %v, want READY", s.State())
	}
}

func TestSyncSeekDuringSourceLoad(t *testing.T) {
	s := NewSync()

	cmds := s.OnSwitch("video-b")
	if len(cmds) != 1 || cmds[0].Action != "load_source" || cmds[0].SourceId != "video-b" {
		t.Fatalf("cmds = %+v, want load_source video-b", cmds)
	}
	if s.State() != StateAwaitingSourceLoad {
		t.Fatalf("state = %v, want AWAITING_SOURCE_LOAD", s.State())
	}

	// Seek arrives before metadata: queued, not applied.
	if cmds := s.OnSeek(42); cmds != nil {
		t.Fatalf("cmds = %+v, want queued seek", cmds)
	}

	cmds = s.OnSourceLoaded()
	if len(cmds) != 2 {
		t.Fatalf("cmds = %+v, want seek then play", cmds)
	}
	if cmds[0].Action != "seek" || cmds[0].Seconds != 42 {
		t.Errorf("cmds[0] = %+v, want queued seek applied first", cmds[0])
	}
	if cmds[1].Action != "play" {
		t.Errorf("cmds[1] = %+v, want play", cmds[1])
	}
}

func TestSyncLastSeekWins(t *testing.T) {
	s := NewSync()
	s.OnSwitch("video-a")

	s.OnSeek(10)
	s.OnSeek(20)
	s.OnSeek(30)

	cmds := s.OnSourceLoaded()
	if len(cmds) != 2 || cmds[0].Seconds != 30 {
		t.Fatalf("cmds = %+v, want only the last seek (30s)", cmds)
	}
}

func TestSyncLoadWithoutSeek(t *testing.T) {
	s := NewSync()
	s.OnSwitch("video-a")

	cmds := s.OnSourceLoaded()
	if len(cmds) != 1 || cmds[0].Action != "play" {
		t.Fatalf("cmds = %+v, want just play", cmds)
	}
}

func TestSyncSpuriousLoadIgnored(t *testing.T) {
	s := NewSync()
	if cmds := s.OnSourceLoaded(); cmds != nil {
		t.Fatalf("cmds = %+v, want nil when no load pending", cmds)
	}
}

func TestSyncSwitchResetsPending(t *testing.T) {
	s := NewSync()
	s.OnSwitch("video-a")
	s.OnSeek(10)

	// A second switch while the first is loading re-targets the player.
	cmds := s.OnSwitch("video-b")
	if len(cmds) != 1 || cmds[0].SourceId != "video-b" {
		t.Fatalf("cmds = %+v, want load_source video-b", cmds)
	}
	if s.CurrentSourceId() != "video-b" {
		t.Errorf("CurrentSourceId = %q, want video-b", s.CurrentSourceId())
	}

	// The queued seek belonged to video-a and must not carry over.
	cmds = s.OnSourceLoaded()
	if len(cmds) != 1 || cmds[0].Action != "play" {
		t.Errorf("cmds = %+v, want just play after re-target", cmds)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantOk  bool
	}{
		{"[00:00]", 0, true},
		{"[02:15]", 135, true},
		{"[12:45]", 765, true},
		{"[123:59]", 7439, true},
		{"[2:05]", 125, true},
		{"[02:60]", 0, false},
		{"[02:5]", 0, false},
		{"02:15", 0, false},
		{"[ab:cd]", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		if ok != tt.wantOk || got != tt.want {
			t.Errorf("ParseTimestamp(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOk)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "[00:00]"},
		{135, "[02:15]"},
		{135.9, "[02:15]"}, // truncate, never seek past the citation
		{765, "[12:45]"},
		{-5, "[00:00]"},
	}

	for _, tt := range tests {
		if got := FormatTimestamp(tt.in); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, secs := range []float64{0, 59, 60, 135, 3599, 7439} {
		got, ok := ParseTimestamp(FormatTimestamp(secs))
		if !ok || got != secs {
			t.Errorf("round trip %v -> %q -> (%v, %v)", secs, FormatTimestamp(secs), got, ok)
		}
	}
}
