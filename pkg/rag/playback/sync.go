package playback

// State of the playback synchronizer.
type State string

const (
	StateIdle              State = "IDLE"
	StateAwaitingSourceLoad State = "AWAITING_SOURCE_LOAD"
	StateReady             State = "READY"
)

// Command tells the player what to do, in order.
type Command struct {
	Action   string  // "load_source" | "seek" | "play"
	SourceId string  // for load_source
	Seconds  float64 // for seek
}

// Sync reorders "switch source" and "seek to timestamp" so a citation click
// during a source switch is applied only after the new source has loaded.
// Only the most recent seek is kept (last-seek-wins), since only the latest
// citation click reflects user intent.
type Sync struct {
	state       State
	sourceId    string
	pendingSeek *float64
}

// NewSync starts in Idle with no loaded source.
func NewSync() *Sync {
	return &Sync{state: StateIdle}
}

func (s *Sync) State() State { return s.state }

// CurrentSourceId is the source the player is (or will be) showing.
func (s *Sync) CurrentSourceId() string { return s.sourceId }

// OnSwitch handles a decoded switch event: request the new source and queue
// any seek until its metadata is loaded.
func (s *Sync) OnSwitch(sourceId string) []Command {
	s.sourceId = sourceId
	s.state = StateAwaitingSourceLoad
	s.pendingSeek = nil // a queued seek belonged to the previous source
	return []Command{{Action: "load_source", SourceId: sourceId}}
}

// OnSeek handles a citation click. Applied immediately when the source is
// already loaded; queued (replacing any prior queued seek) while a source
// load is in flight.
func (s *Sync) OnSeek(seconds float64) []Command {
	if s.state == StateAwaitingSourceLoad {
		s.pendingSeek = &seconds
		return nil
	}
	s.state = StateReady
	return []Command{{Action: "seek", Seconds: seconds}}
}

// OnSourceLoaded handles the player reporting "metadata loaded": the queued
// seek (if present) is applied first, then playback starts.
func (s *Sync) OnSourceLoaded() []Command {
	if s.state != StateAwaitingSourceLoad {
		return nil
	}
	s.state = StateReady

	var cmds []Command
	if s.pendingSeek != nil {
		cmds = append(cmds, Command{Action: "seek", Seconds: *s.pendingSeek})
		s.pendingSeek = nil
	}
	cmds = append(cmds, Command{Action: "play"})
	return cmds
}
