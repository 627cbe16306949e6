package assistant

// Event is a sealed interface representing a display effect produced by the
// Controller. Surfaces render events; they never touch the log directly.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTurnRendered signals that a turn should be shown. It is emitted both
// for newly appended turns and for turns replayed from storage on Open.
type EventTurnRendered struct {
	Turn   Turn
	Markup Markup
}

func (EventTurnRendered) event() {}

// EventTypingStarted signals that a request is in flight.
type EventTypingStarted struct{}

func (EventTypingStarted) event() {}

// EventTypingStopped signals that the in-flight request settled or failed.
type EventTypingStopped struct{}

func (EventTypingStopped) event() {}

// EventError carries a visible error turn. The turn is not part of the log
// and is never persisted.
type EventError struct {
	Turn   Turn
	Markup Markup
	Err    error
}

func (EventError) event() {}

// EventHistoryCleared signals that the log and its stored copy were emptied.
type EventHistoryCleared struct{}

func (EventHistoryCleared) event() {}

// EventHistoryTruncated signals that the store dropped the oldest turns to
// stay under its size ceiling.
type EventHistoryTruncated struct {
	Dropped int
	Kept    int
}

func (EventHistoryTruncated) event() {}

// EventPersistFailed signals that the log could not be written. The session
// carries on in memory.
type EventPersistFailed struct {
	Err error
}

func (EventPersistFailed) event() {}

// Interface compliance checks.
var (
	_ Event = EventTurnRendered{}
	_ Event = EventTypingStarted{}
	_ Event = EventTypingStopped{}
	_ Event = EventError{}
	_ Event = EventHistoryCleared{}
	_ Event = EventHistoryTruncated{}
	_ Event = EventPersistFailed{}
)
