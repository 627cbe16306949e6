package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// NoResponse is the assistant content recorded when the service replies
// without an answer.
const NoResponse = "No response received"

// State is the lifecycle phase of a Controller.
type State int

const (
	StateIdle State = iota
	StateUserSubmitted
	StateAwaitingResponse
	StateSettled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUserSubmitted:
		return "user_submitted"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Controller owns a chat session: the in-memory log, its persistence, and
// the lifecycle of the single request that may be in flight.
//
// Controller is safe for concurrent use. Events are delivered synchronously
// while the controller's lock is held, in the order the changes happen, so
// handlers must not call back into the Controller.
type Controller struct {
	transport Transport
	history   HistoryStore
	onEvent   func(Event)
	now       func() time.Time
	timeout   time.Duration
	format    func(string) Markup

	mu    sync.Mutex
	state State
	log   Log
}

// Option configures a Controller.
type Option func(*Controller)

// WithEventHandler sets the callback that receives display effects. If nil
// or not set, events are discarded.
func WithEventHandler(h func(Event)) Option {
	return func(c *Controller) { c.onEvent = h }
}

// WithClock sets the time source used for turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTimeout bounds each transport call. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithFormatter replaces Format as the display transform.
func WithFormatter(f func(string) Markup) Option {
	return func(c *Controller) { c.format = f }
}

// NewController creates a Controller in the idle state with an empty log.
// Call Open to load and replay the stored history.
func NewController(transport Transport, history HistoryStore, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		history:   history,
		now:       time.Now,
		format:    Format,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Log returns a copy of the current conversation log.
func (c *Controller) Log() Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Clone()
}

// Open loads the stored history and replays every turn as an
// EventTurnRendered. Turns stored without a timestamp are shown with the
// current time. A non-nil error reports discarded data; the controller is
// usable either way.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrBusy
	}
	log, err := c.history.Load(ctx)
	c.log = log
	for _, t := range log {
		if t.Timestamp == "" {
			t.Timestamp = c.stamp()
		}
		c.emit(EventTurnRendered{Turn: t, Markup: c.format(t.Content)})
	}
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	return nil
}

// Submit sends text as a user turn and waits for the assistant's answer.
//
// Whitespace-only text returns ErrValidation and changes nothing. While a
// request is in flight Submit returns ErrBusy. A transport failure is
// returned as a *TransportError after an EventError has been emitted; the
// log then ends with the user turn. Submit always leaves the controller
// idle, even when the transport panics.
func (c *Controller) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrValidation
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateUserSubmitted
	user := Turn{Role: RoleUser, Content: text, Timestamp: c.stamp()}
	c.log = c.log.Append(user)
	c.emit(EventTurnRendered{Turn: user, Markup: c.format(user.Content)})
	c.persist(ctx)
	c.state = StateAwaitingResponse
	c.emit(EventTypingStarted{})
	snapshot := c.log.Clone()
	c.mu.Unlock()

	returned := false
	defer func() {
		if returned {
			return
		}
		// The transport panicked. Settle so later calls are not refused.
		c.mu.Lock()
		c.emit(EventTypingStopped{})
		c.state = StateIdle
		c.mu.Unlock()
	}()
	resp, err := c.send(ctx, snapshot)
	returned = true

	c.mu.Lock()
	defer c.mu.Unlock()
	c.emit(EventTypingStopped{})

	if err != nil {
		c.state = StateFailed
		terr := asTransportError(err)
		shown := Turn{Role: RoleAssistant, Content: "Error: " + terr.Error(), Timestamp: c.stamp()}
		c.emit(EventError{Turn: shown, Markup: c.format(shown.Content), Err: terr})
		c.state = StateIdle
		return terr
	}

	c.state = StateSettled
	answer := resp.Answer
	if strings.TrimSpace(answer) == "" {
		answer = NoResponse
	}
	reply := Turn{Role: RoleAssistant, Content: answer, Timestamp: c.stamp()}
	c.log = c.log.Append(reply)
	c.emit(EventTurnRendered{Turn: reply, Markup: c.format(reply.Content)})
	c.persist(ctx)
	c.state = StateIdle
	return nil
}

// Clear empties the stored and the in-memory log. It returns ErrBusy while a
// request is in flight. If the store cannot be cleared the in-memory log is
// kept as it was.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrBusy
	}
	if err := c.history.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	c.log = nil
	c.emit(EventHistoryCleared{})
	return nil
}

func (c *Controller) send(ctx context.Context, log Log) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.transport.Send(ctx, log)
}

// persist writes the log and adopts whatever the store actually kept.
// Must be called with c.mu held.
func (c *Controller) persist(ctx context.Context) {
	before := len(c.log)
	saved, err := c.history.Save(ctx, c.log)
	if saved != nil && len(saved) < before {
		c.log = saved
		c.emit(EventHistoryTruncated{Dropped: before - len(saved), Kept: len(saved)})
	}
	if err != nil {
		c.emit(EventPersistFailed{Err: err})
	}
}

func (c *Controller) stamp() string {
	return c.now().Format(TimestampLayout)
}

func (c *Controller) emit(e Event) {
	if c.onEvent != nil {
		c.onEvent(e)
	}
}

func asTransportError(err error) *TransportError {
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr
	}
	return &TransportError{Err: err}
}

// FanOut returns an event handler that passes each event to every non-nil
// handler in order.
func FanOut(handlers ...func(Event)) func(Event) {
	return func(e Event) {
		for _, h := range handlers {
			if h != nil {
				h(e)
			}
		}
	}
}
