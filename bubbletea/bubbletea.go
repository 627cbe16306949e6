// Package bubbletea provides a Bubble Tea terminal UI for the chat session.
//
// The Model never touches the conversation log. It sends commands to a
// Session and renders the events the session emits, which arrive on a
// channel fed by Forward.
package bubbletea

import (
	"context"

	"github.com/afilimonchyk/ai-goals-assistant"
	tea "github.com/charmbracelet/bubbletea"
)

// Session is the command side of a chat session. *assistant.Controller
// implements it.
type Session interface {
	Open(ctx context.Context) error
	Submit(ctx context.Context, text string) error
	Clear(ctx context.Context) error
}

var _ Session = (*assistant.Controller)(nil)

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. When ctx is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// Forward returns an event handler that delivers events to ch. It blocks
// while ch is full and gives up once ctx is done, so a program that has
// exited never wedges the session.
func Forward(ctx context.Context, ch chan<- assistant.Event) func(assistant.Event) {
	return func(e assistant.Event) {
		select {
		case ch <- e:
		case <-ctx.Done():
		}
	}
}

// EventMsg wraps a session event for delivery to the Model.
type EventMsg struct {
	Event assistant.Event
}

// OpenDoneMsg reports that the stored history has been replayed.
type OpenDoneMsg struct {
	Err error
}

// SubmitDoneMsg reports that a submission settled.
type SubmitDoneMsg struct {
	Err error
}

// ClearDoneMsg reports the outcome of a clear-history request.
type ClearDoneMsg struct {
	Err error
}

// GoalsMsg carries the goal list after a goal command.
type GoalsMsg struct {
	Goals  []assistant.Goal
	Notice string
	Err    error
}

// listenForEvent waits for the next session event. A closed channel ends
// the listener.
func listenForEvent(ch <-chan assistant.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg{Event: evt}
	}
}

func openSession(s Session) tea.Cmd {
	return func() tea.Msg {
		return OpenDoneMsg{Err: s.Open(context.Background())}
	}
}

func submit(ctx context.Context, s Session, text string) tea.Cmd {
	return func() tea.Msg {
		return SubmitDoneMsg{Err: s.Submit(ctx, text)}
	}
}

func clearHistory(s Session) tea.Cmd {
	return func() tea.Msg {
		return ClearDoneMsg{Err: s.Clear(context.Background())}
	}
}
