package assistant

import "strings"

// TimestampLayout is the display layout of Turn.Timestamp (24-hour HH:MM).
const TimestampLayout = "15:04"

// Turn is a single entry in the conversation log. Content is the raw text
// exactly as typed or received and is never modified after creation.
type Turn struct {
	Role      Role
	Content   string
	Timestamp string
}

// Blank reports whether the turn carries no visible text.
func (t Turn) Blank() bool {
	return strings.TrimSpace(t.Content) == ""
}

// Log is the ordered conversation history. Index order is chronological
// order is display order.
type Log []Turn

// Append returns a new Log with t added at the end. The receiver is left
// untouched so snapshots handed to other goroutines stay stable.
func (l Log) Append(t Turn) Log {
	out := make(Log, len(l), len(l)+1)
	copy(out, l)
	return append(out, t)
}

// Tail returns a copy of the most recent n turns in their original order.
func (l Log) Tail(n int) Log {
	if n < 0 {
		n = 0
	}
	if n >= len(l) {
		return l.Clone()
	}
	return l[len(l)-n:].Clone()
}

// Clone returns a copy of the log that shares no backing array with l.
func (l Log) Clone() Log {
	if l == nil {
		return nil
	}
	out := make(Log, len(l))
	copy(out, l)
	return out
}
