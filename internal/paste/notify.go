package paste

import (
	"fmt"
	"io"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is a user-facing message about a paste.
type Notice struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// WriterNotifier prints notices as "Title: Message" lines. When InfoOnly is
// set, error notices are left to the caller's error reporting.
type WriterNotifier struct {
	W        io.Writer
	InfoOnly bool
}

func (w WriterNotifier) Notify(n Notice) {
	if w.W == nil || (w.InfoOnly && n.Level != LevelInfo) {
		return
	}
	fmt.Fprintf(w.W, "%s: %s\n", n.Title, n.Message)
}
