// Package notify is the toast surface the address forms report to.
package notify

import (
	"log/slog"
	"sync"
)

// Notifier shows short messages to the shopper.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Level distinguishes success toasts from error toasts.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is one toast.
type Message struct {
	Level Level
	Text  string
}

// Nop discards every message.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}

// Func adapts a function to Notifier.
type Func func(Message)

func (f Func) Success(msg string) { f(Message{Level: LevelSuccess, Text: msg}) }
func (f Func) Error(msg string)   { f(Message{Level: LevelError, Text: msg}) }

// LogNotifier writes toasts to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by logger (slog.Default when nil).
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(msg string) {
	n.logger.Info("toast", slog.String("level", string(LevelSuccess)), slog.String("message", msg))
}

func (n *LogNotifier) Error(msg string) {
	n.logger.Warn("toast", slog.String("level", string(LevelError)), slog.String("message", msg))
}

// Recorder keeps every message in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(msg string) { r.add(Message{Level: LevelSuccess, Text: msg}) }
func (r *Recorder) Error(msg string)   { r.add(Message{Level: LevelError, Text: msg}) }

func (r *Recorder) add(m Message) {
	r.mu.Lock()
	r.messages = append(r.messages, m)
	r.mu.Unlock()
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message and whether there was one.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
