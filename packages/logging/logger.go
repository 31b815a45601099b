package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Phase is a stage of a request's lifecycle
type Phase string

const (
	PhaseMakeRequest Phase = "MakeRequest"
	PhaseSendRequest Phase = "SendRequest"
	PhaseGetResponse Phase = "GetResponse"
)

func (p Phase) String() string {
	return string(p)
}

// Logger receives phase messages
type Logger interface {
	Log(requestID string, phase Phase, message string)
}

// Func adapts a function to Logger
type Func func(requestID string, phase Phase, message string)

func (f Func) Log(requestID string, phase Phase, message string) {
	f(requestID, phase, message)
}

type nopLogger struct{}

func (nopLogger) Log(string, Phase, string) {}

// Nop returns a Logger that discards everything
func Nop() Logger {
	return nopLogger{}
}

// Console writes one colored line per message
type Console struct {
	mu         sync.Mutex
	writer     io.Writer
	noColor    bool
	timestamps bool
	now        func() time.Time
}

type ConsoleOption func(*Console)

func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{
		writer: os.Stderr,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(c *Console) {
		c.writer = w
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(c *Console) {
		c.noColor = nc
	}
}

// WithTimestamps prefixes each line with the wall clock time
func WithTimestamps(enabled bool) ConsoleOption {
	return func(c *Console) {
		c.timestamps = enabled
	}
}

func (c *Console) phaseColor(p Phase) *color.Color {
	var col *color.Color
	switch p {
	case PhaseMakeRequest:
		col = color.New(color.FgCyan)
	case PhaseSendRequest:
		col = color.New(color.FgYellow)
	case PhaseGetResponse:
		col = color.New(color.FgGreen)
	default:
		col = color.New(color.FgWhite)
	}
	if c.noColor {
		col.DisableColor()
	}
	return col
}

func (c *Console) Log(requestID string, phase Phase, message string) {
	dim := color.New(color.Faint)
	if c.noColor {
		dim.DisableColor()
	}

	line := fmt.Sprintf("%s %s %s", dim.Sprintf("[%s]", requestID), c.phaseColor(phase).Sprintf("%-11s", phase), message)
	if c.timestamps {
		line = c.now().Format("15:04:05.000") + " " + line
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.writer, line)
}

// Entry is one recorded message
type Entry struct {
	RequestID string
	Phase     Phase
	Message   string
}

// Memory keeps every message in order. Useful in tests.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Log(requestID string, phase Phase, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{RequestID: requestID, Phase: phase, Message: message})
}

// Entries returns a copy of the recorded messages
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Phases returns the phase of each recorded message
func (m *Memory) Phases() []Phase {
	entries := m.Entries()
	out := make([]Phase, len(entries))
	for i, e := range entries {
		out[i] = e.Phase
	}
	return out
}
