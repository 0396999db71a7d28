// Package progress reports pipeline phases, warnings and usage to the
// console and, optionally, to a structured sink.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Kind represents different types of progress updates
type Kind int

const (
	KindPhase Kind = iota
	KindStep
	KindInfo
	KindWarn
	KindSuccess
	KindError
	KindUsage
)

// Update is a single progress event
type Update struct {
	Kind    Kind
	Message string
	Err     error
}

// Writer is an interface for handling progress updates
type Writer interface {
	WriteProgress(update Update) error
}

// channelWriter implements Writer by sending updates to a channel
type channelWriter struct {
	ch chan<- Update
}

func NewChannelWriter(ch chan<- Update) Writer {
	return &channelWriter{ch: ch}
}

func (w *channelWriter) WriteProgress(update Update) error {
	w.ch <- update
	return nil
}

var styles = map[Kind]lipgloss.Style{
	KindPhase:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5C542")),
	KindStep:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
	KindInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	KindWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA94D")),
	KindSuccess: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#69DB7C")),
	KindError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
	KindUsage:   lipgloss.NewStyle().Foreground(lipgloss.Color("#DA77F2")),
}

var prefixes = map[Kind]string{
	KindWarn:  "[WARN] ",
	KindError: "[ERROR] ",
}

// Reporter prints progress lines. Output is styled and the spinner is
// active only when out is a terminal.
type Reporter struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	sink        Writer
	spinner     *Spinner
}

// New returns a reporter writing to out.
func New(out io.Writer) *Reporter {
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	r := &Reporter{out: out, interactive: interactive}
	r.spinner = NewSpinner(out)
	if !interactive {
		r.spinner.Disable()
	}
	return r
}

// Stdout is the default console reporter.
func Stdout() *Reporter {
	return New(os.Stdout)
}

// Quiet discards everything. Used by tests.
func Quiet() *Reporter {
	return New(io.Discard)
}

// SetWriter forwards every update to w in addition to the console.
func (r *Reporter) SetWriter(w Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = w
}

func (r *Reporter) emit(kind Kind, err error, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	r.mu.Lock()
	defer r.mu.Unlock()

	line := prefixes[kind] + msg
	if r.interactive {
		line = styles[kind].Render(line)
	}
	fmt.Fprintln(r.out, line)

	if r.sink != nil {
		_ = r.sink.WriteProgress(Update{Kind: kind, Message: msg, Err: err})
	}
}

// Phase announces a new pipeline phase.
func (r *Reporter) Phase(format string, args ...interface{}) {
	r.emit(KindPhase, nil, format, args...)
}

// Step reports one unit of work inside a phase.
func (r *Reporter) Step(format string, args ...interface{}) {
	r.emit(KindStep, nil, format, args...)
}

// Info prints a low-priority note.
func (r *Reporter) Info(format string, args ...interface{}) {
	r.emit(KindInfo, nil, format, args...)
}

// Warn reports a recoverable problem. Its signature matches the Warnf hooks
// on the store and the cost ledger.
func (r *Reporter) Warn(format string, args ...interface{}) {
	r.emit(KindWarn, nil, format, args...)
}

// Success reports a completed article or command.
func (r *Reporter) Success(format string, args ...interface{}) {
	r.emit(KindSuccess, nil, format, args...)
}

// Error reports a failure.
func (r *Reporter) Error(err error, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	r.emit(KindError, err, "%s", msg)
}

// Usage prints the token and cost report for an article.
func (r *Reporter) Usage(inputTokens, outputTokens int, cost float64) {
	r.emit(KindUsage, nil, "Usage Report:\n   Input Tokens: %d\n   Output Tokens: %d\n   Total Estimated Cost: $%.4f",
		inputTokens, outputTokens, cost)
}

// Start shows the spinner while a provider call is in flight.
func (r *Reporter) Start(message string) {
	r.spinner.Start(message)
}

// Stop ends the spinner started by Start.
func (r *Reporter) Stop() {
	r.spinner.Stop()
}
