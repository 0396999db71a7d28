package progress

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Phase("Phase 2: Section-by-Section Generation...")
	r.Warn("Section file %s not found, skipping", "02-x.md")
	r.Error(errors.New("boom"), "article %q failed", "a")
	r.Usage(1200, 600, 0.0126)

	out := buf.String()
	assert.Contains(t, out, "Phase 2: Section-by-Section Generation...\n")
	assert.Contains(t, out, "[WARN] Section file 02-x.md not found, skipping\n")
	assert.Contains(t, out, `[ERROR] article "a" failed: boom`)
	assert.Contains(t, out, "Input Tokens: 1200")
	assert.Contains(t, out, "Total Estimated Cost: $0.0126")
	assert.NotContains(t, out, "\x1b[")
}

func TestReporterForwardsToWriter(t *testing.T) {
	ch := make(chan Update, 4)
	r := Quiet()
	r.SetWriter(NewChannelWriter(ch))

	r.Step("Generating Section [%d/%d]: %s", 1, 3, "Introduction")
	r.Success("COMPLETED: %s", "T")

	first := <-ch
	assert.Equal(t, KindStep, first.Kind)
	assert.Equal(t, "Generating Section [1/3]: Introduction", first.Message)
	second := <-ch
	assert.Equal(t, KindSuccess, second.Kind)
}

func TestSpinnerDisabledForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.Start("Calling model")
	r.Stop()
	r.Stop()
	assert.Empty(t, buf.String())
}

func TestSpinnerStartStop(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf)
	s.Start("Working")
	s.Start("ignored while running")
	s.Stop()
	require.Contains(t, buf.String(), "Working... Done!")
	assert.NotContains(t, buf.String(), "ignored")
}
