package driver

import (
	"fmt"
	"strings"
	"time"
)

// Phase records the duration and metadata of one pipeline phase.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer tracks the execution time of the pipeline phases.
type Timer struct {
	phases []Phase
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
}

// PhaseReport is the serializable form of one finished phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report returns the finished phases plus the total in milliseconds.
func (t *Timer) Report() ([]PhaseReport, float64) {
	out := make([]PhaseReport, 0, len(t.phases))
	total := 0.0
	for _, p := range t.phases {
		ms := float64(p.Dur.Microseconds()) / 1000.0
		total += ms
		out = append(out, PhaseReport{Name: p.Name, DurationMS: ms, Note: p.Note})
	}
	return out, total
}

// Summary returns a human-readable phase breakdown.
func (t *Timer) Summary() string {
	phases, total := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range phases {
		fmt.Fprintf(&b, "  %-12s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-12s %7.2f ms\n", "total", total)
	return b.String()
}
