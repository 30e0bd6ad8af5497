// Package perf samples render cost and decides when a grid should switch to
// cheaper rendering.
package perf

import (
	"strings"
	"time"
)

type Mode string

const (
	// Standard never escalates.
	Standard Mode = "standard"
	// Performance starts with virtualization forced on.
	Performance Mode = "performance"
	// Auto escalates once render cost exceeds the budget.
	Auto Mode = "auto"
)

func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Performance:
		return Performance
	case Auto:
		return Auto
	}
	return Standard
}

const (
	DefaultBudget     = 16 * time.Millisecond
	DefaultThreshold  = 500
	DefaultSampleSize = 30
)

// Escalation is the set of degradations currently in force.
type Escalation struct {
	Virtualize         bool `json:"virtualize"`
	SuppressAnimations bool `json:"suppressAnimations"`
}

func (e Escalation) Any() bool { return e.Virtualize || e.SuppressAnimations }

// Stats summarizes the retained samples.
type Stats struct {
	Last  time.Duration `json:"last"`
	Mean  time.Duration `json:"mean"`
	Max   time.Duration `json:"max"`
	Count int           `json:"count"`
}

type Options struct {
	Mode       Mode
	Budget     time.Duration
	Threshold  int
	SampleSize int
	// Now is the clock used by Measure; defaults to time.Now.
	Now func() time.Time
}

// Monitor keeps a ring of the last N render durations. Escalation only ever
// moves towards cheaper rendering until Reset.
type Monitor struct {
	mode      Mode
	budget    time.Duration
	threshold int
	now       func() time.Time

	samples []time.Duration
	next    int
	filled  bool

	state Escalation
}

func NewMonitor(opts Options) *Monitor {
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Mode == "" {
		opts.Mode = Standard
	}
	m := &Monitor{
		mode:      opts.Mode,
		budget:    opts.Budget,
		threshold: opts.Threshold,
		now:       opts.Now,
		samples:   make([]time.Duration, opts.SampleSize),
	}
	m.Reset()
	return m
}

func (m *Monitor) Mode() Mode { return m.mode }

func (m *Monitor) Budget() time.Duration { return m.budget }

func (m *Monitor) Escalation() Escalation { return m.state }

// Reset drops samples and returns to the mode's starting state.
func (m *Monitor) Reset() {
	clear(m.samples)
	m.next = 0
	m.filled = false
	m.state = Escalation{Virtualize: m.mode == Performance}
}

// SetMode switches mode and resets.
func (m *Monitor) SetMode(mode Mode) {
	m.mode = mode
	m.Reset()
}

// Record stores one render duration and returns the escalation in force
// afterwards.
func (m *Monitor) Record(d time.Duration, logicalRows int) Escalation {
	m.samples[m.next] = d
	m.next = (m.next + 1) % len(m.samples)
	if m.next == 0 {
		m.filled = true
	}
	if m.mode != Auto || d <= m.budget {
		return m.state
	}
	m.state.SuppressAnimations = true
	if logicalRows > m.threshold {
		m.state.Virtualize = true
	}
	return m.state
}

// Measure times fn with the monitor's clock.
func (m *Monitor) Measure(fn func()) time.Duration {
	start := m.now()
	fn()
	return m.now().Sub(start)
}

func (m *Monitor) Stats() Stats {
	n := m.count()
	if n == 0 {
		return Stats{}
	}
	var sum, peak time.Duration
	for _, d := range m.samples[:n] {
		sum += d
		peak = max(peak, d)
	}
	last := m.samples[(m.next-1+len(m.samples))%len(m.samples)]
	return Stats{Last: last, Mean: sum / time.Duration(n), Max: peak, Count: n}
}

func (m *Monitor) count() int {
	if m.filled {
		return len(m.samples)
	}
	return m.next
}
