package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// progressWidth is how many dots a full run prints
const progressWidth = 40

// ProgressMonitor prints dots as simulated rounds complete
type ProgressMonitor struct {
	mu          sync.Mutex
	out         io.Writer
	total       int
	done        int
	dotsPrinted int
	startTime   time.Time
}

// NewProgressMonitor creates a progress monitor for total rounds
func NewProgressMonitor(out io.Writer, total int) *ProgressMonitor {
	return &ProgressMonitor{
		out:       out,
		total:     max(total, 1),
		startTime: time.Now(),
	}
}

// Add records n completed rounds. It is safe for concurrent use.
func (m *ProgressMonitor) Add(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.done += n
	want := min(m.done*progressWidth/m.total, progressWidth)
	if want > m.dotsPrinted {
		_, _ = fmt.Fprint(m.out, strings.Repeat(".", want-m.dotsPrinted))
		m.dotsPrinted = want
	}
}

// Finish ends the progress line with the rate achieved
func (m *ProgressMonitor) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed := time.Since(m.startTime)
	rate := float64(m.done) / max(elapsed.Seconds(), 0.001)
	_, _ = fmt.Fprintf(m.out, " %d rounds (%.0f/s)\n", m.done, rate)
}
