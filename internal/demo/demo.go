// Package demo holds small symmetric-coroutine programs used by the
// symcoro command and its tests.
package demo

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Transcript records the interleaving of a demo run, one line per
// step, and mirrors every line to a logger.
type Transcript struct {
	mu     sync.Mutex
	lines  []string
	logger log.FieldLogger
}

func newTranscript(logger log.FieldLogger) *Transcript {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Transcript{logger: logger}
}

func (t *Transcript) record(who, format string, args ...any) {
	line := fmt.Sprintf(format, args...)

	t.mu.Lock()
	t.lines = append(t.lines, "["+who+"] "+line)
	t.mu.Unlock()

	t.logger.WithField("who", who).Info(line)
}

// Lines returns a copy of the recorded lines.
func (t *Transcript) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}
