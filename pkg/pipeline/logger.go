// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"time"

	"github.com/pterm/pterm"
)

// Logger logs pipeline phase transitions when a query is run with Debug
// set, the same shape as pkg/migrations.Logger (phase-named methods wrapping
// a pterm.Logger) generalized from migration steps to request phases.
type Logger interface {
	LogPhase(phase string, d time.Duration, args ...any)
}

type phaseLogger struct {
	logger pterm.Logger
}

func NewLogger() Logger {
	return &phaseLogger{logger: pterm.DefaultLogger}
}

func (l *phaseLogger) LogPhase(phase string, d time.Duration, args ...any) {
	all := append([]any{"phase", phase, "durationMs", d.Milliseconds()}, args...)
	l.logger.Debug("pipeline phase", l.logger.Args(all...))
}

type noopLogger struct{}

func NewNoopLogger() Logger { return &noopLogger{} }

func (noopLogger) LogPhase(string, time.Duration, ...any) {}
