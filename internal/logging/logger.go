// Package logging builds the structured zerolog logger used across the
// pipeline, grounded on the teacher's sibling gateway service's logger
// construction. Every gate decision and lifecycle transition in the
// PipelineEngine logs through this with the same event names the original
// Python pipeline used with logging's extra={} kwarg, carried here as
// zerolog key/value pairs instead.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a console-rendered zerolog.Logger at the given level name
// (debug/info/warn/error; unrecognized values fall back to info).
func New(appEnv, levelName string) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02T15:04:05Z07:00"}

	level := zerolog.InfoLevel
	switch levelName {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.New(out).With().Timestamp().Str("app_env", appEnv).Logger()
}

// Pipeline event names, matching the original pipeline's structured log
// points verbatim so dashboards built against either implementation can
// share field names.
const (
	EventNormalized = "event_normalized"
	EventConsensusGate = "consensus_gate"
	EventEdgeGate      = "edge_gate"
	EventPickEmitted   = "pick_emitted"
	EventPickBlocked   = "pick_blocked"
)
