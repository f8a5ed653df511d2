// Package boterr defines the error kinds shared across the daemon.
//
// Handlers compare against these sentinels with errors.Is; wrapped
// context is added with fmt.Errorf("...: %w", ...) the same way the
// persistence and rcon packages do.
package boterr

import "errors"

var (
	ErrRconTimeout      = errors.New("rcon timeout")
	ErrRconAuth         = errors.New("rcon auth failed")
	ErrCvarMissing      = errors.New("cvar missing from rcon reply")
	ErrLogMissing       = errors.New("game log file missing")
	ErrLogIO            = errors.New("game log io error")
	ErrDBBusy           = errors.New("database busy")
	ErrDBIntegrity      = errors.New("database integrity error")
	ErrParseMalformed   = errors.New("malformed log line")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTargetNotFound   = errors.New("target not found")
	ErrTargetAmbiguous  = errors.New("target ambiguous")
	ErrInvalidArgument  = errors.New("invalid argument")
)
