// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log re-exports github.com/luxfi/log so every component in the
// deliberation core constructs its logger the same way and none of them
// reach for a global logger.
package log

import (
	"github.com/luxfi/log"
)

// Logger is the structured logger every component takes as a constructor
// argument. No package in this module keeps a package-level logger.
type Logger = log.Logger

// Field constructors, re-exported for call sites that build log lines the
// way networking/handler/notifier.go does in the teacher repo:
// log.Debug("...", log.String("actor", id.String()), log.Err(err)).
var (
	String   = log.String
	Stringer = log.Stringer
	Uint32   = log.Uint32
	Uint64   = log.Uint64
	Int      = log.Int
	Bool     = log.Bool
	Err      = log.Err
	Duration = log.Duration
)

// NewNoOp returns a logger that discards everything, used as the default
// in tests and in any constructor that does not receive an explicit logger.
func NewNoOp() Logger {
	return log.NewNoOpLogger()
}

// Config selects the runtime logger's verbosity and encoding.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	JSON        bool
	DisplayName string // identifies this process's log lines, e.g. "conclave-core"
}

// New constructs the process logger. It never returns an error: an invalid
// level falls back to "info" rather than failing process startup over a
// logging misconfiguration.
func New(cfg Config) Logger {
	level := log.LevelInfo
	switch cfg.Level {
	case "debug":
		level = log.LevelDebug
	case "warn":
		level = log.LevelWarn
	case "error":
		level = log.LevelError
	}
	return log.NewLogger(cfg.DisplayName, level, cfg.JSON)
}
