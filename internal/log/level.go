// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package log

import "strings"

// Level is the verbosity of the log. Messages at a level above the configured
// one are dropped.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelLabels = [...]string{
	LevelNone:  "NONE",
	LevelError: "‼️ ERROR",
	LevelWarn:  "⚠️ WARN",
	LevelInfo:  "ℹ️ INFO",
	LevelDebug: "🐛 DEBUG",
	LevelTrace: "🐾 TRACE",
}

// levelNames maps the values accepted in WEAVER_LOG_LEVEL.
var levelNames = map[string]Level{
	"NONE":    LevelNone,
	"OFF":     LevelNone,
	"ERROR":   LevelError,
	"WARN":    LevelWarn,
	"WARNING": LevelWarn,
	"INFO":    LevelInfo,
	"DEBUG":   LevelDebug,
	"TRACE":   LevelTrace,
}

func LevelNamed(name string) (Level, bool) {
	l, found := levelNames[strings.ToUpper(strings.TrimSpace(name))]
	return l, found
}

// Enabled reports whether messages at l are written at the current level.
func (l Level) Enabled() bool {
	return l != LevelNone && l <= level
}

func (l Level) Printf(format string, args ...any) {
	write(l, format, args...)
}

func (l Level) String() string {
	if l < LevelNone || int(l) >= len(levelLabels) {
		return levelLabels[LevelNone]
	}
	return levelLabels[l]
}
