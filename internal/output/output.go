// Package output renders plans and schedules as tables, JSON, compact lines
// or Gantt charts.
package output

import (
	"os"
	"strings"
)

// EnvOutput selects the default output format.
const EnvOutput = "BACKPLAN_OUTPUT"

// Format represents an output format.
type Format int

const (
	FormatAuto Format = iota // zero value; Detect never returns it
	FormatJSON
	FormatTable
	FormatCompact
)

var envFormats = map[string]Format{
	"json":    FormatJSON,
	"table":   FormatTable,
	"compact": FormatCompact,
	"oneline": FormatCompact,
}

// Detect picks the format from flags, then BACKPLAN_OUTPUT, then table.
// --json wins over --compact, which wins over --table.
func Detect(jsonFlag, tableFlag, compactFlag bool) Format {
	switch {
	case jsonFlag:
		return FormatJSON
	case compactFlag:
		return FormatCompact
	case tableFlag:
		return FormatTable
	}
	if f, ok := envFormats[strings.ToLower(os.Getenv(EnvOutput))]; ok {
		return f
	}
	return FormatTable
}
