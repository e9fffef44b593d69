// Package macro persists named sets of tail invocation parameters to a
// local TOML file, optionally mirrored to an S3 object.
package macro

import "strings"

// Macro is one saved invocation. Zero optional fields mean "use the
// default at tail time".
type Macro struct {
	LogGroupName      string `toml:"log_group_name"`
	Region            string `toml:"region"`
	LogStreamName     string `toml:"log_stream_name,omitempty"`
	TimeFormat        string `toml:"time_format,omitempty"`
	RefreshIntervalMs int    `toml:"refresh_interval_ms,omitempty"`
	OutputFormat      string `toml:"output_format,omitempty"`
}

// Name derives the macro's key from the fields that identify what it
// tails. Macros are never updated in place: saving the same target again
// overwrites the entry under the same name.
func (m Macro) Name() string {
	parts := []string{m.LogGroupName, m.Region}
	if m.LogStreamName != "" {
		parts = append(parts, m.LogStreamName)
	}
	return strings.Join(parts, "\t")
}
