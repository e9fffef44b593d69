// Package format renders fetched log events into printable lines.
package format

import (
	"fmt"
	"strings"
	"time"
)

// Style selects how log messages are rendered.
type Style string

const (
	// StyleStandard prints "<timestamp>\t<message>".
	StyleStandard Style = "standard"
	// StyleLambda additionally unpacks AWS Lambda runtime markers
	// (START/END/REPORT and request-id prefixed function output).
	StyleLambda Style = "lambda"
)

// DefaultTimePattern is used when no time format is configured.
const DefaultTimePattern = "hh:mm:ss:SSS"

// ParseStyle validates a style name, defaulting to StyleStandard when empty.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case "":
		return StyleStandard, nil
	case StyleStandard, StyleLambda:
		return Style(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want standard or lambda)", s)
}

// tokenReplacer maps pattern tokens to Go reference-time layout chunks.
// Longer tokens are listed first so they win over their prefixes.
var tokenReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"hh", "15",
	"mm", "04",
	"ss", "05",
)

// Formatter turns (timestamp, message) pairs into printable lines.
type Formatter struct {
	style Style
	// layouts are the Go layouts of the pattern segments surrounding
	// each SSS token; the millisecond value is joined between them.
	layouts []string
}

// New builds a Formatter for the given style and time pattern.
// An empty pattern falls back to DefaultTimePattern.
func New(style Style, timePattern string) *Formatter {
	if timePattern == "" {
		timePattern = DefaultTimePattern
	}
	segments := strings.Split(timePattern, "SSS")
	layouts := make([]string, len(segments))
	for i, seg := range segments {
		layouts[i] = tokenReplacer.Replace(seg)
	}
	if style == "" {
		style = StyleStandard
	}
	return &Formatter{style: style, layouts: layouts}
}

// Format renders one event as one or more output lines. The lambda style
// may split a message over several lines; everything else is a single line.
func (f *Formatter) Format(timestampMs int64, message string) []string {
	stamp := f.stamp(timestampMs)
	message = strings.TrimRight(message, "\n")
	if f.style == StyleLambda {
		if lines, ok := formatLambda(stamp, message); ok {
			return lines
		}
	}
	return []string{stamp + "\t" + message}
}

// stamp renders the timestamp using the configured pattern. Milliseconds
// have no reference-time representation outside a fractional second, so
// the segments around each SSS token are formatted independently and the
// millisecond value is interleaved.
func (f *Formatter) stamp(timestampMs int64) string {
	t := time.UnixMilli(timestampMs)
	if len(f.layouts) == 1 {
		return t.Format(f.layouts[0])
	}
	segments := make([]string, len(f.layouts))
	for i, layout := range f.layouts {
		segments[i] = t.Format(layout)
	}
	return strings.Join(segments, fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond)))
}

// formatLambda unpacks Lambda runtime markers. REPORT lines arrive with
// tab-separated metric fields; each field gets its own indented line so
// the metrics stay readable. Function output is prefixed with the ISO
// timestamp and request id; the duplicated timestamp is dropped in favor
// of the event timestamp already rendered.
func formatLambda(stamp, message string) ([]string, bool) {
	if strings.HasPrefix(message, "START ") ||
		strings.HasPrefix(message, "END ") ||
		strings.HasPrefix(message, "REPORT ") {
		fields := strings.Split(message, "\t")
		lines := []string{stamp + "\t" + strings.TrimSpace(fields[0])}
		for _, field := range fields[1:] {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			lines = append(lines, "\t"+field)
		}
		return lines, true
	}

	fields := strings.SplitN(message, "\t", 3)
	if len(fields) == 3 && looksLikeRequestID(fields[1]) {
		return []string{stamp + "\t" + fields[1] + "\t" + strings.TrimSpace(fields[2])}, true
	}
	return nil, false
}

// looksLikeRequestID reports whether s has the shape of a Lambda request
// id (a 36-character lowercase UUID).
func looksLikeRequestID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, r := range s {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
				return false
			}
		}
	}
	return true
}
