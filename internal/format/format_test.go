package format

import (
	"strings"
	"testing"
	"time"
)

func TestStampPatterns(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589*int(time.Millisecond), time.Local)
	tsMs := ts.UnixMilli()

	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{
			name:    "default pattern with milliseconds",
			pattern: "hh:mm:ss:SSS",
			want:    ts.Format("15:04:05") + ":589",
		},
		{
			name:    "date and time",
			pattern: "YYYY-MM-DD HH:mm:ss",
			want:    ts.Format("2006-01-02 15:04:05"),
		},
		{
			name:    "milliseconds only",
			pattern: "SSS",
			want:    "589",
		},
		{
			name:    "empty pattern uses default",
			pattern: "",
			want:    ts.Format("15:04:05") + ":589",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(StyleStandard, tt.pattern)
			lines := f.Format(tsMs, "hello")
			if len(lines) != 1 {
				t.Fatalf("expected a single line, got %d", len(lines))
			}
			want := tt.want + "\thello"
			if lines[0] != want {
				t.Fatalf("got %q, want %q", lines[0], want)
			}
		})
	}
}

func TestStandardStyleLeavesMessageAlone(t *testing.T) {
	f := New(StyleStandard, "hh:mm:ss")
	msg := "REPORT RequestId: abc\tDuration: 5 ms"
	lines := f.Format(time.Now().UnixMilli(), msg+"\n")
	if len(lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "\t"+msg) {
		t.Fatalf("standard style rewrote message: %q", lines[0])
	}
}

func TestLambdaStyleReportFields(t *testing.T) {
	f := New(StyleLambda, "hh:mm:ss")
	msg := "REPORT RequestId: abc\tDuration: 5 ms\tBilled Duration: 6 ms\tMemory Size: 128 MB\n"
	lines := f.Format(time.Now().UnixMilli(), msg)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), lines)
	}
	if !strings.HasSuffix(lines[0], "\tREPORT RequestId: abc") {
		t.Fatalf("request id lost: %q", lines[0])
	}
	if lines[1] != "\tDuration: 5 ms" {
		t.Fatalf("duration field lost: %q", lines[1])
	}
	if lines[3] != "\tMemory Size: 128 MB" {
		t.Fatalf("memory field lost: %q", lines[3])
	}
}

func TestLambdaStyleReportWithoutTabsKeepsBothFields(t *testing.T) {
	f := New(StyleLambda, "hh:mm:ss")
	lines := f.Format(time.Now().UnixMilli(), "REPORT RequestId: abc Duration: 5 ms")
	if len(lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "abc") || !strings.Contains(lines[0], "5 ms") {
		t.Fatalf("request id or duration lost: %q", lines[0])
	}
}

func TestLambdaStyleStartEnd(t *testing.T) {
	f := New(StyleLambda, "hh:mm:ss")
	for _, msg := range []string{
		"START RequestId: 0f1e2d3c Version: $LATEST",
		"END RequestId: 0f1e2d3c",
	} {
		lines := f.Format(time.Now().UnixMilli(), msg+"\n")
		if len(lines) != 1 {
			t.Fatalf("expected a single line for %q, got %d", msg, len(lines))
		}
		if !strings.HasSuffix(lines[0], "\t"+msg) {
			t.Fatalf("marker line rewritten: %q", lines[0])
		}
	}
}

func TestLambdaStyleFunctionOutputDropsDuplicateTimestamp(t *testing.T) {
	f := New(StyleLambda, "hh:mm:ss")
	reqID := "6bc28136-11ab-4d9c-8f6e-0123456789ab"
	msg := "2026-03-14T09:26:53.589Z\t" + reqID + "\tINFO\tprocessing order\n"
	lines := f.Format(time.Now().UnixMilli(), msg)
	if len(lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(lines))
	}
	if strings.Contains(lines[0], "2026-03-14T") {
		t.Fatalf("duplicated ISO timestamp kept: %q", lines[0])
	}
	if !strings.Contains(lines[0], reqID) || !strings.HasSuffix(lines[0], "INFO\tprocessing order") {
		t.Fatalf("request id or payload lost: %q", lines[0])
	}
}

func TestLambdaStyleFallsBackToStandard(t *testing.T) {
	f := New(StyleLambda, "hh:mm:ss")
	lines := f.Format(time.Now().UnixMilli(), "plain application line")
	if len(lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "\tplain application line") {
		t.Fatalf("fallback line rewritten: %q", lines[0])
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{in: "", want: StyleStandard},
		{in: "standard", want: StyleStandard},
		{in: "lambda", want: StyleLambda},
		{in: "json", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseStyle(%q) error = %v, wantErr = %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Fatalf("ParseStyle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
