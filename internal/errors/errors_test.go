package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "nesting error",
			code:    "N001",
			wantMsg: "Empty nesting chain",
			wantCat: CategoryNesting,
		},
		{
			name:    "scenario error",
			code:    "S003",
			wantMsg: "Unknown cell reference",
			wantCat: CategoryScenario,
		},
		{
			name:    "config error",
			code:    "C002",
			wantMsg: "Invalid configuration file",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "X999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown flag %q", "--fast")
	if err.Message != `unknown flag "--fast"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"code only", New("N006"), "N006: Already stopped"},
		{"with detail", New("N003").WithDetail("step 1 of 2 is nil"), "N003: Missing nesting step: step 1 of 2 is nil"},
		{"uncoded", Newf(CategoryCLI, "boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_WithLocation(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "depth2.yaml")
	content := `name: depth2
cells:
  A1: {type: record, value: a1}
records:
  a1:
    b: B9
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("S003").WithLocation(tmpFile, 6, 8)

	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.File != tmpFile {
		t.Errorf("Location.File = %q, want %q", err.Location.File, tmpFile)
	}
	if err.Location.Line != 6 {
		t.Errorf("Location.Line = %d, want %d", err.Location.Line, 6)
	}
	if err.Location.Column != 8 {
		t.Errorf("Location.Column = %d, want %d", err.Location.Column, 8)
	}
	if len(err.Context) == 0 {
		t.Error("Context should not be empty")
	}
}

func TestError_WithLocationMissingFile(t *testing.T) {
	err := New("S003").WithLocation("does-not-exist.yaml", 3, 1)
	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if len(err.Context) != 0 {
		t.Errorf("expected no context for a missing file, got %v", err.Context)
	}
}

func TestError_WithSuggestion(t *testing.T) {
	err := New("N005").WithSuggestion("Publish a *cell.Cell[int]")
	if err.Suggestion != "Publish a *cell.Cell[int]" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
}

func TestError_Wrap(t *testing.T) {
	sentinel := stderrors.New("chain is empty")
	err := New("N001").Wrap(sentinel)

	if !stderrors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped sentinel")
	}
	if err.Unwrap() != sentinel {
		t.Error("Unwrap should return the wrapped error")
	}
}

func TestAs(t *testing.T) {
	inner := New("C003").WithDetail("log.level must be one of debug, info, warn, error")
	wrapped := stderrors.Join(stderrors.New("loading config"), inner)

	var e *Error
	if !As(wrapped, &e) {
		t.Fatal("As should find *Error in the chain")
	}
	if e.Code != "C003" {
		t.Errorf("Code = %q, want C003", e.Code)
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  *Location
		want string
	}{
		{&Location{File: "a.yaml", Line: 3, Column: 7}, "a.yaml:3:7"},
		{&Location{File: "a.yaml", Line: 3}, "a.yaml:3"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	SetColors(false)
	defer SetColors(true)

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "depth2.yaml")
	content := `records:
  a1:
    b: B1
  a2:
    b: B9
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("S003").
		WithLocation(tmpFile, 5, 8).
		WithDetail(`record "a2" names cell "B9", which is not declared`)

	formatted := err.Format()

	for _, want := range []string{
		"ERROR S003:",
		"Unknown cell reference",
		tmpFile,
		"→    5 │     b: B9",
		`record "a2" names cell "B9"`,
		"Hint: Declare the cell",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format should contain %q, got:\n%s", want, formatted)
		}
	}
}

func TestFormatShowsCause(t *testing.T) {
	SetColors(false)
	defer SetColors(true)

	err := New("S001").Wrap(stderrors.New("no such file"))
	if !strings.Contains(err.Format(), "Cause: no such file") {
		t.Errorf("Format should show the cause, got:\n%s", err.Format())
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("S004").WithLocation("scenario.yaml", 10, 5)
	compact := err.FormatCompact()

	want := "scenario.yaml:10:5: S004: Unknown record reference"
	if compact != want {
		t.Errorf("FormatCompact() = %q, want %q", compact, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("N004").WithLocation("chain.yaml", 10, 5).WithDetail("step 1 expects string")
	json := err.FormatJSON()

	for _, want := range []string{
		`"code":"N004"`,
		`"category":"nesting"`,
		`"message":"Chain types do not line up"`,
		`"detail":"step 1 expects string"`,
		`"location":{"file":"chain.yaml","line":10,"column":5}`,
	} {
		if !strings.Contains(json, want) {
			t.Errorf("JSON should contain %s, got %s", want, json)
		}
	}
}

func TestPrint(t *testing.T) {
	SetColors(false)
	defer SetColors(true)

	var buf bytes.Buffer
	Print(&buf, New("N006"))
	if !strings.Contains(buf.String(), "ERROR N006: Already stopped") {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	Print(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	Print(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output for nil, got %q", buf.String())
	}
}

func TestPrintCompact(t *testing.T) {
	var buf bytes.Buffer
	PrintCompact(&buf, New("N006").WithDetail("detector \"d\""))
	if got, want := buf.String(), "N006: Already stopped: detector \"d\"\n"; got != want {
		t.Errorf("PrintCompact() = %q, want %q", got, want)
	}

	buf.Reset()
	PrintCompact(&buf, fmt.Errorf("wrapped: %w", New("S006")))
	if got, want := buf.String(), "S006: Scenario expectation failed\n"; got != want {
		t.Errorf("PrintCompact() = %q, want %q", got, want)
	}

	buf.Reset()
	PrintCompact(&buf, stderrors.New("plain failure"))
	if got := buf.String(); got != "plain failure\n" {
		t.Errorf("PrintCompact() = %q", got)
	}
}

func TestGetTemplate(t *testing.T) {
	tmpl, ok := GetTemplate("N004")
	if !ok {
		t.Fatal("GetTemplate(N004) should return ok=true")
	}
	if tmpl.Category != CategoryNesting {
		t.Errorf("Category = %q, want %q", tmpl.Category, CategoryNesting)
	}

	if _, ok := GetTemplate("X999"); ok {
		t.Error("GetTemplate(X999) should return ok=false")
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  int
	}{
		{"", 10, 0},
		{"short", 10, 1},
		{"this line is long enough to wrap twice", 15, 3},
	}
	for _, tt := range tests {
		lines := wrapText(tt.text, tt.width)
		if len(lines) != tt.want {
			t.Errorf("wrapText(%q, %d) = %d lines, want %d", tt.text, tt.width, len(lines), tt.want)
		}
		for _, l := range lines {
			if len(l) > tt.width {
				t.Errorf("line %q exceeds width %d", l, tt.width)
			}
		}
	}
}

func TestColorFunctions(t *testing.T) {
	SetColors(true)
	if got := red("x"); got != colorRed+"x"+colorReset {
		t.Errorf("red() = %q", got)
	}

	SetColors(false)
	defer SetColors(true)
	if got := red("x"); got != "x" {
		t.Errorf("red() with colors disabled = %q, want %q", got, "x")
	}
}
