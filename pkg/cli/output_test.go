package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testReport struct {
	OK      int     `json:"ok" yaml:"ok"`
	Total   int     `json:"total" yaml:"total"`
	Percent float64 `json:"percent" yaml:"percent"`
}

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer

	err := Output(testReport{OK: 29, Total: 30, Percent: 96.67}, OutputOptions{
		Format: FormatJSON,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}

	var result testReport
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if result.OK != 29 || result.Total != 30 {
		t.Errorf("result = %+v", result)
	}
}

func TestOutput_YAML(t *testing.T) {
	var buf bytes.Buffer

	err := Output(testReport{OK: 3, Total: 4}, OutputOptions{
		Format: FormatYAML,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "ok: 3") || !strings.Contains(output, "total: 4") {
		t.Errorf("unexpected YAML output: %s", output)
	}
}

func TestOutput_DefaultFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(map[string]int{"n": 1}, OutputOptions{Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "n: 1") {
		t.Errorf("default format should be YAML, got: %s", buf.String())
	}
}

func TestOutput_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("x", OutputOptions{Format: FormatText, Writer: &buf}); err == nil {
		t.Error("Output should fail for the text format")
	}
}

func TestOutput_ToFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "report.json")

	if err := Output(testReport{OK: 1, Total: 1, Percent: 100}, OutputOptions{
		Format: FormatJSON,
		File:   filePath,
	}); err != nil {
		t.Fatalf("Output error: %v", err)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	var result testReport
	if err := json.Unmarshal(content, &result); err != nil {
		t.Fatalf("Invalid JSON in file: %v", err)
	}
	if result.Percent != 100 {
		t.Errorf("Percent = %v, want 100", result.Percent)
	}
}

func TestOutput_JSONIndent(t *testing.T) {
	var buf bytes.Buffer

	err := Output(map[string]string{"key": "value"}, OutputOptions{
		Format: FormatJSON,
		Writer: &buf,
		Indent: "    ",
	})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "    \"key\"") {
		t.Errorf("Output should be indented, got: %s", buf.String())
	}
}

func TestFormatFromFlags(t *testing.T) {
	tests := []struct {
		json, yaml bool
		want       OutputFormat
		structured bool
	}{
		{false, false, FormatText, false},
		{true, false, FormatJSON, true},
		{false, true, FormatYAML, true},
		{true, true, FormatJSON, true},
	}
	for _, tt := range tests {
		got := FormatFromFlags(tt.json, tt.yaml)
		if got != tt.want {
			t.Errorf("FormatFromFlags(%v, %v) = %q, want %q", tt.json, tt.yaml, got, tt.want)
		}
		if got.Structured() != tt.structured {
			t.Errorf("%q.Structured() = %v", got, got.Structured())
		}
	}
}
