package output

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPrintYAML(t *testing.T) {
	entry := toolEntry{Name: "add_text", Family: "add-text", Params: []string{"text", "mode"}}

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := PrintYAML(entry)
	w.Close()
	os.Stdout = old

	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	// YAML output should be multi-line
	if bytes.Count([]byte(output), []byte("\n")) <= 1 {
		t.Errorf("YAML output should be multi-line, got:\n%s", output)
	}

	var decoded toolEntry
	if err := yaml.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.Family != "add-text" {
		t.Errorf("family: got %q, want %q", decoded.Family, "add-text")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"json", FormatJSON, false},
		{"agent", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFprint_FollowsOutputFormat(t *testing.T) {
	defer func(f Format) { OutputFormat = f }(OutputFormat)

	entry := toolEntry{Name: "search", Params: []string{"term", "tag"}}

	OutputFormat = FormatJSON
	var buf bytes.Buffer
	if err := Fprint(&buf, entry); err != nil {
		t.Fatal(err)
	}
	var decoded toolEntry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected JSON, got %s (%v)", buf.String(), err)
	}

	OutputFormat = FormatYAML
	buf.Reset()
	if err := Fprint(&buf, entry); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("name: search")) {
		t.Errorf("expected YAML, got %s", buf.String())
	}

	OutputFormat = "xml"
	if err := Fprint(&buf, entry); err == nil {
		t.Error("expected error for unsupported format")
	}
}
