package output

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

type toolEntry struct {
	Name   string   `yaml:"name"             json:"name"`
	Family string   `yaml:"family,omitempty" json:"family,omitempty"`
	Params []string `yaml:"params"           json:"params"`
}

func TestPrintJSON_Compact(t *testing.T) {
	entry := toolEntry{Name: "create", Family: "create", Params: []string{"title", "text"}}

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := PrintJSON(entry, false)
	w.Close()
	os.Stdout = old

	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	// Compact output should be a single line (plus newline from Encode)
	if bytes.Count([]byte(output), []byte("\n")) > 1 {
		t.Errorf("compact output should be single line, got:\n%s", output)
	}

	var decoded toolEntry
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Name != "create" {
		t.Errorf("name: got %q, want %q", decoded.Name, "create")
	}
	if len(decoded.Params) != 2 {
		t.Errorf("params: got %d, want 2", len(decoded.Params))
	}
}

func TestWriteJSON_Pretty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, toolEntry{Name: "tags", Params: []string{}}, true); err != nil {
		t.Fatal(err)
	}
	if bytes.Count(buf.Bytes(), []byte("\n")) <= 1 {
		t.Errorf("pretty output should be multi-line, got:\n%s", buf.String())
	}
	var m map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := m["family"]; ok {
		t.Error("empty family should be omitted")
	}
}

func TestWriteJSON_NoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]string{"url": "bear://x-callback-url/create?a=1&b=2"}, false); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("&b=2")) {
		t.Errorf("ampersand should not be escaped, got %s", buf.String())
	}
}
