// Package outline defines the validated scenario outline consumed by the
// graph compiler.
//
// An outline is the semantic summary of a clinical scenario produced by the
// upstream validator: named signals, derived trend computations, and boolean
// logic rules with dependency lists. The upstream collaborator guarantees
// well-formed names and referential soundness; this package performs no
// validation of its own.
package outline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Signal is a named clinical data input.
type Signal struct {
	Name        string `json:"name"`
	Source      string `json:"source,omitempty"`
	ConceptID   int    `json:"concept_id,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`

	// UsedBy lists the trends that reference this signal.
	// Filled by ComputeUsedBy, never present in validator output.
	UsedBy []string `json:"used_by,omitempty"`
}

// Trend is a derived, time-windowed computation over signals or other trends.
type Trend struct {
	Name        string   `json:"name"`
	Expr        string   `json:"expr"`
	Description string   `json:"description,omitempty"`
	DependsOn   []string `json:"depends_on,omitempty"`

	// UsedBy lists the logic rules that reference this trend.
	// Filled by ComputeUsedBy, never present in validator output.
	UsedBy []string `json:"used_by,omitempty"`
}

// Logic is a boolean decision rule combining signals, trends, and other rules.
// Operators is the flat, ordered list of boolean operator tokens appearing in
// the rule expression; it does not encode grouping.
type Logic struct {
	Name        string   `json:"name"`
	Expr        string   `json:"expr"`
	Severity    string   `json:"severity,omitempty"`
	Description string   `json:"description,omitempty"`
	DependsOn   []string `json:"depends_on,omitempty"`
	Operators   []string `json:"operators,omitempty"`
}

// Outline is the validated semantic summary of one scenario.
type Outline struct {
	Scenario    string   `json:"scenario"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Signals     []Signal `json:"signals"`
	Trends      []Trend  `json:"trends"`
	Logic       []Logic  `json:"logic"`
}

// Marshal serializes an outline to pretty-printed JSON bytes.
func Marshal(o Outline) ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}

// Read decodes an outline from JSON on r.
func Read(r io.Reader) (Outline, error) {
	var o Outline
	if err := json.NewDecoder(r).Decode(&o); err != nil {
		return Outline{}, fmt.Errorf("decode outline: %w", err)
	}
	return o, nil
}

// ReadFile reads an outline from a JSON file.
func ReadFile(path string) (Outline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Outline{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes an outline to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(o Outline, path string) error {
	data, err := Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
