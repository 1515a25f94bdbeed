package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/psdltools/scenograph/pkg/cache"
	"github.com/psdltools/scenograph/pkg/errors"
	"github.com/psdltools/scenograph/pkg/layout"
	"github.com/psdltools/scenograph/pkg/scene"
)

const sampleOutlineJSON = `{
  "scenario": "aki_detection",
  "signals": [
    {"name": "Cr", "source": "lab"},
    {"name": "UO", "source": "device"}
  ],
  "trends": [
    {"name": "cr_delta_48h", "expr": "delta(Cr, 48h)", "depends_on": ["Cr"]},
    {"name": "uo_rate_6h", "expr": "rate(UO, 6h)", "depends_on": ["UO"]}
  ],
  "logic": [
    {
      "name": "aki_stage1",
      "expr": "cr_delta_48h >= 0.3 OR uo_rate_6h < 0.5",
      "severity": "warning",
      "depends_on": ["cr_delta_48h", "uo_rate_6h"],
      "operators": ["OR"]
    }
  ]
}`

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"dot", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateDirection(t *testing.T) {
	tests := []struct {
		dir     string
		wantErr bool
	}{
		{"TB", false},
		{"LR", false},
		{"BT", true},
		{"tb", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateDirection(tt.dir)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDirection(%q) error = %v, wantErr %v", tt.dir, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}

	if opts.Direction != "TB" {
		t.Errorf("Direction = %q, want TB", opts.Direction)
	}
	if opts.NodeWidth != layout.DefaultNodeWidth {
		t.Errorf("NodeWidth = %g, want %g", opts.NodeWidth, layout.DefaultNodeWidth)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
}

func TestOptionsJSONOmitsRuntime(t *testing.T) {
	opts := Options{Direction: "LR", Logger: quietLogger()}
	data, err := json.Marshal(opts)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if strings.Contains(string(data), "Logger") {
		t.Errorf("serialized options should omit runtime fields: %s", data)
	}
}

func TestRunnerCompile(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	defer r.Close()

	compiled, scenario, err := r.Compile(context.Background(), []byte(sampleOutlineJSON), Options{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if scenario != "aki_detection" {
		t.Errorf("scenario = %q", scenario)
	}
	// 2 signals + 2 trends + 1 rule + 1 gate
	if compiled.Graph.NodeCount() != 6 {
		t.Errorf("NodeCount = %d, want 6", compiled.Graph.NodeCount())
	}
}

func TestRunnerCompileRejectsMalformedOutline(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	defer r.Close()

	_, _, err := r.Compile(context.Background(), []byte("{not json"), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidOutline) {
		t.Fatalf("Compile() error = %v, want INVALID_OUTLINE", err)
	}
}

func TestRunnerExecuteJSONAndDOT(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	defer r.Close()

	result, err := r.Execute(context.Background(), []byte(sampleOutlineJSON), Options{
		Formats: []string{FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Stats.NodeCount != 6 || result.Stats.EdgeCount != 5 {
		t.Errorf("Stats = %d nodes %d edges", result.Stats.NodeCount, result.Stats.EdgeCount)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash should be set")
	}

	s, err := scene.UnmarshalScene(result.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("json artifact invalid: %v", err)
	}
	if s.Scenario != "aki_detection" || len(s.Nodes) != 6 {
		t.Errorf("scene = %q with %d nodes", s.Scenario, len(s.Nodes))
	}

	dot := string(result.Artifacts[FormatDOT])
	if !strings.Contains(dot, "digraph G") || !strings.Contains(dot, "gate:aki_stage1") {
		t.Errorf("dot artifact = %s", dot)
	}
}

func TestRunnerExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, quietLogger())
	defer r.Close()

	ctx := context.Background()
	opts := Options{Formats: []string{FormatJSON}}

	first, err := r.Execute(ctx, []byte(sampleOutlineJSON), opts)
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if first.CacheInfo.CompileHit || first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Error("first run should miss every stage")
	}

	second, err := r.Execute(ctx, []byte(sampleOutlineJSON), Options{Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !second.CacheInfo.CompileHit || !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit every stage: %+v", second.CacheInfo)
	}
	if second.GraphHash != first.GraphHash {
		t.Error("graph hash should be stable across runs")
	}

	// Refresh bypasses the cache
	third, err := r.Execute(ctx, []byte(sampleOutlineJSON), Options{Formats: []string{FormatJSON}, Refresh: true})
	if err != nil {
		t.Fatalf("third Execute() error = %v", err)
	}
	if third.CacheInfo.CompileHit || third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh run should miss every stage: %+v", third.CacheInfo)
	}
}

func TestRunnerLayoutMatchesDirect(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	defer r.Close()
	ctx := context.Background()

	compiled, scenario, err := r.Compile(ctx, []byte(sampleOutlineJSON), Options{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	s, err := r.ComputeLayout(ctx, scenario, compiled, Options{Direction: "LR"})
	if err != nil {
		t.Fatalf("ComputeLayout() error = %v", err)
	}
	if s.Direction != "LR" {
		t.Errorf("Direction = %q, want LR", s.Direction)
	}

	if len(s.Nodes) != compiled.Graph.NodeCount() {
		t.Errorf("scene nodes = %d, want %d", len(s.Nodes), compiled.Graph.NodeCount())
	}
}
