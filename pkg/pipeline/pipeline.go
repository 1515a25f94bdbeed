// Package pipeline provides the core compile → layout → render pipeline.
//
// This package implements the complete pipeline shared by the CLI and
// the HTTP API. Centralizing it keeps behavior consistent across entry
// points and avoids duplicating the caching logic.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Compile: Build the dependency graph from a scenario outline
//  2. Layout: Compute ranked positions for the graph
//  3. Render: Generate output in various formats (SVG, PNG, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Direction: "TB",
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, outlineData, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/psdltools/scenograph/pkg/cache"
	"github.com/psdltools/scenograph/pkg/compile"
	"github.com/psdltools/scenograph/pkg/errors"
	"github.com/psdltools/scenograph/pkg/layout"
	"github.com/psdltools/scenograph/pkg/scene"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ValidDirections is the set of supported layout directions.
var ValidDirections = map[string]bool{
	string(layout.DirectionTB): true,
	string(layout.DirectionLR): true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Direction   string  `json:"direction,omitempty"`
	NodeWidth   float64 `json:"node_width,omitempty"`
	NodeHeight  float64 `json:"node_height,omitempty"`
	RankSpacing float64 `json:"rank_spacing,omitempty"`
	NodeSpacing float64 `json:"node_spacing,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Refresh bypasses the cache on reads.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Compiled is the dependency graph with its caveats.
	Compiled compile.Result

	// GraphHash is the content hash of the compiled graph.
	GraphHash string

	// Scene is the positioned graph.
	Scene scene.Scene

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	Crossings   int
	CompileTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	CompileHit bool
	LayoutHit  bool
	RenderHit  bool
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDirection checks that a layout direction is valid.
func ValidateDirection(dir string) error {
	if !ValidDirections[dir] {
		return errors.New(errors.ErrCodeInvalidDirection,
			"invalid direction: %q (must be TB or LR)", dir)
	}
	return nil
}

// ValidateAndSetDefaults checks all fields and applies defaults for the
// full pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateDirection(o.Direction); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	def := layout.DefaultOptions()
	if o.Direction == "" {
		o.Direction = string(def.Direction)
	}
	if o.NodeWidth == 0 {
		o.NodeWidth = def.NodeWidth
	}
	if o.NodeHeight == 0 {
		o.NodeHeight = def.NodeHeight
	}
	if o.RankSpacing == 0 {
		o.RankSpacing = def.RankSpacing
	}
	if o.NodeSpacing == 0 {
		o.NodeSpacing = def.NodeSpacing
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutOptions converts pipeline options to layout engine options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Direction:   layout.Direction(o.Direction),
		NodeWidth:   o.NodeWidth,
		NodeHeight:  o.NodeHeight,
		RankSpacing: o.RankSpacing,
		NodeSpacing: o.NodeSpacing,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Direction:   o.Direction,
		NodeWidth:   o.NodeWidth,
		NodeHeight:  o.NodeHeight,
		RankSpacing: o.RankSpacing,
		NodeSpacing: o.NodeSpacing,
	}
}
