package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/psdltools/scenograph/pkg/cache"
	"github.com/psdltools/scenograph/pkg/compile"
	"github.com/psdltools/scenograph/pkg/errors"
	"github.com/psdltools/scenograph/pkg/layout"
	"github.com/psdltools/scenograph/pkg/outline"
	"github.com/psdltools/scenograph/pkg/render/nodelink"
	"github.com/psdltools/scenograph/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete compile → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, outlineData []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Compile
	compileStart := time.Now()
	compiled, scenario, compileHit, err := r.CompileWithCacheInfo(ctx, outlineData, opts)
	if err != nil {
		return nil, err
	}
	result.Compiled = compiled
	result.Stats.CompileTime = time.Since(compileStart)
	result.Stats.NodeCount = compiled.Graph.NodeCount()
	result.Stats.EdgeCount = compiled.Graph.EdgeCount()
	result.CacheInfo.CompileHit = compileHit

	if graphData, err := scene.MarshalGraph(scene.FromCompile(scenario, compiled)); err == nil {
		result.GraphHash = cache.Hash(graphData)
	}

	r.Logger.Info("compiled outline",
		"scenario", scenario,
		"nodes", compiled.Graph.NodeCount(),
		"edges", compiled.Graph.EdgeCount(),
		"caveats", len(compiled.Caveats),
		"duration", result.Stats.CompileTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	s, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, scenario, compiled, opts)
	if err != nil {
		return nil, err
	}
	result.Scene = s
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Crossings = s.Crossings
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"crossings", s.Crossings,
		"frame", s.Width,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, s, compiled, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// CompileWithCacheInfo compiles an outline with caching and returns the
// scenario name and cache hit info.
func (r *Runner) CompileWithCacheInfo(ctx context.Context, outlineData []byte, opts Options) (compile.Result, string, bool, error) {
	r.applyLogger(&opts)

	o, err := outline.Read(bytes.NewReader(outlineData))
	if err != nil {
		return compile.Result{}, "", false, errors.Wrap(errors.ErrCodeInvalidOutline, err, "read outline")
	}

	cacheKey := r.Keyer.GraphKey(outlineData)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := scene.UnmarshalGraph(data); err == nil {
				if d, err := scene.ToDAG(g); err == nil {
					return compile.Result{Graph: d, Caveats: g.Caveats}, o.Scenario, true, nil
				}
			}
		}
	}

	compiled, err := compile.Build(o)
	if err != nil {
		return compile.Result{}, "", false, err
	}

	if data, err := scene.MarshalGraph(scene.FromCompile(o.Scenario, compiled)); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph)
	}

	return compiled, o.Scenario, false, nil
}

// Compile is a convenience wrapper that discards the cache hit info.
func (r *Runner) Compile(ctx context.Context, outlineData []byte, opts Options) (compile.Result, string, error) {
	compiled, scenario, _, err := r.CompileWithCacheInfo(ctx, outlineData, opts)
	return compiled, scenario, err
}

// ComputeLayoutWithCacheInfo lays out a compiled graph with caching and
// returns cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, scenario string, compiled compile.Result, opts Options) (scene.Scene, bool, error) {
	opts.SetLayoutDefaults()
	if err := ValidateDirection(opts.Direction); err != nil {
		return scene.Scene{}, false, err
	}
	r.applyLogger(&opts)

	graphData, _ := scene.MarshalGraph(scene.FromCompile(scenario, compiled))
	graphHash := cache.Hash(graphData)
	cacheKey := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := scene.UnmarshalScene(data); err == nil {
				return cached, true, nil
			}
			// Fall through and recompute on deserialization failure.
		}
	}

	lay, err := layout.Layout(compiled.Graph, opts.LayoutOptions())
	if err != nil {
		code := errors.ErrCodeGraphCorrupt
		if stderrors.Is(err, layout.ErrCycle) {
			code = errors.ErrCodeGraphCycle
		}
		return scene.Scene{}, false, errors.Wrap(code, err, "layout %s", scenario)
	}
	s := scene.FromLayout(scenario, compiled, lay, layout.Direction(opts.Direction))

	if data, err := scene.MarshalScene(s); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
	}

	return s, false, nil
}

// ComputeLayout is a convenience wrapper that discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, scenario string, compiled compile.Result, opts Options) (scene.Scene, error) {
	s, _, err := r.ComputeLayoutWithCacheInfo(ctx, scenario, compiled, opts)
	return s, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s scene.Scene, compiled compile.Result, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	sceneData, err := scene.MarshalScene(s)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize scene for cache key")
	}
	sceneHash := cache.Hash(sceneData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.RenderKey(sceneHash, format)
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := r.renderFormats(sceneData, compiled, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.RenderKey(sceneHash, format)
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, s scene.Scene, compiled compile.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, compiled, opts)
	return artifacts, err
}

// renderFormats produces every requested format. The DOT string is built
// once and reused for the Graphviz formats.
func (r *Runner) renderFormats(sceneData []byte, compiled compile.Result, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	needsDOT := false
	for _, f := range opts.Formats {
		if f == FormatDOT || f == FormatSVG || f == FormatPNG {
			needsDOT = true
		}
	}
	if needsDOT {
		dot = nodelink.ToDOT(compiled.Graph, nodelink.Options{
			Direction: opts.Direction,
			Detailed:  opts.Detailed,
		})
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			artifacts[format] = sceneData
		case FormatDOT:
			artifacts[format] = []byte(dot)
		case FormatSVG:
			svg, err := nodelink.RenderSVG(dot)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
			}
			artifacts[format] = svg
		case FormatPNG:
			png, err := nodelink.RenderPNG(dot)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "render png")
			}
			artifacts[format] = png
		}
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
