// Package cache provides pluggable byte caches for compiled graphs,
// layouts, and rendered artifacts.
//
// Three backends exist: FileCache for CLI usage, RedisCache for the
// server, and NullCache to disable caching. Keys are derived from
// content hashes so unchanged inputs hit the cache regardless of where
// they came from.
package cache

import (
	"context"
	"time"
)

// Default TTLs per pipeline stage. Compiled graphs and layouts are
// cheap to rebuild, rendered artifacts less so.
const (
	TTLGraph    = 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys for the pipeline stages.
type Keyer interface {
	// GraphKey identifies a compiled graph by the outline content.
	GraphKey(outlineData []byte) string

	// LayoutKey identifies a layout by graph hash and layout options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// RenderKey identifies a rendered artifact by scene hash and format.
	RenderKey(sceneHash, format string) string
}

// LayoutKeyOpts are the layout parameters that affect placement.
type LayoutKeyOpts struct {
	Direction   string  `json:"direction"`
	NodeWidth   float64 `json:"node_width"`
	NodeHeight  float64 `json:"node_height"`
	RankSpacing float64 `json:"rank_spacing"`
	NodeSpacing float64 `json:"node_spacing"`
}

// DefaultKeyer hashes inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for compiled graph caching.
func (k *DefaultKeyer) GraphKey(outlineData []byte) string {
	return "graph:" + Hash(outlineData)
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// RenderKey generates a key for rendered artifact caching.
func (k *DefaultKeyer) RenderKey(sceneHash, format string) string {
	return hashKey("render", sceneHash, format)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
