package cli

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/psdltools/scenograph/pkg/cache"
	"github.com/psdltools/scenograph/pkg/config"
	"github.com/psdltools/scenograph/pkg/pipeline"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{
		"outline":    false,
		"graph":      false,
		"layout":     false,
		"render":     false,
		"serve":      false,
		"cache":      false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input    string
		explicit string
		suffix   string
		want     string
	}{
		{"aki.json", "", ".graph.json", "aki.graph.json"},
		{"dir/aki.json", "", ".scene.json", "dir/aki.scene.json"},
		{"aki.json", "custom.json", ".graph.json", "custom.json"},
		{"noext", "", ".graph.json", "noext.graph.json"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.explicit, tt.suffix); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, want %q", tt.input, tt.explicit, tt.suffix, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); !reflect.DeepEqual(got, []string{"json"}) {
		t.Errorf("parseFormats(\"\") = %v", got)
	}
	if got := parseFormats("svg,png"); !reflect.DeepEqual(got, []string{"svg", "png"}) {
		t.Errorf("parseFormats(\"svg,png\") = %v", got)
	}
}

func TestApplyLayoutConfig(t *testing.T) {
	c := New(io.Discard, LogInfo)
	cmd := c.layoutCommand()

	// No flags set: the config file supplies direction and node width.
	opts := pipeline.Options{}
	opts.SetLayoutDefaults()
	applyLayoutConfig(cmd, config.LayoutConfig{Direction: "LR", NodeWidth: 300}, &opts)
	if opts.Direction != "LR" {
		t.Errorf("Direction = %q, want LR from config", opts.Direction)
	}
	if opts.NodeWidth != 300 {
		t.Errorf("NodeWidth = %g, want 300 from config", opts.NodeWidth)
	}

	// An explicit flag wins over the config value.
	if err := cmd.Flags().Set("direction", "TB"); err != nil {
		t.Fatal(err)
	}
	opts = pipeline.Options{}
	opts.SetLayoutDefaults()
	applyLayoutConfig(cmd, config.LayoutConfig{Direction: "LR"}, &opts)
	if opts.Direction != "TB" {
		t.Errorf("Direction = %q, flag must win over config", opts.Direction)
	}
}

func TestNewKeyerScopesRedis(t *testing.T) {
	k := newKeyer(config.CacheConfig{Backend: config.CacheBackendRedis})
	if k == nil {
		t.Fatal("redis backend should get a scoped keyer")
	}
	if key := k.GraphKey([]byte("outline")); !strings.HasPrefix(key, appName+":") {
		t.Errorf("GraphKey = %q, want %s: prefix", key, appName)
	}
	if newKeyer(config.CacheConfig{Backend: config.CacheBackendFile}) != nil {
		t.Error("file backend should use the default keyer")
	}
}

func TestNewCacheAppliesTTLOverride(t *testing.T) {
	c := New(io.Discard, LogInfo)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[cache]\nbackend = \"file\"\ndir = \"" + t.TempDir() + "\"\nttl = \"1h\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ca, err := c.newCache(t.Context(), cfg.Cache, false)
	if err != nil {
		t.Fatalf("newCache() error = %v", err)
	}
	defer ca.Close()
	if _, ok := ca.(*cache.TTLOverride); !ok {
		t.Errorf("backend = %T, want TTLOverride wrapping the file cache", ca)
	}

	// --no-cache bypasses the configured backend entirely.
	ca, err = c.newCache(t.Context(), cfg.Cache, true)
	if err != nil {
		t.Fatalf("newCache(disabled) error = %v", err)
	}
	if _, ok := ca.(*cache.NullCache); !ok {
		t.Errorf("disabled backend = %T, want NullCache", ca)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error = %v", err)
	}
	if dir == "" {
		t.Error("cacheDir() should not be empty")
	}
}
