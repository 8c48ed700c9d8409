package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/air-gapped/dailypage/internal/enhance"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("build", []string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Root != "." {
		t.Errorf("Root = %q, want .", cfg.Root)
	}
	if cfg.Out != "public" {
		t.Errorf("Out = %q, want public", cfg.Out)
	}
	if cfg.Jobs != runtime.NumCPU() {
		t.Errorf("Jobs = %d, want %d", cfg.Jobs, runtime.NumCPU())
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q, want 127.0.0.1:8080", cfg.Listen)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.CacheMaxSize != 100*1024*1024 {
		t.Errorf("CacheMaxSize = %d, want %d", cfg.CacheMaxSize, 100*1024*1024)
	}
	if cfg.MaxFileSize != 5*1024*1024 {
		t.Errorf("MaxFileSize = %d, want %d", cfg.MaxFileSize, 5*1024*1024)
	}
	if cfg.Labels != enhance.DefaultLabels() {
		t.Errorf("Labels = %+v, want defaults", cfg.Labels)
	}
	if !cfg.Catalogue || !cfg.EmbedFix || !cfg.QuickNav || !cfg.ScrollTop {
		t.Error("all enhancement steps should be on by default")
	}
	if cfg.Sanitize {
		t.Error("Sanitize = true, want false")
	}
	if cfg.Scroll != enhance.DefaultOptions().Scroll {
		t.Errorf("Scroll = %+v, want defaults", cfg.Scroll)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "info" {
		t.Errorf("log = %s/%s, want json/info", cfg.LogFormat, cfg.LogLevel)
	}
}

func TestParse_Flags(t *testing.T) {
	args := []string{
		"--root", "site",
		"--out", "dist",
		"--jobs", "3",
		"--listen", ":9090",
		"--cache-ttl", "10m",
		"--cache-max-size", "200MB",
		"--max-file-size", "10MB",
		"--prev-label", "Prev",
		"--next-label", "Next",
		"--no-catalogue",
		"--no-scroll-top",
		"--sanitize",
		"--scroll-offset", "50",
		"--scroll-duration", "1s",
		"--log-format", "text",
		"extra",
	}

	cfg, err := Parse("serve", args)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Command != "serve" {
		t.Errorf("Command = %q, want serve", cfg.Command)
	}
	if cfg.Root != "site" || cfg.Out != "dist" || cfg.Jobs != 3 {
		t.Errorf("Root/Out/Jobs = %q/%q/%d", cfg.Root, cfg.Out, cfg.Jobs)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %q, want :9090", cfg.Listen)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.CacheTTL)
	}
	if cfg.CacheMaxSize != 200*1024*1024 {
		t.Errorf("CacheMaxSize = %d, want %d", cfg.CacheMaxSize, 200*1024*1024)
	}
	if cfg.MaxFileSize != 10*1024*1024 {
		t.Errorf("MaxFileSize = %d, want %d", cfg.MaxFileSize, 10*1024*1024)
	}
	if cfg.Labels.Prev != "Prev" || cfg.Labels.Next != "Next" {
		t.Errorf("Labels = %+v", cfg.Labels)
	}
	if cfg.Labels.Top != "Top" {
		t.Errorf("Top = %q, want default", cfg.Labels.Top)
	}
	if cfg.Catalogue || cfg.ScrollTop || !cfg.EmbedFix || !cfg.QuickNav {
		t.Errorf("steps = catalogue:%v embed:%v nav:%v top:%v", cfg.Catalogue, cfg.EmbedFix, cfg.QuickNav, cfg.ScrollTop)
	}
	if !cfg.Sanitize {
		t.Error("Sanitize = false, want true")
	}
	if cfg.Scroll.Offset != 50 || cfg.Scroll.Duration != time.Second {
		t.Errorf("Scroll = %+v", cfg.Scroll)
	}
	if len(cfg.Args) != 1 || cfg.Args[0] != "extra" {
		t.Errorf("Args = %v, want [extra]", cfg.Args)
	}

	opts := cfg.EnhanceOptions()
	if opts.Catalogue || !opts.Sanitize || opts.Labels.Prev != "Prev" {
		t.Errorf("EnhanceOptions = %+v", opts)
	}
}

func TestParse_EnvFallback(t *testing.T) {
	t.Setenv("DAILYPAGE_LISTEN", ":7070")
	t.Setenv("DAILYPAGE_CACHE_TTL", "2m")
	t.Setenv("DAILYPAGE_JOBS", "2")
	t.Setenv("DAILYPAGE_NO_QUICK_NAV", "true")
	t.Setenv("DAILYPAGE_TOP_LABEL", "Up")

	cfg, err := Parse("serve", []string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":7070" {
		t.Errorf("Listen = %q, want :7070", cfg.Listen)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %v, want 2m", cfg.CacheTTL)
	}
	if cfg.Jobs != 2 {
		t.Errorf("Jobs = %d, want 2", cfg.Jobs)
	}
	if cfg.QuickNav {
		t.Error("QuickNav = true, want false")
	}
	if cfg.Labels.Top != "Up" {
		t.Errorf("Top = %q, want Up", cfg.Labels.Top)
	}
}

func TestParse_FlagOverridesEnv(t *testing.T) {
	t.Setenv("DAILYPAGE_LISTEN", ":7070")

	cfg, err := Parse("serve", []string{"--listen", ":9090"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %q, want :9090 (flag should override env)", cfg.Listen)
	}
}

func TestParse_LabelsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	data := "prev: \"« Yesterday\"\nnext: \"Tomorrow »\"\nhide_catalogue: Hide\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse("build", []string{"--labels", path, "--next-label", "Next"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Labels.Prev != "« Yesterday" {
		t.Errorf("Prev = %q, want value from file", cfg.Labels.Prev)
	}
	if cfg.Labels.Next != "Next" {
		t.Errorf("Next = %q, want flag to win over file", cfg.Labels.Next)
	}
	if cfg.Labels.HideCatalogue != "Hide" {
		t.Errorf("HideCatalogue = %q, want Hide", cfg.Labels.HideCatalogue)
	}
	if cfg.Labels.ShowCatalogue != enhance.DefaultLabels().ShowCatalogue {
		t.Errorf("ShowCatalogue = %q, want default", cfg.Labels.ShowCatalogue)
	}
}

func TestParse_LabelsFileErrors(t *testing.T) {
	if _, err := Parse("build", []string{"--labels", filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Error("expected error for missing labels file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("prev: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse("build", []string{"--labels", path}); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    []string
	}{
		{"unknown command", "publish", nil},
		{"cache size", "serve", []string{"--cache-max-size", "notasize"}},
		{"file size", "serve", []string{"--max-file-size", "5XB"}},
		{"jobs", "build", []string{"--jobs", "0"}},
		{"log format", "build", []string{"--log-format", "xml"}},
		{"scroll offset", "build", []string{"--scroll-offset", "-1"}},
		{"out with in-place", "build", []string{"--in-place", "--out", "dist"}},
		{"unknown flag", "build", []string{"--no-such-flag"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.command, tc.args); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParse_InPlace(t *testing.T) {
	cfg, err := Parse("build", []string{"--in-place"})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.InPlace {
		t.Error("InPlace = false, want true")
	}
}

func TestTemplateOptions(t *testing.T) {
	cfg, err := Parse("build", []string{"--date-format", "yyyy年MM月dd日", "--highlight-style", "monokai"})
	if err != nil {
		t.Fatal(err)
	}
	opts := cfg.TemplateOptions()
	if opts.DateFormat != "yyyy年MM月dd日" || opts.HighlightStyle != "monokai" {
		t.Errorf("TemplateOptions = %+v", opts)
	}
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"100B", 100},
		{"1KB", 1024},
		{"5MB", 5 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"100MB", 100 * 1024 * 1024},
		{"100", 100},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := parseByteSize(tc.input)
			if err != nil {
				t.Fatalf("parseByteSize(%q) error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("parseByteSize(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseByteSize_Errors(t *testing.T) {
	tests := []string{
		"",
		"notasize",
		"100TB",
		"MB",
	}

	for _, tc := range tests {
		t.Run(tc, func(t *testing.T) {
			_, err := parseByteSize(tc)
			if err == nil {
				t.Errorf("parseByteSize(%q) expected error, got nil", tc)
			}
		})
	}
}
