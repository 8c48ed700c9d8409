package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/air-gapped/dailypage/internal/enhance"
	"github.com/air-gapped/dailypage/internal/template"
)

// Config holds all runtime configuration for dailypage.
type Config struct {
	Command string

	// build
	Root    string
	Out     string
	InPlace bool
	Jobs    int

	// serve
	Listen       string
	CacheTTL     time.Duration
	CacheMaxSize int64
	MaxFileSize  int64

	// enhancement
	LabelsFile string
	Labels     enhance.Labels
	Catalogue  bool
	EmbedFix   bool
	QuickNav   bool
	ScrollTop  bool
	Sanitize   bool
	Scroll     enhance.Scroll

	// rendering
	DateFormat     string
	Lang           string
	HighlightStyle string

	LogLevel  string
	LogFormat string

	Args []string
}

// Parse reads configuration for command ("build" or "serve") from CLI flags
// with environment variable fallback.
func Parse(command string, args []string) (*Config, error) {
	switch command {
	case "build", "serve":
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}

	fs := flag.NewFlagSet("dailypage "+command, flag.ContinueOnError)

	cfg := &Config{Command: command}
	defaults := enhance.DefaultOptions()

	fs.StringVar(&cfg.Root, "root", envOr("DAILYPAGE_ROOT", "."), "Site root directory")
	fs.StringVar(&cfg.Out, "out", envOr("DAILYPAGE_OUT", "public"), "Output directory for build")
	fs.BoolVar(&cfg.InPlace, "in-place", envBoolOr("DAILYPAGE_IN_PLACE", false), "Rewrite HTML pages where they are")
	fs.IntVar(&cfg.Jobs, "jobs", envIntOr("DAILYPAGE_JOBS", runtime.NumCPU()), "Pages processed concurrently")

	fs.StringVar(&cfg.Listen, "listen", envOr("DAILYPAGE_LISTEN", "127.0.0.1:8080"), "Listen address")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", envDurationOr("DAILYPAGE_CACHE_TTL", 5*time.Minute), "Cache TTL duration")
	cacheMaxSize := fs.String("cache-max-size", envOr("DAILYPAGE_CACHE_MAX_SIZE", "100MB"), "Max cache size (e.g. 100MB)")
	maxFileSize := fs.String("max-file-size", envOr("DAILYPAGE_MAX_FILE_SIZE", "5MB"), "Max page size to enhance (e.g. 5MB)")

	fs.StringVar(&cfg.LabelsFile, "labels", envOr("DAILYPAGE_LABELS", ""), "YAML file with link labels")
	prev := fs.String("prev-label", envOr("DAILYPAGE_PREV_LABEL", ""), "Previous-day link label")
	next := fs.String("next-label", envOr("DAILYPAGE_NEXT_LABEL", ""), "Next-day link label")
	show := fs.String("show-label", envOr("DAILYPAGE_SHOW_LABEL", ""), "Show-catalogue label")
	hide := fs.String("hide-label", envOr("DAILYPAGE_HIDE_LABEL", ""), "Hide-catalogue label")
	top := fs.String("top-label", envOr("DAILYPAGE_TOP_LABEL", ""), "Back-to-top label")

	noCatalogue := fs.Bool("no-catalogue", envBoolOr("DAILYPAGE_NO_CATALOGUE", false), "Skip the section catalogue")
	noEmbedFix := fs.Bool("no-embed-fix", envBoolOr("DAILYPAGE_NO_EMBED_FIX", false), "Keep <embed> elements")
	noQuickNav := fs.Bool("no-quick-nav", envBoolOr("DAILYPAGE_NO_QUICK_NAV", false), "Skip previous/next day links")
	noScrollTop := fs.Bool("no-scroll-top", envBoolOr("DAILYPAGE_NO_SCROLL_TOP", false), "Skip the back-to-top link")
	fs.BoolVar(&cfg.Sanitize, "sanitize", envBoolOr("DAILYPAGE_SANITIZE", false), "Sanitize page bodies before enhancing")

	fs.IntVar(&cfg.Scroll.Offset, "scroll-offset", envIntOr("DAILYPAGE_SCROLL_OFFSET", defaults.Scroll.Offset), "Pixels scrolled before the top link shows")
	fs.IntVar(&cfg.Scroll.OffsetOpacity, "scroll-offset-opacity", envIntOr("DAILYPAGE_SCROLL_OFFSET_OPACITY", defaults.Scroll.OffsetOpacity), "Pixels scrolled before the top link fades")
	fs.DurationVar(&cfg.Scroll.Duration, "scroll-duration", envDurationOr("DAILYPAGE_SCROLL_DURATION", defaults.Scroll.Duration), "Back-to-top animation duration")

	fs.StringVar(&cfg.DateFormat, "date-format", envOr("DAILYPAGE_DATE_FORMAT", "yyyy-MM-dd"), "Date line format for rendered pages")
	fs.StringVar(&cfg.Lang, "lang", envOr("DAILYPAGE_LANG", "zh-CN"), "Language of rendered pages")
	fs.StringVar(&cfg.HighlightStyle, "highlight-style", envOr("DAILYPAGE_HIGHLIGHT_STYLE", "github"), "Chroma style for code blocks")

	fs.StringVar(&cfg.LogLevel, "log-level", envOr("DAILYPAGE_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", envOr("DAILYPAGE_LOG_FORMAT", "json"), "Log format: json or text")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Args = fs.Args()

	var err error
	cfg.CacheMaxSize, err = parseByteSize(*cacheMaxSize)
	if err != nil {
		return nil, fmt.Errorf("parse cache-max-size: %w", err)
	}

	cfg.MaxFileSize, err = parseByteSize(*maxFileSize)
	if err != nil {
		return nil, fmt.Errorf("parse max-file-size: %w", err)
	}

	cfg.Labels = defaults.Labels
	if cfg.LabelsFile != "" {
		cfg.Labels, err = LoadLabels(cfg.LabelsFile, cfg.Labels)
		if err != nil {
			return nil, err
		}
	}
	overrideLabel(&cfg.Labels.Prev, *prev)
	overrideLabel(&cfg.Labels.Next, *next)
	overrideLabel(&cfg.Labels.ShowCatalogue, *show)
	overrideLabel(&cfg.Labels.HideCatalogue, *hide)
	overrideLabel(&cfg.Labels.Top, *top)

	cfg.Catalogue = !*noCatalogue
	cfg.EmbedFix = !*noEmbedFix
	cfg.QuickNav = !*noQuickNav
	cfg.ScrollTop = !*noScrollTop

	if err := cfg.validate(fs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(fs *flag.FlagSet) error {
	if c.Jobs < 1 {
		return fmt.Errorf("invalid jobs %d: must be at least 1", c.Jobs)
	}
	if c.Scroll.Offset < 0 || c.Scroll.OffsetOpacity < 0 || c.Scroll.Duration < 0 {
		return errors.New("scroll offsets and duration must not be negative")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log-format %q: must be json or text", c.LogFormat)
	}
	if c.InPlace {
		outSet := false
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "out" {
				outSet = true
			}
		})
		if outSet {
			return errors.New("--out and --in-place are mutually exclusive")
		}
	}
	return nil
}

// EnhanceOptions returns the enhancer configuration.
func (c *Config) EnhanceOptions() enhance.Options {
	return enhance.Options{
		Labels:    c.Labels,
		Scroll:    c.Scroll,
		Catalogue: c.Catalogue,
		EmbedFix:  c.EmbedFix,
		QuickNav:  c.QuickNav,
		ScrollTop: c.ScrollTop,
		Sanitize:  c.Sanitize,
	}
}

// TemplateOptions returns the page layout configuration.
func (c *Config) TemplateOptions() template.Options {
	return template.Options{
		DateFormat:     c.DateFormat,
		HighlightStyle: c.HighlightStyle,
	}
}

// LoadLabels reads a YAML label file. Keys missing from the file keep
// their value from base.
func LoadLabels(path string, base enhance.Labels) (enhance.Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read labels: %w", err)
	}
	labels := base
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return base, fmt.Errorf("parse labels %s: %w", path, err)
	}
	return labels, nil
}

func overrideLabel(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		return v == "1" || v == "true" || v == "yes"
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

// parseByteSize parses a human-readable byte size like "100MB", "5KB", "1GB".
func parseByteSize(s string) (int64, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("empty size string")
	}

	// Find where the numeric part ends
	i := 0
	for i < len(s) && ((s[i] >= '0' && s[i] <= '9') || s[i] == '.') {
		i++
	}

	numStr := s[:i]
	unit := s[i:]

	var num float64
	if _, err := fmt.Sscanf(numStr, "%f", &num); err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	var multiplier int64
	switch unit {
	case "", "B":
		multiplier = 1
	case "KB", "kb":
		multiplier = 1024
	case "MB", "mb":
		multiplier = 1024 * 1024
	case "GB", "gb":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size unit %q in %q", unit, s)
	}

	return int64(num * float64(multiplier)), nil
}
