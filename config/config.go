package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultCatalogURL is the search the scraper was first written against.
const DefaultCatalogURL = "https://www.vinted.de/catalog?search_id=24361207426&time=1750625701&catalog[]=1841&catalog_from=0&page=1&size_ids[]=1226"

// Supported render drivers.
const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

// Config holds all application configuration.
type Config struct {
	CatalogURL      string
	PopularityFloor int
	PageSize        int

	OutputDir string
	FileStem  string
	CSVExport bool

	Driver        string
	Headless      bool
	Stealth       bool
	ChromeBin     string
	LaunchRetries int

	WaitTimeout     time.Duration
	NavigateTimeout time.Duration
	SettleDelay     time.Duration
	PageDelay       time.Duration

	BrandFilterLabel string
	BrandFilterIndex int
	ScopeByBrand     bool
	MaxPages         int

	LogLevel string
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		CatalogURL:      DefaultCatalogURL,
		PopularityFloor: 0,
		PageSize:        500,

		OutputDir: "./output",
		FileStem:  "catalog",
		CSVExport: true,

		Driver:        DriverChromedp,
		Headless:      true,
		LaunchRetries: 3,

		WaitTimeout:     5 * time.Second,
		NavigateTimeout: 30 * time.Second,
		SettleDelay:     3 * time.Second,
		PageDelay:       time.Second,

		BrandFilterLabel: "Marke",
		BrandFilterIndex: 2,
		ScopeByBrand:     true,

		LogLevel: "info",
	}
}

// RegisterFlags declares every option on fs with its default value.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String("config", "", "optional config file (yaml, json or toml)")
	fs.String("catalog-url", d.CatalogURL, "catalog search URL to crawl")
	fs.Int("popularity-floor", d.PopularityFloor, "drop items with fewer likes than this")
	fs.Int("page-size", d.PageSize, "items per report page")
	fs.String("output-dir", d.OutputDir, "directory receiving the report")
	fs.String("file-stem", d.FileStem, "report name; pages go to <output-dir>/<file-stem>/")
	fs.Bool("csv-export", d.CSVExport, "also write the ranked items as items.csv")
	fs.String("driver", d.Driver, "render driver: chromedp or rod")
	fs.Bool("headless", d.Headless, "run the browser without a window")
	fs.Bool("stealth", d.Stealth, "use stealth pages (rod driver only)")
	fs.String("chrome-bin", d.ChromeBin, "browser binary; detected when empty")
	fs.Int("launch-retries", d.LaunchRetries, "browser launch attempts")
	fs.Duration("wait-timeout", d.WaitTimeout, "how long to wait for rendered content")
	fs.Duration("navigate-timeout", d.NavigateTimeout, "how long a page load may take")
	fs.Duration("settle-delay", d.SettleDelay, "pause after opening the catalog root")
	fs.Duration("page-delay", d.PageDelay, "minimum interval between page loads")
	fs.String("brand-filter-label", d.BrandFilterLabel, "label of the brand filter control")
	fs.Int("brand-filter-index", d.BrandFilterIndex, "position of the brand filter when no label matches")
	fs.Bool("scope-by-brand", d.ScopeByBrand, "crawl once per discovered brand")
	fs.Int("max-pages", d.MaxPages, "page cap per scope, 0 for none")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
}

// Load reads the .env file, an optional config file, environment variables
// and the flags in fs. Priority: flags > env > config file > defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// A missing .env is normal; fall back to the process environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	setDefaults(v, Default())

	cfg := &Config{
		CatalogURL:      v.GetString("catalog-url"),
		PopularityFloor: v.GetInt("popularity-floor"),
		PageSize:        v.GetInt("page-size"),

		OutputDir: v.GetString("output-dir"),
		FileStem:  v.GetString("file-stem"),
		CSVExport: v.GetBool("csv-export"),

		Driver:        strings.ToLower(v.GetString("driver")),
		Headless:      v.GetBool("headless"),
		Stealth:       v.GetBool("stealth"),
		ChromeBin:     v.GetString("chrome-bin"),
		LaunchRetries: v.GetInt("launch-retries"),

		WaitTimeout:     v.GetDuration("wait-timeout"),
		NavigateTimeout: v.GetDuration("navigate-timeout"),
		SettleDelay:     v.GetDuration("settle-delay"),
		PageDelay:       v.GetDuration("page-delay"),

		BrandFilterLabel: v.GetString("brand-filter-label"),
		BrandFilterIndex: v.GetInt("brand-filter-index"),
		ScopeByBrand:     v.GetBool("scope-by-brand"),
		MaxPages:         v.GetInt("max-pages"),

		LogLevel: v.GetString("log-level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("catalog-url", d.CatalogURL)
	v.SetDefault("popularity-floor", d.PopularityFloor)
	v.SetDefault("page-size", d.PageSize)
	v.SetDefault("output-dir", d.OutputDir)
	v.SetDefault("file-stem", d.FileStem)
	v.SetDefault("csv-export", d.CSVExport)
	v.SetDefault("driver", d.Driver)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("stealth", d.Stealth)
	v.SetDefault("chrome-bin", d.ChromeBin)
	v.SetDefault("launch-retries", d.LaunchRetries)
	v.SetDefault("wait-timeout", d.WaitTimeout)
	v.SetDefault("navigate-timeout", d.NavigateTimeout)
	v.SetDefault("settle-delay", d.SettleDelay)
	v.SetDefault("page-delay", d.PageDelay)
	v.SetDefault("brand-filter-label", d.BrandFilterLabel)
	v.SetDefault("brand-filter-index", d.BrandFilterIndex)
	v.SetDefault("scope-by-brand", d.ScopeByBrand)
	v.SetDefault("max-pages", d.MaxPages)
	v.SetDefault("log-level", d.LogLevel)
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.CatalogURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("catalog-url must be an absolute URL, got %q", c.CatalogURL))
	}
	if c.PopularityFloor < 0 {
		errs = append(errs, fmt.Errorf("popularity-floor must be >= 0, got %d", c.PopularityFloor))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page-size must be > 0, got %d", c.PageSize))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output-dir must not be empty"))
	}
	if c.FileStem == "" || strings.ContainsAny(c.FileStem, `/\`) {
		errs = append(errs, fmt.Errorf("file-stem must be a plain name, got %q", c.FileStem))
	}
	if c.Driver != DriverChromedp && c.Driver != DriverRod {
		errs = append(errs, fmt.Errorf("driver must be %q or %q, got %q", DriverChromedp, DriverRod, c.Driver))
	}
	if c.WaitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("wait-timeout must be positive, got %v", c.WaitTimeout))
	}
	if c.NavigateTimeout <= 0 {
		errs = append(errs, fmt.Errorf("navigate-timeout must be positive, got %v", c.NavigateTimeout))
	}
	if c.SettleDelay < 0 || c.PageDelay < 0 {
		errs = append(errs, errors.New("settle-delay and page-delay must not be negative"))
	}
	if c.BrandFilterIndex < 0 {
		errs = append(errs, fmt.Errorf("brand-filter-index must be >= 0, got %d", c.BrandFilterIndex))
	}
	if c.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("max-pages must be >= 0, got %d", c.MaxPages))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ReportDir is the directory receiving the report pages.
func (c *Config) ReportDir() string {
	return filepath.Join(c.OutputDir, c.FileStem)
}
