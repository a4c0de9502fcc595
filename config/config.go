package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/asaskevich/govalidator"
	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the backend the SDK talks to when nothing else is configured.
const DefaultBaseURL = "https://api.dev.nexa.lumenspei.xyz/renovi"

// Configuration
type Configuration struct {
	APIKey        string   `mapstructure:"api_key"`
	Email         string   `mapstructure:"email"`
	GameID        string   `mapstructure:"game_id"`
	PanelNames    []string `mapstructure:"panel_names"`
	Prod          bool     `mapstructure:"prod"`
	DeviceID      string   `mapstructure:"device_id"`
	WalletAddress string   `mapstructure:"wallet_address"`

	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	EnableGzip bool   `mapstructure:"enable_gzip"`

	Backend     Backend     `mapstructure:"backend"`
	Tracking    Tracking    `mapstructure:"tracking"`
	Dispatch    Dispatch    `mapstructure:"dispatch"`
	Geolocation Geolocation `mapstructure:"geolocation"`
	Metrics     Metrics     `mapstructure:"metrics"`

	// panelNamesSet records whether panel_names appeared in any config source.
	panelNamesSet bool
}

type Backend struct {
	BaseURL     string `mapstructure:"base_url"`
	ProdBaseURL string `mapstructure:"prod_base_url"`
	// TimeoutMS bounds every backend call. Zero leaves the transport defaults in place.
	TimeoutMS int `mapstructure:"timeout_ms"`
}

// Timeout returns the per-call backend timeout, or zero when none is configured.
func (b Backend) Timeout() time.Duration {
	return time.Duration(b.TimeoutMS) * time.Millisecond
}

type Dispatch struct {
	MaxWorkers  int `mapstructure:"max_workers"`
	MaxCapacity int `mapstructure:"max_capacity"`
}

type Geolocation struct {
	Vendor              string `mapstructure:"vendor"`
	IPInfoURL           string `mapstructure:"ipinfo_url"`
	MaxMindPath         string `mapstructure:"maxmind_path"`
	CacheTTLSeconds     int    `mapstructure:"cache_ttl_seconds"`
	CacheCleanupSeconds int    `mapstructure:"cache_cleanup_seconds"`
}

const (
	GeoVendorIPInfo  = "ipinfo"
	GeoVendorMaxMind = "maxmind"
)

// New uses viper to get our configuration, then validates it.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}
	c.panelNamesSet = v.IsSet("panel_names")

	if err := c.Validate(); err != nil {
		return &c, err
	}
	return &c, nil
}

// Validate reports every configuration problem at once as errortypes.AggregateErrors.
func (cfg *Configuration) Validate() error {
	if errs := cfg.validate(); len(errs) > 0 {
		return errortypes.NewAggregateErrors("validation errors", errs)
	}
	return nil
}

// BaseURL returns the backend base url honoring the prod switch, without a trailing slash.
func (cfg *Configuration) BaseURL() string {
	if cfg.Prod {
		return strings.TrimSuffix(cfg.Backend.ProdBaseURL, "/")
	}
	return strings.TrimSuffix(cfg.Backend.BaseURL, "/")
}

func (cfg *Configuration) validate() []error {
	var errs []error

	if cfg.APIKey == "" {
		errs = append(errs, &errortypes.BadInput{Message: "apiKey is required"})
	}
	if cfg.Email == "" {
		errs = append(errs, &errortypes.BadInput{Message: "email is required"})
	}
	if cfg.GameID == "" {
		errs = append(errs, &errortypes.BadInput{Message: "gameId is required"})
	}
	if !cfg.panelNamesSet && cfg.PanelNames == nil {
		errs = append(errs, &errortypes.BadInput{Message: "panelNames is required"})
	}

	errs = cfg.Backend.validate(errs, cfg.Prod)
	errs = cfg.Tracking.validate(errs)
	errs = cfg.Dispatch.validate(errs)
	errs = cfg.Geolocation.validate(errs)
	errs = cfg.Metrics.validate(errs)
	return errs
}

func (b Backend) validate(errs []error, prod bool) []error {
	if b.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("backend.timeout_ms must be non-negative. Got %d", b.TimeoutMS))
	}
	if prod {
		if b.ProdBaseURL == "" {
			return append(errs, errors.New("backend.prod_base_url is required when prod is enabled"))
		}
		if !isValidURL(b.ProdBaseURL) {
			errs = append(errs, fmt.Errorf("backend.prod_base_url %q is not a valid url", b.ProdBaseURL))
		}
		return errs
	}
	if !isValidURL(b.BaseURL) {
		errs = append(errs, fmt.Errorf("backend.base_url %q is not a valid url", b.BaseURL))
	}
	return errs
}

func (d Dispatch) validate(errs []error) []error {
	if d.MaxWorkers <= 0 {
		errs = append(errs, fmt.Errorf("dispatch.max_workers must be positive. Got %d", d.MaxWorkers))
	}
	if d.MaxCapacity < 0 {
		errs = append(errs, fmt.Errorf("dispatch.max_capacity must be non-negative. Got %d", d.MaxCapacity))
	}
	return errs
}

func (g Geolocation) validate(errs []error) []error {
	switch g.Vendor {
	case GeoVendorIPInfo:
		if !isValidURL(g.IPInfoURL) {
			errs = append(errs, fmt.Errorf("geolocation.ipinfo_url %q is not a valid url", g.IPInfoURL))
		}
	case GeoVendorMaxMind:
		if g.MaxMindPath == "" {
			errs = append(errs, errors.New("geolocation.maxmind_path is required for the maxmind vendor"))
		}
	default:
		errs = append(errs, fmt.Errorf("geolocation.vendor must be %q or %q. Got %q", GeoVendorIPInfo, GeoVendorMaxMind, g.Vendor))
	}
	if g.CacheTTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("geolocation.cache_ttl_seconds must be non-negative. Got %d", g.CacheTTLSeconds))
	}
	return errs
}

func isValidURL(rawURL string) bool {
	return validator.IsURL(rawURL) && validator.IsRequestURL(rawURL)
}

// SetupViper registers defaults, environment binding and the optional config file.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("enable_gzip", false)
	v.SetDefault("prod", false)
	v.SetDefault("device_id", "")
	v.SetDefault("wallet_address", "")

	v.SetDefault("backend.base_url", DefaultBaseURL)
	v.SetDefault("backend.prod_base_url", "")
	v.SetDefault("backend.timeout_ms", 0)

	v.SetDefault("tracking.threshold", 0.5)
	v.SetDefault("tracking.root_margin_px", 0)
	v.SetDefault("tracking.rotation_period_ms", 3000)
	v.SetDefault("tracking.dwell", 60)
	v.SetDefault("tracking.panel_class", "renovi-panel")
	v.SetDefault("tracking.slider_class", "renovi-slider")
	v.SetDefault("tracking.slide_class", "renovi-slide")
	v.SetDefault("tracking.active_class", "active")

	v.SetDefault("dispatch.max_workers", 4)
	v.SetDefault("dispatch.max_capacity", 64)

	v.SetDefault("geolocation.vendor", GeoVendorIPInfo)
	v.SetDefault("geolocation.ipinfo_url", "https://ipinfo.io")
	v.SetDefault("geolocation.maxmind_path", "")
	v.SetDefault("geolocation.cache_ttl_seconds", 3600)
	v.SetDefault("geolocation.cache_cleanup_seconds", 600)

	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "renovi")
	v.SetDefault("metrics.prometheus.subsystem", "sdk")
	v.SetDefault("metrics.prometheus.timeout_ms", 10000)
	v.SetDefault("metrics.go_metrics.enabled", false)

	v.SetEnvPrefix("RENOVI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.ReadInConfig()
	}
}
