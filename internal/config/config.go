/**
 * Configuration Definitions.
 *
 * Defines the configuration structures for the application: capture
 * settings, business hours, file paths, blacklist feed, HTTP API,
 * scheduler interval, and traffic-anomaly thresholds.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Capture holds packet-source defaults used when a request doesn't
// override them (see spec.md §5, Scheduler scan job).
type Capture struct {
	Interface   string        `mapstructure:"interface"`
	SnapLen     int32         `mapstructure:"snap_len"`
	Promiscuous bool          `mapstructure:"promiscuous"`
	BPFFilter   string        `mapstructure:"bpf_filter"`
	Duration    time.Duration `mapstructure:"duration"`
}

// BusinessHours is the half-open local-time interval [Start, End) used by
// the out-of-hours sub-step (spec.md §4.3 step 7).
type BusinessHours struct {
	Start int `mapstructure:"start"`
	End   int `mapstructure:"end"`
}

// Paths holds filesystem locations for the Store and the seed data files
// the resolvers load at startup (spec.md §6).
type Paths struct {
	SQLitePath         string `mapstructure:"sqlite_path"`
	OUITablePath       string `mapstructure:"oui_table_path"`
	GeoIPDatabasePath  string `mapstructure:"geoip_database_path"`
	DomainBlacklist    string `mapstructure:"domain_blacklist_path"`
	ApprovedDevices    string `mapstructure:"approved_devices_path"`
	DangerousCountries string `mapstructure:"dangerous_countries_path"`
}

// Blacklist controls the Blacklist Updater's periodic fetch (spec.md §4.5).
type Blacklist struct {
	FeedURL             string `mapstructure:"feed_url"`
	UpdateIntervalHours int    `mapstructure:"update_interval_hours"`
}

// API controls the HTTP surface (spec.md §6).
type API struct {
	ListenAddress string `mapstructure:"listen_address"`
	Token         string `mapstructure:"token"`
}

// Scheduler controls the periodic scan job (spec.md §4.5).
type Scheduler struct {
	ScanIntervalSeconds int `mapstructure:"scan_interval_seconds"`
}

// Thresholds holds the traffic-anomaly sub-detector's tunables
// (spec.md §4.3.1). A zero value means "use the compiled default".
type Thresholds struct {
	ContinuousGapSeconds      int   `mapstructure:"continuous_gap_seconds"`
	ContinuousDurationSeconds int   `mapstructure:"continuous_duration_seconds"`
	SpikeThresholdBytes       int64 `mapstructure:"spike_threshold_bytes"`
}

// Config is the root configuration object, assembled by Load.
type Config struct {
	Capture       Capture       `mapstructure:"capture"`
	BusinessHours BusinessHours `mapstructure:"business_hours"`
	Paths         Paths         `mapstructure:"paths"`
	Blacklist     Blacklist     `mapstructure:"blacklist"`
	API           API           `mapstructure:"api"`
	Scheduler     Scheduler     `mapstructure:"scheduler"`
	Thresholds    Thresholds    `mapstructure:"thresholds"`
}

// Load reads path (if non-empty) plus environment variables into a
// Config, falling back to Defaults() silently on a missing or malformed
// file -- spec.md §4.3.1's "missing/unparseable configuration file falls
// back to default silently" applies to the whole config, not just the
// spike threshold.
func Load(path string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix("netsentry")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig() // missing/malformed file: defaults + env stand alone
	}

	cfg := Defaults()
	_ = v.Unmarshal(cfg) // a decode error leaves cfg at whatever it partially filled; never fatal

	return cfg, nil
}

// bindLegacyEnv wires the specific environment variable names spec.md §10
// calls out by name, in addition to the generic NETSENTRY_* family.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("api.token", "API_TOKEN")
	_ = v.BindEnv("blacklist.feed_url", "BLACKLIST_FEED_URL")
	_ = v.BindEnv("blacklist.update_interval_hours", "BLACKLIST_UPDATE_INTERVAL_HOURS")
}
