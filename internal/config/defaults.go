/**
 * Configuration Defaults.
 *
 * Provides sane default values for application configuration to ensure
 * NetSentry can run out-of-the-box without extensive setup.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	defaultSnapLen                    = 65535
	defaultScanIntervalSeconds        = 3600
	defaultBlacklistUpdateIntervalHrs = 12
	defaultSpikeThresholdBytes        = 1_000_000
	defaultContinuousGapSeconds       = 10
	defaultContinuousDurationSeconds  = 60
	defaultBusinessHoursStart         = 9
	defaultBusinessHoursEnd           = 17
)

// Defaults returns a Config populated entirely with compiled-in values.
// Used both as Load's fallback and as the base Load unmarshals onto.
func Defaults() *Config {
	return &Config{
		Capture: Capture{
			SnapLen:     defaultSnapLen,
			Promiscuous: true,
			Duration:    0,
		},
		BusinessHours: BusinessHours{
			Start: defaultBusinessHoursStart,
			End:   defaultBusinessHoursEnd,
		},
		Paths: Paths{
			SQLitePath:         "netsentry.db",
			OUITablePath:       "data/oui.txt",
			GeoIPDatabasePath:  "data/GeoLite2-Country.mmdb",
			DomainBlacklist:    "configs/domain_blacklist.txt",
			ApprovedDevices:    "configs/approved_devices.json",
			DangerousCountries: "configs/dangerous_countries.json",
		},
		Blacklist: Blacklist{
			UpdateIntervalHours: defaultBlacklistUpdateIntervalHrs,
		},
		API: API{
			ListenAddress: ":8080",
		},
		Scheduler: Scheduler{
			ScanIntervalSeconds: defaultScanIntervalSeconds,
		},
		Thresholds: Thresholds{
			ContinuousGapSeconds:      defaultContinuousGapSeconds,
			ContinuousDurationSeconds: defaultContinuousDurationSeconds,
			SpikeThresholdBytes:       defaultSpikeThresholdBytes,
		},
	}
}

// applyDefaults seeds v with Defaults() so viper.Unmarshal has something
// sane to fall back to even before a config file is read.
func applyDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("capture.snap_len", d.Capture.SnapLen)
	v.SetDefault("capture.promiscuous", d.Capture.Promiscuous)
	v.SetDefault("capture.duration", time.Duration(d.Capture.Duration))
	v.SetDefault("business_hours.start", d.BusinessHours.Start)
	v.SetDefault("business_hours.end", d.BusinessHours.End)
	v.SetDefault("paths.sqlite_path", d.Paths.SQLitePath)
	v.SetDefault("paths.oui_table_path", d.Paths.OUITablePath)
	v.SetDefault("paths.geoip_database_path", d.Paths.GeoIPDatabasePath)
	v.SetDefault("paths.domain_blacklist_path", d.Paths.DomainBlacklist)
	v.SetDefault("paths.approved_devices_path", d.Paths.ApprovedDevices)
	v.SetDefault("paths.dangerous_countries_path", d.Paths.DangerousCountries)
	v.SetDefault("blacklist.update_interval_hours", d.Blacklist.UpdateIntervalHours)
	v.SetDefault("api.listen_address", d.API.ListenAddress)
	v.SetDefault("scheduler.scan_interval_seconds", d.Scheduler.ScanIntervalSeconds)
	v.SetDefault("thresholds.continuous_gap_seconds", d.Thresholds.ContinuousGapSeconds)
	v.SetDefault("thresholds.continuous_duration_seconds", d.Thresholds.ContinuousDurationSeconds)
	v.SetDefault("thresholds.spike_threshold_bytes", d.Thresholds.SpikeThresholdBytes)
}
