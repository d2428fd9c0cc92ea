/**
 * Device & DNS History Models.
 *
 * Represents the known-device registry row and the DNS resolution
 * history row the Store persists alongside findings.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package models

// Device is a row of the `devices` table: one per MAC ever observed.
type Device struct {
	MAC       string `json:"mac"`
	FirstSeen string `json:"first_seen"`
}

// DnsRow is a row of the `dns_history` table.
type DnsRow struct {
	Timestamp   string `json:"timestamp"`
	IP          string `json:"ip"`
	Hostname    string `json:"hostname"`
	Blacklisted bool   `json:"blacklisted"`
}

// DeviceAlert is pushed to the /ws/device-alerts subscribers the first
// time a MAC is ever seen.
type DeviceAlert struct {
	MAC       string `json:"mac"`
	FirstSeen string `json:"first_seen"`
}
