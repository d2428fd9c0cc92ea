/**
 * SQLite-Backed Store.
 *
 * Persists Findings, DNS history, and the known-device set; maintains a
 * bounded in-memory recent buffer and fans out saved Findings and
 * device-alerts to subscribers. Grounded on
 * `KleaSCM-netscope/internal/storage/{db,sqlite,schema}.go`'s
 * `database/sql` + `mattn/go-sqlite3` pattern and
 * `original_source/src/dynamic_scan/storage.py`'s listener-broadcast
 * shape. See spec.md §4.4/§6/§9.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/netsentry/netsentry/internal/models"
)

const defaultRecentCapacity = 100
const subscriberQueueCapacity = 32

// HistoryFilter narrows FetchHistory. Empty fields widen the query.
type HistoryFilter struct {
	Start    string // ISO-8601, compared lexicographically
	End      string
	Device   string // matches src_ip equality
	Protocol string
}

// Store is the Analyzer's persistence boundary and the API layer's read
// path. A single instance is shared for the life of the process.
type Store struct {
	db  *sql.DB
	log *zap.Logger

	recentMu  sync.Mutex
	recent    []models.Finding
	recentCap int

	subMu sync.Mutex
	subs  map[uuid.UUID]chan models.Finding

	deviceSubMu sync.Mutex
	deviceSubs  map[uuid.UUID]chan models.DeviceAlert

	deviceMu     sync.Mutex
	knownDevices map[string]bool
}

// Open creates (if needed) and migrates the SQLite database at path,
// returning a ready-to-use Store. recentCap <= 0 uses the spec default
// of 100.
func Open(path string, recentCap int, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if recentCap <= 0 {
		recentCap = defaultRecentCapacity
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("storage: ping database: %w", err)
	}

	s := &Store{
		db:           db,
		log:          log,
		recentCap:    recentCap,
		subs:         make(map[uuid.UUID]chan models.Finding),
		deviceSubs:   make(map[uuid.UUID]chan models.DeviceAlert),
		knownDevices: make(map[string]bool),
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	if err := s.loadKnownDevices(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("storage: apply schema: %w", err)
	}
	return nil
}

func (s *Store) loadKnownDevices() error {
	rows, err := s.db.Query(`SELECT mac FROM devices`)
	if err != nil {
		return fmt.Errorf("storage: load known devices: %w", err)
	}
	defer rows.Close()

	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()
	for rows.Next() {
		var mac string
		if err := rows.Scan(&mac); err != nil {
			return err
		}
		s.knownDevices[mac] = true
	}
	return rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// stampTimestamp is assigned at persistence time, not capture time
// (spec.md §3), as RFC 3339 with the local offset and seconds
// precision. The offset is numeric (e.g. +09:00), or "Z" when the local
// zone is UTC; either way it is the same for every stamp of one process,
// so lexicographic comparison in FetchHistory/FetchDNSHistory agrees
// with wall-clock order.
func stampTimestamp() string {
	return time.Now().Format("2006-01-02T15:04:05Z07:00")
}

// SaveFinding stamps f's timestamp, appends it to the results table and
// the bounded recent buffer (FIFO drop-oldest), then fans it out to
// subscribers. Each of these is committed before SaveFinding returns.
func (s *Store) SaveFinding(f models.Finding) {
	f.Timestamp = stampTimestamp()

	data, err := f.Encode()
	if err != nil {
		s.log.Error("storage: encode finding", zap.Error(err))
		return
	}
	if _, err := s.db.Exec(`INSERT INTO results (timestamp, data) VALUES (?, ?)`, f.Timestamp, string(data)); err != nil {
		s.log.Error("storage: save finding", zap.Error(err))
		return
	}

	s.recentMu.Lock()
	s.recent = append(s.recent, f)
	if len(s.recent) > s.recentCap {
		s.recent = s.recent[len(s.recent)-s.recentCap:]
	}
	s.recentMu.Unlock()

	s.broadcast(f)
}

func (s *Store) broadcast(f models.Finding) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- f:
		default:
			// Slow subscriber: drop the oldest queued item to make room
			// rather than block the Analyzer loop (spec.md §9 rejects
			// guaranteed delivery).
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- f:
			default:
				s.log.Info("storage: dropping finding for slow subscriber", zap.String("subscriber", id.String()))
			}
		}
	}
}

// SaveDNS stamps and appends one row to dns_history.
func (s *Store) SaveDNS(ip, host string, blacklisted bool) {
	ts := stampTimestamp()
	blVal := 0
	if blacklisted {
		blVal = 1
	}
	if _, err := s.db.Exec(
		`INSERT INTO dns_history (timestamp, ip, hostname, blacklisted) VALUES (?, ?, ?, ?)`,
		ts, ip, host, blVal,
	); err != nil {
		s.log.Error("storage: save dns history", zap.Error(err))
	}
}

// RecordDevice inserts mac into the devices table if this process has
// never seen it before, returning whether the insert happened. The
// known-device set is process-lifetime and owned by the Store (spec.md
// §9's Open Question resolution).
func (s *Store) RecordDevice(mac string) bool {
	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	if s.knownDevices[mac] {
		return false
	}

	firstSeen := stampTimestamp()
	if _, err := s.db.Exec(
		`INSERT INTO devices (mac, first_seen) VALUES (?, ?)`,
		mac, firstSeen,
	); err != nil {
		s.log.Error("storage: record device", zap.Error(err), zap.String("mac", mac))
		return false
	}
	s.knownDevices[mac] = true

	s.broadcastDeviceAlert(models.DeviceAlert{MAC: mac, FirstSeen: firstSeen})
	return true
}

func (s *Store) broadcastDeviceAlert(alert models.DeviceAlert) {
	s.deviceSubMu.Lock()
	defer s.deviceSubMu.Unlock()
	for _, ch := range s.deviceSubs {
		select {
		case ch <- alert:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- alert:
			default:
			}
		}
	}
}

// GetRecent returns a snapshot of the bounded recent buffer.
func (s *Store) GetRecent() []models.Finding {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()
	out := make([]models.Finding, len(s.recent))
	copy(out, s.recent)
	return out
}

// FetchHistory runs a parameterized query over results. start/end are
// compared lexicographically against the stored timestamp; device
// matches src_ip equality; protocol matches the protocol label
// equality. Missing filter fields widen the query. Results are ordered
// by insertion (id ascending).
func (s *Store) FetchHistory(filter HistoryFilter) ([]models.Finding, error) {
	var clauses []string
	var args []any
	if filter.Start != "" {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Start)
	}
	if filter.End != "" {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.End)
	}

	query := "SELECT data FROM results"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: fetch history: %w", err)
	}
	defer rows.Close()

	var out []models.Finding
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		f, err := decodeFinding(raw)
		if err != nil {
			s.log.Info("storage: skipping malformed history row", zap.Error(err))
			continue
		}
		if filter.Device != "" && (f.SrcIP == nil || *f.SrcIP != filter.Device) {
			continue
		}
		if filter.Protocol != "" && (f.Protocol == nil || *f.Protocol != filter.Protocol) {
			continue
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FetchDNSHistory matches the date-only (YYYY-MM-DD) prefix of the
// timestamp, inclusive on both ends, returning oldest-first.
func (s *Store) FetchDNSHistory(startDate, endDate string) ([]models.DnsRow, error) {
	query := `
		SELECT timestamp, ip, hostname, blacklisted FROM dns_history
		WHERE substr(timestamp, 1, 10) BETWEEN ? AND ?
		ORDER BY id ASC`
	rows, err := s.db.Query(query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("storage: fetch dns history: %w", err)
	}
	defer rows.Close()

	var out []models.DnsRow
	for rows.Next() {
		var row models.DnsRow
		var blacklisted int
		if err := rows.Scan(&row.Timestamp, &row.IP, &row.Hostname, &blacklisted); err != nil {
			return nil, err
		}
		row.Blacklisted = blacklisted != 0
		out = append(out, row)
	}
	return out, rows.Err()
}

// Subscribe registers a new Finding subscriber, returning its id and
// receive channel. Call Unsubscribe(id) to stop receiving and release
// the channel.
func (s *Store) Subscribe() (uuid.UUID, <-chan models.Finding) {
	id := uuid.New()
	ch := make(chan models.Finding, subscriberQueueCapacity)
	s.subMu.Lock()
	s.subs[id] = ch
	s.subMu.Unlock()
	return id, ch
}

// Unsubscribe removes and closes id's Finding channel.
func (s *Store) Unsubscribe(id uuid.UUID) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// SubscribeDeviceAlerts registers a new device-alert subscriber.
func (s *Store) SubscribeDeviceAlerts() (uuid.UUID, <-chan models.DeviceAlert) {
	id := uuid.New()
	ch := make(chan models.DeviceAlert, subscriberQueueCapacity)
	s.deviceSubMu.Lock()
	s.deviceSubs[id] = ch
	s.deviceSubMu.Unlock()
	return id, ch
}

// UnsubscribeDeviceAlerts removes and closes id's device-alert channel.
func (s *Store) UnsubscribeDeviceAlerts(id uuid.UUID) {
	s.deviceSubMu.Lock()
	defer s.deviceSubMu.Unlock()
	if ch, ok := s.deviceSubs[id]; ok {
		delete(s.deviceSubs, id)
		close(ch)
	}
}
