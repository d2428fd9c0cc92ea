/**
 * Blacklist Updater.
 *
 * Fetches a remote domain-blacklist feed and merges it atomically into
 * the on-disk blacklist file that resolver.BlacklistSet loads at
 * startup. A BlacklistSet already in memory is not reloaded when this
 * file is replaced.
 * Grounded on original_source/src/dynamic_scan/blacklist_updater.py's
 * fetch/normalize/merge/atomic-replace sequence. See spec.md §4.6.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package blacklist

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Updater fetches a feed URL and merges it into a local blacklist file.
type Updater struct {
	httpClient *http.Client
	log        *zap.Logger
}

// NewUpdater builds an Updater with a bounded HTTP client.
func NewUpdater(log *zap.Logger) *Updater {
	if log == nil {
		log = zap.NewNop()
	}
	return &Updater{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// feedPayload covers the two JSON shapes spec.md §4.6 step 1 names: an
// object carrying "domains" or "blacklist", or a bare array.
type feedPayload struct {
	Domains   []string `json:"domains"`
	Blacklist []string `json:"blacklist"`
}

// FetchFeed retrieves url and returns the normalized (trimmed,
// lowercased, non-empty, non-comment) set of domains it contains.
// Any fetch or parse failure yields an empty set rather than an error
// -- a transient-external failure per spec.md §7.
func (u *Updater) FetchFeed(url string) map[string]struct{} {
	resp, err := u.httpClient.Get(url)
	if err != nil {
		u.log.Info("blacklist: fetch failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		u.log.Info("blacklist: unexpected status", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		u.log.Info("blacklist: read body failed", zap.Error(err))
		return nil
	}

	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "json") || strings.HasSuffix(url, ".json")
	var lines []string
	if isJSON {
		lines = parseJSONFeed(body)
	} else {
		lines = splitLines(body)
	}
	return normalize(lines)
}

func parseJSONFeed(body []byte) []string {
	var arr []string
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr
	}
	var obj feedPayload
	if err := json.Unmarshal(body, &obj); err == nil {
		if len(obj.Domains) > 0 {
			return obj.Domains
		}
		return obj.Blacklist
	}
	return nil
}

func splitLines(body []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func normalize(raw []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, d := range raw {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || strings.HasPrefix(d, "#") {
			continue
		}
		out[d] = struct{}{}
	}
	return out
}

// Merge reads the existing blacklist at path (if any), unions it with
// feed, and atomically replaces path with the merged result via
// <path>.tmp + rename. An empty feed is a no-op -- spec.md §4.6 step 5
// forbids overwriting an existing file with nothing. On any write
// error the tmp file is removed and the existing file is left
// untouched.
func (u *Updater) Merge(path string, feed map[string]struct{}) error {
	if len(feed) == 0 {
		u.log.Info("blacklist: empty feed, no-op", zap.String("path", path))
		return nil
	}

	existing := readExisting(path)
	combined := make(map[string]struct{}, len(existing)+len(feed))
	for d := range existing {
		combined[d] = struct{}{}
	}
	for d := range feed {
		combined[d] = struct{}{}
	}

	domains := make([]string, 0, len(combined))
	for d := range combined {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	tmpPath := path + ".tmp"
	if err := writeDomains(tmpPath, domains); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("blacklist: write tmp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("blacklist: atomic rename: %w", err)
	}
	return nil
}

func readExisting(path string) map[string]struct{} {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	out := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out[line] = struct{}{}
	}
	return out
}

func writeDomains(path string, domains []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	buf.WriteString("# DNS blacklist\n")
	for _, d := range domains {
		buf.WriteString(d)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Update fetches feedURL and merges it into path, logging (never
// raising) on failure -- spec.md §4.5's Blacklist job calls this on
// each tick and must never abort the scheduler on error.
func (u *Updater) Update(feedURL, path string) {
	feed := u.FetchFeed(feedURL)
	if err := u.Merge(path, feed); err != nil {
		u.log.Error("blacklist: update failed", zap.Error(err))
	}
}
