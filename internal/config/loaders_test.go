package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadApprovedMacsLowercases(t *testing.T) {
	path := writeTemp(t, "macs.json", `["AA:BB:CC:DD:EE:FF", "11:22:33:44:55:66"]`)
	got := LoadApprovedMacs(path)
	if _, ok := got["aa:bb:cc:dd:ee:ff"]; !ok {
		t.Fatalf("expected lowercased mac present, got %v", got)
	}
}

func TestLoadApprovedMacsMissingFileYieldsEmptySet(t *testing.T) {
	got := LoadApprovedMacs(filepath.Join(t.TempDir(), "missing.json"))
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestLoadDangerousCountriesUppercases(t *testing.T) {
	path := writeTemp(t, "countries.json", `["ru", "Kp"]`)
	got := LoadDangerousCountries(path)
	if _, ok := got["RU"]; !ok {
		t.Fatalf("expected uppercased code present, got %v", got)
	}
	if _, ok := got["KP"]; !ok {
		t.Fatalf("expected uppercased code present, got %v", got)
	}
}

func TestLoadDangerousCountriesMalformedYieldsEmptySet(t *testing.T) {
	path := writeTemp(t, "bad.json", `not json`)
	got := LoadDangerousCountries(path)
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}
