package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeTOMLTableKeepsTypedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[ime]
debounce_ms = 500
cache_size = "big"

[cli]
show_pinyin = false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := DecodeTOMLTable(path)
	if err != nil {
		t.Fatalf("DecodeTOMLTable() error = %v", err)
	}

	ime, ok := table.Section("ime")
	if !ok {
		t.Fatal("missing [ime] section")
	}
	debounce, cache := 1000, 256
	ime.Int("debounce_ms", &debounce)
	ime.Int("cache_size", &cache)
	if debounce != 500 {
		t.Errorf("debounce_ms = %d, want 500", debounce)
	}
	if cache != 256 {
		t.Errorf("cache_size = %d, want untouched 256", cache)
	}

	cli, _ := table.Section("cli")
	show := true
	cli.Bool("show_pinyin", &show)
	if show {
		t.Error("show_pinyin not applied")
	}

	if _, ok := table.Section("dict"); ok {
		t.Error("absent section reported present")
	}
	name := "keep"
	table.String("dict", &name)
	if name != "keep" {
		t.Errorf("String on a missing key changed dst to %q", name)
	}
}

func TestDecodeTOMLFileRejectsMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("size = \"big\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var v struct {
		Size int `toml:"size"`
	}
	if err := DecodeTOMLFile(path, &v); err == nil {
		t.Error("DecodeTOMLFile() accepted a string for an int field")
	}
}
