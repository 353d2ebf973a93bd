package utils

import (
	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Table is a loosely decoded TOML table.
type Table map[string]any

// DecodeTOMLFile strictly decodes the file at path into v.
func DecodeTOMLFile(path string, v any) error {
	if _, err := toml.DecodeFile(path, v); err != nil {
		log.Warnf("TOML parsing error in config file %s: %v. Attempting partial recovery...", path, err)
		return err
	}
	return nil
}

// DecodeTOMLTable decodes the file at path without a target schema, so a
// value of the wrong type does not spoil the rest of the file.
func DecodeTOMLTable(path string) (Table, error) {
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, err
	}
	return Table(raw), nil
}

// Section returns the nested table named key.
func (t Table) Section(key string) (Table, bool) {
	section, ok := t[key].(map[string]any)
	return section, ok
}

// String copies key into dst when it holds a string.
func (t Table) String(key string, dst *string) {
	if v, ok := t[key].(string); ok {
		*dst = v
	}
}

// Int copies key into dst when it holds an integer.
func (t Table) Int(key string, dst *int) {
	if v, ok := t[key].(int64); ok {
		*dst = int(v)
	}
}

// Bool copies key into dst when it holds a bool.
func (t Table) Bool(key string, dst *bool) {
	if v, ok := t[key].(bool); ok {
		*dst = v
	}
}
