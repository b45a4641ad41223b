package transform

import (
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
	"github.com/kgxflow/kgxflow/internal/logging"
)

// MappingTable is one loaded mapping source: key -> {value_column -> value}.
type MappingTable map[string]map[string]any

// OnMapFailure selects lookup()'s behavior when a key is missing from every
// configured map (§4.E "lookup").
type OnMapFailure string

const (
	OnMapFailureWarning OnMapFailure = "warning"
	OnMapFailureError   OnMapFailure = "error"
)

// Context is handed to every user transform entry point and lifecycle
// hook. It carries the write/lookup/log surface, the full mapping tree,
// and an opaque between-row state bag.
type Context struct {
	mappings     map[string]MappingTable
	state        map[string]any
	onMapFailure OnMapFailure

	writer     Writer
	source     RecordSource
	lastRecord *kgx.Record
}

// NewContext creates a Context over the given mapping tree and failure
// policy. state starts empty.
func NewContext(mappings map[string]MappingTable, onMapFailure OnMapFailure) *Context {
	if onMapFailure == "" {
		onMapFailure = OnMapFailureWarning
	}
	return &Context{
		mappings:     mappings,
		state:        make(map[string]any),
		onMapFailure: onMapFailure,
	}
}

// Write forwards records to the configured writer.
func (c *Context) Write(records ...*kgx.Record) error {
	for _, r := range records {
		if err := c.writer.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Lookup resolves key's mapColumn value through the named map, or every
// configured map if mapName is empty. A missing key returns key itself
// unchanged under the warning policy, or fails with MAPPING under the
// error policy.
func (c *Context) Lookup(key, mapColumn string, mapName ...string) (any, error) {
	names := mapName
	if len(names) == 0 {
		for name := range c.mappings {
			names = append(names, name)
		}
	}

	for _, name := range names {
		table, ok := c.mappings[name]
		if !ok {
			continue
		}
		entry, ok := table[key]
		if !ok {
			continue
		}
		if value, ok := entry[mapColumn]; ok {
			return value, nil
		}
	}

	if c.onMapFailure == OnMapFailureError {
		return nil, errors.MappingErrorf("lookup failed: key %q not found in any configured map", key)
	}
	logging.Warn("lookup key not found, passing through unchanged", "key", key, "map_column", mapColumn)
	return key, nil
}

// Log emits a structured log message at the given level ("debug", "info",
// "warn", "error").
func (c *Context) Log(level, message string, args ...any) {
	switch level {
	case "debug":
		logging.Debug(message, args...)
	case "warn", "warning":
		logging.Warn(message, args...)
	case "error":
		logging.Error(message, args...)
	default:
		logging.Info(message, args...)
	}
}

// Mappings returns the full mapping table tree {map_name -> {key -> {value_column -> value}}}.
func (c *Context) Mappings() map[string]MappingTable {
	return c.mappings
}

// State is an opaque mutable dictionary for between-row state.
func (c *Context) State() map[string]any {
	return c.state
}

// Records exposes the record stream as a lazy iterator, for a
// StreamTransform's single entry point. Returns io.EOF (via the
// underlying RecordSource) once exhausted.
func (c *Context) Records() (*kgx.Record, error) {
	rec, err := c.source.Next()
	if err == nil {
		c.lastRecord = rec
	}
	return rec, err
}
