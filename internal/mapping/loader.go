// Package mapping implements the mapping loader (§4.F): for each configured
// map, runs its reader (and optional transform) to completion, then indexes
// the resulting rows by a declared key column into the table structure the
// transform runtime's Context exposes as `mappings`.
package mapping

import (
	"io"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
	"github.com/kgxflow/kgxflow/internal/source"
	"github.com/kgxflow/kgxflow/internal/transform"
	"github.com/kgxflow/kgxflow/internal/writer"
)

// LoadAll loads every configured map, relative to baseDir, and returns the
// full mapping tree keyed by each map's declared name.
func LoadAll(maps []config.MapConfig, baseDir string) (map[string]transform.MappingTable, error) {
	result := make(map[string]transform.MappingTable, len(maps))
	for _, m := range maps {
		table, err := loadOne(m, baseDir)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindMapping, "load map %s", m.Name)
		}
		result[m.Name] = table
	}
	return result, nil
}

// loadOne runs m's reader (and optional transform) to completion and
// indexes the resulting rows by m.KeyColumn.
func loadOne(m config.MapConfig, baseDir string) (transform.MappingTable, error) {
	rows, err := collectRows(m, baseDir)
	if err != nil {
		return nil, err
	}

	table := make(transform.MappingTable, len(rows))
	for _, row := range rows {
		key, ok := row.Get(m.KeyColumn)
		if !ok {
			return nil, errors.MappingErrorf("map %s: declared key column %q missing from output rows", m.Name, m.KeyColumn)
		}
		keyStr, _ := key.(string)

		entry := make(map[string]any)
		cols := m.ValueColumns
		if len(cols) == 0 {
			cols = row.Keys()
		}
		for _, col := range cols {
			if v, ok := row.Get(col); ok {
				entry[col] = v
			}
		}
		table[keyStr] = entry
	}
	return table, nil
}

// collectRows runs m's reader, and its transform if declared, to
// completion, returning the resulting rows in order. Without a declared
// transform the reader's raw rows are used directly.
func collectRows(m config.MapConfig, baseDir string) ([]*kgx.Record, error) {
	src, err := source.New(m.Reader, baseDir)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if m.Transform == nil || (m.Transform.Code == "" && m.Transform.Module == "") {
		return drain(src)
	}

	factory, ok := transform.Lookup(m.Transform.Module, "")
	if !ok {
		return nil, errors.ConfigErrorf("map %s: no transform registered for module %q", m.Name, m.Transform.Module)
	}

	pw := writer.NewPassthrough()
	ctx := transform.NewContext(nil, transform.OnMapFailure(m.Transform.OnMapFailure))
	if err := transform.Run(ctx, src, factory(), pw); err != nil {
		return nil, err
	}
	return pw.Records(), nil
}

func drain(src *source.Source) ([]*kgx.Record, error) {
	var rows []*kgx.Record
	for {
		rec, err := src.Next()
		if err != nil {
			if err == io.EOF {
				return rows, nil
			}
			return nil, err
		}
		rows = append(rows, rec)
	}
}
