// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package shaper converts the current row of a *sql.Rows into one of the
// three host shapes the query façade needs (Dictionary, Positional Array,
// or Column Header Array), under a fixed SQLite-to-host column-type
// mapping.
package shaper

import (
	"database/sql"
	"strings"

	"github.com/reactivedb/sqlcore/hostvalue"
	"github.com/reactivedb/sqlcore/internal/dberr"
)

// numericAffinities are the SQLite type-affinity spellings that should be
// treated as the INTEGER/FLOAT numeric buckets, beyond the two literal
// type names SQLite documents.
var numericAffinities = map[string]bool{
	"INTEGER": true, "INT": true, "BIGINT": true, "TINYINT": true,
	"SMALLINT": true, "MEDIUMINT": true, "UNSIGNED BIG INT": true,
	"FLOAT": true, "REAL": true, "DOUBLE": true, "NUMERIC": true,
	"DOUBLE PRECISION": true, "DECIMAL": true,
}

// ColumnNames returns the Column Header Array shape: a host array of column
// names in order.
func ColumnNames(rows *sql.Rows) (hostvalue.Value, error) {
	cols, err := rows.Columns()
	if err != nil {
		return hostvalue.Value{}, dberr.Db("Failed to read column names", dberr.PhaseStep, err)
	}
	out := hostvalue.Array(len(cols))
	for i, name := range cols {
		out.SetAt(i, hostvalue.String(name))
	}
	return out, nil
}

// RowValues scans the current row into host values, in column order,
// applying the fixed column-type mapping. It is the shared primitive both
// Dictionary and PositionalArray build on, so the two shapes can never
// disagree about the value at a given column.
func RowValues(rows *sql.Rows) ([]string, []hostvalue.Value, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, dberr.Db("Failed to read column types", dberr.PhaseStep, err)
	}
	names := make([]string, len(colTypes))
	dest := make([]any, len(colTypes))
	for i := range colTypes {
		names[i] = colTypes[i].Name()
	}
	// Scan everything through `any` so we can apply our own type mapping
	// rather than database/sql's Go-type inference, which is what we need to
	// tell an absent value from a genuine SQL NULL in the face of SQLite's
	// dynamic per-cell typing.
	scanDest := make([]any, len(colTypes))
	for i := range scanDest {
		scanDest[i] = &dest[i]
	}
	if err := rows.Scan(scanDest...); err != nil {
		return nil, nil, dberr.Db("Failed to read row", dberr.PhaseStep, err)
	}

	values := make([]hostvalue.Value, len(colTypes))
	for i, ct := range colTypes {
		v, err := mapValue(names[i], ct.DatabaseTypeName(), dest[i])
		if err != nil {
			return nil, nil, err
		}
		values[i] = v
	}
	return names, values, nil
}

func mapValue(column, sqlType string, raw any) (hostvalue.Value, error) {
	if raw == nil {
		return hostvalue.Null(), nil
	}
	switch v := raw.(type) {
	case int64:
		return hostvalue.Number(float64(v)), nil
	case float64:
		return hostvalue.Number(v), nil
	case string:
		return hostvalue.String(v), nil
	case []byte:
		// mattn/go-sqlite3 returns TEXT columns as []byte when scanned into
		// `any`; map those to host strings the same as a native string.
		if isTextAffinity(sqlType) {
			return hostvalue.String(string(v)), nil
		}
		return hostvalue.Value{}, dberr.UnsupportedColumnType(column, sqlType)
	case bool:
		if v {
			return hostvalue.Number(1), nil
		}
		return hostvalue.Number(0), nil
	default:
		return hostvalue.Value{}, dberr.UnsupportedColumnType(column, sqlType)
	}
}

func isTextAffinity(sqlType string) bool {
	t := strings.ToUpper(sqlType)
	if t == "" || t == "TEXT" || t == "CLOB" || t == "VARCHAR" || t == "CHAR" || t == "NVARCHAR" {
		return true
	}
	return !numericAffinities[t] && t != "BLOB"
}

// Dictionary builds the Dictionary shape: a host object keyed by column
// name.
func Dictionary(rows *sql.Rows) (hostvalue.Value, error) {
	names, values, err := RowValues(rows)
	if err != nil {
		return hostvalue.Value{}, err
	}
	obj := hostvalue.Object()
	for i, name := range names {
		obj = obj.SetProperty(name, values[i])
	}
	return obj, nil
}

// PositionalArray builds the Positional Array shape: a host array of
// values in column order.
func PositionalArray(rows *sql.Rows) (hostvalue.Value, error) {
	_, values, err := RowValues(rows)
	if err != nil {
		return hostvalue.Value{}, err
	}
	return hostvalue.ArrayOf(values...), nil
}
