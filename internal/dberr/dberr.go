// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package dberr defines the typed error values the engine surfaces to the
// host.
package dberr

import "fmt"

// ArgMismatchError reports a placeholder/argument count mismatch.
type ArgMismatchError struct {
	SQL      string
	Expected int
	Got      int
}

func (e *ArgMismatchError) Error() string {
	return fmt.Sprintf("argument count mismatch for %q: expected %d, got %d", e.SQL, e.Expected, e.Got)
}

// ArgMismatch constructs an ArgMismatchError.
func ArgMismatch(sql string, expected, got int) error {
	return &ArgMismatchError{SQL: sql, Expected: expected, Got: got}
}

// InvalidArgTypeError reports a host value that is not one of
// {null, undefined, string, number, boolean}.
type InvalidArgTypeError struct {
	Index int
	Kind  string
}

func (e *InvalidArgTypeError) Error() string {
	return fmt.Sprintf("invalid argument type at index %d: %s", e.Index, e.Kind)
}

// InvalidArgType constructs an InvalidArgTypeError.
func InvalidArgType(index int, kind string) error {
	return &InvalidArgTypeError{Index: index, Kind: kind}
}

// UnsupportedColumnTypeError reports a result column of an unsupported SQL
// type, such as BLOB.
type UnsupportedColumnTypeError struct {
	Column  string
	SQLType string
}

func (e *UnsupportedColumnTypeError) Error() string {
	return fmt.Sprintf("unsupported column type for %q: %s", e.Column, e.SQLType)
}

// UnsupportedColumnType constructs an UnsupportedColumnTypeError.
func UnsupportedColumnType(column, sqlType string) error {
	return &UnsupportedColumnTypeError{Column: column, SQLType: sqlType}
}

// DbErrorPhase identifies which phase of interaction with the underlying SQL
// engine failed.
type DbErrorPhase string

const (
	PhasePrepare DbErrorPhase = "prepare"
	PhaseBind    DbErrorPhase = "bind"
	PhaseStep    DbErrorPhase = "step"
	PhaseExec    DbErrorPhase = "exec"
	PhaseConfig  DbErrorPhase = "config"
)

// DbError wraps a failure from the underlying SQL engine with the phase
// that failed, a human-readable description, and the underlying driver
// error.
type DbError struct {
	Description string
	Phase       DbErrorPhase
	Err         error
}

func (e *DbError) Error() string {
	return fmt.Sprintf("%s (phase=%s): %v", e.Description, e.Phase, e.Err)
}

func (e *DbError) Unwrap() error { return e.Err }

// Db constructs a DbError.
func Db(description string, phase DbErrorPhase, err error) error {
	return &DbError{Description: description, Phase: phase, Err: err}
}

// MissingIdError reports a row expected to carry a non-null "id" first
// column that did not.
type MissingIdError struct {
	SQL string
}

func (e *MissingIdError) Error() string {
	return fmt.Sprintf("row from %q is missing a non-null id column", e.SQL)
}

// MissingId constructs a MissingIdError.
func MissingId(sql string) error {
	return &MissingIdError{SQL: sql}
}

// MigrationPreconditionError reports that the database's current user
// version did not match the migration's expected starting version.
type MigrationPreconditionError struct {
	Expected int
	Actual   int
}

func (e *MigrationPreconditionError) Error() string {
	return fmt.Sprintf("migration precondition failed: expected user_version=%d, found %d", e.Expected, e.Actual)
}

// MigrationPrecondition constructs a MigrationPreconditionError.
func MigrationPrecondition(expected, actual int) error {
	return &MigrationPreconditionError{Expected: expected, Actual: actual}
}
