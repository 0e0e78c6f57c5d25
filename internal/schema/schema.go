// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package schema implements schema installation and migration: the
// defensive full-reset path, version-checked migration script application,
// and the user-version accessors.
package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reactivedb/sqlcore/internal/dberr"
	"github.com/reactivedb/sqlcore/internal/identitycache"
	"github.com/reactivedb/sqlcore/internal/txn"
)

// localStorageDDL is appended whenever a fresh schema does not already
// declare local_storage, guaranteeing the table GetLocal reads from is
// always present.
const localStorageDDL = `create table if not exists local_storage (key text primary key, value text);`

// ResetDatabase installs schema as a fresh install: it enables the
// underlying engine's defensive reset mode by dropping every existing
// table, index, trigger, and view, vacuums outside any transaction (vacuum
// cannot run inside one), then opens a transaction to clear the identity
// cache, run schema, and set the user version.
func ResetDatabase(ctx context.Context, db *sql.DB, cache *identitycache.Cache, schemaSQL string, version int) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return dberr.Db("Failed to acquire connection for reset", dberr.PhaseConfig, err)
	}
	defer conn.Close()

	if err := enableDefensiveReset(ctx, conn); err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, "vacuum"); err != nil {
		return dberr.Db("Failed to vacuum database", dberr.PhaseExec, err)
	}

	tx, err := txn.Begin(ctx, db, nil, 1)
	if err != nil {
		return err
	}

	cache.Clear()
	if err := tx.ExecContext(ctx, schemaSQL); err != nil {
		tx.Rollback(err)
		return err
	}
	if err := tx.ExecContext(ctx, localStorageDDL); err != nil {
		tx.Rollback(err)
		return err
	}
	if err := setUserVersionTx(ctx, tx, version); err != nil {
		tx.Rollback(err)
		return err
	}
	return tx.Commit()
}

// Migrate applies migrationSQL after asserting the current user version
// equals fromVersion, then sets it to toVersion.
func Migrate(ctx context.Context, db *sql.DB, migrationSQL string, fromVersion, toVersion int) error {
	tx, err := txn.Begin(ctx, db, nil, 1)
	if err != nil {
		return err
	}

	current, err := getUserVersionTx(ctx, tx)
	if err != nil {
		tx.Rollback(err)
		return err
	}
	if current != fromVersion {
		err := dberr.MigrationPrecondition(fromVersion, current)
		tx.Rollback(err)
		return err
	}

	if err := tx.ExecContext(ctx, migrationSQL); err != nil {
		tx.Rollback(err)
		return err
	}
	if err := setUserVersionTx(ctx, tx, toVersion); err != nil {
		tx.Rollback(err)
		return err
	}
	return tx.Commit()
}

// GetUserVersion reads the PRAGMA user_version slot.
func GetUserVersion(ctx context.Context, db *sql.DB) (int, error) {
	row := db.QueryRowContext(ctx, "pragma user_version")
	var v int
	if err := row.Scan(&v); err != nil {
		return 0, dberr.Db("Failed to read user_version", dberr.PhaseStep, err)
	}
	return v, nil
}

// SetUserVersion writes the PRAGMA user_version slot. PRAGMA statements do
// not accept bound parameters in SQLite, so v is inlined directly; it is an
// int and therefore not an injection vector.
func SetUserVersion(ctx context.Context, db *sql.DB, v int) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf("pragma user_version = %d", v)); err != nil {
		return dberr.Db("Failed to set user_version", dberr.PhaseExec, err)
	}
	return nil
}

func getUserVersionTx(ctx context.Context, tx *txn.Coordinator) (int, error) {
	row := tx.QueryRowContext(ctx, "pragma user_version")
	var v int
	if err := row.Scan(&v); err != nil {
		return 0, dberr.Db("Failed to read user_version", dberr.PhaseStep, err)
	}
	return v, nil
}

func setUserVersionTx(ctx context.Context, tx *txn.Coordinator, v int) error {
	return tx.ExecContext(ctx, fmt.Sprintf("pragma user_version = %d", v))
}

// enableDefensiveReset drops every existing table, index, trigger, and view
// so the following vacuum reclaims all space and the schema script below
// starts from a genuinely empty database, regardless of what it contained
// before. It uses only documented SQL rather than a driver-specific
// config call.
func enableDefensiveReset(ctx context.Context, conn *sql.Conn) error {
	rows, err := conn.QueryContext(ctx, `select type, name from sqlite_master where name not like 'sqlite_%'`)
	if err != nil {
		return dberr.Db("Failed to enumerate schema objects", dberr.PhaseStep, err)
	}
	type object struct{ kind, name string }
	var objects []object
	for rows.Next() {
		var o object
		if err := rows.Scan(&o.kind, &o.name); err != nil {
			rows.Close()
			return dberr.Db("Failed to read schema object", dberr.PhaseStep, err)
		}
		objects = append(objects, o)
	}
	if err := rows.Err(); err != nil {
		return dberr.Db("Failed to enumerate schema objects", dberr.PhaseStep, err)
	}
	rows.Close()

	// Drop in reverse discovery order so triggers/indexes referencing a
	// table are dropped before the table itself, matching the order SQLite
	// generally returns them (definition order in sqlite_master).
	for i := len(objects) - 1; i >= 0; i-- {
		o := objects[i]
		stmt := fmt.Sprintf("drop %s if exists %q", o.kind, o.name)
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return dberr.Db(fmt.Sprintf("Failed to drop %s %q", o.kind, o.name), dberr.PhaseExec, err)
		}
	}
	return nil
}
