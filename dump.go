// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
package sqlcore

import (
	"context"
	"fmt"
	"io"

	"github.com/reactivedb/sqlcore/internal/dberr"
)

// DumpSchema writes a human-diffable snapshot of the current schema objects
// (from sqlite_master) and the user version to w. Callers that want the
// write to be atomic, so a crash mid-dump never leaves a half-written
// snapshot on disk, should pass a github.com/google/renameio PendingFile as
// w and commit it once DumpSchema returns nil (see cmd/coredb for the
// reference usage).
func (c *Connection) DumpSchema(ctx context.Context, w io.Writer) error {
	version, err := c.GetUserVersion(ctx)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "-- user_version: %d\n", version); err != nil {
		return c.logErr("dumpSchema: write", dberr.Db("Failed to write schema dump", dberr.PhaseConfig, err))
	}

	rows, err := c.db.QueryContext(ctx, `select type, name, sql from sqlite_master where name not like 'sqlite_%' order by type, name`)
	if err != nil {
		return c.logErr("dumpSchema: query", dberr.Db("Failed to read sqlite_master", dberr.PhaseStep, err))
	}
	defer rows.Close()

	for rows.Next() {
		var kind, name string
		var ddl *string
		if err := rows.Scan(&kind, &name, &ddl); err != nil {
			return c.logErr("dumpSchema: scan", dberr.Db("Failed to read schema row", dberr.PhaseStep, err))
		}
		if ddl == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "-- %s: %s\n%s;\n\n", kind, name, *ddl); err != nil {
			return c.logErr("dumpSchema: write", dberr.Db("Failed to write schema dump", dberr.PhaseConfig, err))
		}
	}
	if err := rows.Err(); err != nil {
		return c.logErr("dumpSchema: rows", dberr.Db("Failed reading sqlite_master", dberr.PhaseStep, err))
	}
	return nil
}
