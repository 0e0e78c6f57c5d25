// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Command coredb is a small demo/CLI exercising the engine end to end: open
// a database, install a schema, run a batch mutation, query it back, and
// export a schema snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/renameio"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	sqlcore "github.com/reactivedb/sqlcore"
	"github.com/reactivedb/sqlcore/config"
	"github.com/reactivedb/sqlcore/hostvalue"
	"github.com/reactivedb/sqlcore/internal/dblog"
)

const demoSchema = `
create table if not exists notes (id text primary key, body text not null);
`

func main() {
	var (
		dbPath     = flag.String("db", ":memory:", "database path (or :memory:)")
		configPath = flag.String("config", "", "optional YAML config file")
		dumpTo     = flag.String("dump", "", "optional path to atomically write a schema snapshot to")
		seedCount  = flag.Int("seed", 3, "number of demo notes to seed")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	log := dblog.Zerolog{L: logger}

	if err := run(*dbPath, *configPath, *dumpTo, *seedCount, log); err != nil {
		logger.Error().Err(err).Msg("coredb failed")
		os.Exit(1)
	}
}

func run(dbPath, configPath, dumpTo string, seedCount int, log dblog.Logger) error {
	ctx := context.Background()

	opts := []sqlcore.Option{sqlcore.WithRetry(3), sqlcore.WithBusyTimeout(2 * time.Second)}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		fc, err := config.LoadFile(data)
		if err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
		opts = append(opts, fc.ToOptions()...)
	}

	conn, err := sqlcore.Open(dbPath, opts...)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	conn = conn.WithLogger(log)
	defer conn.Close()

	if err := conn.UnsafeResetDatabase(ctx, demoSchema, 1); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	ids := make([]string, seedCount)
	ops := make([]sqlcore.BatchOp, 0, seedCount)
	for i := 0; i < seedCount; i++ {
		id := uuid.NewString()
		ids[i] = id
		ops = append(ops, sqlcore.BatchOp{
			Behavior: sqlcore.CacheMarkOnSuccess,
			Table:    "notes",
			SQL:      "insert into notes values(?, ?)",
			ArgsBatches: [][]hostvalue.Value{
				{hostvalue.String(id), hostvalue.String(fmt.Sprintf("seeded note %d", i))},
			},
		})
	}
	if err := conn.Batch(ctx, ops); err != nil {
		return fmt.Errorf("seed batch: %w", err)
	}

	// A just-cached id should come back bare from Find, not re-materialized.
	for _, id := range ids {
		v, err := conn.Find(ctx, "notes", id)
		if err != nil {
			return fmt.Errorf("find %s: %w", id, err)
		}
		if s, ok := v.AsString(); ok {
			log.Log("find returned cached id", map[string]any{"id": s})
		}
	}

	rows, err := conn.UnsafeQueryRaw(ctx, "select * from notes order by id", nil)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	log.Log("seeded notes", map[string]any{"count": rows.Len()})

	if dumpTo != "" {
		if err := dumpSchemaAtomically(conn, dumpTo); err != nil {
			return fmt.Errorf("dump: %w", err)
		}
	}

	return warmUpConnections(ctx, dbPath, 2)
}

// dumpSchemaAtomically writes conn's schema snapshot to path without ever
// exposing a partially written file to a concurrent reader, using
// google/renameio as the write-then-rename primitive.
func dumpSchemaAtomically(conn *sqlcore.Connection, path string) error {
	pf, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer pf.Cleanup()

	if err := conn.DumpSchema(context.Background(), pf); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}

// warmUpConnections issues n concurrent warm-up requests for path, each of
// which opens a demo Connection and runs a no-op read on it, illustrating
// that nothing below core.Connection itself spawns goroutines while the CLI
// layer is free to fan work out of its own. All requests share one
// singleflight.Group key (the path), so requests that overlap in time
// collapse into one actual open; only requests that start after an earlier
// one has finished open a Connection of their own.
func warmUpConnections(ctx context.Context, path string, n int) error {
	var sf singleflight.Group
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err, _ := sf.Do(path, func() (any, error) {
				c, err := sqlcore.Open(path)
				if err != nil {
					return nil, err
				}
				defer c.Close()
				_, err = c.GetUserVersion(ctx)
				return nil, err
			})
			_ = v
			return err
		})
	}
	return g.Wait()
}
