// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
package sqlcore

import (
	"fmt"

	"github.com/reactivedb/sqlcore/hostvalue"
)

// DecodeBatch validates and decodes the host to engine batch wire format:
// an array of operations, each a 4-tuple
// [cacheBehavior, table, sql, argsBatches]. It validates shape before any
// SQL executes, so a malformed batch never partially runs.
func DecodeBatch(ops hostvalue.Value) ([]BatchOp, error) {
	raw, ok := ops.AsArray()
	if !ok {
		return nil, fmt.Errorf("batch: expected an array of operations, got %s", ops.Kind())
	}

	decoded := make([]BatchOp, 0, len(raw))
	for i, opVal := range raw {
		op, err := decodeOp(opVal)
		if err != nil {
			return nil, fmt.Errorf("batch: operation %d: %w", i, err)
		}
		decoded = append(decoded, op)
	}
	return decoded, nil
}

func decodeOp(opVal hostvalue.Value) (BatchOp, error) {
	tuple, ok := opVal.AsArray()
	if !ok || len(tuple) != 4 {
		return BatchOp{}, fmt.Errorf("expected a 4-element array, got %s of length %d", opVal.Kind(), opVal.Len())
	}

	behaviorNum, ok := tuple[0].AsNumber()
	if !ok {
		return BatchOp{}, fmt.Errorf("cacheBehavior: expected a number, got %s", tuple[0].Kind())
	}
	behavior := CacheBehaviorFromInt(int(behaviorNum))

	table, ok := tuple[1].AsString()
	if !ok && behavior != CacheNone {
		return BatchOp{}, fmt.Errorf("table: expected a string, got %s", tuple[1].Kind())
	}

	sqlText, ok := tuple[2].AsString()
	if !ok {
		return BatchOp{}, fmt.Errorf("sql: expected a string, got %s", tuple[2].Kind())
	}

	argsBatchesVal, ok := tuple[3].AsArray()
	if !ok {
		return BatchOp{}, fmt.Errorf("argsBatches: expected an array, got %s", tuple[3].Kind())
	}
	argsBatches := make([][]hostvalue.Value, 0, len(argsBatchesVal))
	for j, batchVal := range argsBatchesVal {
		args, ok := batchVal.AsArray()
		if !ok {
			return BatchOp{}, fmt.Errorf("argsBatches[%d]: expected an array, got %s", j, batchVal.Kind())
		}
		argsBatches = append(argsBatches, args)
	}

	return BatchOp{Behavior: behavior, Table: table, SQL: sqlText, ArgsBatches: argsBatches}, nil
}

// CacheBehaviorFromInt maps the wire format's -1|0|1 integer to the
// package's CacheBehavior constants.
func CacheBehaviorFromInt(n int) CacheBehavior {
	switch {
	case n > 0:
		return CacheMarkOnSuccess
	case n < 0:
		return CacheRemoveOnSuccess
	default:
		return CacheNone
	}
}
