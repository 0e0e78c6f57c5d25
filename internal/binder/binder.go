// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package binder validates an argument list against a prepared statement's
// placeholder count and converts host values to database/sql driver values
// under strict type rules.
package binder

import (
	"errors"

	"github.com/reactivedb/sqlcore/hostvalue"
	"github.com/reactivedb/sqlcore/internal/dberr"
)

var errInvalidArgType = errors.New("binder: invalid argument type")

// Bind validates args against placeholders and converts them to
// database/sql arguments. On any error the caller is responsible for
// resetting/discarding the statement; database/sql does this implicitly
// when the *sql.Stmt is not reused for the failed call.
func Bind(query string, placeholders int, args []hostvalue.Value) ([]any, error) {
	if len(args) != placeholders {
		return nil, dberr.ArgMismatch(query, placeholders, len(args))
	}

	out := make([]any, len(args))
	for i, arg := range args {
		v, err := bindOne(arg)
		if err != nil {
			return nil, dberr.InvalidArgType(i, arg.Kind().String())
		}
		out[i] = v
	}
	return out, nil
}

func bindOne(v hostvalue.Value) (any, error) {
	switch v.Kind() {
	case hostvalue.KindNull, hostvalue.KindUndefined:
		return nil, nil
	case hostvalue.KindString:
		s, _ := v.AsString()
		return s, nil
	case hostvalue.KindNumber:
		n, _ := v.AsNumber()
		return n, nil
	case hostvalue.KindBool:
		b, _ := v.AsBool()
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, errInvalidArgType
	}
}
