// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
package dblog

import "github.com/rs/zerolog"

// Zerolog adapts a zerolog.Logger to the Logger interface, for hosts (such
// as cmd/coredb) that want structured logs instead of the default Noop.
type Zerolog struct {
	L zerolog.Logger
}

func (z Zerolog) Log(msg string, fields map[string]any) {
	ev := z.L.Info()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (z Zerolog) Error(msg string, err error, fields map[string]any) {
	ev := z.L.Error().Err(err)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

var _ Logger = Zerolog{}
