// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package config holds the functional options for opening a Connection, and
// the optional on-disk configuration loader used by cmd/coredb.
package config

import (
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v2"
)

// Options collects everything a Connection can be configured with at open
// time.
type Options struct {
	AndroidTempStore bool
	BusyTimeout      time.Duration
	RetryAttempts    uint
}

// Option mutates Options; Open(path, opts...) applies them in order.
type Option func(*Options)

// WithAndroidTempStore issues "pragma temp_store = memory;" in addition to
// the unconditional WAL pragma, for Android-flavored hosts.
func WithAndroidTempStore() Option {
	return func(o *Options) { o.AndroidTempStore = true }
}

// WithBusyTimeout issues "pragma busy_timeout = ?" at open.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *Options) { o.BusyTimeout = d }
}

// WithRetry bounds how many times "begin exclusive transaction" is retried
// on a transient SQLITE_BUSY before surfacing a DbError. attempts <= 1
// disables retrying.
func WithRetry(attempts uint) Option {
	return func(o *Options) { o.RetryAttempts = attempts }
}

// Resolve applies opts over the zero-value defaults.
func Resolve(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.RetryAttempts == 0 {
		o.RetryAttempts = 1
	}
	return o
}

// FileConfig is the shape cmd/coredb's optional YAML config file is decoded
// into before being turned into Options.
type FileConfig struct {
	Path             string `yaml:"path" koanf:"path"`
	AndroidTempStore bool   `yaml:"android_temp_store" koanf:"android_temp_store"`
	BusyTimeoutMs    int    `yaml:"busy_timeout_ms" koanf:"busy_timeout_ms"`
	RetryAttempts    uint   `yaml:"retry_attempts" koanf:"retry_attempts"`
}

// LoadFile decodes a YAML config file's bytes into a FileConfig via koanf's
// confmap provider. Only the file's contents pass through koanf; defaults
// are not merged here, and cmd/coredb layers the file's options after its
// own built-in options by appending them to the Option list.
func LoadFile(data []byte) (FileConfig, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return FileConfig{}, err
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(raw, "."), nil); err != nil {
		return FileConfig{}, err
	}

	var fc FileConfig
	if err := k.Unmarshal("", &fc); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

// ToOptions converts a decoded FileConfig into connection Options.
func (fc FileConfig) ToOptions() []Option {
	var opts []Option
	if fc.AndroidTempStore {
		opts = append(opts, WithAndroidTempStore())
	}
	if fc.BusyTimeoutMs > 0 {
		opts = append(opts, WithBusyTimeout(time.Duration(fc.BusyTimeoutMs)*time.Millisecond))
	}
	if fc.RetryAttempts > 0 {
		opts = append(opts, WithRetry(fc.RetryAttempts))
	}
	return opts
}
