// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package config loads and reference-counts the probing library's
// global configuration (cache file location, tag evaluation order,
// probe-off filter), mirroring blkid.conf in the original C library.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mvo5/goconfigparser"

	"github.com/snapcore/blkid/dirs"
	"github.com/snapcore/blkid/logger"
)

// EvalMethod is a tag-evaluation strategy, tried in configured order
// when resolving a NAME=value tag back to a device path.
type EvalMethod int

const (
	EvalUdev EvalMethod = iota
	EvalScan
)

func (m EvalMethod) String() string {
	switch m {
	case EvalUdev:
		return "udev"
	case EvalScan:
		return "scan"
	default:
		return "unknown"
	}
}

// Config is the reference-counted configuration object. It is never
// mutated after Read returns; Ref/Unref only track liveness so that
// several Probe/Cache handles can share one instance.
type Config struct {
	refcount int

	CacheFile string
	Eval      []EvalMethod
	SendUevent bool
	ProbeOff  []string
}

// Ref increments the reference count.
func (c *Config) Ref() {
	if c != nil {
		c.refcount++
	}
}

// Unref decrements the reference count; callers must not use c again
// once the count reaches zero.
func (c *Config) Unref() {
	if c == nil {
		return
	}
	c.refcount--
}

// Refcount reports the current reference count, exposed for tests.
func (c *Config) Refcount() int {
	return c.refcount
}

// Default returns the built-in configuration used when no config file
// is present, matching blkid_read_config()'s fallback path.
func Default() *Config {
	return &Config{
		refcount:   1,
		CacheFile:  dirs.CacheFile,
		Eval:       []EvalMethod{EvalUdev, EvalScan},
		SendUevent: true,
	}
}

// Read loads dirs.ConfigFile, or returns Default() if it does not
// exist. A malformed file is a hard error, matching the C
// implementation's refusal to guess at a broken config.
func Read() (*Config, error) {
	f, err := os.Open(dirs.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debugf("%s: does not exist, using built-in default", dirs.ConfigFile)
			return Default(), nil
		}
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

// knownConfigKeys is the full set of keys blkid.conf recognizes; any
// other key in the file is a hard parse error rather than something to
// silently ignore.
var knownConfigKeys = map[string]bool{
	"SEND_UEVENT": true,
	"CACHE_FILE":  true,
	"EVALUATE":    true,
	"PROBE_OFF":   true,
}

func parse(f *os.File) (*Config, error) {
	cp := goconfigparser.New()
	cp.AllowNoSectionHeader = true
	if err := cp.Read(f); err != nil {
		return nil, fmt.Errorf("%s: parse error: %w", dirs.ConfigFile, err)
	}

	keys, err := cp.Options("")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dirs.ConfigFile, err)
	}
	for _, k := range keys {
		if !knownConfigKeys[k] {
			return nil, fmt.Errorf("%s: unknown configuration key %q", dirs.ConfigFile, k)
		}
	}

	cfg := &Config{refcount: 1, SendUevent: true}

	if v, err := cp.Get("", "SEND_UEVENT"); err == nil {
		cfg.SendUevent = strings.EqualFold(v, "yes")
	}
	if v, err := cp.Get("", "CACHE_FILE"); err == nil && v != "" {
		cfg.CacheFile = v
	}
	if v, err := cp.Get("", "EVALUATE"); err == nil && v != "" {
		methods, err := parseEvaluate(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dirs.ConfigFile, err)
		}
		cfg.Eval = methods
	}
	if v, err := cp.Get("", "PROBE_OFF"); err == nil && v != "" {
		cfg.ProbeOff = strings.Split(v, ",")
	}

	if cfg.CacheFile == "" {
		cfg.CacheFile = dirs.CacheFile
	}
	if len(cfg.Eval) == 0 {
		cfg.Eval = []EvalMethod{EvalUdev, EvalScan}
	}
	return cfg, nil
}

func parseEvaluate(s string) ([]EvalMethod, error) {
	var methods []EvalMethod
	for _, part := range strings.Split(s, ",") {
		switch part {
		case "udev":
			methods = append(methods, EvalUdev)
		case "scan":
			methods = append(methods, EvalScan)
		default:
			return nil, fmt.Errorf("unknown evaluation method %q", part)
		}
	}
	return methods, nil
}
