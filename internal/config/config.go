// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package config is the CLI-flags-plus-optional-file ambient layer
// spec.md §6 describes only as "command-line parsing and option
// defaults," named as an external collaborator. It resolves Options
// with a defaults → config file → CLI flags precedence chain, the
// same chain calvinalkan-agent-task's config.go documents and applies
// for its own tool.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/docopt/docopt-go"
	"github.com/tailscale/hujson"
)

// DefaultConfigPath is where an optional JSON-with-comments config
// file is read from when --config is not given.
const DefaultConfigPath = "/etc/nwipe.conf"

// Options is the fully resolved set of knobs a run needs, after
// defaults, an optional config file, and CLI flags are merged.
type Options struct {
	Autonuke       bool
	ExcludeMounted bool
	Headless       bool
	TraditionalUI  bool
	NoWait         bool
	NoSignals      bool
	AutoPowerOff   bool
	Verbose        bool
	PRNG           string
	Method         string
	Rounds         int // 0 means unspecified: the chosen method's own default round count applies
	Verify         bool
	Devices        []string
}

// fileOverrides mirrors Options' overridable fields for hujson
// decoding; every field is a pointer so "absent" and "explicitly
// zero value" can be told apart, the same distinction
// calvinalkan-agent-task's parseConfig draws for "explicitly empty."
type fileOverrides struct {
	PRNG   *string `json:"prng,omitempty"`
	Method *string `json:"method,omitempty"`
	Rounds *int    `json:"rounds,omitempty"`
	Verify *bool   `json:"verify,omitempty"`
}

func usage() string {
	return `nwipe.

Usage:
  nwipe [options] [<device>...]

Options:
  -a, --autonuke            Skip interactive selection; wipe every enumerated device.
  -e, --exclude-mounted     Exclude devices currently mounted.
  -g, --nogui               Run headless, with no interactive interface.
  -t, --traditional-ui      Use the terminal UI instead of the modern GUI.
  -h, --nowait              Do not wait for acknowledgement after completion.
  -l, --nosignals           Do not install signal handlers.
  -p, --autopoweroff        Power off the system one minute after a successful run.
  -v, --verbose             Enable debug-level logging.
  -P NAME, --prng NAME      PRNG to use.
  -m NAME, --method NAME    Method to use.
  -r N, --rounds N          Number of rounds.
  -V, --verify              Verify each pass after writing it.
  --config PATH             Optional hujson config file.
`
}

// rawArgs is docopt's bind target; field names are matched against
// flag names with dashes stripped, the same tagless convention the
// teacher's own Arguments struct in src/sibench/main.go uses.
type rawArgs struct {
	Autonuke       bool
	ExcludeMounted bool
	Nogui          bool
	TraditionalUi  bool
	Nowait         bool
	Nosignals      bool
	Autopoweroff   bool
	Verbose        bool
	Prng           string
	Method         string
	Rounds         string
	Verify         bool
	Config         string
	Device         []string
}

// Parse resolves Options from argv, applying defaults, then an
// optional config file (--config, else DefaultConfigPath if present),
// then CLI flags, in that order of increasing precedence.
func Parse(argv []string) (*Options, error) {
	parsed, err := docopt.ParseArgs(usage(), argv, "")
	if err != nil {
		return nil, fmt.Errorf("config: parse arguments: %w", err)
	}

	var args rawArgs
	if err := parsed.Bind(&args); err != nil {
		return nil, fmt.Errorf("config: bind arguments: %w", err)
	}

	opts := &Options{
		PRNG:   "isaac",
		Method: "ops2",
		Rounds: 0, // unset: method.Resolve applies the method's own catalog default (e.g. 3 for ops2)
	}

	configPath := args.Config
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	if err := applyConfigFile(opts, configPath, args.Config != ""); err != nil {
		return nil, err
	}

	opts.Autonuke = args.Autonuke
	opts.ExcludeMounted = args.ExcludeMounted
	opts.Headless = args.Nogui
	opts.TraditionalUI = args.TraditionalUi
	opts.NoWait = args.Nowait
	opts.NoSignals = args.Nosignals
	opts.AutoPowerOff = args.Autopoweroff
	opts.Verbose = args.Verbose
	opts.Verify = opts.Verify || args.Verify
	opts.Devices = args.Device

	if args.Prng != "" {
		opts.PRNG = args.Prng
	}
	if args.Method != "" {
		opts.Method = args.Method
	}
	if args.Rounds != "" {
		var n int
		if _, err := fmt.Sscanf(args.Rounds, "%d", &n); err != nil || n < 1 {
			return nil, fmt.Errorf("config: invalid --rounds %q: want an integer ≥ 1", args.Rounds)
		}
		opts.Rounds = n
	}

	return opts, nil
}

// applyConfigFile overlays a hujson config file's contents onto opts.
// required is true only when the path came from an explicit --config
// flag, in which case a missing file is an error rather than silently
// ignored.
func applyConfigFile(opts *Options, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("config: invalid JSONC in %s: %w", path, err)
	}

	var overrides fileOverrides
	if err := json.Unmarshal(standardized, &overrides); err != nil {
		return fmt.Errorf("config: invalid config %s: %w", path, err)
	}

	if overrides.PRNG != nil {
		opts.PRNG = *overrides.PRNG
	}
	if overrides.Method != nil {
		opts.Method = *overrides.Method
	}
	if overrides.Rounds != nil {
		opts.Rounds = *overrides.Rounds
	}
	if overrides.Verify != nil {
		opts.Verify = *overrides.Verify
	}

	return nil
}
