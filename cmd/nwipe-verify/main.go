// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Command nwipe-verify is a standalone spot-audit tool: given a
// device and a seed file previously written by cmd/nwipe, it re-runs
// just the PRNG verify pass against the device, without re-wiping it.
// It shares internal/wipeengine's verify pass driver rather than
// reimplementing the comparison logic.
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	flag "github.com/spf13/pflag"

	"github.com/jskoetsier/nwipe/internal/cancel"
	"github.com/jskoetsier/nwipe/internal/device"
	"github.com/jskoetsier/nwipe/internal/logging"
	"github.com/jskoetsier/nwipe/internal/wipeengine"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("nwipe-verify", flag.ContinueOnError)
	seedPath := fs.StringP("seed-file", "s", "", "path to a seed file written by nwipe (required)")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")

	if err := fs.Parse(argv); err != nil {
		return 2
	}

	if *verbose {
		logging.SetLevel(logging.Debug)
	}

	args := fs.Args()
	if *seedPath == "" || len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: nwipe-verify -s SEED_FILE DEVICE")
		return 2
	}
	devicePath := args[0]

	rec, seed, err := wipeengine.ReadSeedFile(*seedPath)
	if err != nil {
		logging.Errorf("%v\n", err)
		return 1
	}

	handle, info, err := device.Open(devicePath)
	if err != nil {
		logging.Errorf("opening %s: %v\n", devicePath, err)
		return 1
	}
	defer handle.Close()

	ctx := wipeengine.NewContext(devicePath, handle, info.Size, info.SectorSize, "zero", rec.PRNG, 1, true)
	ctx.Identity = info.Identity
	ctx.Select = wipeengine.Selected

	engine, err := wipeengine.New(ctx, cancel.New())
	if err != nil {
		logging.Errorf("%v\n", err)
		return 1
	}

	logging.Noticef("replaying %s verify pass against %s using seed from %s\n", rec.PRNG, devicePath, *seedPath)

	if err := engine.ReplayVerify(seed); err != nil {
		logging.Errorf("verify failed: %v\n", err)
		return 1
	}

	logging.Noticef("%s: verify replay succeeded, %s match\n", devicePath, humanize.Bytes(info.Size))
	return 0
}
