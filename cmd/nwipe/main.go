// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Command nwipe is the concrete CLI entry point spec.md names only as
// an external collaborator: it parses options, enumerates or opens
// the requested devices, optionally prompts for interactive
// selection, installs signal handlers, drives the supervisor, and
// writes the completion report.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/peterh/liner"

	"github.com/jskoetsier/nwipe/internal/cancel"
	"github.com/jskoetsier/nwipe/internal/config"
	"github.com/jskoetsier/nwipe/internal/device"
	"github.com/jskoetsier/nwipe/internal/logging"
	"github.com/jskoetsier/nwipe/internal/report"
	"github.com/jskoetsier/nwipe/internal/supervisor"
)

// DefaultReportPath is where the JSON completion summary is written
// after every run.
const DefaultReportPath = "/var/log/nwipe-report.json"

// DefaultSeedDir is where each device's captured PRNG seed is
// persisted, so cmd/nwipe-verify can replay its verify pass later.
const DefaultSeedDir = "/var/log/nwipe-seeds"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	opts, err := config.Parse(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nwipe: %v\n", err)
		return 1
	}

	if opts.Verbose {
		logging.SetLevel(logging.Debug)
	}
	if err := logging.Open(logging.DefaultLogPath); err != nil {
		logging.Warnf("could not open log file %s: %v\n", logging.DefaultLogPath, err)
	}
	defer logging.Close()

	flag := cancel.New()
	if !opts.NoSignals {
		stop := cancel.InstallSignalHandlers(flag, func() { logging.Noticef("status dump requested, not yet running\n") })
		defer stop()
	}

	specs, err := selectDevices(opts)
	if err != nil {
		logging.Fatalf("%v\n", err)
		return 1
	}

	if len(specs) == 0 {
		logging.Noticef("no devices selected, nothing to do\n")
		return 0
	}

	sup := supervisor.New(flag)
	if err := os.MkdirAll(DefaultSeedDir, 0755); err != nil {
		logging.Warnf("creating seed directory %s: %v\n", DefaultSeedDir, err)
	} else {
		sup.SetSeedDir(DefaultSeedDir)
	}
	_, summary := sup.Run(specs)

	if err := report.WriteJSON(DefaultReportPath, summary); err != nil {
		logging.Errorf("writing report: %v\n", err)
	}

	for _, d := range summary.Devices {
		logging.Noticef("%s: %s (%s)\n", d.Name, d.Outcome, humanize.Bytes(d.BytesTotal))
	}

	if summary.ExitCode != 0 {
		if opts.AutoPowerOff {
			logging.Warnf("skipping autopoweroff: run did not complete cleanly\n")
		}
		return 1
	}

	if opts.AutoPowerOff {
		autoPowerOff()
	}

	return 0
}

// selectDevices resolves the final device list: explicit positional
// paths are used as-is; otherwise every enumerated device is offered,
// either all at once (--autonuke) or via interactive liner selection.
func selectDevices(opts *config.Options) ([]supervisor.DeviceSpec, error) {
	var paths []string

	if len(opts.Devices) > 0 {
		paths = opts.Devices
	} else {
		infos, err := device.Enumerate(opts.ExcludeMounted)
		if err != nil {
			return nil, fmt.Errorf("enumerating devices: %w", err)
		}

		if opts.Autonuke || opts.Headless {
			for _, info := range infos {
				paths = append(paths, info.Path)
			}
		} else {
			paths, err = promptForDevices(infos)
			if err != nil {
				return nil, err
			}
		}
	}

	specs := make([]supervisor.DeviceSpec, 0, len(paths))
	for _, p := range paths {
		specs = append(specs, supervisor.DeviceSpec{
			Path:   p,
			Method: opts.Method,
			PRNG:   opts.PRNG,
			Rounds: opts.Rounds,
			Verify: opts.Verify,
		})
	}

	return specs, nil
}

// promptForDevices runs the interactive device-selection prompt,
// grounded on the teacher's own liner.NewLiner/Prompt usage pattern
// (calvinalkan-agent-task/cmd/sloty/main.go).
func promptForDevices(infos []device.Info) ([]string, error) {
	if len(infos) == 0 {
		return nil, nil
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("Devices found:")
	for i, info := range infos {
		fmt.Printf("  [%d] %-16s %-20s %s\n", i+1, info.Path, info.Identity.Model, humanize.Bytes(info.Size))
	}

	input, err := line.Prompt("Select devices to wipe (comma-separated numbers, or 'all'): ")
	if err != nil {
		if err == liner.ErrPromptAborted {
			return nil, nil
		}
		return nil, fmt.Errorf("reading selection: %w", err)
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if strings.EqualFold(input, "all") {
		paths := make([]string, len(infos))
		for i, info := range infos {
			paths[i] = info.Path
		}
		return paths, nil
	}

	var paths []string
	for _, tok := range strings.Split(input, ",") {
		tok = strings.TrimSpace(tok)
		var idx int
		if _, err := fmt.Sscanf(tok, "%d", &idx); err != nil || idx < 1 || idx > len(infos) {
			return nil, fmt.Errorf("invalid selection %q", tok)
		}
		paths = append(paths, infos[idx-1].Path)
	}

	return paths, nil
}

func autoPowerOff() {
	logging.Noticef("run completed, powering off in one minute\n")
	if err := exec.Command("shutdown", "-h", "+1").Run(); err != nil {
		logging.Errorf("autopoweroff: %v\n", err)
	}
}
