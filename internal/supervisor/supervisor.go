// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package supervisor is the worker supervisor spec.md §4.5 describes:
// it opens every selected device, spawns one wipeengine per
// successfully opened device, waits for them all (or for
// cancellation), and aggregates their exit codes into a run-level
// summary. Grounded on the teacher's own per-target worker fan-out in
// src/sibench/main.go's startRun/Manager.Run, generalized from one
// shared benchmark job to one independent wipeengine per device.
package supervisor

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jskoetsier/nwipe/internal/cancel"
	"github.com/jskoetsier/nwipe/internal/device"
	"github.com/jskoetsier/nwipe/internal/logging"
	"github.com/jskoetsier/nwipe/internal/report"
	"github.com/jskoetsier/nwipe/internal/wipeengine"
)

// DeviceSpec is one device the caller has selected to wipe.
type DeviceSpec struct {
	Path   string
	Method string
	PRNG   string
	Rounds int
	Verify bool
}

// opener abstracts device.Open so tests can substitute an in-memory
// device without touching a real block device.
type opener func(path string) (wipeengine.Handle, device.Info, error)

// Supervisor owns the cancellation flag shared by every worker it
// spawns (spec.md §9: "make ownership explicit at supervisor
// construction").
type Supervisor struct {
	cancel  *cancel.Flag
	open    opener
	seedDir string
}

// New returns a Supervisor driven by the given cancellation flag.
func New(cancelFlag *cancel.Flag) *Supervisor {
	return &Supervisor{cancel: cancelFlag, open: device.Open}
}

// SetSeedDir enables persisting each device's captured PRNG seed as a
// JSON file under dir once its run finishes, for later replay via
// cmd/nwipe-verify. An empty dir (the default) disables persistence.
func (s *Supervisor) SetSeedDir(dir string) {
	s.seedDir = dir
}

func (s *Supervisor) seedFilePath(deviceName string) string {
	base := strings.ReplaceAll(strings.TrimPrefix(deviceName, "/"), "/", "_")
	return filepath.Join(s.seedDir, fmt.Sprintf("%s.seed.json", base))
}

// Run opens every spec's device, spawns one worker per successfully
// opened device, waits for all of them, and returns the aggregated
// summary plus each device's finished context (for a caller that
// wants to inspect individual progress snapshots after the run).
func (s *Supervisor) Run(specs []DeviceSpec) ([]*wipeengine.Context, report.Summary) {
	var (
		contexts []*wipeengine.Context
		wg       sync.WaitGroup
	)

	for _, spec := range specs {
		handle, info, err := s.open(spec.Path)
		if err != nil {
			logging.Warnf("supervisor: %s: open failed, skipping: %v\n", spec.Path, err)
			continue
		}

		ctx := wipeengine.NewContext(spec.Path, handle, info.Size, info.SectorSize, spec.Method, spec.PRNG, spec.Rounds, spec.Verify)
		ctx.Identity = info.Identity
		ctx.Select = wipeengine.Selected

		engine, err := wipeengine.New(ctx, s.cancel)
		if err != nil {
			logging.Errorf("supervisor: %s: %v\n", spec.Path, err)
			handle.Close()
			continue
		}

		contexts = append(contexts, ctx)

		wg.Add(1)
		go func(e *wipeengine.Engine, ctx *wipeengine.Context, spec DeviceSpec) {
			defer wg.Done()
			e.Run()
			if s.seedDir != "" {
				if seed := e.LastSeed(); seed != nil {
					rec := wipeengine.NewSeedRecord(ctx.DeviceName, spec.PRNG, seed)
					if err := wipeengine.WriteSeedFile(s.seedFilePath(ctx.DeviceName), rec); err != nil {
						logging.Warnf("supervisor: %s: writing seed file: %v\n", ctx.DeviceName, err)
					}
				}
			}
			ctx.Handle.Close()
		}(engine, ctx, spec)
	}

	s.waitWithHeartbeat(&wg, contexts)

	results := make([]report.DeviceResult, 0, len(contexts))
	for _, ctx := range contexts {
		results = append(results, report.FromContext(ctx))
	}

	return contexts, report.BuildSummary(results)
}

// waitWithHeartbeat blocks until every worker finishes, logging a
// status line at least once a second in the meantime (spec.md §4.5:
// "periodically (≥ 1 Hz) polls the cancellation flag and the workers'
// wipe_status").
func (s *Supervisor) waitWithHeartbeat(wg *sync.WaitGroup, contexts []*wipeengine.Context) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			running := 0
			for _, ctx := range contexts {
				if ctx.Progress.Status() != 0 && ctx.Progress.Status() != -1 {
					running++
				}
			}
			logging.Debugf("supervisor: %d/%d devices still running (cancelled=%v)\n", running, len(contexts), s.cancel.Terminated())
		}
	}
}
