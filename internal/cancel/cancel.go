// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package cancel owns the single process-wide cancellation flag that
// every wipe worker polls between buffers (spec §5, §9 "Global mutable
// cancellation"). Ownership is explicit: a Flag is constructed once by
// whatever assembles the supervisor (normally cmd/nwipe's main) and
// passed down, rather than hidden behind a package-private global.
package cancel

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/jskoetsier/nwipe/internal/logging"
)

// Flag is a process-wide, concurrency-safe cancellation flag with an
// optional terminating signal number attached.
type Flag struct {
	terminate  int32
	userAbort  int32
	signal     int32
}

// New returns a fresh, unset cancellation flag.
func New() *Flag {
	return &Flag{}
}

// Set marks the flag as tripped. sig is the terminating signal number,
// or 0 if cancellation was not signal-induced (e.g. a UI quit command).
func (f *Flag) Set(sig syscall.Signal) {
	atomic.StoreInt32(&f.terminate, 1)
	atomic.StoreInt32(&f.userAbort, 1)
	if sig != 0 {
		atomic.StoreInt32(&f.signal, int32(sig))
	}
}

// Terminated reports whether cancellation has been requested.
func (f *Flag) Terminated() bool {
	return atomic.LoadInt32(&f.terminate) != 0
}

// UserAbort reports whether cancellation was triggered externally
// (signal or UI quit) rather than by an internal failure.
func (f *Flag) UserAbort() bool {
	return atomic.LoadInt32(&f.userAbort) != 0
}

// Signal returns the terminating signal number, or 0 if none.
func (f *Flag) Signal() int {
	return int(atomic.LoadInt32(&f.signal))
}

// InstallSignalHandlers starts a goroutine that maps SIGINT, SIGTERM,
// SIGHUP and SIGQUIT onto f, and SIGUSR1 onto a status-dump request
// delivered via statusDump. It returns a stop function that undoes the
// registration. Passing a nil statusDump is fine; SIGUSR1 is then
// logged and otherwise ignored.
func InstallSignalHandlers(f *Flag, statusDump func()) (stop func()) {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGUSR1)

	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGUSR1:
					logging.Noticef("received SIGUSR1, dumping status\n")
					if statusDump != nil {
						statusDump()
					}
				default:
					s, _ := sig.(syscall.Signal)
					logging.Warnf("received signal %v, cancelling\n", sig)
					f.Set(s)
				}

			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
