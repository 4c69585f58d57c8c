// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package control

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gogpu/wallshade/config"
)

// sigRTMin mirrors the daemon's set-index signal.
const sigRTMin = 34

// kill escalation parameters.
const (
	killWait = 5 * time.Second
	killPoll = 100 * time.Millisecond
)

// Next asks the daemon to advance one cycle step. A daemon whose outputs
// have nothing to cycle is refused client-side, from the state file,
// without waking it.
func Next() error {
	pid, err := DaemonPID()
	if err != nil {
		return err
	}
	if !anyCycling() {
		return fmt.Errorf("control: cannot cycle: no output has more than one wallpaper")
	}
	return unix.Kill(pid, unix.SIGUSR1)
}

// Pause stops time-based cycling.
func Pause() error {
	pid, err := DaemonPID()
	if err != nil {
		return err
	}
	return unix.Kill(pid, unix.SIGUSR2)
}

// Resume restarts time-based cycling.
func Resume() error {
	pid, err := DaemonPID()
	if err != nil {
		return err
	}
	return unix.Kill(pid, unix.SIGCONT)
}

// Set jumps the cycle to idx. The index validates against the state file
// before the daemon is touched; the handoff is the two-write protocol of
// set-index file then SIGRTMIN.
func Set(idx int) error {
	pid, err := DaemonPID()
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("control: set index %d: must be non-negative", idx)
	}

	total := maxCycleTotal()
	if total < 2 {
		return fmt.Errorf("control: cannot cycle: no output has more than one wallpaper")
	}
	if idx >= total {
		return fmt.Errorf("control: set index %d out of range: cycle has %d entries", idx, total)
	}

	if err := config.WriteSetIndex(idx); err != nil {
		return err
	}
	return unix.Kill(pid, sigRTMin)
}

// Current returns the current wallpaper per output, one line each.
func Current() (string, error) {
	states, err := config.ReadState()
	if err != nil {
		return "", fmt.Errorf("control: no state available (is the daemon running?): %w", err)
	}
	var b strings.Builder
	for _, st := range states {
		fmt.Fprintf(&b, "%s: %s\n", st.OutputID, st.CurrentPath)
	}
	return b.String(), nil
}

// Status returns the full per-output state.
func Status() (string, error) {
	states, err := config.ReadState()
	if err != nil {
		return "", fmt.Errorf("control: no state available (is the daemon running?): %w", err)
	}
	running := "not running"
	if _, err := DaemonPID(); err == nil {
		running = "running"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "daemon: %s\n", running)
	for _, st := range states {
		fmt.Fprintf(&b, "%s: %s mode=%s", st.OutputID, st.Status, st.Mode)
		if st.CycleTotal > 1 {
			fmt.Fprintf(&b, " cycle=%d/%d", st.CycleIndex+1, st.CycleTotal)
		}
		fmt.Fprintf(&b, " %s\n", st.CurrentPath)
	}
	return b.String(), nil
}

// Kill stops the daemon: SIGTERM, then up to killWait of polling before
// escalating to SIGKILL.
func Kill() error {
	pid, err := DaemonPID()
	if err != nil {
		return err
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("control: kill %d: %w", pid, err)
	}

	deadline := time.Now().Add(killWait)
	for time.Now().Before(deadline) {
		if !Alive(pid) {
			return nil
		}
		time.Sleep(killPoll)
	}

	// Still alive: the teardown wedged somewhere past its own alarm.
	if err := unix.Kill(pid, unix.SIGKILL); err != nil && err != unix.ESRCH {
		return fmt.Errorf("control: SIGKILL %d: %w", pid, err)
	}
	return nil
}

// anyCycling reports whether any output publishes a usable cycle.
func anyCycling() bool {
	return maxCycleTotal() > 1
}

// maxCycleTotal is the largest cycle length any output publishes.
func maxCycleTotal() int {
	states, err := config.ReadState()
	if err != nil {
		return 0
	}
	total := 0
	for _, st := range states {
		if st.CycleTotal > total {
			total = st.CycleTotal
		}
	}
	return total
}
