// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

// Package control implements single-instance ownership via the PID file and
// the client side of the control plane: a second wallshade invocation
// routes its subcommand to the running daemon through signals and the
// runtime files.
package control

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/config"
)

// ReadPID returns the PID recorded in the PID file.
func ReadPID() (int, error) {
	data, err := os.ReadFile(config.PIDPath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("control: malformed pid file %s", config.PIDPath())
	}
	return pid, nil
}

// Alive reports whether a process with the given PID exists. Permission
// errors count as alive: the process is there, just not ours.
func Alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

// DaemonPID returns the live daemon's PID, or ErrNotRunning.
func DaemonPID() (int, error) {
	pid, err := ReadPID()
	if err != nil {
		return 0, wallshade.ErrNotRunning
	}
	if !Alive(pid) {
		return 0, wallshade.ErrNotRunning
	}
	return pid, nil
}

// AcquirePIDFile claims single-instance ownership. If the recorded PID is
// alive it returns ErrAlreadyRunning and the caller dispatches as a
// client; a stale file is replaced.
func AcquirePIDFile() error {
	if pid, err := ReadPID(); err == nil {
		if Alive(pid) {
			return wallshade.ErrAlreadyRunning
		}
		wallshade.Logger().Info("removing stale pid file", "pid", pid)
	}
	pid := os.Getpid()
	if err := os.WriteFile(config.PIDPath(), []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("control: pid file: %w", err)
	}
	return nil
}

// ReleasePIDFile removes the PID file if it still records this process.
func ReleasePIDFile() {
	if pid, err := ReadPID(); err == nil && pid == os.Getpid() {
		_ = os.Remove(config.PIDPath())
	}
}
