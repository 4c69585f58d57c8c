// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package control

import (
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"testing"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/config"
)

func TestAlive(t *testing.T) {
	if !Alive(os.Getpid()) {
		t.Error("our own pid must be alive")
	}
	// PID beyond the default pid_max is never allocated.
	if Alive(1 << 22) {
		t.Error("absurd pid reported alive")
	}
}

func TestAcquirePIDFile(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	if err := AcquirePIDFile(); err != nil {
		t.Fatal(err)
	}
	pid, err := ReadPID()
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid file holds %d, want %d", pid, os.Getpid())
	}

	// A second acquisition from the same (alive) process refuses.
	if err := AcquirePIDFile(); !errors.Is(err, wallshade.ErrAlreadyRunning) {
		t.Errorf("second acquire: %v, want ErrAlreadyRunning", err)
	}

	ReleasePIDFile()
	if _, err := ReadPID(); err == nil {
		t.Error("pid file survived release")
	}
}

func TestAcquirePIDFile_StaleReplaced(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	// A pid that cannot exist marks the file stale.
	if err := os.WriteFile(config.PIDPath(), []byte(strconv.Itoa(1<<22)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AcquirePIDFile(); err != nil {
		t.Fatalf("stale pid file not replaced: %v", err)
	}
	t.Cleanup(ReleasePIDFile)

	pid, err := ReadPID()
	if err != nil || pid != os.Getpid() {
		t.Errorf("pid = %d (err %v), want %d", pid, err, os.Getpid())
	}
}

func TestDaemonPID_NotRunning(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	if _, err := DaemonPID(); !errors.Is(err, wallshade.ErrNotRunning) {
		t.Errorf("got %v, want ErrNotRunning", err)
	}
}

// seedState publishes a synthetic state file and a pid file pointing at
// this test process so client validation paths run.
func seedState(t *testing.T, cycleTotal int) {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	if err := AcquirePIDFile(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ReleasePIDFile)
	err := config.WriteState([]config.State{{
		OutputID:    "HDMI-A-2",
		CurrentPath: "/tmp/a.png",
		Mode:        "image",
		CycleIndex:  0,
		CycleTotal:  cycleTotal,
		Status:      "ok",
	}})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSet_OutOfRange(t *testing.T) {
	seedState(t, 5)

	if err := Set(7); err == nil {
		t.Fatal("set 7 with a 5-entry cycle must fail")
	}
	// The refusal happens before the two-write handoff starts.
	if _, err := os.Stat(config.SetIndexPath()); !os.IsNotExist(err) {
		t.Error("set-index file written despite validation failure")
	}
}

func TestSet_Valid(t *testing.T) {
	seedState(t, 5)

	// Set signals SIGRTMIN at the recorded PID, which is this process;
	// capture it so the default disposition does not kill the test.
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.Signal(sigRTMin))
	defer signal.Stop(ch)

	if err := Set(2); err != nil {
		t.Fatal(err)
	}
	idx, ok, err := config.TakeSetIndex()
	if err != nil || !ok || idx != 2 {
		t.Errorf("set-index file = (%d, %v, %v), want (2, true, nil)", idx, ok, err)
	}
}

func TestNext_CannotCycle(t *testing.T) {
	seedState(t, 1)

	if err := Next(); err == nil {
		t.Fatal("next with a one-entry cycle must fail")
	}
}

func TestCurrentAndStatus(t *testing.T) {
	seedState(t, 3)

	cur, err := Current()
	if err != nil {
		t.Fatal(err)
	}
	if cur != "HDMI-A-2: /tmp/a.png\n" {
		t.Errorf("current = %q", cur)
	}

	status, err := Status()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"daemon: running", "HDMI-A-2", "cycle=1/3", "mode=image"} {
		if !strings.Contains(status, want) {
			t.Errorf("status missing %q in %q", want, status)
		}
	}
}
