// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package daemon

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestRequestNext_Clamps(t *testing.T) {
	d := New(nil)
	for i := 0; i < maxQueuedNext*3; i++ {
		d.RequestNext()
	}
	if got := d.nextRequested.Load(); got != maxQueuedNext {
		t.Errorf("next_requested = %d, want clamp at %d", got, maxQueuedNext)
	}
}

func TestRequestSetIndex(t *testing.T) {
	d := New(nil)
	if got := d.setIndexRequested.Load(); got != -1 {
		t.Fatalf("initial set_index_requested = %d, want -1", got)
	}
	d.RequestSetIndex(2)
	if got := d.setIndexRequested.Swap(-1); got != 2 {
		t.Errorf("set_index_requested = %d, want 2", got)
	}
}

func TestNextDeadline_IdleBlocks(t *testing.T) {
	d := New(nil)
	if got := d.nextDeadline(time.Now()); got != -1 {
		t.Errorf("idle deadline = %d, want -1 (block)", got)
	}
}

func TestNextDeadline_PendingCommandIsImmediate(t *testing.T) {
	d := New(nil)
	d.RequestNext()
	if got := d.nextDeadline(time.Now()); got != 0 {
		t.Errorf("deadline with queued next = %d, want 0", got)
	}

	d = New(nil)
	d.RequestSetIndex(1)
	if got := d.nextDeadline(time.Now()); got != 0 {
		t.Errorf("deadline with queued set = %d, want 0", got)
	}
}

func TestSigsetFor(t *testing.T) {
	set := sigsetFor([]int{int(unix.SIGTERM), sigRTMin})

	has := func(sig int) bool {
		return set.Val[(sig-1)/64]&(1<<uint((sig-1)%64)) != 0
	}
	if !has(int(unix.SIGTERM)) {
		t.Error("SIGTERM missing from set")
	}
	if !has(sigRTMin) {
		t.Error("SIGRTMIN missing from set")
	}
	if has(int(unix.SIGUSR1)) {
		t.Error("SIGUSR1 unexpectedly present")
	}
}

func TestIntervalFor(t *testing.T) {
	tests := []struct {
		fps  int
		want time.Duration
	}{
		{1, time.Second},
		{30, 33333333 * time.Nanosecond},
		{60, 16666666 * time.Nanosecond},
		{240, 4166666 * time.Nanosecond},
	}
	for _, tt := range tests {
		if got := intervalFor(tt.fps); got != tt.want {
			t.Errorf("intervalFor(%d) = %v, want %v", tt.fps, got, tt.want)
		}
	}
}

func TestFrameTimer_Expires(t *testing.T) {
	// A 100 FPS timer must fire within well under a second.
	fd, err := openFrameTimer(100)
	if err != nil {
		t.Fatal(err)
	}
	defer closeTimer(fd)

	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 500)
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Fatal("timer never fired")
	}
	if count := drainTimer(fd); count == 0 {
		t.Error("drain returned no expirations after poll readiness")
	}
}

func TestFrameTimer_PacesInterval(t *testing.T) {
	// 20 FPS: two expirations are about 50 ms apart.
	fd, err := openFrameTimer(20)
	if err != nil {
		t.Fatal(err)
	}
	defer closeTimer(fd)

	wait := func() time.Time {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if n, err := unix.Poll(fds, 1000); err != nil || n == 0 {
			t.Fatalf("timer did not fire (n=%d err=%v)", n, err)
		}
		drainTimer(fd)
		return time.Now()
	}

	first := wait()
	second := wait()
	if gap := second.Sub(first); gap < 40*time.Millisecond {
		t.Errorf("expirations %v apart, want ≈50ms", gap)
	}
}

func TestDrainSignals_EmptyFD(t *testing.T) {
	// An eventfd that never fires reads empty; drain must not block.
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		t.Fatal(err)
	}
	defer unix.Close(fd)

	if got := drainSignals(fd); len(got) != 0 {
		t.Errorf("drained %d signals from an empty fd", len(got))
	}
}
