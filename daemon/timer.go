// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package daemon

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// openFrameTimer creates a nonblocking CLOCK_MONOTONIC timerfd firing every
// 1/fps seconds, with the same initial delay.
func openFrameTimer(fps int) (int, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return -1, fmt.Errorf("daemon: timerfd_create: %w", err)
	}
	if err := armFrameTimer(fd, fps); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// armFrameTimer programs the interval for a target FPS.
func armFrameTimer(fd int, fps int) error {
	if fps < 1 {
		fps = 1
	}
	interval := intervalFor(fps)
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(interval.Nanoseconds()),
		Value:    unix.NsecToTimespec(interval.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(fd, 0, &spec, nil); err != nil {
		return fmt.Errorf("daemon: timerfd_settime: %w", err)
	}
	return nil
}

// intervalFor converts a target FPS to a frame interval.
func intervalFor(fps int) time.Duration {
	return time.Duration(int64(time.Second) / int64(fps))
}

// drainTimer consumes the expiration count so the fd stops polling
// readable. Returns the number of missed intervals (usually 1).
func drainTimer(fd int) uint64 {
	var buf [8]byte
	n, err := unix.Read(fd, buf[:])
	if n != 8 || err != nil {
		return 0
	}
	var count uint64
	for i := 0; i < 8; i++ {
		count |= uint64(buf[i]) << (8 * i)
	}
	return count
}

// closeTimer releases a frame timer fd.
func closeTimer(fd int) {
	if fd >= 0 {
		unix.Close(fd)
	}
}
