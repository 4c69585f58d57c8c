// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package daemon

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sigRTMin is the first POSIX real-time signal as user space sees it
// (glibc reserves the two kernel slots below it).
const sigRTMin = 34

// controlSignals is the set the daemon consumes through its signalfd.
var controlSignals = []int{
	int(unix.SIGTERM),
	int(unix.SIGINT),
	int(unix.SIGUSR1),
	int(unix.SIGUSR2),
	int(unix.SIGCONT),
	sigRTMin,
}

// sigsetFor builds a Sigset_t containing the given signals.
func sigsetFor(signals []int) *unix.Sigset_t {
	var set unix.Sigset_t
	for _, sig := range signals {
		set.Val[(sig-1)/64] |= 1 << uint((sig-1)%64)
	}
	return &set
}

// openSignalFD blocks the control signals process-wide and returns a
// nonblocking signalfd delivering them. All signals flow through the event
// loop; traditional handlers stay reserved for fatal conditions.
func openSignalFD() (int, error) {
	set := sigsetFor(controlSignals)
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, set, nil); err != nil {
		return -1, fmt.Errorf("daemon: sigprocmask: %w", err)
	}
	fd, err := unix.Signalfd(-1, set, unix.SFD_NONBLOCK|unix.SFD_CLOEXEC)
	if err != nil {
		return -1, fmt.Errorf("daemon: signalfd: %w", err)
	}
	return fd, nil
}

// signalfdSiginfo is the fixed-size record the kernel writes per signal.
const signalfdSiginfoSize = 128

// drainSignals reads every queued signal number from the signalfd.
func drainSignals(fd int) []uint32 {
	var signos []uint32
	buf := make([]byte, signalfdSiginfoSize*8)
	for {
		n, err := unix.Read(fd, buf)
		if n <= 0 || err != nil {
			return signos
		}
		for off := 0; off+signalfdSiginfoSize <= n; off += signalfdSiginfoSize {
			signo := *(*uint32)(unsafe.Pointer(&buf[off]))
			signos = append(signos, signo)
		}
	}
}
