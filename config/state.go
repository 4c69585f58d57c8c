// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// State is what the daemon publishes after every wallpaper change. The CLI
// answers `current` and `status` from this file without waking the daemon.
type State struct {
	OutputID    string
	CurrentPath string
	Mode        string
	CycleIndex  int
	CycleTotal  int
	Status      string
}

// stateMu serializes in-process writers; the advisory flock below covers
// CLI sibling processes reading concurrently.
var stateMu sync.Mutex

// WriteState publishes per-output state records to the state file. The file
// is rewritten whole under an exclusive advisory lock.
func WriteState(states []State) error {
	stateMu.Lock()
	defer stateMu.Unlock()

	f, err := os.OpenFile(StatePath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("config: state file: %w", err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("config: state file lock: %w", err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN) //nolint:errcheck

	w := bufio.NewWriter(f)
	for i, st := range states {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "output_id=%s\n", st.OutputID)
		fmt.Fprintf(w, "current_path=%s\n", st.CurrentPath)
		fmt.Fprintf(w, "mode=%s\n", st.Mode)
		fmt.Fprintf(w, "cycle_index=%d\n", st.CycleIndex)
		fmt.Fprintf(w, "cycle_total=%d\n", st.CycleTotal)
		fmt.Fprintf(w, "status=%s\n", st.Status)
	}
	return w.Flush()
}

// ReadState parses the state file back into records. Used by the CLI
// multiplexer; takes a shared lock so it never observes a half-written
// file.
func ReadState() ([]State, error) {
	f, err := os.Open(StatePath())
	if err != nil {
		return nil, fmt.Errorf("config: state file: %w", err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH); err != nil {
		return nil, fmt.Errorf("config: state file lock: %w", err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN) //nolint:errcheck

	var states []State
	var cur *State
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			cur = nil
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if cur == nil {
			states = append(states, State{})
			cur = &states[len(states)-1]
		}
		switch key {
		case "output_id":
			cur.OutputID = value
		case "current_path":
			cur.CurrentPath = value
		case "mode":
			cur.Mode = value
		case "cycle_index":
			cur.CycleIndex, _ = strconv.Atoi(value)
		case "cycle_total":
			cur.CycleTotal, _ = strconv.Atoi(value)
		case "status":
			cur.Status = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: state file: %w", err)
	}
	return states, nil
}

// WriteSetIndex writes the one-shot set-index file the CLI leaves for the
// daemon before raising SIGRTMIN.
func WriteSetIndex(idx int) error {
	if err := os.WriteFile(SetIndexPath(), []byte(strconv.Itoa(idx)+"\n"), 0o644); err != nil {
		return fmt.Errorf("config: set-index file: %w", err)
	}
	return nil
}

// TakeSetIndex consumes the set-index file: reads the integer and removes
// the file. ok is false when the file is absent — a SIGRTMIN with no file
// is a warning condition, not an error.
func TakeSetIndex() (idx int, ok bool, err error) {
	data, err := os.ReadFile(SetIndexPath())
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("config: set-index file: %w", err)
	}
	_ = os.Remove(SetIndexPath())

	idx, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false, fmt.Errorf("config: set-index file: %w", err)
	}
	return idx, true, nil
}
