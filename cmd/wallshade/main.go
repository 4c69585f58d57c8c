// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

// Command wallshade is the GPU wallpaper daemon for Wayland and X11.
//
// Without a subcommand it daemonizes (or stays in the foreground with -f).
// When a daemon is already running, subcommands talk to it:
//
//	wallshade next        advance the wallpaper cycle
//	wallshade pause       pause time-based cycling
//	wallshade resume      resume time-based cycling
//	wallshade set <idx>   jump to a cycle index
//	wallshade current     print the current wallpaper per output
//	wallshade status      print full daemon state
//	wallshade kill        stop the daemon
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/gogpu/wallshade"
	"github.com/gogpu/wallshade/config"
	"github.com/gogpu/wallshade/control"
	"github.com/gogpu/wallshade/daemon"

	// Compositor backends register themselves.
	_ "github.com/gogpu/wallshade/backend/wayland"
	_ "github.com/gogpu/wallshade/backend/x11"
)

// daemonEnvMarker tells a re-exec'd child it is the detached daemon.
const daemonEnvMarker = "_WALLSHADE_DAEMONIZED"

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("wallshade", flag.ContinueOnError)
	foreground := fs.Bool("f", false, "run in the foreground")
	fs.BoolVar(foreground, "foreground", *foreground, "run in the foreground")
	configPath := fs.String("c", "", "configuration file path")
	verbose := fs.Bool("v", false, "verbose (debug) logging")
	version := fs.Bool("V", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: wallshade [-f] [-c PATH] [-v] [-V] [command]\n")
		fmt.Fprintf(os.Stderr, "commands: kill next pause resume set <idx> current status\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *version {
		fmt.Println("wallshade", wallshade.Version)
		return 0
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	wallshade.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if cmd := fs.Arg(0); cmd != "" {
		return runClient(cmd, fs.Args()[1:])
	}
	return runDaemon(*configPath, *foreground, *verbose)
}

// runClient dispatches a subcommand against the running daemon.
func runClient(cmd string, args []string) int {
	var err error
	switch cmd {
	case "next":
		err = control.Next()
	case "pause":
		err = control.Pause()
	case "resume":
		err = control.Resume()
	case "set":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "usage: wallshade set <idx>")
			return 2
		}
		idx, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			fmt.Fprintf(os.Stderr, "wallshade: set: %q is not an index\n", args[0])
			return 2
		}
		err = control.Set(idx)
	case "current":
		var out string
		if out, err = control.Current(); err == nil {
			fmt.Print(out)
		}
	case "status":
		var out string
		if out, err = control.Status(); err == nil {
			fmt.Print(out)
		}
	case "kill":
		err = control.Kill()
	default:
		fmt.Fprintf(os.Stderr, "wallshade: unknown command %q\n", cmd)
		return 2
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// runDaemon loads configuration, claims the instance and runs the event
// loop, re-execing into the background first unless -f was given.
func runDaemon(configPath string, foreground, verbose bool) int {
	if err := control.AcquirePIDFile(); err != nil {
		if errors.Is(err, wallshade.ErrAlreadyRunning) {
			fmt.Fprintln(os.Stderr, "wallshade: daemon already running (try `wallshade status`)")
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}

	if !foreground && os.Getenv(daemonEnvMarker) == "" {
		control.ReleasePIDFile() // the child claims its own
		return daemonize(configPath, verbose)
	}
	defer control.ReleasePIDFile()

	entries := loadEntries(configPath)
	if err := daemon.New(entries).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// loadEntries resolves the configuration: explicit path, default path
// (template-created on first run), then built-in defaults on any failure.
func loadEntries(configPath string) []config.Entry {
	log := wallshade.Logger()
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) && configPath == "" {
		if werr := config.WriteTemplate(path); werr == nil {
			log.Info("wrote default configuration", "path", path)
		}
	}

	entries, err := config.Load(path)
	if err != nil {
		log.Warn("configuration unusable, falling back to built-in defaults",
			"path", path, "error", err)
		return config.BuiltinDefault()
	}
	return entries
}

// daemonize re-executes this binary detached in its own session. The child
// reacquires the PID file.
func daemonize(configPath string, verbose bool) int {
	args := []string{"-f"}
	if configPath != "" {
		args = append(args, "-c", configPath)
	}
	if verbose {
		args = append(args, "-v")
	}

	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintln(os.Stderr, "wallshade:", err)
		return 1
	}

	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), daemonEnvMarker+"=1")
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "wallshade:", err)
		return 1
	}
	fmt.Printf("wallshade: daemon started (pid %d)\n", cmd.Process.Pid)
	return 0
}
