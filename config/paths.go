// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/wallshade"
)

// appName names every file wallshade places on disk.
const appName = "wallshade"

// DefaultPath returns the configuration file location:
// $XDG_CONFIG_HOME/wallshade/wallshade.conf, falling back to
// ~/.config/wallshade/wallshade.conf.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, appName+".conf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", appName, appName+".conf")
}

// RuntimeDir returns where the PID, state and set-index files live:
// $XDG_RUNTIME_DIR, then $HOME, then /tmp.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.TempDir()
}

// PIDPath returns the PID file path.
func PIDPath() string {
	return filepath.Join(RuntimeDir(), appName+".pid")
}

// StatePath returns the published state file path.
func StatePath() string {
	return filepath.Join(RuntimeDir(), appName+"-state")
}

// SetIndexPath returns the one-shot set-index file path.
func SetIndexPath() string {
	return filepath.Join(RuntimeDir(), appName+"-set-index")
}

// wallpaperProbeDirs are checked, in order, when no configuration names a
// source.
var wallpaperProbeDirs = []string{
	"/usr/share/backgrounds",
	"/usr/share/wallpapers",
}

// BuiltinDefault returns the fallback configuration used when no config
// file exists or the existing one fails validation: the first common
// wallpaper directory that yields images, applied to every output. When
// nothing is found the entry carries no cycle paths and the renderer shows
// a solid black frame.
func BuiltinDefault() []Entry {
	w := Wallpaper{
		Mode:               ModeImage,
		Display:            DisplayFill,
		Transition:         TransitionFade,
		TransitionDuration: time.Second / 2,
		ShaderSpeed:        1.0,
		ShaderFPS:          60,
		VSync:              true,
	}

	probe := append([]string(nil), wallpaperProbeDirs...)
	if home, err := os.UserHomeDir(); err == nil {
		probe = append(probe,
			filepath.Join(home, "Pictures", "Wallpapers"),
			filepath.Join(home, "Pictures"),
		)
	}
	for _, dir := range probe {
		expandSource(&w, dir+string(filepath.Separator), imageExtensions)
		if w.Path != "" {
			wallshade.Logger().Info("using probed wallpaper directory", "path", dir)
			break
		}
	}
	return []Entry{{Selector: "default", Wallpaper: w}}
}

// configTemplate is written on first run so the user has something to edit.
const configTemplate = `# wallshade configuration
#
# One block per output, selected by connector name (output.HDMI-A-2),
# monitor model, or "default" for everything not otherwise matched.
#
# Image mode keys:
#   path        image file, or directory (trailing /) for a cycle
#   mode        center | stretch | fit | fill | tile
#   transition  none | fade | slide-left | slide-right | glitch | pixelate
#   transition_duration  seconds, 0-10
#
# Shader mode keys:
#   shader        shader file, or directory for a cycle
#   shader_speed  iTime multiplier, (0, 100]
#   shader_fps    target FPS when vsync false, 1-240
#   vsync         true | false
#   channels      up to 4 iChannel texture paths
#
# Shared keys:
#   duration   cycle interval in seconds (0 disables)
#   show_fps   true | false

default {
    path /usr/share/backgrounds/
    mode fill
    duration 600
    transition fade
    transition_duration 0.5
}
`

// WriteTemplate writes the commented default configuration, creating
// parent directories. Existing files are left alone.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
