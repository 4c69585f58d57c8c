// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/wallshade"
)

// imageExtensions are the file types the decoder handles.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// shaderExtensions are the file types the shader host accepts.
var shaderExtensions = map[string]bool{
	".glsl": true,
	".frag": true,
	".fs":   true,
}

// IsImagePath reports whether the path has a decodable image extension.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsShaderPath reports whether the path has a shader extension.
func IsShaderPath(path string) bool {
	return shaderExtensions[strings.ToLower(filepath.Ext(path))]
}

// validate turns raw blocks into validated entries. Unknown keys are
// linted (logged, not fatal); out-of-range values are errors.
func validate(path string, blocks []rawBlock) ([]Entry, error) {
	entries := make([]Entry, 0, len(blocks))
	for _, b := range blocks {
		w, err := validateBlock(path, b)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Selector: b.selector, Wallpaper: w})
	}
	return entries, nil
}

//nolint:gocyclo // one case per configuration key
func validateBlock(path string, b rawBlock) (Wallpaper, error) {
	w := Wallpaper{
		Display:            DisplayFill,
		Transition:         TransitionNone,
		TransitionDuration: time.Second,
		ShaderSpeed:        1.0,
		ShaderFPS:          60,
		VSync:              true,
	}
	log := wallshade.Logger()

	fail := func(k rawKey, msg string) error {
		return &ValidateError{
			Path: path, Line: k.line, Key: k.key,
			Value: strings.Join(k.values, " "), Msg: msg,
		}
	}

	for _, k := range b.keys {
		one := ""
		if len(k.values) > 0 {
			one = k.values[0]
		}

		switch k.key {
		case "path":
			if one == "" {
				return w, fail(k, "missing value")
			}
			w.Path = expandHome(one)
		case "shader":
			if one == "" {
				return w, fail(k, "missing value")
			}
			w.Shader = expandHome(one)
		case "mode":
			m, ok := ParseDisplayMode(one)
			if !ok {
				return w, fail(k, "not a display mode (center, stretch, fit, fill, tile)")
			}
			w.Display = m
		case "duration":
			d, err := parseSeconds(one)
			if err != nil || d < 0 || d > MaxCycleDuration {
				return w, fail(k, "want seconds in [0, 86400]")
			}
			w.CycleDuration = d
		case "transition":
			tr, ok := ParseTransition(one)
			if !ok {
				return w, fail(k, "not a transition (none, fade, slide-left, slide-right, glitch, pixelate)")
			}
			w.Transition = tr
		case "transition_duration":
			d, err := parseSeconds(one)
			if err != nil || d < 0 || d > MaxTransitionDuration {
				return w, fail(k, "want seconds in [0, 10]")
			}
			w.TransitionDuration = d
		case "shader_speed":
			v, err := strconv.ParseFloat(one, 64)
			if err != nil || v <= 0 || v > MaxShaderSpeed {
				return w, fail(k, "want a multiplier in (0, 100]")
			}
			w.ShaderSpeed = v
		case "shader_fps":
			v, err := strconv.Atoi(one)
			if err != nil || v < MinShaderFPS || v > MaxShaderFPS {
				return w, fail(k, "want an integer in [1, 240]")
			}
			w.ShaderFPS = v
		case "vsync":
			v, err := strconv.ParseBool(one)
			if err != nil {
				return w, fail(k, "want true or false")
			}
			w.VSync = v
		case "channels":
			if len(k.values) > MaxChannels {
				return w, fail(k, fmt.Sprintf("at most %d channel textures", MaxChannels))
			}
			for _, ch := range k.values {
				w.Channels = append(w.Channels, expandHome(ch))
			}
		case "show_fps":
			v, err := strconv.ParseBool(one)
			if err != nil {
				return w, fail(k, "want true or false")
			}
			w.ShowFPS = v
		default:
			// Lint, not fatal: a typo should not take the wallpaper down.
			log.Warn("unknown configuration key",
				"file", path, "line", k.line, "key", k.key, "block", b.selector)
		}
	}

	if w.Path != "" && w.Shader != "" {
		return w, &ValidateError{
			Path: path, Line: b.line, Key: "path/shader", Value: b.selector,
			Msg: "path and shader are mutually exclusive in one block",
		}
	}
	if w.Path == "" && w.Shader == "" {
		return w, &ValidateError{
			Path: path, Line: b.line, Key: "path/shader", Value: b.selector,
			Msg: "block needs either path or shader",
		}
	}

	if w.Shader != "" {
		w.Mode = ModeShader
		expandSource(&w, w.Shader, shaderExtensions)
	} else {
		w.Mode = ModeImage
		expandSource(&w, w.Path, imageExtensions)
	}
	return w, nil
}

// expandSource resolves a file-or-directory source. A directory (or a path
// with a trailing slash) becomes an alphabetical cycle list; its first
// entry is the initial source.
func expandSource(w *Wallpaper, source string, exts map[string]bool) {
	isDir := strings.HasSuffix(source, string(filepath.Separator))
	if !isDir {
		if info, err := os.Stat(source); err == nil && info.IsDir() {
			isDir = true
		}
	}
	if !isDir {
		return
	}

	listing, err := os.ReadDir(strings.TrimSuffix(source, string(filepath.Separator)))
	if err != nil {
		wallshade.Logger().Warn("cannot list wallpaper directory", "path", source, "error", err)
		return
	}

	var paths []string
	for _, ent := range listing {
		if ent.IsDir() {
			continue
		}
		if exts[strings.ToLower(filepath.Ext(ent.Name()))] {
			paths = append(paths, filepath.Join(strings.TrimSuffix(source, "/"), ent.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return
	}

	w.CyclePaths = paths
	if w.Mode == ModeShader {
		w.Shader = paths[0]
	} else {
		w.Path = paths[0]
	}
}

// parseSeconds parses a decimal seconds value into a duration.
func parseSeconds(s string) (time.Duration, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(v * float64(time.Second)), nil
}

// expandHome substitutes a leading ~ with the home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}
