// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// rawKey is one key statement inside a block, pre-validation.
type rawKey struct {
	key    string
	values []string
	line   int
}

// rawBlock is one output block, pre-validation.
type rawBlock struct {
	selector string
	line     int
	keys     []rawKey
}

// Load reads and validates the configuration file. The returned entries
// preserve file order; Match relies on that for connector-before-model
// resolution inside a selector class.
func Load(path string) ([]Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return nil, &ParseError{Path: path, Line: 0, Msg: "not a regular non-empty file"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	blocks, err := parse(path, data)
	if err != nil {
		return nil, err
	}
	return validate(path, blocks)
}

// parse tokenizes the block structure. Statements are separated by
// newlines or semicolons; '#' starts a comment; a block is
// `default { ... }` or `output.<name> { ... }` with the brace on the same
// or a following line.
func parse(path string, data []byte) ([]rawBlock, error) {
	var blocks []rawBlock
	var current *rawBlock
	var pendingSelector string
	var pendingLine int

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		for _, stmt := range strings.Split(line, ";") {
			fields := strings.Fields(stmt)
			for len(fields) > 0 {
				switch {
				case current == nil && pendingSelector == "":
					// Expect a selector.
					sel := fields[0]
					fields = fields[1:]
					if sel == "{" || sel == "}" {
						return nil, &ParseError{Path: path, Line: lineNo, Msg: "expected block selector"}
					}
					name, ok := selectorName(sel)
					if !ok {
						return nil, &ParseError{Path: path, Line: lineNo,
							Msg: fmt.Sprintf("unknown selector %q (want default or output.<name>)", sel)}
					}
					pendingSelector = name
					pendingLine = lineNo

				case current == nil:
					// Expect the opening brace.
					if fields[0] != "{" {
						return nil, &ParseError{Path: path, Line: lineNo,
							Msg: fmt.Sprintf("expected '{' after selector %q", pendingSelector)}
					}
					fields = fields[1:]
					blocks = append(blocks, rawBlock{selector: pendingSelector, line: pendingLine})
					current = &blocks[len(blocks)-1]
					pendingSelector = ""

				case fields[0] == "}":
					fields = fields[1:]
					current = nil

				default:
					// Key statement: the rest of the statement (up to a
					// closing brace) are its values.
					key := fields[0]
					fields = fields[1:]
					var values []string
					for len(fields) > 0 && fields[0] != "}" {
						values = append(values, fields[0])
						fields = fields[1:]
					}
					current.keys = append(current.keys, rawKey{key: key, values: values, line: lineNo})
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if current != nil {
		return nil, &ParseError{Path: path, Line: lineNo, Msg: "unterminated block (missing '}')"}
	}
	if pendingSelector != "" {
		return nil, &ParseError{Path: path, Line: pendingLine,
			Msg: fmt.Sprintf("selector %q has no block", pendingSelector)}
	}
	return blocks, nil
}

// selectorName extracts the output name from a block selector.
func selectorName(sel string) (string, bool) {
	if sel == "default" {
		return "default", true
	}
	if name, ok := strings.CutPrefix(sel, "output."); ok && name != "" {
		return name, true
	}
	return "", false
}
