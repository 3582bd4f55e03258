// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bff

import (
	"fmt"
	"io"
	"strings"
)

// writer is the stateful scoped-text emitter (C1): an indentation stack and
// a stack of matching scope-closing delimiters, modeled on the
// fmt.Fprintf-driven emission in kati's ninja.go, generalized to FASTBuild's
// struct/array syntax.
type writer struct {
	w      io.Writer
	depth  int
	scopes []byte
	err    error
}

func newWriter(w io.Writer) *writer {
	return &writer{w: w}
}

func (w *writer) indent() string {
	return strings.Repeat("\t", w.depth)
}

func (w *writer) emit(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, err := fmt.Fprintf(w.w, format, args...)
	if err != nil {
		w.err = fmt.Errorf("bff: write failed: %w", err)
	}
}

// Comment emits a line-comment: `;<text>`.
func (w *writer) Comment(s string) {
	w.emit("%s;%s\n", w.indent(), s)
}

// Blank emits a single empty line.
func (w *writer) Blank() {
	w.emit("\n")
}

// HorizontalLine emits a fixed-width banner rule, matching the original
// generator's section dividers.
func (w *writer) HorizontalLine() {
	w.emit("%s;-------------------------------------------------------------------------------\n", w.indent())
}

// SectionHeader emits a banner: the title as a comment line between two rules.
func (w *writer) SectionHeader(title string) {
	w.HorizontalLine()
	w.Comment(title)
	w.HorizontalLine()
}

// PushScope opens a `{`/`}` delimited scope (the default).
func (w *writer) PushScope() {
	w.pushScope('{', '}')
}

// PushScopeStruct opens a `[`/`]` delimited struct scope.
func (w *writer) PushScopeStruct() {
	w.pushScope('[', ']')
}

func (w *writer) pushScope(open, close byte) {
	w.emit("%s%c\n", w.indent(), open)
	w.depth++
	w.scopes = append(w.scopes, close)
}

// PopScope closes the innermost open scope.
func (w *writer) PopScope() {
	if len(w.scopes) == 0 {
		panic("bff: PopScope with no open scope")
	}
	close := w.scopes[len(w.scopes)-1]
	w.scopes = w.scopes[:len(w.scopes)-1]
	w.depth--
	w.emit("%s%c\n", w.indent(), close)
}

// Variable emits a scalar assignment: `.<key> = <value>`.
func (w *writer) Variable(key, value string) {
	w.variableOp(key, value, "=")
}

// AppendVariable emits `.<key> + <value>`.
func (w *writer) AppendVariable(key, value string) {
	w.variableOp(key, value, "+")
}

func (w *writer) variableOp(key, value, op string) {
	w.emit("%s.%s %s %s\n", w.indent(), key, op, value)
}

// Command emits a command invocation, `<name>(<arg>)` when arg is
// non-empty (arg is written as given; callers quote it where needed), or
// bare `<name>` otherwise; the caller opens/closes the body scope
// separately via PushScope/PopScope.
func (w *writer) Command(name, arg string) {
	if arg == "" {
		w.emit("%s%s\n", w.indent(), name)
		return
	}
	w.emit("%s%s(%s)\n", w.indent(), name, arg)
}

// Array emits `.<key> = { v1, v2, ... }`, one element per line, eliding the
// trailing comma on the last element. An empty values slice still emits the
// opened/closed scope.
func (w *writer) Array(key string, values []string) {
	w.variableOp(key, "", "=")
	w.PushScope()
	for i, v := range values {
		if i < len(values)-1 {
			w.emit("%s%s,\n", w.indent(), v)
		} else {
			w.emit("%s%s\n", w.indent(), v)
		}
	}
	w.PopScope()
}

// AppendArray emits `.<key> + { v1, v2, ... }`.
func (w *writer) AppendArray(key string, values []string) {
	w.variableOp(key, "", "+")
	w.PushScope()
	for i, v := range values {
		if i < len(values)-1 {
			w.emit("%s%s,\n", w.indent(), v)
		} else {
			w.emit("%s%s\n", w.indent(), v)
		}
	}
	w.PopScope()
}

// Err returns the first sink-write failure encountered, if any.
func (w *writer) Err() error {
	return w.err
}
