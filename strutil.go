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

// wsbytes is a byte-indexed whitespace table, traded for the generality of
// unicode.IsSpace in exchange for speed on the ASCII-heavy shell-command
// text this package tokenizes.
var wsbytes = [256]bool{' ': true, '\t': true, '\n': true, '\r': true}

// wordScanner walks whitespace-delimited words in a byte slice, honoring
// backslash-escaped whitespace within a word.
type wordScanner struct {
	in  []byte
	s   int // word start
	i   int // current pos
	esc bool
}

func newWordScanner(in []byte) *wordScanner {
	return &wordScanner{in: in, esc: true}
}

func (ws *wordScanner) next() bool {
	for ws.s = ws.i; ws.s < len(ws.in); ws.s++ {
		if !wsbytes[ws.in[ws.s]] {
			break
		}
	}
	return ws.s != len(ws.in)
}

func (ws *wordScanner) Scan() bool {
	if !ws.next() {
		return false
	}
	for ws.i = ws.s; ws.i < len(ws.in); ws.i++ {
		if ws.esc && ws.in[ws.i] == '\\' {
			ws.i++
			continue
		}
		if wsbytes[ws.in[ws.i]] {
			break
		}
	}
	return true
}

func (ws *wordScanner) Bytes() []byte {
	return ws.in[ws.s:ws.i]
}

func (ws *wordScanner) Remain() []byte {
	if !ws.next() {
		return nil
	}
	return ws.in[ws.s:]
}

// firstWord splits line into its first whitespace-delimited word and the
// remainder (leading whitespace skipped, trailing whitespace kept), the way
// C4/C7 split a composed shell invocation
// into (executable, remaining flags).
func firstWord(line []byte) ([]byte, []byte) {
	s := newWordScanner(line)
	if s.Scan() {
		return s.Bytes(), s.Remain()
	}
	return line, nil
}
