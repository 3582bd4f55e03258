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
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// convertPath normalizes p to the host slash convention FASTBuild expects:
// backslashes on the Windows family, forward slashes elsewhere.
func convertPath(ctx *Context, p string) string {
	if ctx.OS == Windows {
		return strings.ReplaceAll(p, "/", "\\")
	}
	return strings.ReplaceAll(p, "\\", "/")
}

// quote wraps s with q on both sides. No embedded-quote escaping is
// performed; inputs are assumed not to contain the quote character.
func quote(s string, q ...byte) string {
	c := byte('\'')
	if len(q) > 0 {
		c = q[0]
	}
	return string(c) + s + string(c)
}

// wrap returns [prefix+x+suffix for x in xs], preserving order.
func wrap(xs []string, prefix, suffix string) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = prefix + x + suffix
	}
	return out
}

// placeholders are the literal $-delimited tokens preserved verbatim by
// escapeLiteral .
var placeholders = []string{
	"$ConfigName$",
	"$CompileFlags$",
	"$CompileDefineFlags$",
	"$CompilerCmdBaseFlags$",
	"$LinkLibs$",
	"$BaseLinkerOptions$",
	"$Linker$",
	"$LinkerOptions$",
	"$LinkerOutput$",
	"$TargetOutput$",
	"$TargetOutDir$",
	"$TargetNamePDB$",
	"$FB_INPUT_1_PLACEHOLDER$",
	"$FB_INPUT_2_PLACEHOLDER$",
}

// escapeLiteral replaces each '$' in s with '^$', except inside the
// whitelisted placeholder sequences, which are preserved verbatim.
func escapeLiteral(s string) string {
	protected := make([]string, len(placeholders))
	for i, p := range placeholders {
		sentinel := sentinelFor(i)
		if strings.Contains(s, p) {
			s = strings.ReplaceAll(s, p, sentinel)
			protected[i] = p
		}
	}
	s = strings.ReplaceAll(s, "$", "^$")
	for i, p := range protected {
		if p == "" {
			continue
		}
		s = strings.ReplaceAll(s, sentinelFor(i), p)
	}
	return s
}

func sentinelFor(i int) string {
	return "\x00PH" + string(rune('A'+i)) + "\x00"
}

// ensureDirectoryExists creates p (or ctx.HomeOutputDir/p, when p is
// relative) on ctx.FS. Idempotent; silent on already-exists, matching
// afero.Fs.MkdirAll semantics.
func ensureDirectoryExists(ctx *Context, p string) error {
	if p == "" {
		return nil
	}
	target := p
	if !filepath.IsAbs(p) {
		target = filepath.Join(ctx.HomeOutputDir, p)
	}
	glog.V(2).Infof("ensure-directory-exists %s", target)
	if err := ctx.FS.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("bff: ensure-directory-exists %s: %w", target, err)
	}
	return nil
}
