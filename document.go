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

// Package bff implements a back-end generator for a meta build-system: it
// turns a fully-elaborated, in-memory project model into a single
// declarative FASTBuild (.bff) document.
package bff

import (
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"
)

// Emit writes the complete .bff document for p to out, aborting at the
// first fatal error encountered .
func Emit(ctx *Context, out io.Writer, p *Project) error {
	return emitDocument(ctx, out, p, false)
}

// EmitAll writes the complete .bff document for p to out, continuing past
// a single target's fatal emission error so the caller can see every
// broken target in one pass; it aggregates per-target failures into one
// *multierror.Error . This does not
// change any error's fatal/recoverable classification, only how many of
// them reach the caller in one report.
func EmitAll(ctx *Context, out io.Writer, p *Project) error {
	return emitDocument(ctx, out, p, true)
}

func emitDocument(ctx *Context, out io.Writer, p *Project, aggregate bool) error {
	// Target order is computed before any text is written, so that a
	// cyclic-dependency error leaves no partial target definitions on the
	// stream at all , not merely none "past the cycle point".
	order, err := buildTargetOrder(p)
	if err != nil {
		return err
	}

	configs := p.configurations()
	w := newWriter(out)

	symbolic := collectSymbolicOutputs(p)
	targetNames := make(map[string]bool, len(order))
	for _, t := range order {
		targetNames[t.Name] = true
	}

	emitSettings(ctx, w)
	emitCompilers(ctx, w, unionLanguages(order))
	emitConfigurations(w, configs)

	aliases := newAliasTable()
	var infos []*targetAliasInfo
	var merr *multierror.Error
	for _, t := range order {
		info, terr := emitTarget(ctx, w, t, configs, targetNames, symbolic, aliases)
		if terr != nil {
			glog.Errorf("target %q: %v", t.Name, terr)
			if !aggregate {
				return terr
			}
			merr = multierror.Append(merr, fmt.Errorf("target %q: %w", t.Name, terr))
			continue
		}
		infos = append(infos, info)
	}

	emitAliasesSection(w, infos, configs)

	if w.Err() != nil {
		if aggregate {
			merr = multierror.Append(merr, w.Err())
		} else {
			return w.Err()
		}
	}
	if aggregate {
		return merr.ErrorOrNil()
	}
	return nil
}

// collectSymbolicOutputs scans every target's sources for the SYMBOLIC
// flag, keyed by path, for use by the custom-command planner (C7 step 1).
func collectSymbolicOutputs(p *Project) map[string]bool {
	out := map[string]bool{}
	for _, t := range p.Targets {
		for _, sf := range t.Sources {
			if sf.Symbolic {
				out[sf.Path] = true
			}
		}
	}
	return out
}

// unionLanguages returns the set of source languages used across order, in
// first-seen order .
func unionLanguages(order []*Target) []string {
	var langs []string
	seen := map[string]bool{}
	for _, t := range order {
		for _, l := range t.languages() {
			if !seen[l] {
				seen[l] = true
				langs = append(langs, l)
			}
		}
	}
	return langs
}

// emitSettings writes the Settings block .
func emitSettings(ctx *Context, w *writer) {
	w.SectionHeader("Settings")
	w.Command("Settings", "")
	w.PushScope()
	w.Variable("CachePath", quote(escapeLiteral(convertPath(ctx, ctx.HomeOutputDir+"/.fbuild.cache"))))
	w.PopScope()
}

// compilerGroup is a set of languages sharing one compiler executable.
type compilerGroup struct {
	exe, root string
	langs     []string
}

// emitCompilers writes the Compilers section : one
// Compiler(...) block per distinct compiler location, a Compiler_<L>
// variable per language, and Compiler_dummy pointing at the first.
func emitCompilers(ctx *Context, w *writer, languages []string) {
	w.SectionHeader("Compilers")

	var order []string
	groups := map[string]*compilerGroup{}
	for _, lang := range languages {
		exe, ok := ctx.Vars.Get("CMAKE_" + lang + "_COMPILER")
		if !ok {
			glog.Warningf("compilers: no CMAKE_%s_COMPILER in the toolchain variable table", lang)
			continue
		}
		g, seen := groups[exe]
		if !seen {
			g = &compilerGroup{exe: exe, root: dirOf(exe)}
			groups[exe] = g
			order = append(order, exe)
		}
		g.langs = append(g.langs, lang)
	}

	var firstBlock string
	for _, exe := range order {
		g := groups[exe]
		blockName := "Compiler-" + joinDash(g.langs)
		if firstBlock == "" {
			firstBlock = blockName
		}
		w.Command("Compiler", quote(blockName))
		w.PushScope()
		w.Variable("CompilerRoot", quote(escapeLiteral(convertPath(ctx, g.root))))
		w.Variable("Executable", quote(escapeLiteral(convertPath(ctx, g.exe))))
		w.PopScope()
		for _, lang := range g.langs {
			w.Variable("Compiler_"+lang, quote(blockName))
		}
	}
	if firstBlock != "" {
		w.Variable("Compiler_dummy", quote(firstBlock))
	}
}

func dirOf(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			return p[:i]
		}
	}
	return "."
}

func joinDash(xs []string) string {
	out := xs[0]
	for _, x := range xs[1:] {
		out += "-" + x
	}
	return out
}

// emitConfigurations writes the Configurations section :
// an empty ConfigBase struct, one config_<name> struct per configuration,
// and an all_configs array.
func emitConfigurations(w *writer, configs []string) {
	w.SectionHeader("Configurations")
	w.Command("ConfigBase", "")
	w.PushScopeStruct()
	w.PopScope()
	for _, c := range configs {
		w.Command("config_"+c, "")
		w.PushScopeStruct()
		w.Command("Using", ".ConfigBase")
		w.PopScope()
	}
	w.Array("all_configs", wrap(configs, ".config_", ""))
}

// emitAliasesSection writes the per-config, per-target, and All aliases
// .
func emitAliasesSection(w *writer, infos []*targetAliasInfo, configs []string) {
	w.SectionHeader("Aliases")

	for _, c := range configs {
		var members []string
		for _, info := range infos {
			if info.exclude {
				continue
			}
			members = append(members, info.name+"-"+c)
		}
		w.Command("Alias", quote(c))
		w.PushScope()
		w.Array("Targets", quoteAll(members))
		w.PopScope()
	}

	for _, info := range infos {
		for _, c := range configs {
			pc := info.perConfig[c]
			if pc == nil {
				continue
			}
			if len(pc.linkableDeps) > 0 {
				w.Command("Alias", quote(info.name+"-"+c+"-products"))
				w.PushScope()
				w.Array("Targets", quoteAll(wrap(pc.linkableDeps, info.name+"-", "-"+c)))
				w.PopScope()
			}
			if len(pc.linkableDeps) > 0 || len(pc.orderDeps) > 0 {
				var targets []string
				targets = append(targets, wrap(pc.linkableDeps, info.name+"-", "-"+c)...)
				targets = append(targets, wrap(pc.orderDeps, info.name+"-", "-"+c)...)
				w.Command("Alias", quote(info.name+"-"+c))
				w.PushScope()
				w.Array("Targets", quoteAll(targets))
				w.PopScope()
			}
		}
	}

	for _, info := range infos {
		w.Command("Alias", quote(info.name))
		w.PushScope()
		w.Array("Targets", quoteAll(wrap(configs, info.name+"-", "")))
		w.PopScope()
	}

	w.Command("Alias", quote("All"))
	w.PushScope()
	w.Array("Targets", quoteAll(configs))
	w.PopScope()
}
