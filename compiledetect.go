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
	"strings"
)

// joinCommandLines composes a sequence of shell command lines into a single
// invocation, using the same chaining rule the custom-command planner uses
// (C7 step 3): on the Windows family, lines are chained with " && " and the
// whole thing wrapped in `cmd.exe /C "..."`; elsewhere, chained with " && "
// directly. An empty list yields a platform no-op.
func joinCommandLines(ctx *Context, lines []string) string {
	if len(lines) == 0 {
		if ctx.OS == Windows {
			return `cmd.exe /C "cd ."`
		}
		return ":"
	}
	joined := strings.Join(lines, " && ")
	if ctx.OS == Windows {
		return fmt.Sprintf(`cmd.exe /C "%s"`, joined)
	}
	return joined
}

// splitExecutableAndFlags splits a composed shell invocation into its
// leading executable token and the remaining flags text.
func splitExecutableAndFlags(s string) (exe, rest string) {
	word, remain := firstWord([]byte(s))
	return string(word), strings.TrimSpace(string(remain))
}

// detectBaseCompileCommand derives the base compile command for (target
// name, language): fetch CMAKE_<LANG>_COMPILE_OBJECT, split on ';' into one
// or more command lines, expand each via the rule expander, join into a
// single shell invocation and split into (executable, remaining flags)
// .
func detectBaseCompileCommand(ctx *Context, targetName, language string) (exe, flags string, err error) {
	key := "CMAKE_" + language + "_COMPILE_OBJECT"
	tmpl, ok := ctx.Vars.Get(key)
	if !ok {
		return "", "", errMissingRuleVariable(targetName, key)
	}
	compilerExe, _ := ctx.Vars.Get("CMAKE_" + language + "_COMPILER")
	var lines []string
	for _, part := range strings.Split(tmpl, ";") {
		lines = append(lines, expandRule(part, RuleVars{
			Language:         language,
			CompilerExe:      compilerExe,
			Source:           "%1",
			Object:           "%2",
			ObjectDir:        "$TargetOutputDir$",
			TargetCompilePDB: "$TargetNamePDB$",
		}))
	}
	cmd := joinCommandLines(ctx, lines)
	exe, flags = splitExecutableAndFlags(cmd)
	return exe, flags, nil
}

// linkRuleVariableKey maps a target kind + link language to the toolchain
// variable table key naming its link-rule template.
func linkRuleVariableKey(kind TargetKind, lang string) string {
	switch kind {
	case Executable:
		return "CMAKE_" + lang + "_LINK_EXECUTABLE"
	case SharedLibrary:
		return "CMAKE_" + lang + "_CREATE_SHARED_LIBRARY"
	case ModuleLibrary:
		return "CMAKE_" + lang + "_CREATE_SHARED_MODULE"
	case StaticLibrary:
		return "CMAKE_" + lang + "_CREATE_STATIC_LIBRARY"
	default:
		return ""
	}
}

// detectBaseLinkCommand derives the base link command for (target,
// config): resolve the target's create-rule variable; if absent, fall back
// per kind . StaticLibrary falls back to an explicit
// remove-then-archive sequence; SharedLibrary/ModuleLibrary/Executable have
// no fallback and an absent template is fatal.
func detectBaseLinkCommand(ctx *Context, t *Target, config string) (exe, flags string, err error) {
	lang := t.LinkerLanguage
	if lang == "" {
		return "", "", errMissingLinkerLanguage(t.Name)
	}
	key := linkRuleVariableKey(t.Kind, lang)
	var lines []string
	if tmpl, ok := ctx.Vars.Get(key); ok {
		lines = strings.Split(tmpl, ";")
	} else if t.Kind == StaticLibrary {
		cmakeCmd, _ := ctx.Vars.Get("CMAKE_COMMAND")
		archiveCreate, ok1 := ctx.Vars.Get("CMAKE_" + lang + "_ARCHIVE_CREATE")
		archiveFinish, ok2 := ctx.Vars.Get("CMAKE_" + lang + "_ARCHIVE_FINISH")
		if !ok1 || !ok2 {
			return "", "", errMissingRuleVariable(t.Name, "CMAKE_"+lang+"_ARCHIVE_CREATE/FINISH")
		}
		lines = append(lines, fmt.Sprintf("%s -E remove $TargetOutput$", cmakeCmd), archiveCreate, archiveFinish)
	} else {
		return "", "", errMissingLinkerLanguage(t.Name)
	}

	compilerExe, _ := ctx.Vars.Get("CMAKE_" + lang + "_COMPILER")
	tc := t.config(config)
	var expanded []string
	for _, part := range lines {
		expanded = append(expanded, expandRule(part, RuleVars{
			Language:           lang,
			CompilerExe:        compilerExe,
			Objects:            "%1",
			Target:             "%2",
			TargetPDB:          "$TargetOutDir$$TargetNamePDB$",
			TargetSOName:       "$TargetOutSO$",
			Defines:            "$CompileDefineFlags$",
			Flags:              "$CompileFlags$",
			LinkFlags:          "$LinkFlags$ $LinkPath$",
			LinkLibraries:      "",
			TargetVersionMajor: tc.VersionMajor,
			TargetVersionMinor: tc.VersionMinor,
		}))
	}
	cmd := joinCommandLines(ctx, expanded)
	exe, flags = splitExecutableAndFlags(cmd)
	return exe, flags, nil
}

// perSourceCompileFlags combines, in order, language flags, architecture
// flags, shared-library (PIC) flags, visibility-preset flags,
// include-directory flags (full paths for RC), makefile-level define
// flags, target compile options, and per-source COMPILE_FLAGS .
func perSourceCompileFlags(ctx *Context, t *Target, sf *SourceFile) string {
	var parts []string
	lang := sf.Language
	if v, ok := ctx.Vars.Get("CMAKE_" + lang + "_FLAGS"); ok && v != "" {
		parts = append(parts, v)
	}
	if v, ok := ctx.Vars.Get("CMAKE_" + lang + "_FLAGS_ARCH"); ok && v != "" {
		parts = append(parts, v)
	}
	if t.Kind == SharedLibrary || t.Kind == ModuleLibrary {
		if v, ok := ctx.Vars.Get("CMAKE_SHARED_LIBRARY_" + lang + "_FLAGS"); ok && v != "" {
			parts = append(parts, v)
		}
	}
	if v, ok := ctx.Vars.Get("CMAKE_" + lang + "_VISIBILITY_PRESET_FLAGS"); ok && v != "" {
		parts = append(parts, v)
	}
	incFlag, _ := ctx.Vars.Get("CMAKE_INCLUDE_FLAG_" + lang)
	if incFlag == "" {
		incFlag = ctx.Vars["CMAKE_INCLUDE_FLAG_C"]
	}
	for _, dir := range t.IncludeDirectories {
		d := dir
		if lang == "RC" {
			d = dir // RC wants full paths; model already supplies absolute paths
		}
		parts = append(parts, incFlag+quote(d, '"'))
	}
	if v, ok := ctx.Vars.Get("CMAKE_" + lang + "_DEFINE_FLAGS"); ok && v != "" {
		parts = append(parts, v)
	}
	parts = append(parts, t.CompileOptions...)
	if sf.CompileFlags != "" {
		parts = append(parts, sf.CompileFlags)
	}
	return strings.Join(nonEmpty(parts), " ")
}

// perSourceDefines combines the target's export-macro (if any),
// target+config defines, source-file COMPILE_DEFINITIONS,
// source-file COMPILE_DEFINITIONS_<UPPER(CONFIG)>, and the synthetic
// CMAKE_INTDIR define , formatted as -D flags.
func perSourceDefines(t *Target, sf *SourceFile, config string) string {
	var defs []string
	if t.ExportMacro != "" {
		defs = append(defs, t.ExportMacro)
	}
	tc := t.config(config)
	defs = append(defs, tc.CompileDefinitions...)
	defs = append(defs, sf.CompileDefinitions...)
	defs = append(defs, sf.CompileDefinitionsConfig[strings.ToUpper(config)]...)
	defs = append(defs, fmt.Sprintf(`CMAKE_INTDIR="%s"`, config))
	return strings.Join(wrap(defs, "-D", ""), " ")
}

// linkerLibraryPaths emits, for each of the target's link library
// directories, both the flag+dir form and the flag+dir/config form, for
// generator-expression-style per-configuration layouts.
func linkerLibraryPaths(ctx *Context, t *Target, config string) []string {
	flag := ctx.Vars["CMAKE_LIBRARY_PATH_FLAG"]
	term := ctx.Vars["CMAKE_LIBRARY_PATH_TERMINATOR"]
	tc := t.config(config)
	var out []string
	for _, dir := range tc.LinkLibraryDirectories {
		out = append(out, flag+dir+term)
		out = append(out, flag+dir+"/"+config+term)
	}
	return out
}

func nonEmpty(xs []string) []string {
	out := xs[:0]
	for _, x := range xs {
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
