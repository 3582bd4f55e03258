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
	"bytes"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"
)

func testVars() ToolchainVars {
	return ToolchainVars{
		"CMAKE_CXX_COMPILER":        "/usr/bin/c++",
		"CMAKE_CXX_COMPILE_OBJECT":  "<CMAKE_CXX_COMPILER> <FLAGS> <DEFINES> -c <SOURCE> -o <OBJECT>",
		"CMAKE_CXX_LINK_EXECUTABLE": "<CMAKE_CXX_COMPILER> <FLAGS> <LINK_FLAGS> <OBJECTS> -o <TARGET> <LINK_LIBRARIES>",
		"CMAKE_COMMAND":             "cmake",
		"CMAKE_CXX_ARCHIVE_CREATE":  "<CMAKE_AR> cr <TARGET> <OBJECTS>",
		"CMAKE_CXX_ARCHIVE_FINISH":  "<CMAKE_RANLIB> <TARGET>",
	}
}

func testContext() *Context {
	return &Context{HomeOutputDir: "/home/out", OS: Unix, Vars: testVars(), FS: afero.NewMemMapFs()}
}

// assertBalancedScopes checks that every opened {...} and [...] scope in a
// generated document was closed — a cheap proxy for "the writer's scope
// stack never leaked across an error return".
func assertBalancedScopes(t *testing.T, out string) {
	t.Helper()
	if got, want := strings.Count(out, "{"), strings.Count(out, "}"); got != want {
		t.Errorf("unbalanced {}: %d opens, %d closes", got, want)
	}
	if got, want := strings.Count(out, "["), strings.Count(out, "]"); got != want {
		t.Errorf("unbalanced []: %d opens, %d closes", got, want)
	}
}

func debugConfig(outputName string) map[string]*TargetConfig {
	return map[string]*TargetConfig{
		"Debug": {OutputName: outputName, OutputDirectory: "out/Debug"},
	}
}

// S1: a single executable, one C++ source, one configuration.
func TestEmitSingleExecutable(t *testing.T) {
	p := &Project{
		Configurations: []string{"Debug"},
		Targets: []*Target{
			{
				Name:           "exe",
				Kind:           Executable,
				LinkerLanguage: "CXX",
				Sources:        []*SourceFile{{Path: "main.cpp", Language: "CXX"}},
				Configs:        debugConfig("exe"),
			},
		},
	}
	var buf bytes.Buffer
	if err := Emit(testContext(), &buf, p); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Target definition: exe",
		"ObjectList(",
		"Executable('exe-link-Debug')",
		"Alias('All')",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n--- output ---\n%s", want, out)
		}
	}
	assertBalancedScopes(t, out)
}

// S2: a static library consumed by an executable. The library's block must
// precede the executable's, and each must use its kind-appropriate linker
// command.
func TestEmitStaticLibraryOrdering(t *testing.T) {
	p := &Project{
		Configurations: []string{"Debug"},
		Targets: []*Target{
			{
				Name:           "exe",
				Kind:           Executable,
				LinkerLanguage: "CXX",
				Depends:        []string{"lib"},
				Sources:        []*SourceFile{{Path: "main.cpp", Language: "CXX"}},
				Configs:        debugConfig("exe"),
			},
			{
				Name:           "lib",
				Kind:           StaticLibrary,
				LinkerLanguage: "CXX",
				Sources:        []*SourceFile{{Path: "lib.cpp", Language: "CXX"}},
				Configs:        debugConfig("liblib.a"),
			},
		},
	}
	var buf bytes.Buffer
	if err := Emit(testContext(), &buf, p); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	out := buf.String()
	libPos := strings.Index(out, "Target definition: lib")
	exePos := strings.Index(out, "Target definition: exe")
	if libPos < 0 || exePos < 0 || libPos > exePos {
		t.Fatalf("expected lib's block before exe's; lib@%d exe@%d", libPos, exePos)
	}
	if !strings.Contains(out, "Library('lib-link-Debug')") {
		t.Errorf("expected a Library() block for the static library")
	}
	if !strings.Contains(out, "Executable('exe-link-Debug')") {
		t.Errorf("expected an Executable() block for the executable")
	}
	if !strings.Contains(out, "'exe-ObjectGroup_CXX-Debug'") {
		t.Errorf("expected exe's Libraries to reference its own compiled objects:\n%s", out)
	}
	if !strings.Contains(out, "'lib-Debug-products'") {
		t.Errorf("expected exe's Libraries to reference its dependency lib's products:\n%s", out)
	}
	assertBalancedScopes(t, out)
}

// A dependency on an InterfaceLibrary must not leave a dangling reference:
// InterfaceLibrary targets are never emitted, so PreBuildDependencies must
// drop them rather than cite an Alias that is never written.
func TestEmitBaseConfigDropsInterfaceLibraryDeps(t *testing.T) {
	p := &Project{
		Configurations: []string{"Debug"},
		Targets: []*Target{
			{
				Name:           "exe",
				Kind:           Executable,
				LinkerLanguage: "CXX",
				Depends:        []string{"iface"},
				Sources:        []*SourceFile{{Path: "main.cpp", Language: "CXX"}},
				Configs:        debugConfig("exe"),
			},
			{Name: "iface", Kind: InterfaceLibrary},
		},
	}
	var buf bytes.Buffer
	if err := Emit(testContext(), &buf, p); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "iface-Debug") {
		t.Errorf("expected no dangling reference to the dropped InterfaceLibrary dependency:\n%s", out)
	}
	assertBalancedScopes(t, out)
}

// S3: two sources with distinct per-file compile flags but identical
// defines collapse into two ObjectList blocks under one ObjectGroup_CXX.
func TestEmitTwoCompilePermutationsOneObjectGroup(t *testing.T) {
	p := &Project{
		Configurations: []string{"Debug"},
		Targets: []*Target{
			{
				Name:           "exe",
				Kind:           Executable,
				LinkerLanguage: "CXX",
				Sources: []*SourceFile{
					{Path: "a.cpp", Language: "CXX", CompileFlags: "-O0"},
					{Path: "b.cpp", Language: "CXX", CompileFlags: "-O2"},
				},
				Configs: debugConfig("exe"),
			},
		},
	}
	var buf bytes.Buffer
	if err := Emit(testContext(), &buf, p); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	out := buf.String()
	if got := strings.Count(out, "ObjectList("); got != 2 {
		t.Errorf("ObjectList count = %d, want 2\n%s", got, out)
	}
	if got := strings.Count(out, "ObjectGroup_CXX"); got == 0 {
		t.Errorf("expected an ObjectGroup_CXX block")
	}
	assertBalancedScopes(t, out)
}

// S4: a custom command generating gen.cpp must be emitted before the
// ObjectList that consumes it.
func TestEmitCustomCommandPrecedesConsumer(t *testing.T) {
	p := &Project{
		Configurations: []string{"Debug"},
		Targets: []*Target{
			{
				Name:           "exe",
				Kind:           Executable,
				LinkerLanguage: "CXX",
				Sources: []*SourceFile{
					{
						Path:     "gen.cpp",
						Language: "CXX",
						CustomCommand: &CustomCommand{
							Commands: []string{"codegen.py gen.cpp"},
							Outputs:  []string{"gen.cpp"},
						},
					},
				},
				Configs: debugConfig("exe"),
			},
		},
	}
	var buf bytes.Buffer
	if err := Emit(testContext(), &buf, p); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	out := buf.String()
	execPos := strings.Index(out, "Exec('exe-CustomCommand-Debug-1-gen.cpp')")
	listPos := strings.Index(out, "ObjectList(")
	if execPos < 0 {
		t.Fatalf("expected an Exec block for the generating custom command\n%s", out)
	}
	if listPos < 0 || execPos > listPos {
		t.Errorf("expected the Exec block (at %d) before the ObjectList (at %d)", execPos, listPos)
	}
	assertBalancedScopes(t, out)
}

// S5: two distinct targets sharing an identical, config-independent custom
// command collapse to one Exec plus one Alias.
func TestEmitSharedCustomCommandDedups(t *testing.T) {
	shared := &CustomCommand{Commands: []string{"stamp.py"}, Outputs: []string{"stamp.txt"}}
	p := &Project{
		Configurations: []string{"Debug"},
		Targets: []*Target{
			{Name: "t1", Kind: Utility, PreBuild: []*CustomCommand{shared}, Configs: debugConfig("t1")},
			{Name: "t2", Kind: Utility, PreBuild: []*CustomCommand{shared}, Configs: debugConfig("t2")},
		},
	}
	var buf bytes.Buffer
	if err := Emit(testContext(), &buf, p); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	out := buf.String()
	if got := strings.Count(out, "ExecExecutable"); got != 1 {
		t.Errorf("expected exactly one Exec node body (ExecExecutable count = %d)\n%s", got, out)
	}
	if !strings.Contains(out, "Alias('t2-PreBuild-Debug-1')") {
		t.Errorf("expected t2's phase alias")
	}
	assertBalancedScopes(t, out)
}

// S6: a dependency cycle aborts emission with zero bytes written.
func TestEmitCycleAbortsWithNoOutput(t *testing.T) {
	p := &Project{
		Configurations: []string{"Debug"},
		Targets: []*Target{
			{Name: "a", Kind: StaticLibrary, LinkerLanguage: "CXX", Depends: []string{"b"}, Configs: debugConfig("a")},
			{Name: "b", Kind: StaticLibrary, LinkerLanguage: "CXX", Depends: []string{"a"}, Configs: debugConfig("b")},
		},
	}
	var buf bytes.Buffer
	if err := Emit(testContext(), &buf, p); err == nil {
		t.Fatalf("expected a cyclic-dependency error")
	}
	if buf.Len() != 0 {
		t.Errorf("expected zero bytes written on a cyclic abort, got %d bytes:\n%s", buf.Len(), buf.String())
	}
}

// Determinism: emitting the same project twice yields byte-identical output.
func TestEmitIsDeterministic(t *testing.T) {
	p := &Project{
		Configurations: []string{"Debug", "Release"},
		Targets: []*Target{
			{
				Name:           "exe",
				Kind:           Executable,
				LinkerLanguage: "CXX",
				Depends:        []string{"lib"},
				Sources:        []*SourceFile{{Path: "main.cpp", Language: "CXX"}},
				Configs: map[string]*TargetConfig{
					"Debug":   {OutputName: "exe", OutputDirectory: "out/Debug"},
					"Release": {OutputName: "exe", OutputDirectory: "out/Release"},
				},
			},
			{
				Name:           "lib",
				Kind:           StaticLibrary,
				LinkerLanguage: "CXX",
				Sources:        []*SourceFile{{Path: "lib.cpp", Language: "CXX"}},
				Configs: map[string]*TargetConfig{
					"Debug":   {OutputName: "liblib.a", OutputDirectory: "out/Debug"},
					"Release": {OutputName: "liblib.a", OutputDirectory: "out/Release"},
				},
			},
		},
	}

	var first, second bytes.Buffer
	if err := Emit(testContext(), &first, p); err != nil {
		t.Fatalf("Emit() first pass error = %v", err)
	}
	if err := Emit(testContext(), &second, p); err != nil {
		t.Fatalf("Emit() second pass error = %v", err)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(first.String(), second.String(), false)
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			t.Fatalf("expected identical output across two emission passes, got a diff:\n%s", dmp.DiffPrettyText(diffs))
		}
	}
}

// EmitAll aggregates a fatal per-target error instead of aborting the whole
// document: a target with no declared linker language still leaves the rest
// of the document intact.
func TestEmitAllAggregatesPerTargetErrors(t *testing.T) {
	p := &Project{
		Configurations: []string{"Debug"},
		Targets: []*Target{
			{Name: "broken", Kind: Executable, Sources: []*SourceFile{{Path: "x.cpp", Language: "CXX"}}, Configs: debugConfig("broken")},
			{Name: "ok", Kind: Executable, LinkerLanguage: "CXX", Sources: []*SourceFile{{Path: "y.cpp", Language: "CXX"}}, Configs: debugConfig("ok")},
		},
	}
	var buf bytes.Buffer
	err := EmitAll(testContext(), &buf, p)
	if err == nil {
		t.Fatalf("expected an aggregated error for the broken target")
	}
	out := buf.String()
	if !strings.Contains(out, "Target definition: ok") {
		t.Errorf("expected the healthy target's block to still be emitted:\n%s", out)
	}
	assertBalancedScopes(t, out)
}
