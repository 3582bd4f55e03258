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

import "github.com/spf13/afero"

// TargetKind classifies a Target the way the project model's target type
// enum does; InterfaceLibrary and Unknown are never emitted.
type TargetKind int

const (
	Unknown TargetKind = iota
	Executable
	SharedLibrary
	StaticLibrary
	ModuleLibrary
	ObjectLibrary
	Utility
	GlobalTarget
	InterfaceLibrary
)

func (k TargetKind) String() string {
	switch k {
	case Executable:
		return "Executable"
	case SharedLibrary:
		return "SharedLibrary"
	case StaticLibrary:
		return "StaticLibrary"
	case ModuleLibrary:
		return "ModuleLibrary"
	case ObjectLibrary:
		return "ObjectLibrary"
	case Utility:
		return "Utility"
	case GlobalTarget:
		return "GlobalTarget"
	case InterfaceLibrary:
		return "InterfaceLibrary"
	default:
		return "Unknown"
	}
}

// hasLinkerStage reports whether the kind has a link step at all (C8 step 8).
func (k TargetKind) hasLinkerStage() bool {
	switch k {
	case ObjectLibrary, Utility, GlobalTarget, Unknown, InterfaceLibrary:
		return false
	default:
		return true
	}
}

// CustomCommand is a user-declared shell sequence plus its declared
// inputs/outputs, as consumed by the custom command planner (C7).
type CustomCommand struct {
	Commands         []string
	Depends          []string
	Outputs          []string
	Byproducts       []string
	WorkingDirectory string
	Launcher         string
}

// SourceFile is one compilation unit, or a file carrying only a custom
// command (e.g. a generated header with no language).
type SourceFile struct {
	Path                     string
	Language                 string
	CompileFlags             string
	CompileDefinitions       []string
	CompileDefinitionsConfig map[string][]string // key: upper(config)
	ObjectLibrary            string
	Symbolic                 bool
	CustomCommand            *CustomCommand
}

// TargetConfig holds the per-configuration attributes of a Target: output
// names, link libraries/flags, framework path, module-definition file.
type TargetConfig struct {
	OutputName            string
	OutputDirectory        string
	LinkLibraries         []string
	LinkLibraryDirectories []string
	LinkFlags             string
	FrameworkPath         []string
	ModuleDefinitionFile  string
	CompileDefinitions    []string
	VersionMajor          string
	VersionMinor          string
}

// Target is a single build unit in the project model .
type Target struct {
	Name           string
	Kind           TargetKind
	Directory      string
	IsTopLevel     bool
	Sources        []*SourceFile
	PreBuild       []*CustomCommand
	PostBuild      []*CustomCommand
	PreLink        []*CustomCommand
	Utilities      []string
	Depends        []string
	LinkerLanguage string
	ExportMacro    string
	ExcludeFromAll bool
	CompileOptions []string
	IncludeDirectories []string
	Configs        map[string]*TargetConfig
}

// config returns t's per-configuration attributes, or a zero value when the
// target declares nothing for that configuration.
func (t *Target) config(c string) *TargetConfig {
	if tc, ok := t.Configs[c]; ok {
		return tc
	}
	return &TargetConfig{}
}

// languages returns the set of source languages used by t, in first-seen
// order, ignoring sources that only carry a custom command.
func (t *Target) languages() []string {
	var langs []string
	seen := map[string]bool{}
	for _, sf := range t.Sources {
		if sf.Language == "" || seen[sf.Language] {
			continue
		}
		seen[sf.Language] = true
		langs = append(langs, sf.Language)
	}
	return langs
}

// ToolchainVars is the key->string rule-template dictionary the project
// model exposes (CMAKE_<LANG>_COMPILE_OBJECT and friends).
type ToolchainVars map[string]string

func (v ToolchainVars) Get(key string) (string, bool) {
	s, ok := v[key]
	return s, ok
}

// OSFamily selects the host slash/quoting convention (C2).
type OSFamily int

const (
	Unix OSFamily = iota
	Windows
)

// Context is the immutable record threaded through every free function in
// this package, mirroring kati's execContext/depBuilder: it is constructed
// once by the caller and passed down, never stored as a package global.
type Context struct {
	HomeOutputDir string
	OS            OSFamily
	Vars          ToolchainVars
	FS            afero.Fs
}

// Project is the full read-only façade the core consumes: all targets and
// the configuration list to emit for.
type Project struct {
	Targets        []*Target
	Configurations []string
}

// configurations returns p.Configurations, defaulting to {Debug, Release}
// when the caller supplied none (recoverable per §7).
func (p *Project) configurations() []string {
	if len(p.Configurations) == 0 {
		return []string{"Debug", "Release"}
	}
	return p.Configurations
}
