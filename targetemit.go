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
	"path"
	"strings"

	"github.com/golang/glog"
)

// compileBatch is one entry of the compile-command permutation map: all
// sources sharing identical effective flags+defines, further grouped by
// source directory for ObjectList emission.
type compileBatch struct {
	key          string
	flags        string
	defines      string
	dirOrder     []string
	sourcesByDir map[string][]*SourceFile
}

// buildPermutations groups t's sources of the given language by the
// "<flags>{|}<defines>" permutation key, preserving first-seen order
// for determinism.
func buildPermutations(ctx *Context, t *Target, language, config string) []*compileBatch {
	var order []string
	batches := map[string]*compileBatch{}
	for _, sf := range t.Sources {
		if sf.Language != language {
			continue
		}
		flags := perSourceCompileFlags(ctx, t, sf)
		defines := perSourceDefines(t, sf, config)
		key := flags + "{|}" + defines
		b, ok := batches[key]
		if !ok {
			b = &compileBatch{key: key, flags: flags, defines: defines, sourcesByDir: map[string][]*SourceFile{}}
			batches[key] = b
			order = append(order, key)
			glog.V(2).Infof("compile-permutation: new group %q for %s/%s", key, t.Name, language)
		}
		dir := path.Dir(sf.Path)
		if _, ok := b.sourcesByDir[dir]; !ok {
			b.dirOrder = append(b.dirOrder, dir)
		}
		b.sourcesByDir[dir] = append(b.sourcesByDir[dir], sf)
	}
	out := make([]*compileBatch, len(order))
	for i, k := range order {
		out[i] = batches[k]
	}
	return out
}

// folderToken turns a source directory into a name-safe token for use in
// an ObjectList rule name.
func folderToken(dir string) string {
	if dir == "." || dir == "" {
		return "root"
	}
	tok := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_").Replace(dir)
	return strings.Trim(tok, "_")
}

// targetConfigAliasInfo accumulates, per (target, config), what the C9
// per-target alias section needs.
type targetConfigAliasInfo struct {
	linkableDeps []string
	orderDeps    []string
}

// targetAliasInfo is the full per-target data C9 needs once C8 has emitted
// the target's definition block.
type targetAliasInfo struct {
	name    string
	exclude bool
	perConfig map[string]*targetConfigAliasInfo
}

// emitTarget writes t's complete lexical scope and returns the alias
// bookkeeping C9 needs to emit the per-target/per-config aliases.
func emitTarget(ctx *Context, w *writer, t *Target, configs []string, targetNames map[string]bool, symbolic map[string]bool, aliases *aliasTable) (*targetAliasInfo, error) {
	info := &targetAliasInfo{name: t.Name, exclude: t.ExcludeFromAll, perConfig: map[string]*targetConfigAliasInfo{}}
	deps := filterKnownDeps(directDepends(t), targetNames)

	w.SectionHeader(fmt.Sprintf("Target definition: %s", t.Name))
	w.PushScope()
	defer w.PopScope()

	for _, c := range configs {
		info.perConfig[c] = &targetConfigAliasInfo{}
	}

	for _, c := range configs {
		if err := emitBaseConfig(ctx, w, t, c, deps); err != nil {
			return info, err
		}
	}

	for _, c := range configs {
		preBuildAlias, err := emitPhase(ctx, w, t, t.PreBuild, c, "PreBuild", targetNames, symbolic, aliases)
		if err != nil {
			return info, err
		}
		preLinkAlias, err := emitPhase(ctx, w, t, t.PreLink, c, "PreLink", targetNames, symbolic, aliases)
		if err != nil {
			return info, err
		}

		w.Command("BaseCompilationConfig_"+c, "")
		w.PushScopeStruct()
		w.Command("Using", "."+"BaseConfig_"+c)
		var extra []string
		if preBuildAlias != "" {
			extra = append(extra, preBuildAlias)
		}
		if preLinkAlias != "" {
			extra = append(extra, preLinkAlias)
		}
		if len(extra) > 0 {
			w.AppendArray("PreBuildDependencies", quoteAll(extra))
		}
		w.PopScope()

		_, hasCC, err := emitCustomCommandsStruct(ctx, w, t, c, targetNames, symbolic, aliases)
		if err != nil {
			return info, err
		}
		if preBuildAlias != "" {
			info.perConfig[c].orderDeps = append(info.perConfig[c].orderDeps, "PreBuild")
		}
		if preLinkAlias != "" {
			info.perConfig[c].orderDeps = append(info.perConfig[c].orderDeps, "PreLink")
		}
		if hasCC {
			info.perConfig[c].orderDeps = append(info.perConfig[c].orderDeps, "CustomCommands")
		}
	}

	for _, lang := range t.languages() {
		if _, err := emitObjectGroup(ctx, w, t, lang, configs); err != nil {
			return info, err
		}
		for _, c := range configs {
			info.perConfig[c].linkableDeps = append(info.perConfig[c].linkableDeps, "ObjectGroup_"+lang)
		}
	}

	if t.Kind.hasLinkerStage() {
		for _, c := range configs {
			if err := emitLinkerStage(ctx, w, t, c, targetNames, info.perConfig[c].linkableDeps); err != nil {
				return info, err
			}
			info.perConfig[c].linkableDeps = append(info.perConfig[c].linkableDeps, "link")
			info.perConfig[c].orderDeps = append(info.perConfig[c].orderDeps, "link")
		}
	}

	for _, c := range configs {
		postBuildAlias, err := emitPhase(ctx, w, t, t.PostBuild, c, "PostBuild", targetNames, symbolic, aliases)
		if err != nil {
			return info, err
		}
		if postBuildAlias != "" {
			info.perConfig[c].orderDeps = append(info.perConfig[c].orderDeps, "PostBuild")
		}
	}

	return info, nil
}

// filterKnownDeps keeps only the dependency names that resolve to an
// emitted, non-interface target (C8 step 2's "\ InterfaceLibraries").
func filterKnownDeps(deps []string, targetNames map[string]bool) []string {
	var out []string
	for _, d := range deps {
		if targetNames[d] {
			out = append(out, d)
		}
	}
	return out
}

// extraLinkDependencies returns the real cross-target references Libraries
// must carry beyond t's own linkableDeps: the output of each known
// dependency t actually links against. Static and object libraries never
// depend on other targets for linking.
func extraLinkDependencies(t *Target, config string, targetNames map[string]bool) []string {
	if t.Kind == StaticLibrary || t.Kind == ObjectLibrary {
		return nil
	}
	var out []string
	for _, d := range filterKnownDeps(directDepends(t), targetNames) {
		out = append(out, d+"-"+config+"-products")
	}
	return out
}

// emitBaseConfig emits BaseConfig_<c>, the per-config output-name struct,
// ensuring output/PDB directories exist on disk.
func emitBaseConfig(ctx *Context, w *writer, t *Target, config string, deps []string) error {
	tc := t.config(config)

	if t.Kind != ObjectLibrary {
		if err := ensureDirectoryExists(ctx, tc.OutputDirectory); err != nil {
			return err
		}
	}

	w.Command("BaseConfig_"+config, "")
	w.PushScopeStruct()
	w.Command("Using", ".ConfigBase")
	w.Variable("ConfigName", quote(config))
	w.Variable("TargetNameOut", quote(tc.OutputName))
	w.Variable("TargetNamePDB", quote(tc.OutputName+".pdb"))
	w.Variable("TargetOutDir", quote(escapeLiteral(convertPath(ctx, tc.OutputDirectory))+"/"))
	w.Variable("TargetOutput", quote("$TargetOutDir$$TargetNameOut$"))
	w.Variable("TargetOutputDir", quote("$TargetOutDir$"))
	w.Variable("TargetOutSO", quote("$TargetOutDir$$TargetNameOut$"))
	w.Variable("TargetCompilePDB", quote("$TargetOutDir$$TargetNamePDB$"))
	if len(deps) > 0 {
		w.Array("PreBuildDependencies", quoteAll(wrap(deps, "", "-"+config)))
	}
	w.PopScope()
	return nil
}

// emitPhase plans and emits one of the PreBuild/PreLink/PostBuild custom
// command groups for a configuration, returning the group alias name, or
// "" when the phase has no commands.
func emitPhase(ctx *Context, w *writer, t *Target, commands []*CustomCommand, config, phase string, targetNames map[string]bool, symbolic map[string]bool, aliases *aliasTable) (string, error) {
	if len(commands) == 0 {
		return "", nil
	}
	sorted, sortErr := sortCustomCommands(commands, symbolic, targetNames)
	if sortErr != nil {
		return "", fmt.Errorf("%s-%s: %w", phase, config, sortErr)
	}
	var members []string
	for i, cc := range sorted {
		name := fmt.Sprintf("%s-%s-%s-%d", t.Name, phase, config, i+1)
		pc := planCommand(ctx, t.Name, name, cc, config, targetNames, symbolic, aliases, t.config(config).OutputDirectory)
		emitPlannedCommand(w, pc)
		members = append(members, resolvedName(pc))
	}
	groupAlias := fmt.Sprintf("%s-%s-%s", t.Name, phase, config)
	w.Command("Alias", quote(groupAlias))
	w.PushScope()
	w.Array("Targets", quoteAll(members))
	w.PopScope()
	return groupAlias, nil
}

// emitCustomCommandsStruct emits CustomCommands_<c>, the target's
// per-source custom commands, sorted via C5/C7.
func emitCustomCommandsStruct(ctx *Context, w *writer, t *Target, config string, targetNames map[string]bool, symbolic map[string]bool, aliases *aliasTable) (string, bool, error) {
	var commands []*CustomCommand
	for _, sf := range t.Sources {
		if sf.CustomCommand != nil {
			commands = append(commands, sf.CustomCommand)
		}
	}
	w.Command("CustomCommands_"+config, "")
	w.PushScopeStruct()
	if len(commands) == 0 {
		w.PopScope()
		return "", false, nil
	}
	sorted, sortErr := sortCustomCommands(commands, symbolic, targetNames)
	if sortErr != nil {
		w.PopScope()
		return "", false, fmt.Errorf("CustomCommands-%s: %w", config, sortErr)
	}
	var members []string
	for i, cc := range sorted {
		base := "cmd"
		if outs := filteredOutputs(cc, symbolic); len(outs) > 0 {
			base = path.Base(outs[0])
		}
		name := fmt.Sprintf("%s-CustomCommand-%s-%d-%s", t.Name, config, i+1, base)
		pc := planCommand(ctx, t.Name, name, cc, config, targetNames, symbolic, aliases, t.config(config).OutputDirectory)
		emitPlannedCommand(w, pc)
		members = append(members, resolvedName(pc))
	}
	groupAlias := fmt.Sprintf("%s-CustomCommands-%s", t.Name, config)
	w.Array("PreBuildDependencies", quoteAll(members))
	w.PopScope()

	w.Command("Alias", quote(groupAlias))
	w.PushScope()
	w.Array("Targets", quoteAll(members))
	w.PopScope()
	return groupAlias, true, nil
}

// emitPlannedCommand writes either an Exec(...) block or an Alias(...)
// block for a planned custom command.
func emitPlannedCommand(w *writer, pc plannedCommand) {
	if pc.IsAlias {
		w.Command("Alias", quote(pc.Name))
		w.PushScope()
		w.Array("Targets", []string{quote(pc.AliasTarget)})
		w.PopScope()
		return
	}
	w.Command("Exec", quote(pc.Name))
	w.PushScope()
	w.Variable("ExecExecutable", quote(escapeLiteral(pc.Executable)))
	w.Variable("ExecArguments", quote(escapeLiteral(pc.Arguments)))
	w.Array("ExecInput", quoteAll(pc.Inputs))
	if pc.UseStdOutAsOutput {
		w.Variable("ExecUseStdOutAsOutput", "true")
	}
	w.Variable("ExecOutput", quote(escapeLiteral(pc.Output)))
	w.PopScope()
}

// resolvedName is the node name other blocks should reference for pc: its
// own name either way (an Alias block is itself a valid reference target).
func resolvedName(pc plannedCommand) string {
	return pc.Name
}

// emitObjectGroup emits ObjectGroup_<L>: one ObjectConfig_<c> per
// configuration, each containing one ObjectList per (permutation,
// source-folder) group, plus the group's collecting alias.
func emitObjectGroup(ctx *Context, w *writer, t *Target, lang string, configs []string) ([]string, error) {
	w.Command("ObjectGroup_"+lang, "")
	w.PushScope()

	var allRuleNames []string
	for _, c := range configs {
		w.Command("ObjectConfig_"+c, "")
		w.PushScopeStruct()
		w.Command("Using", ".BaseCompilationConfig_"+c)
		w.Command("Using", ".CustomCommands_"+c)

		_, flags, err := detectBaseCompileCommand(ctx, t.Name, lang)
		if err != nil {
			w.PopScope()
			w.PopScope()
			return nil, err
		}
		w.Variable("CompilerCmdBaseFlags", quote(escapeLiteral(flags)))
		w.Variable("Compiler", ".Compiler_"+lang)

		batches := buildPermutations(ctx, t, lang, c)
		n := 0
		for _, b := range batches {
			for _, dir := range b.dirOrder {
				n++
				ruleName := fmt.Sprintf("%s-ObjectGroup_%s-%s-%s-%d", t.Name, lang, c, folderToken(dir), n)
				allRuleNames = append(allRuleNames, ruleName)
				sources := b.sourcesByDir[dir]
				var paths []string
				for _, sf := range sources {
					paths = append(paths, convertPath(ctx, sf.Path))
				}
				ext := "." + strings.ToLower(lang) + ".obj"
				if lang == "RC" {
					ext = ".res"
				}
				w.Command("ObjectList", quote(ruleName))
				w.PushScope()
				w.Variable("CompilerOptions", quote(escapeLiteral("$CompilerCmdBaseFlags$ "+b.flags+" "+b.defines)))
				w.Array("CompilerInputFiles", quoteAll(paths))
				w.Variable("CompilerOutputPath", quote(escapeLiteral(convertPath(ctx, path.Join("$TargetOutDir$", dir)))))
				w.Variable("CompilerOutputExtension", quote(ext))
				w.Variable("UnityInputFiles", ".CompilerInputFiles")
				w.PopScope()
			}
		}
		w.PopScope()
	}

	for _, c := range configs {
		alias := fmt.Sprintf("%s-ObjectGroup_%s-%s", t.Name, lang, c)
		w.Command("Alias", quote(alias))
		w.PushScope()
		w.Array("Targets", quoteAll(namesForConfig(allRuleNames, lang, c)))
		w.PopScope()
	}
	w.PopScope()
	return allRuleNames, nil
}

func namesForConfig(names []string, lang, config string) []string {
	marker := fmt.Sprintf("-ObjectGroup_%s-%s-", lang, config)
	var out []string
	for _, n := range names {
		if strings.Contains(n, marker) {
			out = append(out, n)
		}
	}
	return out
}

// emitLinkerStage emits LinkerConfig_<c> plus the kind-appropriate link
// command block. linkableDeps is t's own ObjectGroup_<L> names (from
// emitTarget), wrapped here with t's name to become the base of Libraries.
func emitLinkerStage(ctx *Context, w *writer, t *Target, config string, targetNames map[string]bool, linkableDeps []string) error {
	tc := t.config(config)

	linkPath := linkerLibraryPaths(ctx, t, config)
	w.Command("LinkerConfig_"+config, "")
	w.PushScopeStruct()
	w.Array("LinkPath", quoteAll(linkPath))
	w.Array("LinkLibs", quoteAll(tc.LinkLibraries))
	w.Variable("LinkFlags", quote(escapeLiteral(tc.LinkFlags)))

	if t.Kind == Executable && tc.ModuleDefinitionFile != "" {
		defFlag := ctx.Vars["CMAKE_LINK_DEF_FILE_FLAG"]
		w.AppendVariable("LinkFlags", quote(escapeLiteral(" "+defFlag+tc.ModuleDefinitionFile)))
	}

	linkerType, _ := ctx.Vars.Get("CMAKE_" + t.LinkerLanguage + "_COMPILER_ID")
	linker, linkFlags, err := detectBaseLinkCommand(ctx, t, config)
	if err != nil {
		w.PopScope()
		return err
	}
	w.Variable("Linker", quote(escapeLiteral(linker)))
	w.Variable("LinkerType", quote(linkerType))
	w.Variable("BaseLinkerOptions", quote(escapeLiteral(linkFlags)))
	w.Variable("LinkerOutput", quote("$TargetOutput$"))
	w.Variable("LinkerOptions", quote("$BaseLinkerOptions$ $LinkLibs$"))

	w.Array("Libraries", quoteAll(wrap(linkableDeps, t.Name+"-", "-"+config)))
	if extra := extraLinkDependencies(t, config, targetNames); len(extra) > 0 {
		w.AppendArray("Libraries", quoteAll(extra))
	}
	w.PopScope()

	linkName := fmt.Sprintf("%s-link-%s", t.Name, config)
	switch t.Kind {
	case Executable:
		w.Command("Executable", quote(linkName))
	case SharedLibrary, ModuleLibrary:
		w.Command("DLL", quote(linkName))
	case StaticLibrary:
		w.Command("Library", quote(linkName))
	default:
		w.Command("NoLinkCommand", quote(linkName))
	}
	w.PushScope()
	w.Command("Using", ".LinkerConfig_"+config)
	if t.Kind == StaticLibrary {
		w.Variable("Compiler", ".Compiler_dummy")
		w.Variable("CompilerOptions", quote("-c $FB_INPUT_1_PLACEHOLDER$ $FB_INPUT_2_PLACEHOLDER$"))
		w.Variable("CompilerOutputPath", quote("/dummy/"))
		w.Variable("Librarian", ".Linker")
		w.Variable("LibrarianOptions", ".LinkerOptions")
		w.Variable("LibrarianOutput", ".LinkerOutput")
	}
	w.PopScope()
	return nil
}

// quoteAll single-quotes every element of xs, for emitting string arrays.
func quoteAll(xs []string) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = quote(escapeLiteral(x))
	}
	return out
}
