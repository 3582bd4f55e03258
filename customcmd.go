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

// plannedCommand is what the custom command planner (C7) produces for one
// CustomCommand: either a fresh Exec node, or an Alias pointing at a node
// emitted earlier for an identical, config-independent command.
type plannedCommand struct {
	Name              string // the FASTBuild node name this command is emitted under
	IsAlias           bool
	AliasTarget       string // valid when IsAlias
	Executable        string
	Arguments         string
	Inputs            []string
	Output            string
	UseStdOutAsOutput bool
}

// aliasTable is the custom-command alias table: a process-scoped-within-an-
// emission mapping from command identity to the FASTBuild node name under
// which it was first emitted.
type aliasTable struct {
	byIdentity map[string]string
}

func newAliasTable() *aliasTable {
	return &aliasTable{byIdentity: map[string]string{}}
}

// commandIdentity is the dedup key for a non-config-dependent custom
// command: its full textual content, so that two CustomCommand values with
// identical commands/depends/outputs/byproducts/workdir/launcher compare
// equal regardless of target of origin.
func commandIdentity(cc *CustomCommand) string {
	var b strings.Builder
	fmt.Fprintf(&b, "cmds=%s\x1f", strings.Join(cc.Commands, "\x1e"))
	fmt.Fprintf(&b, "deps=%s\x1f", strings.Join(cc.Depends, "\x1e"))
	fmt.Fprintf(&b, "outs=%s\x1f", strings.Join(cc.Outputs, "\x1e"))
	fmt.Fprintf(&b, "byp=%s\x1f", strings.Join(cc.Byproducts, "\x1e"))
	fmt.Fprintf(&b, "wd=%s\x1f", cc.WorkingDirectory)
	fmt.Fprintf(&b, "launcher=%s", cc.Launcher)
	return b.String()
}

// filteredOutputs is outputs ∪ byproducts with SYMBOLIC-flagged paths
// dropped (C7 step 1). Either ordering would satisfy the planner's set
// equality requirement here; this uses a stable filter, the simpler path.
func filteredOutputs(cc *CustomCommand, symbolic map[string]bool) []string {
	var outs []string
	for _, o := range cc.Outputs {
		if !symbolic[o] {
			outs = append(outs, o)
		}
	}
	for _, o := range cc.Byproducts {
		if !symbolic[o] {
			outs = append(outs, o)
		}
	}
	return outs
}

// splitDepends resolves cc.Depends into order dependencies (names matching
// a known target, recorded as "<name>-<config>") and plain file inputs
// (C7 step 2).
func splitDepends(cc *CustomCommand, config string, targetNames map[string]bool) (orderDeps, fileInputs []string) {
	for _, d := range cc.Depends {
		if targetNames[d] {
			orderDeps = append(orderDeps, d+"-"+config)
		} else {
			fileInputs = append(fileInputs, d)
		}
	}
	return orderDeps, fileInputs
}

// isConfigDependent reports whether any output or byproduct contains the
// $ConfigName$ substring (C7 step 4).
func isConfigDependent(cc *CustomCommand) bool {
	for _, o := range cc.Outputs {
		if strings.Contains(o, "$ConfigName$") {
			return true
		}
	}
	for _, o := range cc.Byproducts {
		if strings.Contains(o, "$ConfigName$") {
			return true
		}
	}
	return false
}

// composeCommandText builds the shell invocation for cc (C7 step 3): an
// optional directory change when a working directory is declared, then
// each command line prefixed by the launcher, chained the same way C4
// chains compile/link command lines.
func composeCommandText(ctx *Context, cc *CustomCommand) (exe, args string) {
	var lines []string
	if cc.WorkingDirectory != "" {
		if ctx.OS == Windows {
			lines = append(lines, "cd /D "+quote(cc.WorkingDirectory, '"'))
		} else {
			lines = append(lines, "cd "+quote(cc.WorkingDirectory, '"'))
		}
	}
	for _, c := range cc.Commands {
		line := c
		if cc.Launcher != "" {
			line = cc.Launcher + " " + line
		}
		lines = append(lines, line)
	}
	cmd := joinCommandLines(ctx, lines)
	return splitExecutableAndFlags(cmd)
}

// sortCustomCommands orders commands via C5 so that a command whose input
// is another command's output appears later in the file.
func sortCustomCommands(commands []*CustomCommand, symbolic map[string]bool, targetNames map[string]bool) ([]*CustomCommand, error) {
	return sortEntities(commands,
		func(cc *CustomCommand) []string { return filteredOutputs(cc, symbolic) },
		func(cc *CustomCommand) []string {
			_, fileInputs := splitDepends(cc, "", targetNames)
			return fileInputs
		},
	)
}

// planCommand plans a single custom command into an Exec node or a
// dedup Alias (C7 steps 1-6). name is the FASTBuild node name this
// particular command occupies (the caller has already decided it, since
// naming differs between per-source custom commands and the
// PreBuild/PreLink/PostBuild phases); startOutputDir seeds the dummy-out
// path when the command declares no outputs.
func planCommand(ctx *Context, targetName, name string, cc *CustomCommand, config string, targetNames map[string]bool, symbolic map[string]bool, aliases *aliasTable, startOutputDir string) plannedCommand {
	outs := filteredOutputs(cc, symbolic)
	_, fileInputs := splitDepends(cc, config, targetNames)
	inputs := append([]string{}, fileInputs...)

	configDependent := isConfigDependent(cc)
	if !configDependent && len(outs) > 0 {
		id := commandIdentity(cc)
		if existing, ok := aliases.byIdentity[id]; ok {
			glog.V(1).Infof("custom-command: alias-table hit for %q -> %q", name, existing)
			return plannedCommand{Name: name, IsAlias: true, AliasTarget: existing}
		}
	}

	exe, args := composeCommandText(ctx, cc)
	pc := plannedCommand{
		Name:       name,
		Executable: exe,
		Arguments:  args,
		Inputs:     inputs,
	}
	if len(pc.Inputs) == 0 {
		pc.Inputs = []string{"dummy-in"}
	}
	if len(outs) == 0 {
		glog.Warningf("custom-command %q declares no outputs", name)
		pc.UseStdOutAsOutput = true
		pc.Output = path.Join(startOutputDir, "dummy-out-"+targetName+".txt")
	} else {
		pc.Output = strings.Join(outs, ";")
	}

	if !configDependent && len(outs) > 0 {
		aliases.byIdentity[commandIdentity(cc)] = name
	}
	return pc
}
