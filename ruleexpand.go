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

import "strings"

// RuleVars is the placeholder record the rule expander substitutes into a
// raw command template .
type RuleVars struct {
	RuleLauncher       string
	TargetName         string
	Language           string
	Source             string
	Object             string
	ObjectDir          string
	ObjectFileDir      string
	Flags              string
	Defines            string
	TargetPDB          string
	TargetCompilePDB   string
	TargetSOName       string
	TargetVersionMajor string
	TargetVersionMinor string
	LinkLibraries      string
	LinkFlags          string
	Output             string
	Objects            string
	Target             string
	CompilerExe        string // resolves <CMAKE_<Language>_COMPILER>, e.g. <CMAKE_CXX_COMPILER>
}

// placeholderTable maps a rule-template placeholder token to the RuleVars
// field it draws from. Unrecognized placeholders are left intact.
func (rv RuleVars) placeholderTable() map[string]string {
	table := map[string]string{
		"<CMAKE_RULE_LAUNCHER>":     rv.RuleLauncher,
		"<TARGET_NAME>":             rv.TargetName,
		"<LANGUAGE>":                rv.Language,
		"<SOURCE>":                  rv.Source,
		"<OBJECT>":                  rv.Object,
		"<OBJECT_DIR>":              rv.ObjectDir,
		"<OBJECT_FILE_DIR>":         rv.ObjectFileDir,
		"<FLAGS>":                   rv.Flags,
		"<DEFINES>":                 rv.Defines,
		"<TARGET_PDB>":              rv.TargetPDB,
		"<TARGET_COMPILE_PDB>":      rv.TargetCompilePDB,
		"<TARGET_SONAME>":           rv.TargetSOName,
		"<TARGET_VERSION_MAJOR>":    rv.TargetVersionMajor,
		"<TARGET_VERSION_MINOR>":    rv.TargetVersionMinor,
		"<LINK_LIBRARIES>":          rv.LinkLibraries,
		"<LINK_FLAGS>":              rv.LinkFlags,
		"<OUTPUT>":                  rv.Output,
		"<OBJECTS>":                 rv.Objects,
		"<TARGET>":                  rv.Target,
	}
	if rv.Language != "" {
		table["<CMAKE_"+rv.Language+"_COMPILER>"] = rv.CompilerExe
	}
	return table
}

// expandRule substitutes every recognized placeholder in tmpl, in a single
// left-to-right pass — substituted content is never itself re-scanned for
// further placeholders.
func expandRule(tmpl string, rv RuleVars) string {
	table := rv.placeholderTable()
	var b strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] != '<' {
			b.WriteByte(tmpl[i])
			i++
			continue
		}
		end := strings.IndexByte(tmpl[i:], '>')
		if end < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		token := tmpl[i : i+end+1]
		if v, ok := table[token]; ok {
			b.WriteString(v)
			i += end + 1
			continue
		}
		// Not a placeholder: keep the '<' and rescan from the next byte, so a
		// stray '<' does not hide a placeholder that follows it.
		b.WriteByte('<')
		i++
	}
	return b.String()
}
