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

import "testing"

func TestExpandRule(t *testing.T) {
	for _, tc := range []struct {
		name string
		tmpl string
		rv   RuleVars
		want string
	}{
		{
			name: "basic substitution",
			tmpl: "<CMAKE_RULE_LAUNCHER> cl.exe <FLAGS> -c <SOURCE> -o <OBJECT>",
			rv:   RuleVars{Source: "%1", Object: "%2", Flags: "-O2"},
			want: " cl.exe -O2 -c %1 -o %2",
		},
		{
			name: "unrecognized placeholder left intact",
			tmpl: "cl.exe <UNKNOWN_TOKEN> <SOURCE>",
			rv:   RuleVars{Source: "%1"},
			want: "cl.exe <UNKNOWN_TOKEN> %1",
		},
		{
			name: "no placeholders",
			tmpl: "cl.exe /nologo",
			rv:   RuleVars{},
			want: "cl.exe /nologo",
		},
		{
			name: "substituted content is not re-scanned",
			tmpl: "<FLAGS>",
			rv:   RuleVars{Flags: "<SOURCE>"},
			want: "<SOURCE>",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := expandRule(tc.tmpl, tc.rv); got != tc.want {
				t.Errorf("expandRule(%q, %+v) = %q, want %q", tc.tmpl, tc.rv, got, tc.want)
			}
		})
	}
}
