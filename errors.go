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

import "fmt"

// errMissingLinkerLanguage reports that a target needing a link stage has
// no resolvable linker language .
func errMissingLinkerLanguage(target string) error {
	return fmt.Errorf("bff: target %q: missing-linker-language", target)
}

// errMissingRuleVariable reports that the toolchain variable table has no
// entry for a required rule template (fatal for the current target).
func errMissingRuleVariable(target, key string) error {
	return fmt.Errorf("bff: target %q: missing-rule-variable %q", target, key)
}

// errCyclicDependency reports a non-empty residual set left by the
// dependency sorter (fatal; C5/C6/C7 callers surface the remaining names).
func errCyclicDependency(remaining []string) error {
	return fmt.Errorf("bff: cyclic-dependency among %v", remaining)
}
