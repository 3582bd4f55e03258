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

import "github.com/golang/glog"

// sortEntities is the generic topological sort (C5), templated in spirit
// over the projection callables the way kati's depBuilder walks DepNode
// inputs/outputs, but taking the two projections as parameters instead of
// being hand-rolled per entity type .
//
// outputs(e) lists the names e produces; inputs(e) lists the names e
// depends on. Inputs with no producer are leaf references and are ignored.
// Returns the entities in dependency order (producers before consumers); if
// a cycle remains, returns the entities ordered so far alongside an error
// naming the ones that could not be ordered.
func sortEntities[E any](entities []E, outputs func(E) []string, inputs func(E) []string) ([]E, error) {
	outputMap := make(map[string]int, len(entities)) // name -> index into entities
	for i, e := range entities {
		for _, name := range outputs(e) {
			outputMap[name] = i
		}
	}

	forward := make([][]int, len(entities)) // e -> indices e depends on, remaining
	reverse := make([][]int, len(entities)) // e -> indices that depend on e
	for i, e := range entities {
		seen := map[int]bool{}
		for _, in := range inputs(e) {
			j, ok := outputMap[in]
			if !ok || j == i || seen[j] {
				continue
			}
			seen[j] = true
			forward[i] = append(forward[i], j)
			reverse[j] = append(reverse[j], i)
		}
	}

	remaining := make(map[int]bool, len(entities))
	for i := range entities {
		remaining[i] = true
	}

	var order []E
	for len(remaining) > 0 {
		progressed := false
		for i := 0; i < len(entities); i++ {
			if !remaining[i] || len(forward[i]) > 0 {
				continue
			}
			order = append(order, entities[i])
			delete(remaining, i)
			progressed = true
			for _, r := range reverse[i] {
				forward[r] = removeInt(forward[r], i)
			}
		}
		if !progressed {
			break
		}
	}

	if len(remaining) > 0 {
		var names []string
		for i := range remaining {
			names = append(names, outputNameOf(entities[i], outputs))
		}
		glog.Warningf("cyclic-dependency residual: %v", names)
		return order, errCyclicDependency(names)
	}
	return order, nil
}

func outputNameOf[E any](e E, outputs func(E) []string) string {
	names := outputs(e)
	if len(names) == 0 {
		return "<anonymous>"
	}
	return names[0]
}

func removeInt(xs []int, v int) []int {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
