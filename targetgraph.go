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

// buildTargetOrder computes the project's target order (C6): every
// non-Interface, non-Unknown target, deduplicated by name (keeping the
// top-level one when a name collides across sub-projects, preserving the
// original generator's GetName()-as-dedup-key behavior verbatim), with
// GlobalTargets whose originating directory is not the top-level directory
// stripped as per-directory duplicates, then linearized via the generic
// sorter (C5) using direct-dependency edges.
func buildTargetOrder(p *Project) ([]*Target, error) {
	byName := map[string]*Target{}
	var order []string
	for _, t := range p.Targets {
		if t.Kind == InterfaceLibrary || t.Kind == Unknown {
			continue
		}
		if t.Kind == GlobalTarget && !t.IsTopLevel {
			glog.V(1).Infof("target-order: dropping non-top-level global target %q (dir %q)", t.Name, t.Directory)
			continue
		}
		if existing, ok := byName[t.Name]; ok {
			if !t.IsTopLevel {
				glog.Warningf("target-order: duplicate target name %q (keeping %q, dropping %q)", t.Name, existing.Directory, t.Directory)
				continue
			}
			glog.Warningf("target-order: duplicate target name %q (keeping %q, dropping %q)", t.Name, t.Directory, existing.Directory)
		}
		if _, ok := byName[t.Name]; !ok {
			order = append(order, t.Name)
		}
		byName[t.Name] = t
	}

	entities := make([]*Target, 0, len(order))
	for _, name := range order {
		entities = append(entities, byName[name])
	}

	sorted, err := sortEntities(entities,
		func(t *Target) []string { return []string{t.Name} },
		func(t *Target) []string { return directDepends(t) },
	)
	if err != nil {
		return sorted, err
	}
	glog.V(1).Infof("target-order: %d targets ordered", len(sorted))
	return sorted, nil
}

// directDepends returns t's direct dependency names for C5/C6 purposes: the
// utility set for GlobalTarget, the declared Depends otherwise. The caller
// is responsible for excluding InterfaceLibrary targets from the result,
// since those never contribute dependency edges; since InterfaceLibrary
// targets never appear in the entity set being sorted, their names simply
// resolve to nothing and are ignored as leaf references.
func directDepends(t *Target) []string {
	if t.Kind == GlobalTarget {
		return t.Utilities
	}
	return t.Depends
}
