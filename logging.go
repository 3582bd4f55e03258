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

// Logging in this package follows kati's dep.go/depgraph.go convention:
// glog.V(1) traces target-order decisions and alias-table hits,
// glog.V(2) traces per-source compile-flag permutation decisions, and
// glog.Warningf/glog.Errorf report recoverable anomalies and per-target
// fatal errors respectively. There is no package-level logger value;
// glog's process-wide log target is used directly, exactly as kati does.
