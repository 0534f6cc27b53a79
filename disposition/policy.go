//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package disposition implements the create-file disposition policy (C8):
// the truth table of §4.7, expressed as a single dispatch table keyed by
// (disposition, virtual exists, real exists) rather than nested
// conditionals, the way §9 recommends.
//
// Resolve is only ever called once the caller's path has already been
// rewritten by the overlay resolver (C3) — a path outside the mount never
// reaches this policy at all, the detour calls straight through to the
// original function instead. That is why "route to virtual if rewritten,
// else real" in the spec's prose collapses here to an unconditional
// RouteVirtual for overwrite-existing: by the time Resolve runs, rewritten
// is always true.
//
// open-existing is still listed in the table below for completeness (any
// caller consulting this policy directly for that disposition gets the
// same answer), but neither native create detour actually routes through
// it: NtCreateFile's FILE_OPEN and NtOpenFile both call OpenExisting
// instead, which probes virtual-then-real directly rather than going
// through the table's single RouteVirtual answer and a blind retry.
package disposition

import "github.com/winoverlay/winoverlay/domain"

type key struct {
	d             domain.Disposition
	virtualExists bool
	realExists    bool
}

var table = map[key]domain.Route{}

func entry(d domain.Disposition, v, r bool, route domain.Route) {
	table[key{d, v, r}] = route
}

func always(d domain.Disposition, route domain.Route) {
	for _, v := range []bool{false, true} {
		for _, r := range []bool{false, true} {
			entry(d, v, r, route)
		}
	}
}

func init() {
	// open-existing: always prefer virtual. The detours route FILE_OPEN
	// through OpenExisting instead, which falls back to the real path
	// when the virtual one does not exist.
	always(domain.DispositionOpenExisting, domain.RouteVirtual)

	// create-if-not-exist ("any" virtual, real=true -> fail with NAME_EXISTS).
	entry(domain.DispositionCreateNew, false, true, domain.RouteFail)
	entry(domain.DispositionCreateNew, true, true, domain.RouteFail)
	entry(domain.DispositionCreateNew, false, false, domain.RouteVirtual)
	entry(domain.DispositionCreateNew, true, false, domain.RouteVirtual)

	// open-if: virtual absent + real present routes to real so an
	// existing mount isn't shadowed; otherwise virtual.
	entry(domain.DispositionOpenAlways, false, true, domain.RouteReal)
	entry(domain.DispositionOpenAlways, true, false, domain.RouteVirtual)
	entry(domain.DispositionOpenAlways, true, true, domain.RouteVirtual)
	entry(domain.DispositionOpenAlways, false, false, domain.RouteVirtual)

	// supersede / overwrite-if: same shape as open-if.
	for _, d := range []domain.Disposition{domain.DispositionSupersede, domain.DispositionOverwriteIf} {
		entry(d, false, true, domain.RouteReal)
		entry(d, true, false, domain.RouteVirtual)
		entry(d, true, true, domain.RouteVirtual)
		entry(d, false, false, domain.RouteVirtual)
	}

	// overwrite-existing: unconditionally virtual, like open-existing; no
	// real-path retry follows.
	always(domain.DispositionOverwriteExisting, domain.RouteVirtual)
}

type policy struct{}

// NewPolicy returns the stateless §4.7 dispatch table as a domain.Policy.
func NewPolicy() domain.Policy {
	return policy{}
}

func (policy) Resolve(d domain.Disposition, virtualExists, realExists bool) domain.Route {
	route, ok := table[key{d, virtualExists, realExists}]
	if !ok {
		return domain.RouteFail
	}
	return route
}
