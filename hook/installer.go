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

// Package hook implements the trampoline installer (C6): walking the
// process-global hook table (§3), resolving each entry's export against its
// module (with a fallback module on a miss), and recording the preserved
// original address so detours can call through. Lookup is kept in a
// radix tree indexed by "module!name", the same structure the teacher's
// handler.handlerService uses to back its handler database, even though
// our keys never need prefix matching — it's the one ordered, concurrent
// -safe associative store this codebase already leans on.
package hook

import (
	"fmt"
	"sync"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/sirupsen/logrus"

	"github.com/winoverlay/winoverlay/domain"
)

// cell is the write-once original-pointer holder for one installed entry.
// Once Set the value never changes; Record enforces write-once at the
// call site rather than here, keeping the type itself trivial.
type cell struct {
	original uintptr
}

type installer struct {
	sync.RWMutex

	tree   *iradix.Tree
	byName map[string]uintptr
	instr  domain.Instrumentor
}

// NewInstaller builds an installer bound to instr. One instance is built
// per agent lifetime, mirroring how handler.NewHandlerService builds a
// single handlerService for the process.
func NewInstaller(instr domain.Instrumentor) domain.Installer {
	return &installer{
		tree:   iradix.New(),
		byName: make(map[string]uintptr),
		instr:  instr,
	}
}

// BuildTable returns a copy of scaffold with Install bound, for every
// entry whose name appears in replacements, to a closure that resolves
// the export against this installer's Instrumentor and records the
// preserved original under this installer. Entries absent from
// replacements are left exactly as scaffold declared them (nil Install
// stays nil).
func (in *installer) BuildTable(scaffold domain.Table, replacements map[string]uintptr) domain.Table {
	out := make(domain.Table, len(scaffold))
	for gi, group := range scaffold {
		entries := make([]domain.Entry, len(group.Entries))
		for ei, e := range group.Entries {
			if repl, ok := replacements[e.Name]; ok {
				e.Install = in.installGeneric(repl)
			}
			entries[ei] = e
		}
		out[gi] = domain.ModuleGroup{Primary: group.Primary, Fallback: group.Fallback, Entries: entries}
	}
	return out
}

// installGeneric is the default domain.InstallFunc: resolve the export,
// install the detour, and record the preserved original. Table entries
// that need no custom wiring beyond "patch this export with that
// replacement" all share this one implementation.
func (in *installer) installGeneric(replacement uintptr) domain.InstallFunc {
	return func(instr domain.Instrumentor, module, name string) error {
		target, err := instr.ResolveExport(module, name)
		if err != nil {
			return err
		}

		original, err := instr.InstallDetour(target, replacement)
		if err != nil {
			return domain.NewError(domain.ErrTrampolineFailure, fmt.Sprintf("%s!%s: %v", module, name, err))
		}

		return in.Record(module, name, original)
	}
}

// ExtendForVersion removes every entry whose MinOSVersion exceeds build
// from table, returning a table safe to pass to InstallAll unconditionally.
// This is the post-hoc partition §9 calls for instead of an inline branch
// inside each Install closure.
func ExtendForVersion(table domain.Table, build uint32) domain.Table {
	out := make(domain.Table, len(table))
	for gi, group := range table {
		var entries []domain.Entry
		for _, e := range group.Entries {
			if e.MinOSVersion != 0 && build < e.MinOSVersion {
				continue
			}
			entries = append(entries, e)
		}
		out[gi] = domain.ModuleGroup{Primary: group.Primary, Fallback: group.Fallback, Entries: entries}
	}
	return out
}

// key builds the radix-tree key for an entry resolved against module
// (which may be the group's primary or its fallback).
func key(module, name string) []byte {
	return []byte(module + "!" + name)
}

// InstallAll walks table in order, installing every entry with a non-nil
// Install func against its group's primary module, falling back to the
// group's fallback module on ErrFunctionNotFound. Callers that need
// OS-version gating run the table through ExtendForVersion first (§9) —
// by the time it reaches InstallAll every entry is assumed applicable.
//
// It returns the first error encountered (including ErrFunctionNotFound
// from both primary and fallback) wrapped with the offending module and
// entry name; installation stops at that point, and entries installed
// before it stay installed (§7).
func (in *installer) InstallAll(table domain.Table) error {
	for _, group := range table {
		for _, e := range group.Entries {
			if e.Install == nil {
				logrus.Debugf("hook: %s listed but not patched", e.Name)
				continue
			}

			if err := in.installEntry(group, e); err != nil {
				return fmt.Errorf("hook: installing %s in %s: %w", e.Name, group.Primary, err)
			}
		}
	}
	return nil
}

func (in *installer) installEntry(group domain.ModuleGroup, e domain.Entry) error {
	module := group.Primary
	err := e.Install(in.instr, module, e.Name)

	if domain.IsKind(err, domain.ErrFunctionNotFound) && group.Fallback != "" {
		logrus.Debugf("hook: %s not found in %s, retrying in fallback %s", e.Name, group.Primary, group.Fallback)
		module = group.Fallback
		err = e.Install(in.instr, module, e.Name)
	}
	if err != nil {
		return err
	}

	return nil
}

// Record stores the preserved original address for (module, name),
// refusing to overwrite an already-recorded entry (write-once, per §3's
// "original pointer" cells). Install funcs call this after a successful
// InstallDetour.
func (in *installer) Record(module, name string, original uintptr) error {
	in.Lock()
	defer in.Unlock()

	k := key(module, name)
	if _, ok := in.tree.Get(k); ok {
		return fmt.Errorf("hook: %s!%s already has a recorded original", module, name)
	}

	tree, _, _ := in.tree.Insert(k, &cell{original: original})
	in.tree = tree
	in.byName[name] = original
	return nil
}

// Original returns the preserved original address for (module, name), or
// false if no entry was ever recorded — the detour should treat that as a
// programmer error (a detour fired for an entry that was never installed).
func (in *installer) Original(module, name string) (uintptr, bool) {
	in.RLock()
	defer in.RUnlock()

	v, ok := in.tree.Get(key(module, name))
	if !ok {
		return 0, false
	}
	return v.(*cell).original, true
}

// OriginalByName is a convenience lookup for detours, which know the
// export name they were installed for but not which of a group's primary
// or fallback module it ended up resolving against.
func (in *installer) OriginalByName(name string) (uintptr, bool) {
	in.RLock()
	defer in.RUnlock()

	original, ok := in.byName[name]
	return original, ok
}
