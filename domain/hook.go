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

package domain

// Instrumentor is the external dynamic-instrumentation framework named in
// §1: this spec only names the capabilities it must provide (resolve an
// export, install a detour over it); how it patches the running process'
// code is out of scope here.
type Instrumentor interface {
	// ResolveExport finds the address of name within the already-loaded
	// module, or ErrFunctionNotFound if the module or the export is absent.
	ResolveExport(module, name string) (uintptr, error)

	// InstallDetour replaces the function at target so that calls run
	// replacement instead, returning the address of a trampoline that
	// still reaches the original prologue.
	InstallDetour(target, replacement uintptr) (original uintptr, err error)
}

// InstallFunc installs one hook table entry against the resolved module,
// storing the preserved original in a module-scoped write-once cell so
// detours can call through. It reports ErrFunctionNotFound when name isn't
// exported by module (the installer then retries against the fallback).
type InstallFunc func(instr Instrumentor, module, name string) error

// Entry is one exported function the agent wants to intercept.
type Entry struct {
	Name string
	// Install is nil for entries that are listed as relevant but not
	// currently patched (a partial-coverage placeholder, see §3).
	Install InstallFunc
	// MinOSVersion gates this entry to OS builds >= this value; 0 means
	// "always apply".
	MinOSVersion uint32
}

// ModuleGroup is the unit of the hook target table: a primary module to
// resolve entries against, with an optional fallback module used when the
// primary is absent or an entry's export isn't found there.
type ModuleGroup struct {
	Primary  string
	Fallback string
	Entries  []Entry
}

// Table is the immutable, process-global hook target table (§3): an
// ordered list of module groups. Installer order within a group is
// preserved; the table is partitioned by OS version as a post-hoc extend
// step, not an inline branch (§9).
type Table []ModuleGroup

// Installer is the trampoline installer (C6): walks a Table, resolving
// and installing each entry, and keeps the preserved original addresses
// so the detour set can call through.
type Installer interface {
	// BuildTable binds replacements[name] as the InstallFunc for every
	// scaffold entry named in the map, leaving the rest untouched.
	BuildTable(scaffold Table, replacements map[string]uintptr) Table

	// InstallAll installs every entry in table that has a non-nil Install.
	InstallAll(table Table) error

	// Record stores the preserved original address for (module, name).
	Record(module, name string, original uintptr) error

	// Original looks up the preserved original address for (module, name).
	Original(module, name string) (uintptr, bool)

	// OriginalByName looks up the preserved original address by export
	// name alone, for callers that don't know which module it resolved
	// against.
	OriginalByName(name string) (uintptr, bool)
}
