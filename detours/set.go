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

// Package detours implements the detour set (C7): the translation layer
// between a hooked Windows entry point and the redirect/disposition/
// handle-registry logic of C3/C4/C5/C8. Each exported method on Set is the
// platform-independent core of one detour; the thin `_windows.go` files
// decode native arguments, call the matching Set method, and re-encode the
// result as the native return convention (§7, §9). Keeping the core logic
// free of cgo/syscall lets it run against an afero.MemMapFs in tests the
// same way the teacher's sysio.ioNodeFile swaps appFs between
// afero.NewOsFs() and afero.NewMemMapFs().
package detours

import (
	"github.com/spf13/afero"

	"github.com/winoverlay/winoverlay/domain"
)

// Set holds every sibling service a detour needs to reach, mirroring how
// the teacher's PassThrough handler holds h.Service to reach the
// container/process/IO services it depends on.
type Set struct {
	Resolver  domain.Resolver
	Registry  domain.HandleRegistry
	QueryDup  domain.QueryDuplicates
	Policy    domain.Policy
	Installer domain.Installer
	FS        afero.Fs
}

// NewSet wires one Set for the agent's lifetime. fs is afero.NewOsFs() in
// production and afero.NewMemMapFs() in tests.
func NewSet(resolver domain.Resolver, registry domain.HandleRegistry, queryDup domain.QueryDuplicates, policy domain.Policy, installer domain.Installer, fs afero.Fs) *Set {
	return &Set{
		Resolver:  resolver,
		Registry:  registry,
		QueryDup:  queryDup,
		Policy:    policy,
		Installer: installer,
		FS:        fs,
	}
}

func (s *Set) exists(path string) bool {
	_, err := s.FS.Stat(path)
	return err == nil
}

// redirectOrSame returns the virtual-root counterpart of canonical when it
// falls under the mount, or canonical itself otherwise. Several detours
// (delete, move, attributes) operate unconditionally on "whichever side
// the path resolves to" rather than consulting the disposition policy,
// which only governs create-file (§4.7).
func (s *Set) redirectOrSame(canonical string) (target string, rerouted bool) {
	if v, ok := s.Resolver.Redirect(canonical); ok {
		return v, true
	}
	return canonical, false
}

// original looks up the preserved original function for a hooked export by
// name, panicking if the detour fires before the corresponding table
// entry was installed — a programmer error, not a runtime condition.
func (s *Set) original(name string) uintptr {
	addr, ok := s.Installer.OriginalByName(name)
	if !ok {
		panic("detours: " + name + " fired with no recorded original")
	}
	return addr
}
