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

package detours

import (
	"sort"

	"github.com/spf13/afero"

	"github.com/winoverlay/winoverlay/domain"
)

// QueryDirectoryNames implements the core of the query-directory detour
// (§4.4, §8 scenario 1): given the handle under enumeration and whether
// the caller asked for a restart scan, list the path the handle was
// registered with (already the virtual-root path for a rerouted handle)
// through s.FS and return its entry names, always including "." and "..".
// The query-duplicate tracker is updated for bookkeeping only; no
// directory handle is opened here.
func (s *Set) QueryDirectoryNames(h domain.Handle, restartScan bool) ([]string, error) {
	info, ok := s.Registry.GetByHandle(h)
	if !ok {
		return nil, domain.NewError(domain.ErrNoVirtualPath, "query-directory on unregistered handle")
	}

	resolved := info.Path
	rerouted := info.Rerouted

	_ = s.QueryDup.Acquire(h, restartScan, resolved, rerouted, func(path string) (domain.Handle, error) {
		// No un-hooked directory is opened, here or in the
		// `_windows.go` adapter; the tracker records a zero handle and
		// the listing below reads resolved directly.
		return domain.Handle(0), nil
	})

	entries, err := afero.ReadDir(s.FS, resolved)
	if err != nil {
		return nil, domain.NewError(domain.ErrOriginalCallFailure, err.Error())
	}

	names := make([]string, 0, len(entries)+2)
	names = append(names, ".", "..")
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names[2:])

	return names, nil
}
