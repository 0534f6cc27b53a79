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

import "github.com/winoverlay/winoverlay/domain"

// CreateResult carries what a caller of ResolveCreate needs to finish the
// operation: the path to actually open/create and whether the call was
// redirected at all (the registry records Rerouted for §8's handle
// invariant).
type CreateResult struct {
	Path     string
	Rerouted bool
}

// ResolveCreate implements the disposition truth table of §4.7 for one
// canonical, already-NT-decoded path. When canonical doesn't fall under
// the mount, it's returned unchanged with Rerouted false and the caller
// should call straight through to the original function.
func (s *Set) ResolveCreate(canonical string, d domain.Disposition) (CreateResult, error) {
	virtual, ok := s.Resolver.Redirect(canonical)
	if !ok {
		return CreateResult{Path: canonical, Rerouted: false}, nil
	}

	route := s.Policy.Resolve(d, s.exists(virtual), s.exists(canonical))
	switch route {
	case domain.RouteVirtual:
		return CreateResult{Path: virtual, Rerouted: true}, nil
	case domain.RouteReal:
		return CreateResult{Path: canonical, Rerouted: false}, nil
	default:
		return CreateResult{}, domain.NewError(domain.ErrOriginalCallFailure, "NAME_EXISTS: "+canonical)
	}
}

// CreateDirectory implements the create-directory detour's core logic
// (used directly by scenario 2/3 in §8; the CreateDirectoryW adapter
// calls ResolveCreate itself and leaves the mkdir to the original). It
// always applies DispositionCreateNew, matching the Win32
// CreateDirectory contract (fails if the target already exists).
func (s *Set) CreateDirectory(canonical string) (CreateResult, error) {
	res, err := s.ResolveCreate(canonical, domain.DispositionCreateNew)
	if err != nil {
		return CreateResult{}, err
	}
	if err := s.FS.Mkdir(res.Path, 0o777); err != nil {
		return CreateResult{}, domain.NewError(domain.ErrOriginalCallFailure, err.Error())
	}
	return res, nil
}

// RegisterHandle inserts (h, info.Path, info.Rerouted) into the registry
// after a successful open/create, satisfying §8's "every successful open
// yields a registry entry" invariant.
func (s *Set) RegisterHandle(h domain.Handle, res CreateResult) {
	s.Registry.Insert(h, res.Path, res.Rerouted)
}
