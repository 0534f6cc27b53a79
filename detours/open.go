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

// OpenExisting implements the open-existing detour's core logic (§4.7's
// "route to virtual if rewritten, else real; if open fails, retry real
// once"). Existence is probed here with s.FS.Stat rather than by an open
// attempt: the virtual path is chosen when it exists, else the real path
// when it exists (reported with Rerouted false), else an error is
// returned.
func (s *Set) OpenExisting(canonical string) (CreateResult, error) {
	virtual, rerouted := s.Resolver.Redirect(canonical)
	if !rerouted {
		return CreateResult{Path: canonical, Rerouted: false}, nil
	}

	if s.exists(virtual) {
		return CreateResult{Path: virtual, Rerouted: true}, nil
	}

	if s.exists(canonical) {
		return CreateResult{Path: canonical, Rerouted: false}, nil
	}

	return CreateResult{}, domain.NewError(domain.ErrOriginalCallFailure, "not found: "+canonical)
}
