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

// Close implements the close detour's core logic: drop the handle's
// registry entry and report any tracked query-duplicate so the caller can
// close it before forwarding to the original NtClose. Satisfies §8's
// "after close, get_by_handle is None and no query-duplicate remains".
func (s *Set) Close(h domain.Handle) (dup domain.Handle, hasDup bool) {
	s.Registry.RemoveByHandle(h)
	return s.QueryDup.Release(h)
}
