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

// DeleteFile implements the delete-file detour's core logic (§8 scenario
// 4): a redirected path is deleted on the virtual side only, leaving the
// real tree untouched; an unredirected path deletes as normal.
func (s *Set) DeleteFile(canonical string) error {
	target, _ := s.redirectOrSame(canonical)
	if err := s.FS.Remove(target); err != nil {
		return domain.NewError(domain.ErrOriginalCallFailure, err.Error())
	}
	return nil
}

// RemoveDirectory mirrors DeleteFile for directories.
func (s *Set) RemoveDirectory(canonical string) error {
	target, _ := s.redirectOrSame(canonical)
	if err := s.FS.Remove(target); err != nil {
		return domain.NewError(domain.ErrOriginalCallFailure, err.Error())
	}
	return nil
}
