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
	"os"

	"github.com/winoverlay/winoverlay/domain"
)

// GetFileAttributes implements the query-attributes detour family's core
// logic against s.FS: redirect if applicable, then stat whichever side
// resolved. The native GetFileAttributesW adapter does not call it; it
// redirects the path and calls the original directly.
func (s *Set) GetFileAttributes(canonical string) (os.FileInfo, error) {
	target, _ := s.redirectOrSame(canonical)

	fi, err := s.FS.Stat(target)
	if err != nil {
		return nil, domain.NewError(domain.ErrOriginalCallFailure, err.Error())
	}
	return fi, nil
}

// SetFileAttributes implements the set-attributes detour. afero's Fs
// interface models attributes as the Unix-style os.FileMode bits, the
// closest portable analogue to the Win32 attribute bitmask the wide
// SetFileAttributesW entry point actually receives. The native
// SetFileAttributesW adapter does not call this method or translate
// between the two; it redirects the path and passes the attribute
// bitmask to the original unchanged.
func (s *Set) SetFileAttributes(canonical string, mode os.FileMode) error {
	target, _ := s.redirectOrSame(canonical)

	if err := s.FS.Chmod(target, mode); err != nil {
		return domain.NewError(domain.ErrOriginalCallFailure, err.Error())
	}
	return nil
}
