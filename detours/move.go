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

// ProgressFunc mirrors the CopyFileEx/MoveFileWithProgress callback
// contract: called with the total and the amount transferred so far,
// returning false to cancel the operation.
type ProgressFunc func(total, transferred int64) bool

// MoveFile implements the move-file detour family's core logic (§8
// scenario 5): source and destination are each independently redirected,
// so a move entirely within the mount moves within the virtual root
// without touching the real tree.
func (s *Set) MoveFile(srcCanonical, dstCanonical string) error {
	src, _ := s.redirectOrSame(srcCanonical)
	dst, _ := s.redirectOrSame(dstCanonical)

	if err := s.FS.Rename(src, dst); err != nil {
		return domain.NewError(domain.ErrOriginalCallFailure, err.Error())
	}
	return nil
}

// MoveFileWithProgress is MoveFile with a progress callback invoked once
// on completion — afero has no byte-level progress hook for Rename, so
// unlike CopyFile this can't report partial progress; it still honors the
// callback contract by reporting 100% transferred.
func (s *Set) MoveFileWithProgress(srcCanonical, dstCanonical string, progress ProgressFunc) error {
	if err := s.MoveFile(srcCanonical, dstCanonical); err != nil {
		return err
	}
	if progress != nil {
		progress(1, 1)
	}
	return nil
}
