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
	"io"

	"github.com/winoverlay/winoverlay/domain"
)

// CopyFile implements the copy-file detour's core logic, redirecting
// source and destination independently like MoveFile and streaming the
// bytes through progress so CopyFileExW's callback contract is honored.
func (s *Set) CopyFile(srcCanonical, dstCanonical string, progress ProgressFunc) error {
	src, _ := s.redirectOrSame(srcCanonical)
	dst, _ := s.redirectOrSame(dstCanonical)

	in, err := s.FS.Open(src)
	if err != nil {
		return domain.NewError(domain.ErrOriginalCallFailure, err.Error())
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return domain.NewError(domain.ErrOriginalCallFailure, err.Error())
	}

	out, err := s.FS.Create(dst)
	if err != nil {
		return domain.NewError(domain.ErrOriginalCallFailure, err.Error())
	}
	defer out.Close()

	var transferred int64
	buf := make([]byte, 64*1024)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return domain.NewError(domain.ErrOriginalCallFailure, werr.Error())
			}
			transferred += int64(n)
			if progress != nil && !progress(fi.Size(), transferred) {
				return domain.NewError(domain.ErrOriginalCallFailure, "copy cancelled by progress callback")
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return domain.NewError(domain.ErrOriginalCallFailure, rerr.Error())
		}
	}

	return nil
}
