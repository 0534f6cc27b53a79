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

//go:build windows

package detours

import (
	"syscall"

	"github.com/winoverlay/winoverlay/domain"
)

// ntCloseStdcall is the native NtClose replacement: drop the handle's
// registry entry, close any tracked query-duplicate first, then forward
// to the preserved original for the caller's own handle (§8's "after
// close, no registry entry and no query-duplicate remains").
func (s *Set) ntCloseStdcall(handle uintptr) uintptr {
	if dup, ok := s.Close(domain.Handle(handle)); ok {
		syscall.SyscallN(s.original("NtClose"), uintptr(dup))
	}

	status, _, _ := syscall.SyscallN(s.original("NtClose"), handle)
	return status
}
