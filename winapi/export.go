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

package winapi

import (
	"github.com/winoverlay/winoverlay/domain"
	"golang.org/x/sys/windows"
)

// ExportResolver satisfies the ResolveExport half of domain.Instrumentor
// using the already-loaded-module GetModuleHandle + GetProcAddress pair —
// the Go equivalent of the teacher's thin syscall wrappers, here over
// kernel32/ntdll instead of a Linux namespace ioctl. It deliberately does
// not implement InstallDetour: that half of the seam is the external
// dynamic-instrumentation framework named in §1, paired with this
// method in the agent package's instrumentor (see agent.DetourInstaller).
type ExportResolver struct{}

// ResolveExport finds name within module, which must already be loaded in
// the current process (every module this agent hooks is loaded by the
// time the agent's Entry point runs, since the target process itself
// pulled them in before the injector handed off control).
func (ExportResolver) ResolveExport(module, name string) (uintptr, error) {
	h, err := windows.GetModuleHandle(module)
	if err != nil {
		return 0, domain.NewError(domain.ErrFunctionNotFound, module+" not loaded: "+err.Error())
	}

	addr, err := windows.GetProcAddress(h, name)
	if err != nil {
		return 0, domain.NewError(domain.ErrFunctionNotFound, module+"!"+name+": "+err.Error())
	}
	if addr == 0 {
		return 0, domain.NewError(domain.ErrFunctionPtrNull, module+"!"+name)
	}

	return addr, nil
}
