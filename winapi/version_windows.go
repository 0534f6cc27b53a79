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

package winapi

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// osVersionInfo mirrors enough of RTL_OSVERSIONINFOW to read the build
// number; dwOSVersionInfoSize must be prefilled to the struct's own size,
// the same contract every *VersionInfo struct on Windows uses.
type osVersionInfo struct {
	dwOSVersionInfoSize uint32
	dwMajorVersion      uint32
	dwMinorVersion      uint32
	dwBuildNumber       uint32
	dwPlatformId        uint32
	szCSDVersion        [128]uint16
}

var (
	ntdll             = windows.NewLazySystemDLL("ntdll.dll")
	procRtlGetVersion = ntdll.NewProc("RtlGetVersion")
)

// OSBuild returns the running Windows build number, used to gate entries
// like CopyFile2 that only exist from a given build onward
// (hook.ExtendForVersion, hook.WindowsBuildCopyFile2). RtlGetVersion is
// queried directly via ntdll rather than relying on GetVersionEx, which
// is subject to the application-manifest compatibility shim that can lie
// about the real OS build.
func OSBuild() uint32 {
	var info osVersionInfo
	info.dwOSVersionInfoSize = uint32(unsafe.Sizeof(info))

	procRtlGetVersion.Call(uintptr(unsafe.Pointer(&info)))
	return info.dwBuildNumber
}
