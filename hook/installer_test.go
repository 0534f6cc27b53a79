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

package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winoverlay/winoverlay/domain"
)

// fakeInstrumentor resolves exports only for modules/names it was seeded
// with, and hands back a deterministic original address per call.
type fakeInstrumentor struct {
	exports map[string]uintptr
	nextOrig uintptr
}

func (f *fakeInstrumentor) ResolveExport(module, name string) (uintptr, error) {
	if addr, ok := f.exports[module+"!"+name]; ok {
		return addr, nil
	}
	return 0, domain.NewError(domain.ErrFunctionNotFound, module+"!"+name)
}

func (f *fakeInstrumentor) InstallDetour(target, replacement uintptr) (uintptr, error) {
	f.nextOrig++
	return f.nextOrig, nil
}

func TestInstallAllResolvesPrimaryModule(t *testing.T) {
	instr := &fakeInstrumentor{exports: map[string]uintptr{"ntdll.dll!NtClose": 0x1000}}
	in := NewInstaller(instr)

	table := in.BuildTable(domain.Table{
		{Primary: "ntdll.dll", Entries: []domain.Entry{{Name: "NtClose"}}},
	}, map[string]uintptr{"NtClose": 0x2000})

	require.NoError(t, in.InstallAll(table))

	orig, ok := in.Original("ntdll.dll", "NtClose")
	require.True(t, ok)
	assert.Equal(t, uintptr(1), orig)

	orig, ok = in.OriginalByName("NtClose")
	require.True(t, ok)
	assert.Equal(t, uintptr(1), orig)
}

func TestInstallAllFallsBackToSecondModule(t *testing.T) {
	instr := &fakeInstrumentor{exports: map[string]uintptr{"kernel32.dll!DeleteFileW": 0x1000}}
	in := NewInstaller(instr)

	table := in.BuildTable(domain.Table{
		{Primary: "kernelbase.dll", Fallback: "kernel32.dll", Entries: []domain.Entry{{Name: "DeleteFileW"}}},
	}, map[string]uintptr{"DeleteFileW": 0x2000})

	require.NoError(t, in.InstallAll(table))

	_, ok := in.Original("kernelbase.dll", "DeleteFileW")
	assert.False(t, ok)

	orig, ok := in.Original("kernel32.dll", "DeleteFileW")
	require.True(t, ok)
	assert.Equal(t, uintptr(1), orig)
}

func TestInstallAllSkipsEntriesWithoutInstall(t *testing.T) {
	instr := &fakeInstrumentor{}
	in := NewInstaller(instr)

	table := domain.Table{
		{Primary: "ntdll.dll", Entries: []domain.Entry{{Name: "NtTerminateProcess"}}},
	}

	assert.NoError(t, in.InstallAll(table))
	_, ok := in.OriginalByName("NtTerminateProcess")
	assert.False(t, ok)
}

func TestInstallAllFailsWhenNeitherModuleHasExport(t *testing.T) {
	instr := &fakeInstrumentor{}
	in := NewInstaller(instr)

	table := in.BuildTable(domain.Table{
		{Primary: "kernelbase.dll", Fallback: "kernel32.dll", Entries: []domain.Entry{{Name: "DeleteFileW"}}},
	}, map[string]uintptr{"DeleteFileW": 0x2000})

	err := in.InstallAll(table)
	assert.Error(t, err)
}

func TestRecordRejectsDuplicate(t *testing.T) {
	in := NewInstaller(&fakeInstrumentor{})
	require.NoError(t, in.Record("ntdll.dll", "NtClose", 1))
	assert.Error(t, in.Record("ntdll.dll", "NtClose", 2))
}

func TestExtendForVersionDropsNewerEntries(t *testing.T) {
	table := domain.Table{
		{
			Primary: "kernelbase.dll",
			Entries: []domain.Entry{
				{Name: "CopyFileExW"},
				{Name: "CopyFile2", MinOSVersion: WindowsBuildCopyFile2},
			},
		},
	}

	extended := ExtendForVersion(table, WindowsBuildCopyFile2-1)
	require.Len(t, extended[0].Entries, 1)
	assert.Equal(t, "CopyFileExW", extended[0].Entries[0].Name)

	extended = ExtendForVersion(table, WindowsBuildCopyFile2)
	require.Len(t, extended[0].Entries, 2)
}
