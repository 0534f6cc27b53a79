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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winoverlay/winoverlay/disposition"
	"github.com/winoverlay/winoverlay/domain"
	"github.com/winoverlay/winoverlay/handles"
	"github.com/winoverlay/winoverlay/hook"
	"github.com/winoverlay/winoverlay/overlay"
	"github.com/winoverlay/winoverlay/querydup"
)

// newScenarioSet builds a Set over an in-memory filesystem with the mount
// point C:\app\data backed by the virtual root C:\app\virtual, mirroring
// §8's fixture for all six end-to-end scenarios.
func newScenarioSet(t *testing.T) *Set {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(`C:\app\data`, 0o777))
	require.NoError(t, fs.MkdirAll(`C:\app\virtual`, 0o777))

	resolver := overlay.NewResolver(domain.MountConfig{
		MountPoint:  `C:\app\data`,
		VirtualRoot: `C:\app\virtual`,
	})

	return NewSet(resolver, handles.NewRegistry(), querydup.NewTracker(), disposition.NewPolicy(), hook.NewInstaller(nil), fs)
}

// Scenario 1: enumerate overlay — a directory under the mount lists the
// virtual root's entries, not the (empty) real directory's.
func TestScenarioEnumerateOverlay(t *testing.T) {
	s := newScenarioSet(t)
	require.NoError(t, s.FS.MkdirAll(`C:\app\virtual\sub`, 0o777))
	require.NoError(t, afero.WriteFile(s.FS, `C:\app\virtual\file.txt`, []byte("x"), 0o644))

	res, err := s.OpenExisting(`C:\app\data`)
	require.NoError(t, err)
	s.RegisterHandle(domain.Handle(1), res)

	names, err := s.QueryDirectoryNames(domain.Handle(1), true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{".", "..", "sub", "file.txt"}, names)
}

// Scenario 2: create new directory succeeds virtual-only.
func TestScenarioCreateNewDirSucceedsVirtualOnly(t *testing.T) {
	s := newScenarioSet(t)

	res, err := s.CreateDirectory(`C:\app\data\newdir`)
	require.NoError(t, err)
	assert.Equal(t, `C:\app\virtual\newdir`, res.Path)
	assert.True(t, res.Rerouted)

	exists, err := afero.DirExists(s.FS, `C:\app\virtual\newdir`)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.DirExists(s.FS, `C:\app\data\newdir`)
	require.NoError(t, err)
	assert.False(t, exists)
}

// Scenario 3: create-new when the real side already has the name fails,
// regardless of whether the virtual side has it too.
func TestScenarioCreateNewFailsWhenRealExists(t *testing.T) {
	s := newScenarioSet(t)
	require.NoError(t, s.FS.MkdirAll(`C:\app\data\existing`, 0o777))

	_, err := s.CreateDirectory(`C:\app\data\existing`)
	assert.Error(t, err)
}

// Scenario 4: delete-file removes the virtual-root counterpart of a
// mounted path without touching the real side.
func TestScenarioDeleteFile(t *testing.T) {
	s := newScenarioSet(t)
	require.NoError(t, afero.WriteFile(s.FS, `C:\app\virtual\gone.txt`, []byte("x"), 0o644))

	require.NoError(t, s.DeleteFile(`C:\app\data\gone.txt`))

	exists, err := afero.Exists(s.FS, `C:\app\virtual\gone.txt`)
	require.NoError(t, err)
	assert.False(t, exists)
}

// Scenario 5: move across names within the mount stays entirely on the
// virtual side.
func TestScenarioMoveWithinMount(t *testing.T) {
	s := newScenarioSet(t)
	require.NoError(t, afero.WriteFile(s.FS, `C:\app\virtual\a.txt`, []byte("data"), 0o644))

	require.NoError(t, s.MoveFile(`C:\app\data\a.txt`, `C:\app\data\b.txt`))

	existsOld, _ := afero.Exists(s.FS, `C:\app\virtual\a.txt`)
	existsNew, _ := afero.Exists(s.FS, `C:\app\virtual\b.txt`)
	assert.False(t, existsOld)
	assert.True(t, existsNew)
}

// Scenario 6: opening a virtual-only directory via NT-style open-existing
// resolves to the virtual root.
func TestScenarioOpenVirtualOnlyDirectory(t *testing.T) {
	s := newScenarioSet(t)
	require.NoError(t, s.FS.MkdirAll(`C:\app\virtual\onlyhere`, 0o777))

	res, err := s.OpenExisting(`C:\app\data\onlyhere`)
	require.NoError(t, err)
	assert.Equal(t, `C:\app\virtual\onlyhere`, res.Path)
	assert.True(t, res.Rerouted)
}

// GetFileAttributes/SetFileAttributes redirect into the virtual root the
// same way the other single-path detours do, and report the mode a
// prior SetFileAttributes call left behind.
func TestGetSetFileAttributesRedirectIntoVirtualRoot(t *testing.T) {
	s := newScenarioSet(t)
	require.NoError(t, afero.WriteFile(s.FS, `C:\app\virtual\cfg.ini`, []byte("x"), 0o644))

	require.NoError(t, s.SetFileAttributes(`C:\app\data\cfg.ini`, 0o444))

	fi, err := s.GetFileAttributes(`C:\app\data\cfg.ini`)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), fi.Mode().Perm())
}
