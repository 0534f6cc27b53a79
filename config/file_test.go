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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winoverlay/winoverlay/domain"
)

const sample = `
[virtual_filesystem]
mount_point = "C:\\app\\data"
virtual_root = "C:\\app\\virtual"

[target]
executable = "C:\\app\\bin\\app.exe"
working_dir = "C:\\app"
args = ["--flag", "value"]

[debug]
enable_ipc_logging = true
tracing_level = "debug"
suppress_target_output = true
print_hook_logs_to_console = false
pipe_target_output = true
`

func writeSample(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "winoverlay.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDecodesAllTables(t *testing.T) {
	path := writeSample(t, sample)

	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, `C:\app\data`, f.VirtualFilesystem.MountPoint)
	assert.Equal(t, `C:\app\virtual`, f.VirtualFilesystem.VirtualRoot)

	assert.Equal(t, `C:\app\bin\app.exe`, f.Target.Executable)
	assert.Equal(t, `C:\app`, f.Target.WorkingDir)
	assert.Equal(t, []string{"--flag", "value"}, f.Target.Args)
	assert.Zero(t, f.Target.PID)

	assert.True(t, f.Debug.EnableIPCLogging)
	assert.Equal(t, "debug", f.Debug.TracingLevel)
	assert.True(t, f.Debug.SuppressTargetOutput)
	assert.False(t, f.Debug.PrintHookLogsToConsole)
	assert.True(t, f.Debug.PipeTargetOutput)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestMountConfigProjection(t *testing.T) {
	f := &File{VirtualFilesystem: VirtualFilesystem{
		MountPoint:  `C:\a`,
		VirtualRoot: `C:\b`,
	}}

	got := f.MountConfig()
	assert.Equal(t, domain.MountConfig{MountPoint: `C:\a`, VirtualRoot: `C:\b`}, got)
}

func TestLogModeFollowsIPCFlag(t *testing.T) {
	withIPC := &File{Debug: Debug{EnableIPCLogging: true}}
	assert.Equal(t, domain.LogIPC, withIPC.LogMode())

	withoutIPC := &File{Debug: Debug{EnableIPCLogging: false}}
	assert.Equal(t, domain.LogStderr, withoutIPC.LogMode())
}

func TestLoadAttachByPID(t *testing.T) {
	path := writeSample(t, `
[virtual_filesystem]
mount_point = "C:\\app\\data"
virtual_root = "C:\\app\\virtual"

[target]
executable = "C:\\app\\bin\\app.exe"
pid = 4242

[debug]
enable_ipc_logging = false
tracing_level = "info"
suppress_target_output = false
print_hook_logs_to_console = true
pipe_target_output = false
`)

	f, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 4242, f.Target.PID)
}
