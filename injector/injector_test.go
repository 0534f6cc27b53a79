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

package injector

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winoverlay/winoverlay/domain"
	"github.com/winoverlay/winoverlay/ipc"
)

// fakeSpawner is a process-control double: no real process is ever
// started, only the call sequence and arguments are recorded, the same
// posture detours/scenarios_test.go takes toward afero.Fs.
type fakeSpawner struct {
	calls       []string
	loadBase    uintptr
	entryRVA    uintptr
	entryExit   uint32
	failLoad    bool
	resumeCalls int32
	waitCalls   int32
}

func (f *fakeSpawner) SpawnSuspended(path string, args []string, workingDir string) (ProcessHandle, uint32, error) {
	f.calls = append(f.calls, "spawn")
	return ProcessHandle(1), 4242, nil
}

func (f *fakeSpawner) Attach(pid uint32) (ProcessHandle, error) {
	f.calls = append(f.calls, "attach")
	return ProcessHandle(2), nil
}

func (f *fakeSpawner) WriteRemote(proc ProcessHandle, data []byte) (uintptr, error) {
	f.calls = append(f.calls, "write")
	return 0x1000, nil
}

func (f *fakeSpawner) LoadRemoteModule(proc ProcessHandle, dllPath string) (uintptr, error) {
	f.calls = append(f.calls, "load")
	if f.failLoad {
		return 0, fmt.Errorf("fake: LoadLibraryW failed")
	}
	return f.loadBase, nil
}

func (f *fakeSpawner) RunEntry(proc ProcessHandle, entryAddr, configAddr uintptr) (uint32, error) {
	f.calls = append(f.calls, "run")
	return f.entryExit, nil
}

func (f *fakeSpawner) Resume(proc ProcessHandle) error {
	atomic.AddInt32(&f.resumeCalls, 1)
	return nil
}

func (f *fakeSpawner) Wait(proc ProcessHandle) error {
	atomic.AddInt32(&f.waitCalls, 1)
	return nil
}

func (f *fakeSpawner) ResolveEntryRVA(dllPath string) (uintptr, error) {
	f.calls = append(f.calls, "rva")
	return f.entryRVA, nil
}

func testConfig() Config {
	return Config{
		Mount:      domain.MountConfig{MountPoint: `C:\data`, VirtualRoot: `C:\overlay`},
		DLLPath:    `C:\agent.dll`,
		Executable: `C:\app.exe`,
		LogMode:    domain.LogStderr,
	}
}

// serveAgentSide dials the socket the driver is listening on and drives a
// minimal handshake: send FinishedPatching, then one debug frame, then
// close — exercising both awaitFinishedPatching and the background
// drainLog loop.
func serveAgentSide(t *testing.T, socketName string, extra ...domain.Message) {
	t.Helper()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		var stream *ipc.Stream
		var err error
		for i := 0; i < 50; i++ {
			stream, err = ipc.Dial(ctx, socketName)
			if err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err != nil {
			return
		}
		defer stream.Close()

		stream.Send(domain.Message{Kind: domain.FinishedPatching, Text: "armed"})
		for _, m := range extra {
			stream.Send(m)
		}
	}()
}

func TestAttachCompletesHandshakeAndResumesNothing(t *testing.T) {
	fs := &fakeSpawner{loadBase: 0x400000, entryRVA: 0x1200}
	d := NewDriver(fs, 2*time.Second)
	d.socketNamer = func(pid uint32) string { return fmt.Sprintf("winoverlay-test-attach-%d", pid) }

	serveAgentSide(t, d.socketNamer(99), domain.Message{Kind: domain.DebugInfo, Text: "hook table ready"})

	err := d.Attach(context.Background(), 99, testConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"attach", "load", "write", "rva", "run"}, fs.calls)
	assert.EqualValues(t, 0, atomic.LoadInt32(&fs.resumeCalls))
}

func TestSpawnResumesAndWaitsAfterHandshake(t *testing.T) {
	fs := &fakeSpawner{loadBase: 0x500000, entryRVA: 0x30}
	d := NewDriver(fs, 2*time.Second)
	d.socketNamer = func(pid uint32) string { return fmt.Sprintf("winoverlay-test-spawn-%d", pid) }

	serveAgentSide(t, d.socketNamer(4242))

	err := d.Spawn(context.Background(), testConfig())
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fs.resumeCalls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&fs.waitCalls))
}

func TestAttachPropagatesAgentReportedFailure(t *testing.T) {
	fs := &fakeSpawner{loadBase: 0x400000, entryRVA: 0x10}
	d := NewDriver(fs, 2*time.Second)
	d.socketNamer = func(pid uint32) string { return fmt.Sprintf("winoverlay-test-fail-%d", pid) }

	socketName := d.socketNamer(7)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		var stream *ipc.Stream
		var err error
		for i := 0; i < 50; i++ {
			stream, err = ipc.Dial(ctx, socketName)
			if err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err != nil {
			return
		}
		defer stream.Close()
		stream.Send(domain.Message{Kind: domain.ErrorMessage, Text: "hook install failed"})
	}()

	err := d.Attach(context.Background(), 7, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook install failed")
}

func TestAttachTimesOutWithoutAgentConnection(t *testing.T) {
	fs := &fakeSpawner{loadBase: 0x400000, entryRVA: 0x10}
	d := NewDriver(fs, 100*time.Millisecond)
	d.socketNamer = func(pid uint32) string { return fmt.Sprintf("winoverlay-test-timeout-%d", pid) }

	err := d.Attach(context.Background(), 13, testConfig())
	require.Error(t, err)
}

func TestAttachFailsWhenEntryPointReportsNonZeroExit(t *testing.T) {
	fs := &fakeSpawner{loadBase: 0x400000, entryRVA: 0x10, entryExit: 1}
	d := NewDriver(fs, 2*time.Second)
	d.socketNamer = func(pid uint32) string { return fmt.Sprintf("winoverlay-test-badexit-%d", pid) }

	err := d.Attach(context.Background(), 21, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reported failure")
}

func TestAttachFailsWhenRemoteModuleLoadFails(t *testing.T) {
	fs := &fakeSpawner{failLoad: true}
	d := NewDriver(fs, 2*time.Second)
	d.socketNamer = func(pid uint32) string { return fmt.Sprintf("winoverlay-test-noload-%d", pid) }

	err := d.Attach(context.Background(), 5, testConfig())
	require.Error(t, err)
	assert.Equal(t, []string{"attach", "load"}, fs.calls)
}
