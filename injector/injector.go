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

// Package injector implements the injector driver (C10): spawn/attach,
// agent-image/config transfer, and the patch-complete wait, the way the
// teacher's cmd/sysbox-fs main.go wires its services together in
// app.Action before entering the FUSE server loop. Here the "server loop"
// is waiting on the target process instead.
package injector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/winoverlay/winoverlay/domain"
	"github.com/winoverlay/winoverlay/ipc"
)

// Config is everything the driver needs beyond the mount configuration:
// which binary to run/attach to and how.
type Config struct {
	Mount      domain.MountConfig
	DLLPath    string
	Executable string
	WorkingDir string
	Args       []string
	LogMode    domain.LogMode
}

// Driver runs one injection end to end. It holds no state across calls;
// Spawn and Attach are each a self-contained sequence.
type Driver struct {
	spawn       spawner
	patchWait   time.Duration
	socketNamer func(pid uint32) string
}

// spawner is the platform seam: winapi's real process-control calls in
// production, a fake in tests. Keeping injector's sequencing logic
// independent of actual Windows syscalls is the same posture detours
// takes toward afero.Fs.
type spawner interface {
	SpawnSuspended(path string, args []string, workingDir string) (proc ProcessHandle, pid uint32, err error)
	Attach(pid uint32) (proc ProcessHandle, err error)
	WriteRemote(proc ProcessHandle, data []byte) (addr uintptr, err error)
	LoadRemoteModule(proc ProcessHandle, dllPath string) (base uintptr, err error)
	RunEntry(proc ProcessHandle, entryAddr, configAddr uintptr) (exitCode uint32, err error)
	Resume(proc ProcessHandle) error
	Wait(proc ProcessHandle) error
	ResolveEntryRVA(dllPath string) (uintptr, error)
}

// ProcessHandle is an opaque platform handle, wrapped so injector's own
// types don't leak windows.Handle into code that must stay buildable and
// testable on any host.
type ProcessHandle uintptr

// NewDriver builds a driver over sp, waiting up to patchWait for the
// agent's finished-patching signal before giving up.
func NewDriver(sp spawner, patchWait time.Duration) *Driver {
	return &Driver{
		spawn:     sp,
		patchWait: patchWait,
		socketNamer: func(pid uint32) string {
			return fmt.Sprintf("winoverlay-%d", pid)
		},
	}
}

// Spawn launches cfg.Executable suspended, transfers the agent, waits for
// the finished-patching signal, then resumes it and blocks until it
// exits (§4.10 steps 1-6, spawn variant).
func (d *Driver) Spawn(ctx context.Context, cfg Config) error {
	proc, pid, err := d.spawn.SpawnSuspended(cfg.Executable, cfg.Args, cfg.WorkingDir)
	if err != nil {
		return fmt.Errorf("injector: spawning %s: %w", cfg.Executable, err)
	}

	if err := d.injectAndWait(ctx, proc, pid, cfg); err != nil {
		return err
	}

	if err := d.spawn.Resume(proc); err != nil {
		return fmt.Errorf("injector: resuming target: %w", err)
	}

	return d.spawn.Wait(proc)
}

// Attach injects into an already-running process and exits successfully
// once patching completes, without waiting for the target to exit
// (§4.10 steps 1-5,7, attach variant).
func (d *Driver) Attach(ctx context.Context, pid uint32, cfg Config) error {
	proc, err := d.spawn.Attach(pid)
	if err != nil {
		return fmt.Errorf("injector: attaching to pid %d: %w", pid, err)
	}

	return d.injectAndWait(ctx, proc, pid, cfg)
}

func (d *Driver) injectAndWait(ctx context.Context, proc ProcessHandle, pid uint32, cfg Config) error {
	socketName := d.socketNamer(pid)

	listener, err := ipc.NewListener(socketName)
	if err != nil {
		return fmt.Errorf("injector: starting listener: %w", err)
	}

	agentCfg := domain.AgentConfig{Mount: cfg.Mount, LogMode: cfg.LogMode, SocketName: socketName}
	configJSON, err := json.Marshal(agentCfg)
	if err != nil {
		return fmt.Errorf("injector: encoding agent config: %w", err)
	}

	base, err := d.spawn.LoadRemoteModule(proc, cfg.DLLPath)
	if err != nil {
		return fmt.Errorf("injector: loading agent image: %w", err)
	}

	configAddr, err := d.spawn.WriteRemote(proc, append(configJSON, 0))
	if err != nil {
		return fmt.Errorf("injector: transferring config: %w", err)
	}

	rva, err := d.spawn.ResolveEntryRVA(cfg.DLLPath)
	if err != nil {
		return fmt.Errorf("injector: resolving entry point: %w", err)
	}

	exitCode, err := d.spawn.RunEntry(proc, base+rva, configAddr)
	if err != nil {
		listener.Close()
		return fmt.Errorf("injector: running entry point: %w", err)
	}
	if exitCode != 0 {
		listener.Close()
		return fmt.Errorf("injector: agent entry point reported failure (code %d)", exitCode)
	}

	stream, err := d.acceptWithTimeout(ctx, listener)
	if err != nil {
		listener.Close()
		return err
	}

	if err := d.awaitFinishedPatching(ctx, stream); err != nil {
		stream.Close()
		listener.Close()
		return err
	}

	// The agent may keep sending log/status frames for as long as the
	// target runs; drain them on the injector's logging sink until the
	// connection drops, per §4.10's "all other messages are routed to the
	// logging sink" and §4.10's cancellation-on-shutdown contract.
	go d.drainLog(stream, listener)

	return nil
}

func (d *Driver) acceptWithTimeout(ctx context.Context, listener *ipc.Listener) (*ipc.Stream, error) {
	waitCtx, cancel := context.WithTimeout(ctx, d.patchWait)
	defer cancel()

	stream, err := listener.Accept(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("injector: waiting for agent connection: %w", err)
	}
	return stream, nil
}

func (d *Driver) awaitFinishedPatching(ctx context.Context, stream *ipc.Stream) error {
	for {
		msg, err := stream.Recv()
		if err != nil {
			return fmt.Errorf("injector: reading agent stream: %w", err)
		}

		switch msg.Kind {
		case domain.FinishedPatching:
			logrus.Info("agent reported hook table installed")
			return nil
		case domain.ErrorMessage:
			return fmt.Errorf("injector: agent reported error: %s", msg.Text)
		default:
			logrus.WithField("kind", msg.Kind).Debug(msg.Text)
		}
	}
}

// drainLog consumes log/status frames for the remainder of the
// connection's life. A read error (including the agent closing the pipe)
// ends the loop silently per §4.10's cancellation semantics.
func (d *Driver) drainLog(stream *ipc.Stream, listener *ipc.Listener) {
	defer stream.Close()
	defer listener.Close()

	for {
		msg, err := stream.Recv()
		if err != nil {
			return
		}
		logrus.WithField("kind", msg.Kind).Debug(msg.Text)
	}
}
