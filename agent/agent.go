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

// Package agent is the in-process entry point (C9): the code that runs
// inside the target process once the injector's remote thread calls its
// exported Entry point. Init wires every service in dependency order and
// installs the hook table, the same way the teacher's cmd/sysbox-fs
// app.Action constructs each service and calls Setup() on it before
// starting the FUSE server loop.
package agent

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/winoverlay/winoverlay/detours"
	"github.com/winoverlay/winoverlay/disposition"
	"github.com/winoverlay/winoverlay/domain"
	"github.com/winoverlay/winoverlay/handles"
	"github.com/winoverlay/winoverlay/hook"
	"github.com/winoverlay/winoverlay/ipc"
	"github.com/winoverlay/winoverlay/logging"
	"github.com/winoverlay/winoverlay/overlay"
	"github.com/winoverlay/winoverlay/querydup"
)

// instrumentor composes winapi's export resolver with an injected detour
// installer, satisfying domain.Instrumentor. The detour-installer half is
// the external dynamic-instrumentation framework named in §1 — this
// package never implements it itself, only plugs it in.
type instrumentor struct {
	resolve func(module, name string) (uintptr, error)
	detour  func(target, replacement uintptr) (uintptr, error)
}

func (i instrumentor) ResolveExport(module, name string) (uintptr, error) {
	return i.resolve(module, name)
}

func (i instrumentor) InstallDetour(target, replacement uintptr) (uintptr, error) {
	return i.detour(target, replacement)
}

// Services is every long-lived object Init constructs, returned so a host
// (tests, or a future non-Windows dry-run harness) can inspect the wiring
// without re-running Init.
type Services struct {
	Resolver  domain.Resolver
	Registry  domain.HandleRegistry
	QueryDup  domain.QueryDuplicates
	Policy    domain.Policy
	Installer domain.Installer
	Detours   *detours.Set
	Stream    *ipc.Stream
}

// DetourInstaller is supplied by cmd/winoverlay-agent/main.go, the one
// place in this repo allowed to know about the actual trampoline-patching
// library (see DESIGN.md).
type DetourInstaller func(target, replacement uintptr) (original uintptr, err error)

// ExportResolver mirrors domain.Instrumentor's ResolveExport half so
// callers can supply winapi.ExportResolver{} without this package
// importing winapi directly (winapi is Windows-only; agent's wiring logic
// itself is platform-independent and unit-testable).
type ExportResolver func(module, name string) (uintptr, error)

// Init performs steps 1-5 of the agent's startup sequence: decode the
// configuration handed off by the injector, stand up every service in
// dependency order, assemble the OS-version-appropriate hook table, and
// install it. osBuild is the running Windows build number (for
// hook.ExtendForVersion); stream is nil when no IPC connection to the
// injector was opened. Log output goes to stream only when the config
// also selects IPC logging.
func Init(configJSON []byte, osBuild uint32, resolve ExportResolver, installDetour DetourInstaller, stream *ipc.Stream) (*Services, error) {
	var cfg domain.AgentConfig
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return nil, fmt.Errorf("agent: decoding config: %w", err)
	}

	var ipcWriter io.Writer
	if stream != nil {
		ipcWriter = ipc.NewLogWriter(stream)
	}
	logging.Setup(logging.WriterForMode(cfg.LogMode == domain.LogIPC, ipcWriter), "info")

	if err := cfg.Mount.Validate(); err != nil {
		return nil, fmt.Errorf("agent: invalid mount config: %w", err)
	}

	resolver := overlay.NewResolver(cfg.Mount)
	registry := handles.NewRegistry()
	queryDup := querydup.NewTracker()
	policy := disposition.NewPolicy()
	installer := hook.NewInstaller(instrumentor{resolve: resolve, detour: installDetour})

	set := detours.NewSet(resolver, registry, queryDup, policy, installer, afero.NewOsFs())

	scaffold := hook.ExtendForVersion(hook.WindowsTable, osBuild)
	table := installer.BuildTable(scaffold, set.Replacements())

	if err := installer.InstallAll(table); err != nil {
		return nil, fmt.Errorf("agent: installing hook table: %w", err)
	}

	logrus.WithField("mount", cfg.Mount.MountPoint).Info("winoverlay agent armed")

	if stream != nil {
		if err := stream.Send(domain.Message{Kind: domain.FinishedPatching, Text: "hook table installed"}); err != nil {
			logrus.WithError(err).Warn("agent: failed to report finished-patching")
		}
	}

	return &Services{
		Resolver:  resolver,
		Registry:  registry,
		QueryDup:  queryDup,
		Policy:    policy,
		Installer: installer,
		Detours:   set,
		Stream:    stream,
	}, nil
}
