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

// winoverlay-agent is built with `-buildmode=c-shared`: the injector
// has the target process load this DLL through a remote LoadLibraryW
// thread and then starts a remote thread at its exported Entry symbol
// (§4.10 step 3). Everything past
// decoding the handed-off config lives in the agent package; this file is
// only the cgo boundary and the one place allowed to wire in the actual
// trampoline-patching framework (§1's external collaborator).
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"context"
	"encoding/json"
	"time"

	"github.com/winoverlay/winoverlay/agent"
	"github.com/winoverlay/winoverlay/domain"
	"github.com/winoverlay/winoverlay/ipc"
	"github.com/winoverlay/winoverlay/winapi"
)

// installDetour is the trampoline-patching half of domain.Instrumentor.
// The actual prologue-rewrite/trampoline-allocation logic is the dynamic-
// instrumentation framework §1 explicitly names as out of scope; no
// library in the reference corpus provides it (see DESIGN.md), so this
// placeholder reports the gap instead of silently no-opping.
func installDetour(target, replacement uintptr) (uintptr, error) {
	return 0, domain.NewError(domain.ErrTrampolineFailure, "no instrumentation framework wired into this build")
}

// Entry is the remote-thread target the injector invokes after loading
// this DLL (§4.10 step 4): a single LPVOID-in, DWORD-out signature,
// matching Windows' LPTHREAD_START_ROUTINE exactly so CreateRemoteThread
// can call it directly with no marshaling stub in between. configJSON
// points at the AgentConfig JSON blob the injector already wrote into
// this process' address space. Returns 0 on success, 1 on failure — the
// injector reads this back via GetExitCodeThread.
//
//export Entry
func Entry(configJSON *C.char) C.uint32_t {
	raw := C.GoString(configJSON)

	var stream *ipc.Stream
	if socketName := extractSocketName([]byte(raw)); socketName != "" {
		conn, err := dialAgentSocket(socketName)
		if err == nil {
			stream = conn
		}
	}

	_, err := agent.Init([]byte(raw), winapi.OSBuild(), winapi.ExportResolver{}.ResolveExport, installDetour, stream)
	if err != nil {
		if stream != nil {
			stream.Send(domain.Message{Kind: domain.ErrorMessage, Text: err.Error()})
		}
		return 1
	}

	return 0
}

// extractSocketName pulls socket_name back out of the raw config JSON
// without a second full decode — agent.Init already owns unmarshalling
// into domain.AgentConfig; this is only needed before Init runs, to open
// the IPC stream that Init's own logging setup wants to write into.
func extractSocketName(configJSON []byte) string {
	var probe struct {
		SocketName string `json:"socket_name"`
	}
	if err := json.Unmarshal(configJSON, &probe); err != nil {
		return ""
	}
	return probe.SocketName
}

func dialAgentSocket(name string) (*ipc.Stream, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ipc.Dial(ctx, name)
}

func main() {}
