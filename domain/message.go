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

package domain

// MessageKind enumerates the frame kinds that flow over the agent/injector
// IPC channel (§6). The transport treats the payload as opaque; only the
// two endpoints interpret it.
type MessageKind int

const (
	DebugInfo MessageKind = iota
	DebugDefaultIntercept
	FinishedPatching
	ErrorMessage
)

func (k MessageKind) String() string {
	switch k {
	case DebugInfo:
		return "DebugInfo"
	case DebugDefaultIntercept:
		return "DebugDefaultIntercept"
	case FinishedPatching:
		return "FinishedPatching"
	case ErrorMessage:
		return "Error"
	default:
		return "Unknown"
	}
}

// Message is one frame of the agent/injector IPC stream.
type Message struct {
	Kind MessageKind `cbor:"kind"`
	Text string      `cbor:"text,omitempty"`
}
