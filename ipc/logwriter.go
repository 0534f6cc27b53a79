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

package ipc

import (
	"github.com/winoverlay/winoverlay/domain"
)

// LogWriter adapts a Stream to io.Writer so logrus can write directly into
// the agent/injector IPC channel when [debug].enable_ipc_logging is set:
// every Write becomes one DebugInfo frame.
type LogWriter struct {
	stream *Stream
}

// NewLogWriter wraps stream for use as a logrus output.
func NewLogWriter(stream *Stream) *LogWriter {
	return &LogWriter{stream: stream}
}

// Write sends p as a single DebugInfo message. It always reports the full
// length written on success, since logrus treats a short write as an error
// and there is no partial-frame concept in this transport.
func (w *LogWriter) Write(p []byte) (int, error) {
	if err := w.stream.Send(domain.Message{Kind: domain.DebugInfo, Text: string(p)}); err != nil {
		return 0, err
	}
	return len(p), nil
}
