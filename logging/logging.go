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

// Package logging sets up the logrus logger shared by the injector and the
// agent, the same formatter/level dance the teacher's cmd/sysbox-fs main.go
// runs in app.Before, generalized here to a function both binaries call
// instead of being wired one-off into a cli.App.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup points logrus at out, formats timestamps the way the teacher does
// ("2006-01-02 15:04:05", full timestamp, text formatter) and applies
// tracingLevel (a logrus level name: debug/info/warning/error/fatal; the
// injector passes its --log-level flag, the agent passes "info"). An
// unrecognized level falls back to info rather than
// aborting, since a misconfigured tracing level shouldn't keep the agent
// from attaching inside the target process.
func Setup(out io.Writer, tracingLevel string) {
	if out == nil {
		out = os.Stderr
	}
	logrus.SetOutput(out)

	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	level, err := logrus.ParseLevel(tracingLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// WriterForMode resolves where log output should go given the debug table's
// enable_ipc_logging flag: true streams logs over the agent/injector IPC
// channel via ipcWriter (a Stream.Send-backed writer supplied by the
// caller), false (or a nil ipcWriter) falls back to stderr so a manually-launched agent still prints something
// a developer attached to the console can see.
func WriterForMode(ipcEnabled bool, ipcWriter io.Writer) io.Writer {
	if ipcEnabled && ipcWriter != nil {
		return ipcWriter
	}
	return os.Stderr
}

// Fatalf logs at fatal level and exits, mirroring the teacher's
// logrus.Fatalf("... Exiting ...") call sites in app.Before.
func Fatalf(format string, args ...interface{}) {
	logrus.Fatalf(fmt.Sprintf(format, args...))
}
