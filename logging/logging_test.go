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

package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetupAppliesRecognizedLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "debug")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestSetupFallsBackToInfoOnUnrecognizedLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "not-a-real-level")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestWriterForModePrefersIPCWhenEnabled(t *testing.T) {
	var ipcBuf bytes.Buffer
	w := WriterForMode(true, &ipcBuf)
	assert.Same(t, &ipcBuf, w)
}

func TestWriterForModeFallsBackToStderrWhenDisabled(t *testing.T) {
	var ipcBuf bytes.Buffer
	w := WriterForMode(false, &ipcBuf)
	assert.NotSame(t, &ipcBuf, w)
}
