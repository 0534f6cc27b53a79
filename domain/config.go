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

import (
	"fmt"
	"os"
	"path/filepath"
)

// MountConfig describes the overlay attachment: a mount point visible to
// the target process and the virtual root that backs it. Both members are
// required absolute paths and must exist at injection time. Once built,
// a MountConfig is never mutated.
type MountConfig struct {
	MountPoint  string `json:"mount_point"`
	VirtualRoot string `json:"virtual_root"`
}

// Validate checks the write-once invariants required before a MountConfig
// may be handed to the resolver: both paths absolute, both present on disk.
func (c MountConfig) Validate() error {
	if !filepath.IsAbs(c.MountPoint) {
		return fmt.Errorf("mount point %q is not absolute", c.MountPoint)
	}
	if !filepath.IsAbs(c.VirtualRoot) {
		return fmt.Errorf("virtual root %q is not absolute", c.VirtualRoot)
	}

	if fi, err := os.Stat(c.MountPoint); err != nil {
		return fmt.Errorf("mount point %q: %w", c.MountPoint, err)
	} else if !fi.IsDir() {
		return fmt.Errorf("mount point %q is not a directory", c.MountPoint)
	}

	if fi, err := os.Stat(c.VirtualRoot); err != nil {
		return fmt.Errorf("virtual root %q: %w", c.VirtualRoot, err)
	} else if !fi.IsDir() {
		return fmt.Errorf("virtual root %q is not a directory", c.VirtualRoot)
	}

	return nil
}

// LogMode selects where the agent sends its log/status stream.
type LogMode int

const (
	LogNone LogMode = iota
	LogStderr
	LogIPC
)

// AgentConfig is the record transferred from the injector to the agent and
// decoded once inside the target process. Write-once after Entry() decodes
// it; every component reads it without further synchronization.
type AgentConfig struct {
	Mount      MountConfig `json:"mount"`
	LogMode    LogMode     `json:"log_mode"`
	SocketName string      `json:"socket_name,omitempty"`
}
