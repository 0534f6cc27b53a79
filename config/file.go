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

// Package config loads the injector's TOML configuration file (§6) with
// spf13/viper, the same typed config-file loader GoogleCloudPlatform-
// gcsfuse and jingkaihe-matchlock both reach for.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/winoverlay/winoverlay/domain"
)

// VirtualFilesystem is the `[virtual_filesystem]` table.
type VirtualFilesystem struct {
	MountPoint  string `mapstructure:"mount_point"`
	VirtualRoot string `mapstructure:"virtual_root"`
}

// Target is the `[target]` table: what the injector spawns or attaches to.
type Target struct {
	Executable string   `mapstructure:"executable"`
	WorkingDir string   `mapstructure:"working_dir"`
	Args       []string `mapstructure:"args"`
	PID        uint32   `mapstructure:"pid"`
}

// Debug is the `[debug]` table.
type Debug struct {
	EnableIPCLogging        bool   `mapstructure:"enable_ipc_logging"`
	TracingLevel            string `mapstructure:"tracing_level"`
	SuppressTargetOutput    bool   `mapstructure:"suppress_target_output"`
	PrintHookLogsToConsole  bool   `mapstructure:"print_hook_logs_to_console"`
	PipeTargetOutput        bool   `mapstructure:"pipe_target_output"`
}

// File is the fully decoded injector configuration file.
type File struct {
	VirtualFilesystem VirtualFilesystem `mapstructure:"virtual_filesystem"`
	Target            Target            `mapstructure:"target"`
	Debug             Debug             `mapstructure:"debug"`
}

// Load reads and decodes the TOML file at path.
func Load(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	return &f, nil
}

// MountConfig projects the file's virtual-filesystem table into the
// domain type the resolver is built from.
func (f *File) MountConfig() domain.MountConfig {
	return domain.MountConfig{
		MountPoint:  f.VirtualFilesystem.MountPoint,
		VirtualRoot: f.VirtualFilesystem.VirtualRoot,
	}
}

// LogMode derives the agent's log mode from the debug table: IPC logging
// wins when enabled (the agent streams status back to the injector),
// otherwise it falls back to stderr so a manually-launched agent still
// produces visible output.
func (f *File) LogMode() domain.LogMode {
	if f.Debug.EnableIPCLogging {
		return domain.LogIPC
	}
	return domain.LogStderr
}
