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

// winoverlay is the injector CLI: given a TOML configuration file (the
// default action) or a bare --pid/--virtual-root/--mount-point triple
// (the existing subcommand), it either spawns a fresh target suspended
// or attaches to one already running, transfers the agent DLL and its
// config, and waits for the hook table to report armed before letting
// the target's own code run. The flag shape and signal handling below
// follow cmd/sysbox-fs/main.go; there the main loop is a FUSE server,
// here it's the target process itself.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/winoverlay/winoverlay/config"
	"github.com/winoverlay/winoverlay/domain"
	"github.com/winoverlay/winoverlay/injector"
	"github.com/winoverlay/winoverlay/logging"
)

const usage = `winoverlay injector

winoverlay <config-file> spawns or attaches to a Windows process and
injects a user-space filesystem overlay: paths under the configured
mount point are transparently redirected to a virtual root, with no
changes to the target binary. Whether it spawns or attaches depends on
whether the config file's [target].pid is set.

winoverlay existing --pid <N> --virtual-root <P> --mount-point <P>
attaches to a running process directly, without a config file.
`

func setupSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigChan
		logrus.Warnf("winoverlay caught signal: %s, cancelling ...", s)
		cancel()
	}()
}

func loadConfig(ctx *cli.Context) (*config.File, error) {
	path := ctx.Args().First()
	if path == "" {
		return nil, fmt.Errorf("a configuration file path is required")
	}
	return config.Load(path)
}

func driverConfig(f *config.File, dllPath string) injector.Config {
	return injector.Config{
		Mount:      f.MountConfig(),
		DLLPath:    dllPath,
		Executable: f.Target.Executable,
		WorkingDir: f.Target.WorkingDir,
		Args:       f.Target.Args,
		LogMode:    f.LogMode(),
	}
}

// runDriver wires up signal handling and profiling, then spawns or attaches
// per cfg/pid, mirroring the sequencing shared by the default action and
// the existing subcommand below.
func runDriver(ctx *cli.Context, drv *injector.Driver, cfg injector.Config, pid uint32) error {
	prof, err := runProfiler(ctx)
	if err != nil {
		return err
	}
	if prof != nil {
		defer prof.Stop()
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	setupSignals(cancel)

	if pid != 0 {
		logrus.Infof("attaching to pid %d with mount %s -> %s", pid, cfg.Mount.MountPoint, cfg.Mount.VirtualRoot)
		if err := drv.Attach(rootCtx, pid, cfg); err != nil {
			return fmt.Errorf("winoverlay: attach: %w", err)
		}
		logrus.Info("hook table armed, detaching")
		return nil
	}

	logrus.Infof("spawning %s with mount %s -> %s", cfg.Executable, cfg.Mount.MountPoint, cfg.Mount.VirtualRoot)
	if err := drv.Spawn(rootCtx, cfg); err != nil {
		return fmt.Errorf("winoverlay: spawn: %w", err)
	}
	logrus.Info("target exited")
	return nil
}

// runProfiler starts cpu or memory profiling collection if requested,
// mutually exclusive the same way the teacher's own runProfiler treats
// them. NoShutdownHook keeps pkg/profile from installing its own SIGTERM
// handler, since setupSignals already owns shutdown.
func runProfiler(ctx *cli.Context) (interface{ Stop() }, error) {
	cpuOn := ctx.GlobalBool("cpu-profiling")
	memOn := ctx.GlobalBool("memory-profiling")

	if cpuOn && memOn {
		return nil, fmt.Errorf("unsupported parameter combination: cpu and memory profiling")
	}
	if !cpuOn && !memOn {
		return nil, nil
	}

	if cpuOn {
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
	}
	return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
}

func main() {
	app := cli.NewApp()
	app.Name = "winoverlay"
	app.Usage = usage

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "agent-dll",
			Value: "winoverlay-agent.dll",
			Usage: "path to the agent DLL transferred into the target",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log categories to include (debug, info, warning, error, fatal)",
		},
		cli.DurationFlag{
			Name:  "patch-wait",
			Value: 10 * time.Second,
			Usage: "how long to wait for the agent to report the hook table armed",
		},
		cli.BoolFlag{
			Name:   "cpu-profiling",
			Usage:  "enable cpu-profiling data collection",
			Hidden: true,
		},
		cli.BoolFlag{
			Name:   "memory-profiling",
			Usage:  "enable memory-profiling data collection",
			Hidden: true,
		},
	}

	app.Before = func(ctx *cli.Context) error {
		logging.Setup(os.Stderr, ctx.GlobalString("log-level"))
		return nil
	}

	// Bare invocation ("winoverlay <config-file>", no subcommand): load the
	// config file and dispatch to spawn or attach depending on whether
	// [target].pid is set, the same branch the original Rust Cli's
	// From<Cli> for InjectorConfig makes on (running, config).
	app.Action = func(ctx *cli.Context) error {
		f, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		if f.Target.PID == 0 && f.Target.Executable == "" {
			return fmt.Errorf("config: either [target].pid or [target].executable is required")
		}

		drv := injector.NewDriver(injector.NewWinSpawner(), ctx.GlobalDuration("patch-wait"))
		cfg := driverConfig(f, ctx.GlobalString("agent-dll"))
		return runDriver(ctx, drv, cfg, f.Target.PID)
	}

	app.Commands = []cli.Command{
		{
			Name:      "existing",
			Usage:     "attach to an already-running process without a config file",
			ArgsUsage: " ",
			Flags: []cli.Flag{
				cli.UintFlag{
					Name:  "pid",
					Usage: "process ID to attach to",
				},
				cli.StringFlag{
					Name:  "virtual-root",
					Usage: "directory overlaid on top of the mount point",
				},
				cli.StringFlag{
					Name:  "mount-point",
					Usage: "path the target sees redirected into virtual-root",
				},
			},
			Action: func(ctx *cli.Context) error {
				pid := uint32(ctx.Uint("pid"))
				if pid == 0 {
					return fmt.Errorf("--pid is required")
				}
				virtualRoot := ctx.String("virtual-root")
				mountPoint := ctx.String("mount-point")
				if virtualRoot == "" || mountPoint == "" {
					return fmt.Errorf("--virtual-root and --mount-point are required")
				}

				cfg := injector.Config{
					Mount: domain.MountConfig{
						MountPoint:  mountPoint,
						VirtualRoot: virtualRoot,
					},
					DLLPath: ctx.GlobalString("agent-dll"),
					LogMode: domain.LogStderr,
				}

				drv := injector.NewDriver(injector.NewWinSpawner(), ctx.GlobalDuration("patch-wait"))
				return runDriver(ctx, drv, cfg, pid)
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
