package main

import (
	"github.com/spf13/cobra"

	"github.com/user-none/emubridge/config"
	"github.com/user-none/emubridge/launcher"
	"github.com/user-none/emubridge/romfile"
)

func newLaunchCommand() *cobra.Command {
	var (
		configPath string
		kind       string
		path       string
		rom        string
		script     string
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Start an emulator with the bridge script loaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("emulator") {
				cfg.Emulator.Kind = kind
			}
			if cmd.Flags().Changed("path") {
				cfg.Emulator.Path = path
			}
			if cmd.Flags().Changed("rom") {
				cfg.Emulator.ROM = rom
			}
			if cmd.Flags().Changed("script") {
				cfg.Emulator.Script = script
			}

			k, err := launcher.ParseKind(cfg.Emulator.Kind)
			if err != nil {
				return err
			}

			romPath, cleanup, err := romfile.Resolve(cfg.Emulator.ROM)
			if err != nil {
				return err
			}
			// A detached emulator still reads the unpacked ROM after we
			// exit; only reclaim it when we outlive the process.
			if wait {
				defer cleanup()
			}

			l := &launcher.Launcher{
				Kind:       k,
				Executable: cfg.Emulator.Path,
				ROM:        romPath,
				Script:     cfg.Emulator.Script,
				ExtraArgs:  cfg.Emulator.Args,
			}
			_, err = l.Start(wait)
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bridge.yaml", "config file path")
	cmd.Flags().StringVarP(&kind, "emulator", "e", "mgba", "emulator kind (mgba, bizhawk)")
	cmd.Flags().StringVar(&path, "path", "", "emulator executable")
	cmd.Flags().StringVar(&rom, "rom", "", "ROM file")
	cmd.Flags().StringVar(&script, "script", "", "automation script")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "block until the emulator exits")

	return cmd
}
