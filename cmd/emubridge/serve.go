package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/user-none/emubridge/bridge"
	"github.com/user-none/emubridge/config"
	"github.com/user-none/emubridge/simcore"
	"github.com/user-none/emubridge/snapshot"
	"github.com/user-none/emubridge/transport"
)

func newServeCommand() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		backends   []string
		fps        int
		ramSize    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge against a simulated host",
		Long: `Runs the bridge loop against an in-process simulated host at a
fixed frame rate. Useful for developing and testing controllers
without an emulator attached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fps < 1 {
				return fmt.Errorf("fps must be at least 1")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Listen.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Listen.Port = port
			}
			if cmd.Flags().Changed("backend") {
				cfg.Backends = backends
			}

			srv, err := transport.Probe(cfg.Backends, cfg.TransportConfig())
			if err != nil {
				return err
			}
			defer srv.Close()

			core := simcore.New(ramSize)
			src, err := snapshot.NewSource(core, cfg.MemoryDomain, cfg.SnapshotWatchers())
			if err != nil {
				return err
			}

			b := bridge.New(srv, core, src)
			defer b.Close()

			log := commonlog.GetLogger("serve")
			log.Noticef("listening on %s at %d fps", srv.Addr(), fps)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(time.Second / time.Duration(fps))
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					log.Notice("shutting down")
					return nil
				case <-ticker.C:
					b.Tick()
					core.StepFrame()
				}
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bridge.yaml", "config file path")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "listen host")
	cmd.Flags().IntVarP(&port, "port", "p", 8765, "listen port")
	cmd.Flags().StringSliceVar(&backends, "backend", nil,
		fmt.Sprintf("transport backends to probe, in order (%v)", transport.Backends()))
	cmd.Flags().IntVar(&fps, "fps", 60, "frames per second")
	cmd.Flags().IntVar(&ramSize, "ram", 64*1024, "simulated RAM size in bytes")

	return cmd
}
