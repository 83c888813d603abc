package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var version = "0.1.0"

func main() {
	var verbose int

	rootCmd := &cobra.Command{
		Use:   "emubridge",
		Short: "Frame-synchronized bridge between an emulator and a controller",
		Long: `emubridge exposes a running emulator over a line-delimited JSON
protocol: controllers connect over TCP, WebSocket or serial, send
button and macro commands, and receive a memory snapshot every frame.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbose, nil)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newLaunchCommand())
	rootCmd.AddCommand(newTailCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
