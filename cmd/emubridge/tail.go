package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user-none/emubridge/client"
)

func newTailCommand() *cobra.Command {
	var (
		host  string
		port  int
		count int
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Connect as a controller and print state snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Dial(host, port)
			if err != nil {
				return err
			}
			defer c.Close()

			for i := 0; count <= 0 || i < count; i++ {
				state, err := c.ReceiveState()
				if err != nil {
					return err
				}
				fmt.Println(formatState(state))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "bridge host")
	cmd.Flags().IntVarP(&port, "port", "p", 8765, "bridge port")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many snapshots (0 = forever)")

	return cmd
}

func formatState(state client.GameState) string {
	keys := make([]string, 0, len(state))
	for k := range state {
		if k != "frame" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "frame=%d", state.Frame())
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%d", k, state[k])
	}
	return sb.String()
}
