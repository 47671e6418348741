package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/minegate/minegate-node/pkg/network"
)

const defaultPort = "25565"

var rootCmd = &cobra.Command{
	Use:   "mcping <host[:port]>",
	Short: "Ping a Minecraft server and print its status",
	Long: "mcping opens one connection to the given server, runs the\n" +
		"handshake, status, and ping exchanges, and prints the status\n" +
		"document together with the measured round-trip latency.",
	Args:          cobra.ExactArgs(1),
	RunE:          runPing,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.Flags().Duration("timeout", 10*time.Second, "dial timeout")
	rootCmd.Flags().Int32("protocol", 0, "protocol version to announce (0 means the shipped version)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPing(cmd *cobra.Command, args []string) error {
	addr := args[0]
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, defaultPort)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	version, _ := cmd.Flags().GetInt32("protocol")

	d := network.Dialer{Version: version, Timeout: timeout}
	info, latency, err := d.Status(addr)
	if err != nil {
		return fmt.Errorf("failed to ping %s: %w", addr, err)
	}

	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	fmt.Printf("\n%s  %s/%d  %d/%d players  %s\n",
		addr,
		info.Version.Name, info.Version.Protocol,
		info.Players.Online, info.Players.Max,
		latency.Round(time.Millisecond))
	return nil
}
