// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/xcm/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "xcmsim",
	Short: "Cross-chain messaging simulator",
	Long: `xcmsim runs a network of sovereign chains in one process and lets you
execute messages locally, send them between chains and teleport assets.

Without --config-file a pair of peered chains is used, with alice holding
1000 on both. With --store-dir the ledgers survive between invocations.`,
	Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	config.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(teleportCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(balancesCmd)

	executeCmd.Flags().Uint32P("chain", "c", 1, "Chain to execute on")
	addTransferFlags(executeCmd)

	sendCmd.Flags().Uint32P("chain", "c", 1, "Source chain")
	sendCmd.Flags().Uint32P("dest", "d", 2, "Destination chain")
	addTransferFlags(sendCmd)

	teleportCmd.Flags().Uint32P("chain", "c", 1, "Source chain")
	teleportCmd.Flags().Uint32P("dest", "d", 2, "Destination chain")
	addTransferFlags(teleportCmd)

	translateCmd.Flags().Uint32P("chain", "c", 1, "Chain evaluating the location")
	translateCmd.Flags().Uint8("parents", 0, "Number of parent hops")
	translateCmd.Flags().Uint32("parachain", 0, "Parachain junction, 0 for none")
	translateCmd.Flags().String("account", "", "AccountID32 junction: alice, bob or a hex account ID")
	translateCmd.Flags().String("encoded", "", "Hex encoded location, overrides the other location flags")

	balancesCmd.Flags().Uint32P("chain", "c", 0, "Only show this chain")
}

func addTransferFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("from", "f", "alice", "Sending account: alice, bob or a hex account ID")
	cmd.Flags().StringP("to", "t", "bob", "Beneficiary account: alice, bob or a hex account ID")
	cmd.Flags().Uint64P("amount", "a", 100, "Amount of the native asset")
	cmd.Flags().Uint8("xcm-version", 4, "Message version")
}
