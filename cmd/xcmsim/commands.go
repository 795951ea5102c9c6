// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/luxfi/xcm"
	"github.com/luxfi/xcm/config"
	"github.com/luxfi/xcm/executor"
	"github.com/luxfi/xcm/location"
	"github.com/luxfi/xcm/network"
	"github.com/luxfi/xcm/types"
)

const deliveryTimeout = 10 * time.Second

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Transfer between two accounts of one chain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withNetwork(cmd, func(ctx context.Context, n *network.Network) error {
			t, err := parseTransfer(cmd)
			if err != nil {
				return err
			}
			node, err := n.Node(flagChain(cmd, "chain"))
			if err != nil {
				return err
			}
			outcome, err := node.Bridge.Execute(ctx, executor.Signed(t.from), t.message, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "executed %d instructions, weight %d\n", outcome.Completed, outcome.WeightUsed)
			return printBalances(cmd.OutOrStdout(), n, 0)
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a transfer to execute on another chain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withNetwork(cmd, func(ctx context.Context, n *network.Network) error {
			t, err := parseTransfer(cmd)
			if err != nil {
				return err
			}
			node, err := n.Node(flagChain(cmd, "chain"))
			if err != nil {
				return err
			}
			dest, err := xcm.NewVersionedLocation(xcm.CurrentVersion, location.Sibling(flagChain(cmd, "dest")))
			if err != nil {
				return err
			}
			id, err := node.Bridge.Send(ctx, executor.Signed(t.from), dest, t.message)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent envelope %s\n", id)
			return settle(ctx, cmd.OutOrStdout(), n)
		})
	},
}

var teleportCmd = &cobra.Command{
	Use:   "teleport",
	Short: "Burn on one chain and mint on another",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withNetwork(cmd, func(ctx context.Context, n *network.Network) error {
			t, err := parseTransfer(cmd)
			if err != nil {
				return err
			}
			node, err := n.Node(flagChain(cmd, "chain"))
			if err != nil {
				return err
			}
			v := xcm.Version(t.version)
			dest, err := xcm.NewVersionedLocation(v, location.Sibling(flagChain(cmd, "dest")))
			if err != nil {
				return err
			}
			beneficiary, err := xcm.NewVersionedLocation(v, location.Account(t.to))
			if err != nil {
				return err
			}
			assets, err := xcm.NewVersionedAssets(v, xcm.Assets{xcm.NativeAsset(t.amount)})
			if err != nil {
				return err
			}
			record, err := node.Bridge.TeleportAssets(ctx, executor.Signed(t.from), dest, beneficiary, assets, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "teleport %s %s\n", record.ID, record.State)
			return settle(ctx, cmd.OutOrStdout(), n)
		})
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Resolve a location to the account it controls on a chain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withNetwork(cmd, func(_ context.Context, n *network.Network) error {
			loc, err := parseLocation(cmd)
			if err != nil {
				return err
			}
			node, err := n.Node(flagChain(cmd, "chain"))
			if err != nil {
				return err
			}
			account, err := node.Chain.Converter().Convert(loc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s -> %s\n", loc, node.Chain.ID(), account)
			return nil
		})
	},
}

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Print the balances of every chain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withNetwork(cmd, func(_ context.Context, n *network.Network) error {
			return printBalances(cmd.OutOrStdout(), n, flagChain(cmd, "chain"))
		})
	},
}

// withNetwork builds the configured network, runs fn and closes it
func withNetwork(cmd *cobra.Command, fn func(context.Context, *network.Network) error) error {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.NewConfig(v)
	if err != nil {
		return err
	}

	logger := log.NewNoOpLogger()
	if v.GetBool(config.VerboseKey) {
		logger = log.Root()
	}
	n, err := network.New(logger, cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	runErr := fn(cmd.Context(), n)
	closeErr := n.Close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// settle waits for routed envelopes, then reports failures and balances
func settle(ctx context.Context, w io.Writer, n *network.Network) error {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()
	if err := n.WaitIdle(ctx); err != nil {
		return err
	}
	for _, failure := range n.Router().Failures() {
		fmt.Fprintf(w, "delivery failed: %s\n", failure.Err)
	}
	for _, id := range n.ChainIDs() {
		node, err := n.Node(id)
		if err != nil {
			return err
		}
		for _, failure := range node.Chain.Failures() {
			fmt.Fprintf(w, "%s rejected message from %s #%d: %s\n", id, failure.Source, failure.Nonce, failure.Err)
		}
	}
	return printBalances(w, n, 0)
}

func printBalances(w io.Writer, n *network.Network, only types.ChainID) error {
	for _, id := range n.ChainIDs() {
		if only != 0 && id != only {
			continue
		}
		node, err := n.Node(id)
		if err != nil {
			return err
		}
		balances, err := node.Chain.Ledger().Balances()
		if err != nil {
			return err
		}
		issuance, err := node.Chain.Ledger().TotalIssuance()
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%s (issuance %s)\n", id, issuance.Dec())
		accounts := make([]types.AccountID, 0, len(balances))
		for account := range balances {
			accounts = append(accounts, account)
		}
		sort.Slice(accounts, func(i, j int) bool {
			return bytes.Compare(accounts[i][:], accounts[j][:]) < 0
		})
		for _, account := range accounts {
			fmt.Fprintf(w, "  %-8s %s\n", accountName(account), balances[account].Dec())
		}
	}
	return nil
}

type transfer struct {
	from, to types.AccountID
	amount   uint64
	version  uint8
	message  xcm.VersionedMessage
}

func parseTransfer(cmd *cobra.Command) (transfer, error) {
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	amount, _ := cmd.Flags().GetUint64("amount")
	version, _ := cmd.Flags().GetUint8("xcm-version")

	from, err := parseAccount(fromFlag)
	if err != nil {
		return transfer{}, err
	}
	to, err := parseAccount(toFlag)
	if err != nil {
		return transfer{}, err
	}
	msg, err := xcm.NewBuilder().TransferAsset(xcm.NativeAsset(amount), location.Account(to)).Build()
	if err != nil {
		return transfer{}, err
	}
	vm, err := xcm.NewVersionedMessage(xcm.Version(version), msg)
	if err != nil {
		return transfer{}, err
	}
	return transfer{
		from:    from,
		to:      to,
		amount:  amount,
		version: version,
		message: vm,
	}, nil
}

func parseLocation(cmd *cobra.Command) (location.Location, error) {
	if encoded, _ := cmd.Flags().GetString("encoded"); encoded != "" {
		b, err := hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
		if err != nil {
			return location.Location{}, fmt.Errorf("invalid encoded location: %w", err)
		}
		return location.Parse(b)
	}

	parents, _ := cmd.Flags().GetUint8("parents")
	parachain, _ := cmd.Flags().GetUint32("parachain")
	accountFlag, _ := cmd.Flags().GetString("account")

	var interior []location.Junction
	if parachain != 0 {
		interior = append(interior, location.Parachain(types.ChainID(parachain)))
	}
	if accountFlag != "" {
		account, err := parseAccount(accountFlag)
		if err != nil {
			return location.Location{}, err
		}
		interior = append(interior, location.AccountID32(types.AnyNetwork, account))
	}
	return location.New(parents, interior...), nil
}

func parseAccount(s string) (types.AccountID, error) {
	switch strings.ToLower(s) {
	case "alice":
		return config.Alice, nil
	case "bob":
		return config.Bob, nil
	default:
		return types.AccountIDFromHex(s)
	}
}

func accountName(account types.AccountID) string {
	switch account {
	case config.Alice:
		return "alice"
	case config.Bob:
		return "bob"
	default:
		return account.String()
	}
}

func flagChain(cmd *cobra.Command, name string) types.ChainID {
	id, _ := cmd.Flags().GetUint32(name)
	return types.ChainID(id)
}
