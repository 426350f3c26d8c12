// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/crypto"
	log "github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/luxfi/xbridge/config"
	"github.com/luxfi/xbridge/messenger"
	"github.com/luxfi/xbridge/runtime"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "xbridge",
		Short:         "Operator tools for the cross-chain stable-swap bridge",
		Long:          `Hash and sign bridge messages, check deployment configs and quote bridging fees`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newHashCmd(),
		newSignCmd(),
		newRecoverCmd(),
		newProofCmd(),
		newCheckCmd(),
		newQuoteCmd(),
	)
	return root
}

func parseAmount(s string) (*uint256.Int, error) {
	if strings.HasPrefix(s, "0x") {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}

// parseAccount reads either a 20 byte address or a 32 byte account.
func parseAccount(s string) (common.Hash, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("account %q: %w", s, err)
	}
	switch len(raw) {
	case common.AddressLength:
		return messenger.AddressToBytes32(common.BytesToAddress(raw)), nil
	case common.HashLength:
		return common.BytesToHash(raw), nil
	default:
		return common.Hash{}, fmt.Errorf("account %q: want 20 or 32 bytes, got %d", s, len(raw))
	}
}

func parseHash(s string) (common.Hash, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("hash %q: want 32 bytes, got %d", s, len(raw))
	}
	return common.BytesToHash(raw), nil
}

func newHashCmd() *cobra.Command {
	var (
		amount, recipient, token, nonce, sender string
		source, dest                            uint8
	)
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Compute the message of a transfer and its sender bound form",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseAmount(amount)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			n, err := parseAmount(nonce)
			if err != nil {
				return fmt.Errorf("nonce: %w", err)
			}
			to, err := parseAccount(recipient)
			if err != nil {
				return err
			}
			tok, err := parseAccount(token)
			if err != nil {
				return err
			}
			message := messenger.HashMessage(a, to, source, dest, tok, n, messenger.ProtocolValidators)
			fmt.Fprintf(cmd.OutOrStdout(), "message:    %s\n", message.Hex())
			if sender != "" {
				from, err := parseAccount(sender)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "withSender: %s\n", messenger.HashWithSender(message, from).Hex())
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&amount, "amount", "", "vUSD amount in system precision")
	f.StringVar(&recipient, "recipient", "", "recipient on the destination chain")
	f.StringVar(&token, "token", "", "token to receive on the destination chain")
	f.StringVar(&nonce, "nonce", "0", "transfer nonce")
	f.StringVar(&sender, "sender", "", "source bridge, to print the relayed message")
	f.Uint8Var(&source, "source", 0, "source chain id")
	f.Uint8Var(&dest, "dest", 0, "destination chain id")
	for _, name := range []string{"amount", "recipient", "token", "source", "dest"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newSignCmd() *cobra.Command {
	var message, key string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a relayed message with a validator key",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHash(message)
			if err != nil {
				return err
			}
			priv, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x"))
			if err != nil {
				return fmt.Errorf("key: %w", err)
			}
			sig, err := messenger.Sign(h, priv)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(sig))
			return nil
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "sender bound message")
	cmd.Flags().StringVar(&key, "key", "", "hex encoded secp256k1 private key")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newRecoverCmd() *cobra.Command {
	var message, sig string
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Print the validator that signed a relayed message",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHash(message)
			if err != nil {
				return err
			}
			raw, err := hexutil.Decode(sig)
			if err != nil {
				return fmt.Errorf("signature: %w", err)
			}
			signer, err := messenger.Recover(h, raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signer.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "sender bound message")
	cmd.Flags().StringVar(&sig, "sig", "", "65 byte signature")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("sig")
	return cmd
}

func newProofCmd() *cobra.Command {
	var message, primary, secondary string
	cmd := &cobra.Command{
		Use:   "proof",
		Short: "Pack a relayed message and its validator signatures for delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseHash(message)
			if err != nil {
				return err
			}
			sig1, err := hexutil.Decode(primary)
			if err != nil {
				return fmt.Errorf("primary: %w", err)
			}
			sig2, err := hexutil.Decode(secondary)
			if err != nil {
				return fmt.Errorf("secondary: %w", err)
			}
			packed, err := messenger.Proof{Message: h, PrimarySig: sig1, SecondarySig: sig2}.Pack()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(packed))
			return nil
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "sender bound message")
	cmd.Flags().StringVar(&primary, "primary", "", "primary validator signature")
	cmd.Flags().StringVar(&secondary, "secondary", "", "secondary validator signature")
	for _, name := range []string{"message", "primary", "secondary"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config.json>",
		Short: "Verify a deployment config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chain %d: bridge %s, messenger %s, gas oracle %s\n",
				cfg.ChainID, cfg.Bridge.Address.Hex(), cfg.Messenger.Address.Hex(), cfg.GasOracle.Address.Hex())
			fmt.Fprintf(out, "other chains: %v\n", cfg.Messenger.OtherChainIDs)
			for _, p := range cfg.Pools {
				fmt.Fprintf(out, "pool %s: token %s, a=%d fee=%dbp\n", p.Address.Hex(), p.Token.Hex(), p.A, p.FeeShareBP)
			}
			return nil
		},
	}
}

func newQuoteCmd() *cobra.Command {
	var (
		dest  uint8
		token string
	)
	cmd := &cobra.Command{
		Use:   "quote <config.json>",
		Short: "Quote the bridging fee to a chain from a deployment config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			rt := runtime.New(memdb.New(), log.Root(), cfg.ChainID)
			if err := rt.Deploy(cfg); err != nil {
				return err
			}
			var tokenAddr common.Address
			if token != "" {
				if !common.IsHexAddress(token) {
					return fmt.Errorf("token %q is not an address", token)
				}
				tokenAddr = common.HexToAddress(token)
			}
			out := cmd.OutOrStdout()
			_, err = rt.Execute(rt.Env(cfg.Admin), func(c *runtime.Call) error {
				b, err := c.Bridge()
				if err != nil {
					return err
				}
				m, err := c.Messenger()
				if err != nil {
					return err
				}
				bridgeCost, err := b.TransactionCost(dest)
				if err != nil {
					return err
				}
				messageCost, err := m.TransactionCost(dest)
				if err != nil {
					return err
				}
				fee := new(uint256.Int).Add(bridgeCost, messageCost)
				fmt.Fprintf(out, "receive gas cost:  %s\n", bridgeCost.Dec())
				fmt.Fprintf(out, "message cost:      %s\n", messageCost.Dec())
				fmt.Fprintf(out, "fee in native:     %s\n", fee.Dec())
				if tokenAddr == (common.Address{}) {
					return nil
				}
				inTokens, err := b.BridgingCostInTokens(dest, tokenAddr)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "fee in %s: %s\n", tokenAddr.Hex(), inTokens.Dec())
				return nil
			})
			return err
		},
	}
	cmd.Flags().Uint8Var(&dest, "dest", 0, "destination chain id")
	cmd.Flags().StringVar(&token, "token", "", "also quote the fee in this pool token")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}
