// Command zenchain-wallet is the CLI wallet: key management, balance
// lookups, and sending signed transactions to a configured node. Its
// subcommand tree follows the original implementation's clap layout
// (keys generate|list|delete|set-default, get-address, balance, send).
package main

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jjantschulev/zenchain/internal/chain"
	"github.com/jjantschulev/zenchain/internal/codec"
	"github.com/jjantschulev/zenchain/internal/keystore"
	"github.com/jjantschulev/zenchain/internal/peerclient"
	"github.com/jjantschulev/zenchain/internal/wallet"
)

var (
	keysDir  string
	nodeAddr string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zenchain-wallet",
		Short: "Manage zenchain keys and send transactions",
	}
	root.PersistentFlags().StringVar(&keysDir, "keys-dir", "./keys", "directory holding wallet keypairs")
	root.PersistentFlags().StringVar(&nodeAddr, "node", "localhost:8888", "address of the node to talk to")

	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage local keypairs",
	}
	keysCmd.AddCommand(
		newKeysGenerateCmd(),
		newKeysListCmd(),
		newKeysDeleteCmd(),
		newKeysSetDefaultCmd(),
	)

	root.AddCommand(
		keysCmd,
		newGetAddressCmd(),
		newBalanceCmd(),
		newSendCmd(),
	)
	return root
}

func openKeyStore() (*keystore.DiskKeyStore, error) {
	return keystore.New(keysDir)
}

func newKeysGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <name>",
		Short: "Generate a new RSA-2048 keypair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeyStore()
			if err != nil {
				return err
			}
			priv, err := ks.Generate(args[0])
			if err != nil {
				return err
			}
			addr, err := wallet.GetAddress(priv)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %q: %s\n", args[0], chain.FormatAddress(addr))
			return nil
		},
	}
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known key names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeyStore()
			if err != nil {
				return err
			}
			names, err := ks.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newKeysDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a keypair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeyStore()
			if err != nil {
				return err
			}
			return ks.Delete(args[0])
		},
	}
}

func newKeysSetDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <name>",
		Short: "Set the default key used when no key is named explicitly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeyStore()
			if err != nil {
				return err
			}
			return ks.SetDefault(args[0])
		},
	}
}

func newGetAddressCmd() *cobra.Command {
	var keyName string
	cmd := &cobra.Command{
		Use:   "get-address",
		Short: "Print the address of a key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeyStore()
			if err != nil {
				return err
			}
			priv, err := loadNamedOrDefault(ks, keyName)
			if err != nil {
				return err
			}
			addr, err := wallet.GetAddress(priv)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), chain.FormatAddress(addr))
			return nil
		},
	}
	cmd.Flags().StringVar(&keyName, "key", "", "named key; empty uses the default key")
	return cmd
}

func newBalanceCmd() *cobra.Command {
	var addrStr string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Look up an account's balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wallet.Validate(wallet.BalanceInput{Address: addrStr}); err != nil {
				return err
			}
			addr, err := chain.ParseAddress(addrStr)
			if err != nil {
				return err
			}
			w := wallet.New(peerclient.New(), nodeAddr)
			state, err := w.Balance(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "balance: %s\ntransaction_index: %s\n", state.Balance, state.TransactionIndex)
			return nil
		},
	}
	cmd.Flags().StringVar(&addrStr, "address", "", "address to look up")
	return cmd
}

func newSendCmd() *cobra.Command {
	var (
		keyName   string
		recipient string
		amount    string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Sign and submit a transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wallet.Validate(wallet.SendInput{Recipient: recipient, Amount: amount}); err != nil {
				return err
			}
			recipientAddr, err := chain.ParseAddress(recipient)
			if err != nil {
				return err
			}
			amt, err := codec.ParseUint128(amount)
			if err != nil {
				return err
			}

			ks, err := openKeyStore()
			if err != nil {
				return err
			}
			priv, err := loadNamedOrDefault(ks, keyName)
			if err != nil {
				return err
			}

			w := wallet.New(peerclient.New(), nodeAddr)
			if err := w.Send(priv, recipientAddr, amt); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&keyName, "key", "", "named key to send from; empty uses the default key")
	cmd.Flags().StringVar(&recipient, "to", "", "recipient address")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to send")
	return cmd
}

func loadNamedOrDefault(ks *keystore.DiskKeyStore, name string) (*rsa.PrivateKey, error) {
	if name != "" {
		return ks.Load(name)
	}
	return ks.LoadDefault()
}
