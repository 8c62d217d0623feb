package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/totegamma/carelog"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a device identity key",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		priv := hex.EncodeToString(crypto.FromECDSA(key))
		address, err := carelog.PrivKeyToAddr(priv, carelog.AddressPrefix)
		if err != nil {
			return err
		}

		if err := os.WriteFile(out, []byte(priv+"\n"), 0o600); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "address:", address)
		fmt.Fprintln(cmd.OutOrStdout(), "keyfile:", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().String("out", "identity.key", "Where to write the private key")
}
