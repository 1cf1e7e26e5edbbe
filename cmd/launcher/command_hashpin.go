package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Migui-6/Launcher-VRacing/internal/auth"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func newHashPinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-pin",
		Short: "Print a bcrypt hash for server.admin_pin_hash",
		Long: "Hash an admin PIN read from --pin, the LAUNCHER_PIN environment " +
			"variable or the first line of stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, _ := cmd.Flags().GetString("pin")
			if pin == "" {
				pin = os.Getenv("LAUNCHER_PIN")
			}
			if pin == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("pin is required (use --pin, LAUNCHER_PIN or stdin)")
				}
				pin = strings.TrimSpace(line)
			}

			cost, _ := cmd.Flags().GetInt("cost")
			hash, err := auth.HashPIN(pin, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().String("pin", "", "PIN to hash")
	cmd.Flags().Int("cost", 12, fmt.Sprintf("bcrypt cost (%d-%d)", bcrypt.MinCost, bcrypt.MaxCost))
	return cmd
}
