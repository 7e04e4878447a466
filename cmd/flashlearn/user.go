package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashlearn/internal/auth"
	"github.com/conorfennell/flashlearn/internal/storage"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Create a user",
	Long:  "Create a user. The password is read from --password or, when that is empty, from the first line of stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUserAdd(cmd, args[0])
	},
}

func init() {
	userAddCmd.Flags().String("password", "", "password for the new user")
	userCmd.AddCommand(userAddCmd)
}

func runUserAdd(cmd *cobra.Command, email string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("no password given")
		}
		password = strings.TrimRight(line, "\r\n")
	}

	db, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := auth.NewService(db, auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL), logger)
	u, _, err := svc.Register(cmd.Context(), auth.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", u.ID, u.Email)
	return nil
}
