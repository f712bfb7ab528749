package cli

import (
	"bufio"
	"errors"
	"fmt"

	"chatbot-go/internal/config"
	"chatbot-go/pkg/log"

	"github.com/spf13/cobra"
)

var (
	userEmail    string
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage chat accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an account that can sign in to the chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Conf
		log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
		defer log.Sync()

		password := userPassword
		if password == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			var err error
			password, err = readPassword(bufio.NewScanner(cmd.InOrStdin()))
			if err != nil {
				return err
			}
		}
		if password == "" {
			return errors.New("password must not be empty")
		}

		users, err := newUserService(cfg)
		if err != nil {
			return err
		}
		user, err := users.Register(args[0], userEmail, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "email shown after sign-in")
	userAddCmd.Flags().StringVarP(&userPassword, "password", "p", "", "password (prompted when omitted)")
	userCmd.AddCommand(userAddCmd)
}
