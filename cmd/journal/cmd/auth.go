package cmd

import (
	"errors"
	"fmt"

	"trade-journal-go/internal/services"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string

	registerUsername string
	registerEmail    string
	registerPassword string
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringVar(&registerUsername, "username", "", "display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "account password (min 8 characters)")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authSvc.Login(cmd.Context(), loginEmail, loginPassword)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				return errors.New("invalid email or password")
			}
			return err
		}
		fmt.Printf("Logged in as %s <%s>\n", sess.Username, sess.Email)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new user and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(registerPassword) < 8 {
			return errors.New("password must be at least 8 characters")
		}
		sess, err := authSvc.Register(cmd.Context(), registerUsername, registerEmail, registerPassword)
		if err != nil {
			return err
		}
		fmt.Printf("Registered and logged in as %s <%s>\n", sess.Username, sess.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authSvc.Logout(cmd.Context()); err != nil {
			return err
		}
		if snapshots != nil {
			// The next user on this machine must not see cached data.
			if err := snapshots.Clear(); err != nil {
				return err
			}
		}
		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the currently logged-in user",
	PreRunE: requireSession,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := sessions.Current()
		fmt.Printf("%s <%s> (id %d)\n", sess.Username, sess.Email, sess.ID)
		return nil
	},
}
