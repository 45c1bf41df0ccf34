package cli

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/star/satrack/internal/account"
)

func newLoginCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and print the account page URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.submitUsername(cmd, args, account.LoginUsernameID, "#login-button")
		},
	}
}

func newCreateAccountCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "create-account [username]",
		Short: "Create an account and print its page URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.submitUsername(cmd, args, account.CreateUsernameID, "#create-account")
		},
	}
}

// submitUsername fills the login page field and presses its button. The
// username is prompted for when not given.
func (e *env) submitUsername(cmd *cobra.Command, args []string, inputID, button string) error {
	var username string
	if len(args) == 1 {
		username = args[0]
	} else {
		prompt := promptui.Prompt{Label: "Username"}
		var err error
		username, err = prompt.Run()
		if err != nil {
			return fmt.Errorf("username prompt: %w", err)
		}
	}

	host := newTerminalHost(cmd.OutOrStdout(), cmd.ErrOrStderr(), e.cfg.BaseURL)
	s, err := e.mount("login.html", nil, host)
	if err != nil {
		return err
	}
	s.Page.SetValue(inputID, username)
	if err := s.Page.Click(cmd.Context(), button); err != nil {
		return err
	}
	return e.finish(s, host)
}
