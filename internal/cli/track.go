package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/star/satrack/internal/trackerapi"
	"github.com/star/satrack/internal/tracking"
	"github.com/star/satrack/web"
)

func newAddCmd(e *env) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "add <satellite|country> <name>",
		Short: "Track a satellite or country for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := trackerapi.ParseKind(args[0])
			if err != nil {
				return err
			}
			cfg, err := tracking.NewConfig(kind, e.cfg.Layout)
			if err != nil {
				return err
			}

			host := newTerminalHost(cmd.OutOrStdout(), cmd.ErrOrStderr(), e.cfg.BaseURL)
			s, err := e.mount(accountPage(e.cfg.Layout), web.AccountData{Username: user}, host)
			if err != nil {
				return err
			}
			list, err := listFor(s, kind)
			if err != nil {
				return err
			}

			s.Page.SetValue(cfg.SearchBoxID, args[1])
			if err := s.Page.Click(cmd.Context(), "#add-"+string(kind)); err != nil {
				return err
			}
			if err := e.finish(s, host); err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), list.Items())
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "account username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "delete <satellite|country> <name>",
		Short: "Stop tracking a satellite or country for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := trackerapi.ParseKind(args[0])
			if err != nil {
				return err
			}
			cfg, err := tracking.NewConfig(kind, e.cfg.Layout)
			if err != nil {
				return err
			}

			// Render the page with the one entry so its delete button exists.
			data := web.AccountData{Username: user}
			entry := []web.Item{{Name: args[1]}}
			if kind == trackerapi.Country {
				data.Countries = entry
			} else {
				data.Satellites = entry
			}

			host := newTerminalHost(cmd.OutOrStdout(), cmd.ErrOrStderr(), e.cfg.BaseURL)
			s, err := e.mount(accountPage(e.cfg.Layout), data, host)
			if err != nil {
				return err
			}
			list, err := listFor(s, kind)
			if err != nil {
				return err
			}

			button := fmt.Sprintf("%s .delete-button", cfg.Layout.Container)
			if err := s.Page.Click(cmd.Context(), button); err != nil {
				return err
			}
			if err := e.finish(s, host); err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), list.Items())
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "account username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
