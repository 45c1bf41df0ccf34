package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/star/satrack/internal/autocomplete"
	"github.com/star/satrack/internal/trackerapi"
	"github.com/star/satrack/web"
)

func newSearchCmd(e *env) *cobra.Command {
	var pick int

	cmd := &cobra.Command{
		Use:   "search <satellite|country> <query>",
		Short: "List autocomplete suggestions for a query",
		Long: `Types the query into the search box and prints the suggestions the
dropdown shows. Queries shorter than two characters show nothing.
With --select the n-th suggestion is chosen, which submits the search
form when submit_on_select is enabled.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := trackerapi.ParseKind(args[0])
			if err != nil {
				return err
			}

			host := newTerminalHost(cmd.OutOrStdout(), cmd.ErrOrStderr(), e.cfg.BaseURL)
			s, err := e.mount(accountPage(e.cfg.Layout), web.AccountData{}, host)
			if err != nil {
				return err
			}
			ac := s.SatelliteSearch
			if kind == trackerapi.Country {
				ac = s.CountrySearch
			}
			if ac == nil {
				return fmt.Errorf("no %s search box on page", kind)
			}
			cfg := ac.Config()

			ctx := cmd.Context()
			if err := s.Page.Type(ctx, cfg.InputID, args[1]); err != nil {
				return err
			}
			s.Page.Wait()
			if err := e.api.Err(); err != nil {
				return err
			}

			items := s.Page.Dropdown(cfg.DropdownID).Items
			if pick == 0 {
				if len(items) == 0 && len([]rune(args[1])) >= autocomplete.MinQueryLength {
					fmt.Fprintln(cmd.ErrOrStderr(), "no suggestions")
				}
				for i, name := range items {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i+1, name)
				}
				return nil
			}

			if pick < 1 || pick > len(items) {
				return fmt.Errorf("--select %d out of range: %d suggestions", pick, len(items))
			}
			selector := fmt.Sprintf("#%s .dropdown-item:nth-child(%d)", cfg.DropdownID, pick)
			if err := s.Page.Click(ctx, selector); err != nil {
				return err
			}
			if !cfg.SubmitOnSelect {
				fmt.Fprintln(cmd.OutOrStdout(), s.Page.Value(cfg.InputID))
			}
			return e.finish(s, host)
		},
	}

	cmd.Flags().IntVar(&pick, "select", 0, "choose the n-th suggestion (1-based)")
	return cmd
}
