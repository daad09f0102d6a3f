package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var cancelByEvent bool

func init() {
	cancelCmd.Flags().BoolVar(&cancelByEvent, "event", false, "Treat the argument as an event id and look up its sign sequence.")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupsCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(cancelCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Checks that the configured credentials can log in.",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(cmd *cobra.Command, args []string, g *Globals) error {
		fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", g.Config.UserId)
		return nil
	}),
}

var signupsCmd = &cobra.Command{
	Use:   "signups",
	Short: "Lists the events you signed up to.",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(cmd *cobra.Command, args []string, g *Globals) error {
		records, err := g.Client.SignedUpEvents(cmd.Context())
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Id", "Event", "Date", "Signups"})
		for _, r := range records {
			t.AppendRow(table.Row{
				r.ID,
				r.Name,
				formatDate(r.Date),
				fmt.Sprintf("%d/%d", r.CurrentSignups, r.Capacity),
			})
		}
		t.Render()
		return nil
	}),
}

var signupCmd = &cobra.Command{
	Use:   "signup <event id>",
	Short: "Signs you up to an event.",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(cmd *cobra.Command, args []string, g *Globals) error {
		id, err := parseEventId(args[0])
		if err != nil {
			return err
		}
		err = g.Client.SignupEvent(cmd.Context(), id, g.Config.UserId)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signed up to event %d\n", id)
		return nil
	}),
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <sign sequence> | --event <event id>",
	Short: "Cancels a signup.",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(cmd *cobra.Command, args []string, g *Globals) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		var ok bool
		if cancelByEvent {
			ok, err = g.Client.CancelSignupByEvent(cmd.Context(), n)
		} else {
			ok, err = g.Client.CancelSignupEvent(cmd.Context(), n)
		}
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("the portal did not confirm the cancellation, the signup may not exist")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signup cancelled")
		return nil
	}),
}
