package commands

import (
	"fmt"
	"ncue-api/internal/portal"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var eventsCategory string

func init() {
	eventsCmd.Flags().StringVar(&eventsCategory, "category", "all", "One of all, general-education, spiritual, language or the portal labels 全部, 通識, 心靈, 語文.")
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(membersCmd)
}

func parseEventId(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid event id %q", arg)
	}
	return id, nil
}

var eventsCmd = &cobra.Command{
	Use:   "events [--category <category>]",
	Short: "Lists the events open for signup.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := portal.ParseCategory(eventsCategory)
		if err != nil {
			return err
		}

		g := getGlobals(cmd.Context())
		events, err := g.Client.Events(cmd.Context(), category)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Id", "Event", "Date", "Signups", "Status"})
		for _, e := range events {
			t.AppendRow(table.Row{
				e.ID,
				e.Name,
				formatDate(e.Date),
				fmt.Sprintf("%d/%d", e.CurrentSignups, e.Capacity),
				e.Status,
			})
		}
		t.Render()
		return nil
	},
}

var eventCmd = &cobra.Command{
	Use:   "event <id>",
	Short: "Shows the details of an event.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEventId(args[0])
		if err != nil {
			return err
		}

		g := getGlobals(cmd.Context())
		detail, err := g.Client.Event(cmd.Context(), id)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendRows([]table.Row{
			{"Id", detail.ID},
			{"Event", detail.Name},
			{"Date", formatDate(detail.Date)},
			{"Place", detail.Place},
			{"Status", detail.Status},
			{"Signup", formatUrl(detail.SignupUrl)},
			{"Members", formatUrl(detail.MemberListUrl)},
		})
		t.Render()
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), detail.Description)
		return nil
	},
}

var membersCmd = &cobra.Command{
	Use:   "members <id>",
	Short: "Lists the people signed up to an event.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEventId(args[0])
		if err != nil {
			return err
		}

		g := getGlobals(cmd.Context())
		members, err := g.Client.EventMembers(cmd.Context(), id)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Name", "Gender", "Affiliation", "Title"})
		for _, m := range members {
			t.AppendRow(table.Row{m.Name, m.Gender, m.Affiliation, m.Title})
		}
		t.Render()
		return nil
	},
}
