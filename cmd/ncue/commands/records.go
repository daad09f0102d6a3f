package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(curriculumCmd)
	rootCmd.AddCommand(hoursCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Lists the grades of every course taken.",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(cmd *cobra.Command, args []string, g *Globals) error {
		results, err := g.Client.Results(cmd.Context())
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Year", "Semester", "Course", "Score", "Credit"})
		for _, r := range results {
			t.AppendRow(table.Row{r.AcademicYear, r.Semester, r.CourseName, r.Score, r.Credit})
		}
		t.Render()
		return nil
	}),
}

func formatPeriods(periods []int) string {
	if len(periods) == 0 {
		return "-"
	}
	if len(periods) == 1 {
		return fmt.Sprint(periods[0])
	}
	return fmt.Sprintf("%d-%d", periods[0], periods[len(periods)-1])
}

var curriculumCmd = &cobra.Command{
	Use:   "curriculum",
	Short: "Shows the course schedule of the current semester.",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(cmd *cobra.Command, args []string, g *Globals) error {
		entries, err := g.Client.Curriculum(cmd.Context())
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Course", "Periods", "Place", "Credit"})
		for _, e := range entries {
			t.AppendRow(table.Row{e.Name, formatPeriods(e.Periods), e.Place, e.Credit})
		}
		t.Render()
		return nil
	}),
}

var hoursCmd = &cobra.Command{
	Use:   "hours",
	Short: "Lists the events with certified attendance hours.",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(cmd *cobra.Command, args []string, g *Globals) error {
		records, err := g.Client.ApprovedHours(cmd.Context())
		if err != nil {
			return err
		}

		total := 0
		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Id", "Event", "Date", "Hours"})
		for _, r := range records {
			t.AppendRow(table.Row{r.ID, r.Name, formatDate(r.Date), r.Hours})
			total += r.Hours
		}
		t.AppendFooter(table.Row{"", "Total", "", total})
		t.Render()
		return nil
	}),
}
