package cli

import (
	"os"

	"github.com/spf13/cobra"

	"courtcal/internal/calendar"
	"courtcal/internal/weekday"
)

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show committed classes on the calendar grid",
	}

	cmd.AddCommand(calendarDayCmd())
	cmd.AddCommand(calendarWeekCmd())
	cmd.AddCommand(calendarMonthCmd())
	return cmd
}

func calendarDayCmd() *cobra.Command {
	var clubID string
	var date string

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Day view in grid slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateInput(date)
			if err != nil {
				return err
			}
			board, err := boardForClub(cmd, clubID)
			if err != nil {
				return err
			}
			layout := board.Day(d)
			if outputJSON {
				return writeJSON(layout)
			}
			return calendar.WriteDay(os.Stdout, layout, weekday.Labels(conf.Locale))
		},
	}

	cmd.Flags().StringVar(&clubID, "club", "", "Club id (defaults to the first configured club)")
	cmd.Flags().StringVar(&date, "date", "today", "Date (YYYY-MM-DD, today, tomorrow)")
	return cmd
}

func calendarWeekCmd() *cobra.Command {
	var clubID string
	var date string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Week view containing a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateInput(date)
			if err != nil {
				return err
			}
			board, err := boardForClub(cmd, clubID)
			if err != nil {
				return err
			}
			days := board.Week(d)
			if outputJSON {
				return writeJSON(days)
			}
			return calendar.WriteWeek(os.Stdout, days, weekday.Labels(conf.Locale))
		},
	}

	cmd.Flags().StringVar(&clubID, "club", "", "Club id (defaults to the first configured club)")
	cmd.Flags().StringVar(&date, "date", "today", "Any date in the week (YYYY-MM-DD, today, tomorrow)")
	return cmd
}

func calendarMonthCmd() *cobra.Command {
	var clubID string
	var month string

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Month view with per-day class lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, m, err := parseMonthInput(month)
			if err != nil {
				return err
			}
			board, err := boardForClub(cmd, clubID)
			if err != nil {
				return err
			}
			view := board.Month(year, m)
			if outputJSON {
				return writeJSON(view)
			}
			return calendar.WriteMonth(os.Stdout, view)
		},
	}

	cmd.Flags().StringVar(&clubID, "club", "", "Club id (defaults to the first configured club)")
	cmd.Flags().StringVar(&month, "month", "", "Month (YYYY-MM, defaults to the current month)")
	return cmd
}

// boardForClub loads a read-only board; the store is closed before returning.
func boardForClub(cmd *cobra.Command, clubID string) (*calendar.Board, error) {
	club, err := resolveClub(clubID)
	if err != nil {
		return nil, err
	}
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return loadBoard(cmd.Context(), st, club.ID)
}
