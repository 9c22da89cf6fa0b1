package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"courtcal/internal/calendar"
)

func relocateCmd() *cobra.Command {
	var clubID string
	var date string
	var from string
	var at string

	cmd := &cobra.Command{
		Use:   "relocate <class-id>",
		Short: "Move a class to an empty cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if at == "" {
				return fmt.Errorf("--time is required")
			}
			d, err := parseDateInput(date)
			if err != nil {
				return err
			}
			source := ""
			if from != "" {
				f, err := parseDateInput(from)
				if err != nil {
					return err
				}
				source = f.Format(calendar.DateLayout)
			}
			club, err := resolveClub(clubID)
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			board, err := loadBoard(cmd.Context(), st, club.ID)
			if err != nil {
				return err
			}

			res, err := board.Relocate(cmd.Context(), calendar.RelocationRequest{
				ClassID: args[0],
				From:    source,
				Date:    d.Format(calendar.DateLayout),
				Time:    at,
			})
			if err != nil {
				return err
			}
			if outputJSON {
				if err := writeJSON(res); err != nil {
					return err
				}
			}
			if !res.Accepted {
				return fmt.Errorf("relocation rejected: %s", res.Reason)
			}
			if !outputJSON {
				if res.Split != nil {
					fmt.Printf("Moved the %s occurrence of %s to %s %s as class %s.\n", source, res.Class.ID, d.Format(calendar.DateLayout), res.Split.StartTime, res.Split.ID)
				} else {
					fmt.Printf("Moved %s to %s %s.\n", res.Class.ID, d.Format(calendar.DateLayout), res.Class.StartTime)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&clubID, "club", "", "Club id (defaults to the first configured club)")
	cmd.Flags().StringVar(&date, "date", "today", "Destination date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVar(&from, "from", "", "Date of the occurrence to move (required for weekly classes on several days)")
	cmd.Flags().StringVar(&at, "time", "", "Destination time (HH:MM)")
	return cmd
}

func removeCmd() *cobra.Command {
	var clubID string

	cmd := &cobra.Command{
		Use:   "remove <class-id>",
		Short: "Cancel a class and free its slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			club, err := resolveClub(clubID)
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			board, err := loadBoard(cmd.Context(), st, club.ID)
			if err != nil {
				return err
			}
			if err := board.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed class %s.\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&clubID, "club", "", "Club id (defaults to the first configured club)")
	return cmd
}
