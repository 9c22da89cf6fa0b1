package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"courtcal/internal/weekday"
)

func directoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "List configured clubs, courts and trainers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputJSON {
				return writeJSON(conf.Clubs)
			}
			if len(conf.Clubs) == 0 {
				fmt.Println("No clubs configured.")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
			fmt.Fprintln(writer, "CLUB\tNAME\tCOURTS\tTRAINERS")
			for _, club := range conf.Clubs {
				courts := make([]string, 0, len(club.Courts))
				for _, n := range club.Courts {
					courts = append(courts, strconv.Itoa(n))
				}
				trainers := make([]string, 0, len(club.Trainers))
				for _, t := range club.Trainers {
					trainers = append(trainers, fmt.Sprintf("%s (%s)", t.Name, t.ID))
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", club.ID, club.Name, strings.Join(courts, ","), strings.Join(trainers, ", "))
			}
			if err := writer.Flush(); err != nil {
				return err
			}

			labels := weekday.Labels(conf.Locale)
			names := make([]string, 0, len(weekday.All))
			for _, d := range weekday.All {
				names = append(names, labels.Label(d))
			}
			fmt.Printf("Weekdays (%s): %s\n", conf.Locale, strings.Join(names, ", "))
			return nil
		},
	}
	return cmd
}
