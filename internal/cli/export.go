package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"courtcal/internal/ics"
	"courtcal/internal/schedule"
)

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every committed class as an ICS calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = conf.Export.Path
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := exportOnce(cmd.Context(), st, out)
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(os.Stderr, "Exported %d classes to %s.\n", n, out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path, - for stdout (defaults to export.path)")
	return cmd
}

func importCmd() *cobra.Command {
	var clubID string

	cmd := &cobra.Command{
		Use:   "import <file-or-url>",
		Short: "Import classes from an ICS file or feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			club, err := resolveClub(clubID)
			if err != nil {
				return err
			}

			src := args[0]
			var body []byte
			if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
				fetcher := ics.NewFetcher(filepath.Join(filepath.Dir(conf.Database), "ics-cache"))
				res, err := fetcher.Fetch(cmd.Context(), src)
				if err != nil {
					return err
				}
				body = res.Body
			} else {
				body, err = os.ReadFile(src)
				if err != nil {
					return err
				}
			}

			classes, err := ics.Import(body, conf.Location())
			if err != nil {
				return err
			}
			batch := schedule.CommitBatch{ClubID: club.ID}
			for _, c := range classes {
				if c.ClubID == "" {
					c.ClubID = club.ID
				}
				batch.Items = append(batch.Items, schedule.CommitItem{Ref: c.ID, Class: c})
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			results, err := st.SaveClasses(cmd.Context(), batch)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(results)
			}

			imported := 0
			for _, r := range results {
				if r.Error != "" {
					fmt.Printf("  %s: %s\n", r.Ref, r.Error)
					continue
				}
				imported++
			}
			fmt.Printf("Imported %d of %d classes into %s.\n", imported, len(results), club.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&clubID, "club", "", "Club for classes without one (defaults to the first configured club)")
	return cmd
}
