package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent search sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sessions, err := st.ListSessions(ctx, sessionsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tQUERY\tPLACES\tCHARGERS\tCREATED")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
				s.ID, s.Query, s.PlaceCount, s.ChargerCount,
				s.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		w.Flush() //nolint:errcheck
		return nil
	},
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "max sessions to list")
	rootCmd.AddCommand(sessionsCmd)
}
