package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rxdesk/m/internal/store"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [name]",
	Short: "List inventory tables or describe one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := setup()
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		s := store.New(db)
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			tables, err := s.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintln(out, t)
			}
			return nil
		}

		cols, err := s.DescribeTable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMN\tTYPE\tNOT NULL\tPK")
		for _, c := range cols {
			fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", c.Name, c.Type, c.NotNull, c.PrimaryKey)
		}
		return tw.Flush()
	},
}
