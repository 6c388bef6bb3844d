package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rxdesk/m/internal/store"
)

// queryCmd runs SQL with write access. The HTTP endpoint only reads.
var queryCmd = &cobra.Command{
	Use:   "query <statement> [args...]",
	Short: "Run one SQL statement against the inventory database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		params := make([]any, len(args)-1)
		for i, a := range args[1:] {
			params[i] = a
		}
		res, err := store.New(db).Execute(cmd.Context(), args[0], params...)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if res.Columns == nil {
			log.Info().Str("statement", args[0]).Int64("rows_affected", res.RowsAffected).Msg("statement executed")
			fmt.Fprintf(out, "%d rows affected\n", res.RowsAffected)
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.ToUpper(strings.Join(res.Columns, "\t")))
		for _, row := range res.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = fmt.Sprint(v)
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		return tw.Flush()
	},
}
