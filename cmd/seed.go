package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rxdesk/m/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load drug stock from a name,quantity CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()
		file := seedFile
		if file == "" {
			file = cfg.SeedFile
		}
		if file == "" {
			return errors.New("no stock file: pass --file or set SEED_FILE")
		}
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := seed.LoadDrugs(cmd.Context(), db, file, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d drugs\n", n)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "CSV file with name,quantity rows")
}
