package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rxdesk/m/internal/extraction"
	"rxdesk/m/internal/pipeline"
)

var errRunFailed = errors.New("prescription run failed")

var fulfillCmd = &cobra.Command{
	Use:   "fulfill <image>",
	Short: "Read a prescription image and fulfil it against stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		img, err := extraction.NewImage(data)
		if err != nil {
			return err
		}

		client, err := newExtractor(ctx, cfg.Vision)
		if err != nil {
			return err
		}
		defer client.Close()

		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := newPipeline(db, client, nil, log).Run(ctx, img)
		fmt.Fprintln(cmd.OutOrStdout(), pipeline.Render(result, err))
		if err != nil {
			return errRunFailed
		}
		if result.PrescriptionID != "" {
			log.Info().Str("prescription_id", result.PrescriptionID).Msg("sale recorded")
		}
		return nil
	},
}
