package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// LoadDrugs ingests a name,quantity CSV into the drugs table. Existing names
// get their stock overwritten. Malformed rows are skipped.
func LoadDrugs(ctx context.Context, db *sqlx.DB, csvPath string, log zerolog.Logger) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("open drug stock %s: %w", csvPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("read drug stock header: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("start drug stock transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO drugs (name, quantity) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET quantity = excluded.quantity, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("prepare drug insert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	line := 1
	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("unable to read drug row")
			continue
		}
		if len(record) < 2 {
			continue
		}
		name := strings.TrimSpace(record[0])
		qty, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		if name == "" || err != nil || qty < 0 {
			log.Warn().Int("line", line).Str("name", name).Msg("skipping invalid drug row")
			continue
		}

		if _, err := stmt.ExecContext(ctx, name, qty); err != nil {
			log.Warn().Err(err).Str("name", name).Msg("unable to insert drug")
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit drug stock: %w", err)
	}
	log.Info().Int("rows", rows).Str("file", csvPath).Msg("seeded drug stock")
	return rows, nil
}
