package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	dbsql "github.com/andreguimel/salesloop-kit-sub001/pkg/database/sql"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
)

// ApplySchema executes the embedded schema files against db in lexical
// order. Every statement uses IF NOT EXISTS, so running this on each
// startup is safe.
func ApplySchema(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	entries, err := dbsql.Content.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := dbsql.Content.ReadFile("schema/" + name)
		if err != nil {
			return fmt.Errorf("failed to read embedded schema file %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to apply schema file %s: %w", name, err)
		}
		logger.WithFields(logging.Fields{"file": name}).Info("Applied schema file")
	}

	return nil
}
