package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ppiankov/ignoromenot/internal/model"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteAdapter reads both artifacts from a SQLite database with
// a proteins table and a mentions table keyed by protein ID
type SQLiteAdapter struct{}

// NewSQLiteAdapter creates a new SQLite adapter
func NewSQLiteAdapter() *SQLiteAdapter {
	return &SQLiteAdapter{}
}

// Name returns the adapter name
func (a *SQLiteAdapter) Name() string {
	return "sqlite"
}

// CanHandle accepts .db, .sqlite and .sqlite3 files
func (a *SQLiteAdapter) CanHandle(path string, isDir bool) bool {
	return !isDir && hasExt(path, ".db", ".sqlite", ".sqlite3")
}

// LoadProteins reads the proteins table in rowid order
func (a *SQLiteAdapter) LoadProteins(ctx context.Context, path string) ([]RawProtein, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := queryRows(ctx, db, "SELECT * FROM proteins ORDER BY rowid", requiredProteinColumns)
	if err != nil {
		return nil, fmt.Errorf("proteins table: %w", err)
	}

	out := make([]RawProtein, 0, len(rows))
	for i, row := range rows {
		out = append(out, RawProtein{Line: i + 1, Fields: row})
	}
	return out, nil
}

// LoadMentions reads the mentions table and groups rows by uniprot_id
func (a *SQLiteAdapter) LoadMentions(ctx context.Context, path string) (model.MentionIndex, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	required := append([]string{colProteinID}, requiredMentionColumns...)
	rows, err := queryRows(ctx, db, "SELECT * FROM mentions ORDER BY rowid", required)
	if err != nil {
		return nil, fmt.Errorf("mentions table: %w", err)
	}

	index := make(model.MentionIndex)
	for _, row := range rows {
		id := strings.TrimSpace(row[colProteinID])
		index[id] = append(index[id], mentionFromRow(row))
	}
	return index, nil
}

func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// queryRows runs query and returns every row keyed by canonical column name.
// NULL cells become empty strings.
func queryRows(ctx context.Context, db *sql.DB, query string, required []string) ([]map[string]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for i := range columns {
		columns[i] = canonicalColumn(columns[i])
	}
	if err := requireColumns(columns, required); err != nil {
		return nil, err
	}

	cells := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}

	var out []map[string]string
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			row[col] = cells[i].String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
