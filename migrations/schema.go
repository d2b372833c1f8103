package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// SchemaCheck describes a table and the columns the stores read or write.
type SchemaCheck struct {
	Table   string
	Columns []string
}

// DefaultSchemaChecks lists the tables created by the embedded migrations.
var DefaultSchemaChecks = []SchemaCheck{
	{
		Table:   "workspaces",
		Columns: []string{"id", "name", "code", "type", "discr", "is_public"},
	},
	{
		Table: "roles",
		Columns: []string{
			"id",
			"name",
			"translation_key",
			"is_read_only",
			"role_type",
			"parent_id",
			"lft",
			"rgt",
			"lvl",
			"root",
			"workspace_id",
		},
	},
	{
		Table: "resource_rights",
		Columns: []string{
			"id",
			"role_id",
			"workspace_id",
			"resource_id",
			"can_see",
			"can_open",
			"can_edit",
			"can_copy",
			"can_create",
			"can_delete",
		},
	},
	{
		Table:   "user_roles",
		Columns: []string{"user_id", "role_id", "assigned_at", "assigned_by"},
	},
	{
		Table:   "group_roles",
		Columns: []string{"group_id", "role_id", "assigned_at", "assigned_by"},
	},
	{
		Table:   "workspace_activity",
		Columns: []string{"id", "user_id", "actor_id", "workspace_id", "verb", "object_type", "object_id", "channel", "data", "created_at"},
	},
	{
		Table:   "user_profiles",
		Columns: []string{"user_id", "username", "display_name", "email", "metadata", "created_at", "updated_at"},
	},
}

// SchemaOption customizes schema validation.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	checks []SchemaCheck
}

// WithSchemaChecks replaces the default checks with a custom list.
func WithSchemaChecks(checks []SchemaCheck) SchemaOption {
	return func(cfg *schemaConfig) {
		cfg.checks = checks
	}
}

// WithExtraSchemaChecks appends checks for host owned tables.
func WithExtraSchemaChecks(checks ...SchemaCheck) SchemaOption {
	return func(cfg *schemaConfig) {
		cfg.checks = append(append([]SchemaCheck(nil), cfg.checks...), checks...)
	}
}

// SchemaValidationError summarizes missing tables and columns.
type SchemaValidationError struct {
	MissingTables  []string
	MissingColumns map[string][]string
}

func (e *SchemaValidationError) Error() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if len(e.MissingTables) > 0 {
		parts = append(parts, "missing tables: "+strings.Join(e.MissingTables, ", "))
	}
	if len(e.MissingColumns) > 0 {
		tables := make([]string, 0, len(e.MissingColumns))
		for table := range e.MissingColumns {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		cols := make([]string, 0, len(tables))
		for _, table := range tables {
			missing := append([]string(nil), e.MissingColumns[table]...)
			sort.Strings(missing)
			cols = append(cols, fmt.Sprintf("%s(%s)", table, strings.Join(missing, ", ")))
		}
		parts = append(parts, "missing columns: "+strings.Join(cols, "; "))
	}
	if len(parts) == 0 {
		return "workspace schema validation failed"
	}
	return "workspace schema validation failed: " + strings.Join(parts, "; ")
}

// ValidateSchema ensures the connected database exposes the tables and
// columns the bun stores rely on. It is meant to run after migrations when
// the host owns its own migration pipeline.
func ValidateSchema(ctx context.Context, db *sql.DB, dialect string, opts ...SchemaOption) error {
	if db == nil {
		return errors.New("migrations: db required")
	}
	normalized, err := normalizeDialect(dialect)
	if err != nil {
		return err
	}

	cfg := schemaConfig{checks: DefaultSchemaChecks}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.checks) == 0 {
		return nil
	}

	missingTables := make([]string, 0)
	missingColumns := make(map[string][]string)
	for _, check := range cfg.checks {
		table := strings.TrimSpace(check.Table)
		if table == "" {
			continue
		}
		cols, err := fetchColumns(ctx, db, normalized, table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			missingTables = append(missingTables, table)
			continue
		}
		for _, col := range check.Columns {
			name := strings.ToLower(strings.TrimSpace(col))
			if name != "" && !cols[name] {
				missingColumns[table] = append(missingColumns[table], name)
			}
		}
	}

	if len(missingTables) == 0 && len(missingColumns) == 0 {
		return nil
	}
	sort.Strings(missingTables)
	return &SchemaValidationError{
		MissingTables:  missingTables,
		MissingColumns: missingColumns,
	}
}

func normalizeDialect(dialect string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql", "pg":
		return "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
}

func fetchColumns(ctx context.Context, db *sql.DB, dialect, table string) (map[string]bool, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch dialect {
	case "postgres":
		rows, err = db.QueryContext(ctx, `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = $1
		`, table)
	default:
		rows, err = db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}
