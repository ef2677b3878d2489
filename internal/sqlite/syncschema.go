package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/random"
)

// queryer is satisfied by both *sql.Tx and *sql.Conn.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// migrateTo ensures that the db schema matches the target schema.
//
// We employ a very simple declarative schema migration that:
//
// 1. Deletes deleted tables,
// 2. Creates new tables,
// 3. Migrates changed tables using 12-step schema migration https://www.sqlite.org/lang_altertable.html#otheralter,
// 4. Drops and recreates indexes and triggers whose definition differs.
//
// Inspired by https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schema string) (err error) {
	// ATTACH and PRAGMA foreign_keys are no-ops or errors inside a transaction, so they run on a dedicated
	// connection around it.
	var conn *sql.Conn
	if conn, err = db.ReadWrite.Conn(ctx); err != nil {
		return errors.Wrap(err, "acquire connection")
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "release connection"))
		}
	}()

	// Step 1: Disable foreign key validation temporarily.
	if _, err = conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return errors.Wrap(err, "disable foreign key validation")
	}
	// Step 12: Re-enable foreign key validation.
	defer func() {
		if _, fkErr := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, errors.Wrap(fkErr, "re-enable foreign key validation"))
		}
	}()

	// Step 3: Remember schema.
	// Create schema against a temporary database so that we know what has changed.
	var (
		randomID     string
		dbNameLength uint = 20
	)
	if randomID, err = random.Letters(dbNameLength); err != nil {
		return errors.Wrap(err, "generate random ID")
	}
	schemaTargetDataSourceName := fmt.Sprintf("file:%s?mode=memory&cache=shared", randomID)
	var schemaTargetDatabase *sql.DB
	if schemaTargetDatabase, err = sql.Open("sqlite3", schemaTargetDataSourceName); err != nil {
		return errors.Wrap(err, "open schema target database")
	}
	// The in-memory database lives as long as this connection stays open.
	configurePool(schemaTargetDatabase, 1)
	defer func() {
		if closeErr := schemaTargetDatabase.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close schema target database"))
		}
	}()
	if _, err = schemaTargetDatabase.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "migrate schema target database")
	}
	if _, err = conn.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", schemaTargetDataSourceName); err != nil {
		return errors.Wrap(err, "attach schema target database")
	}
	defer func() {
		if _, detachErr := conn.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			err = errors.Join(err, errors.Wrap(detachErr, "detach schema target database"))
		}
	}()

	// Step 2: Start transaction.
	var tx *sql.Tx
	if tx, err = conn.BeginTx(ctx, nil); err != nil {
		return errors.Wrap(err, "start transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction",
				errors.SlogError(rollbackErr))
		}
	}()

	// Step 3-7 migrate tables.
	if err = db.migrateTables(ctx, tx); err != nil {
		return errors.Wrap(err, "migrate tables")
	}

	// Step 8: Recreate indexes and triggers associated with table if needed.
	if err = db.migrateObjects(ctx, tx); err != nil {
		return errors.Wrap(err, "migrate indexes and triggers")
	}

	// Step 9: There are no views to recreate.
	// Step 10: Check foreign key constraints.
	var violations []string
	if violations, err = queryStringSlice(ctx, tx, `SELECT "table" FROM pragma_foreign_key_check`); err != nil {
		return errors.Wrap(err, "foreign key check")
	}
	if len(violations) > 0 {
		return errors.New("foreign key violations after migration",
			slog.String("tables", strings.Join(violations, ",")))
	}

	// Step 11: Commit transaction from step 2.
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	// Step 12: is in defer above.

	return nil
}

// migrateTables ensures table schema is synchronized between databases.
func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	// Step 3: Remember schema (also includes trivial creation and deletion of tables).
	var err error

	// Drop deleted tables.
	var deletedTables []string
	if deletedTables, err = queryStringSlice(ctx, tx, `SELECT current.name AS deleted_table
FROM sqlite_schema AS current
LEFT JOIN schemaTarget.sqlite_schema AS target ON current.name=target.name AND current.type=target.type
WHERE current.type = 'table' AND target.type IS NULL AND current.name NOT LIKE 'sqlite_%';`); err != nil {
		return errors.Wrap(err, "query deleted tables")
	}
	for _, table := range deletedTables {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", slog.String("table", table))
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s;", quoteIdentifier(table))); err != nil {
			return errors.Wrap(err, "drop table", slog.String("table", table))
		}
	}

	// Create new tables.
	var newTableSQLs []string
	if newTableSQLs, err = queryStringSlice(ctx, tx, `SELECT target.sql AS sql
FROM schemaTarget.sqlite_schema AS target
LEFT JOIN sqlite_schema AS current ON current.name=target.name AND current.type=target.type
WHERE target.type = 'table' AND current.type IS NULL AND target.name NOT LIKE 'sqlite_%';`); err != nil {
		return errors.Wrap(err, "query new table SQLs")
	}
	for _, newTableSQL := range newTableSQLs {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("query", newTableSQL))
		if _, err = tx.ExecContext(ctx, newTableSQL); err != nil {
			return errors.Wrap(err, "create table")
		}
	}

	// Identify tables with changed schema and continue the 12-step schema migration with them.
	var changedTables []changedObject
	if changedTables, err = queryChangedObjects(ctx, tx, "table"); err != nil {
		return errors.Wrap(err, "query changed tables")
	}

	for _, table := range changedTables {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table",
			slog.String("table", table.name),
			slog.String("current_sql", table.currentSQL),
			slog.String("new_sql", table.newSQL))

		// Step 4: Create tables according to new schema on temporary names.
		tempName := table.name + "_migration_temp"
		tempNameSQL := strings.Replace(table.newSQL, table.name, tempName, 1)
		if _, err = tx.ExecContext(ctx, tempNameSQL); err != nil {
			return errors.Wrap(err, "create new table to temporary name", slog.String("query", tempNameSQL))
		}

		// Step 5: Copy common columns between tables.
		var commonColumns []string
		if commonColumns, err = queryStringSlice(ctx, tx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS current
JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = current.name;`,
			sql.Named("table_name", table.name)); err != nil {
			return errors.Wrap(err, "query common columns")
		}
		if len(commonColumns) > 0 {
			common := strings.Join(commonColumns, ", ")
			copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s;", //nolint:gosec // we trust the query.
				quoteIdentifier(tempName), common, common, quoteIdentifier(table.name))
			db.logger.LogAttrs(ctx, slog.LevelInfo, "copying data", slog.String("query", copySQL))
			if _, err = tx.ExecContext(ctx, copySQL); err != nil {
				return errors.Wrap(err, "copy data")
			}
		}

		// Step 6: Drop the old table.
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s;", quoteIdentifier(table.name))); err != nil {
			return errors.Wrap(err, "drop old table")
		}

		// Step 7: Rename new table to old table's name.
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s;",
			quoteIdentifier(tempName), quoteIdentifier(table.name))); err != nil {
			return errors.Wrap(err, "rename new table")
		}
	}
	return nil
}

// migrateObjects synchronizes indexes and triggers. It runs after the tables have been migrated because rebuilding
// a table drops its indexes and triggers.
func (db *Database) migrateObjects(ctx context.Context, tx *sql.Tx) error {
	for _, objectType := range []string{"index", "trigger"} {
		var (
			stale []changedObject
			err   error
		)
		// Objects that were deleted or changed are dropped first.
		if stale, err = queryStaleObjects(ctx, tx, objectType); err != nil {
			return errors.Wrap(err, "query stale objects", slog.String("type", objectType))
		}
		for _, object := range stale {
			db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping "+objectType, slog.String("name", object.name))
			dropSQL := fmt.Sprintf("DROP %s %s;", strings.ToUpper(objectType), quoteIdentifier(object.name))
			if _, err = tx.ExecContext(ctx, dropSQL); err != nil {
				return errors.Wrap(err, "drop object", slog.String("query", dropSQL))
			}
		}

		var missing []string
		if missing, err = queryStringSlice(ctx, tx, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
LEFT JOIN sqlite_schema AS current ON current.name=target.name AND current.type=target.type
WHERE target.type = :type AND target.sql IS NOT NULL AND current.type IS NULL;`,
			sql.Named("type", objectType)); err != nil {
			return errors.Wrap(err, "query missing objects", slog.String("type", objectType))
		}
		for _, createSQL := range missing {
			db.logger.LogAttrs(ctx, slog.LevelInfo, "creating "+objectType, slog.String("query", createSQL))
			if _, err = tx.ExecContext(ctx, createSQL); err != nil {
				return errors.Wrap(err, "create object", slog.String("query", createSQL))
			}
		}
	}
	return nil
}

// queryStaleObjects returns the objects of objectType that are absent from the target schema or whose definition
// differs from it.
func queryStaleObjects(ctx context.Context, tx *sql.Tx, objectType string) ([]changedObject, error) {
	rows, err := tx.QueryContext(ctx, `SELECT current.name, current.sql, COALESCE(target.sql, '')
FROM sqlite_schema AS current
LEFT JOIN schemaTarget.sqlite_schema AS target ON current.name=target.name AND current.type=target.type
WHERE current.type = :type AND current.sql IS NOT NULL AND (target.sql IS NULL OR current.sql <> target.sql);`,
		sql.Named("type", objectType))
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	return scanChangedObjects(rows)
}

type changedObject struct {
	name       string
	currentSQL string
	newSQL     string
}

// queryChangedObjects returns the objects of objectType whose definition differs between the current and the
// target schema.
func queryChangedObjects(ctx context.Context, tx *sql.Tx, objectType string) ([]changedObject, error) {
	rows, err := tx.QueryContext(ctx, `SELECT
    current.name AS changed_object,
    current.sql AS current_sql,
    target.sql AS new_sql
FROM sqlite_schema AS current
         JOIN schemaTarget.sqlite_schema AS target ON current.name=target.name AND current.type=target.type
WHERE current.type = :type AND current.name NOT LIKE 'sqlite_%' AND current.sql <> target.sql;
`, sql.Named("type", objectType))
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	return scanChangedObjects(rows)
}

func scanChangedObjects(rows *sql.Rows) (_ []changedObject, err error) {
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close rows"))
		}
	}()
	var objects []changedObject
	for rows.Next() {
		var result changedObject
		if err = rows.Scan(&result.name, &result.currentSQL, &result.newSQL); err != nil {
			return nil, errors.Wrap(err, "scan object")
		}
		objects = append(objects, result)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return objects, nil
}

// queryStringSlice returns a slice of strings from a query and its args.
//
// It is used to query a single column from a table.
func queryStringSlice(ctx context.Context, q queryer, query string, args ...any) (_ []string, err error) {
	var rows *sql.Rows
	if rows, err = q.QueryContext(ctx, query, args...); err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, errors.Wrap(closeErr, "close rows"))
		}
	}()
	var results []string
	for rows.Next() {
		var result string
		if err = rows.Scan(&result); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return results, nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
