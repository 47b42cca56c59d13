package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// QueryParams narrows down the rows returned by Query.
type QueryParams struct {
	// Where is a condition without the WHERE keyword, for example
	// "EstimationID = ?".
	Where string

	// Args fills the placeholders of Where.
	Args []any

	// OrderBy is an ordering without the ORDER BY keywords, for example
	// "Request ASC".
	OrderBy string

	// Limit caps the number of rows. Zero means no limit.
	Limit int

	// Offset skips rows. It only applies when Limit is set.
	Offset int
}

func (p QueryParams) clauses() string {
	var b strings.Builder

	if p.Where != "" {
		b.WriteString(" WHERE " + p.Where)
	}

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY " + p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", p.Limit)

		if p.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", p.Offset)
		}
	}

	return b.String()
}

// A DataReader reads the tables written by a DataRecorder.
type DataReader struct {
	db *sql.DB
}

// NewReader opens a recorded database for reading.
func NewReader(filename string) (*DataReader, error) {
	db, err := sql.Open("sqlite3", "file:"+filename+"?mode=ro")
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a DataReader on an open database.
func NewReaderWithDB(db *sql.DB) *DataReader {
	return &DataReader{db: db}
}

// Tables returns the names of the tables in the database, sorted.
func (r *DataReader) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string

		err = rows.Scan(&name)
		if err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// Count returns the number of rows of a table that match the condition of
// params. Ordering and pagination are ignored.
func (r *DataReader) Count(
	ctx context.Context,
	table string,
	params QueryParams,
) (int, error) {
	count := 0
	where := QueryParams{Where: params.Where}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %q%s", table, where.clauses())

	err := r.db.QueryRowContext(ctx, query, params.Args...).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Close closes the database.
func (r *DataReader) Close() error {
	return r.db.Close()
}

// Query reads the rows of a table into values of T. Columns are matched to
// the fields of T by name; columns without a field are dropped.
func Query[T any](
	ctx context.Context,
	r *DataReader,
	table string,
	params QueryParams,
) ([]T, error) {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidEntry, structType)
	}

	query := fmt.Sprintf("SELECT * FROM %q%s", table, params.clauses())

	rows, err := r.db.QueryContext(ctx, query, params.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]T, 0)

	for rows.Next() {
		var entry T

		err = rows.Scan(scanTargets(reflect.ValueOf(&entry).Elem(), columns)...)
		if err != nil {
			return nil, err
		}

		results = append(results, entry)
	}

	return results, rows.Err()
}

func scanTargets(v reflect.Value, columns []string) []any {
	targets := make([]any, len(columns))

	for i, column := range columns {
		field := v.FieldByName(column)
		if field.IsValid() && field.CanSet() {
			targets[i] = field.Addr().Interface()
			continue
		}

		var discard any
		targets[i] = &discard
	}

	return targets
}
