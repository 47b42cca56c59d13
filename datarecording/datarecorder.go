// Package datarecording stores estimation results in SQLite databases.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

// ErrInvalidEntry is returned when an entry cannot be stored in a table.
var ErrInvalidEntry = errors.New("entry is invalid")

// DataRecorder buffers flat structs and writes them into tables. Entries of
// a table must all have the type of the sample the table was created with.
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of the sample
	// entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry of a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables, sorted.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

const defaultBatchSize = 100000

// New creates a DataRecorder that writes into path + ".sqlite3". The file
// must not exist. An empty path selects a unique name. The command, the
// working directory and the run time of the program are recorded in the
// exec_info table.
func New(path string) DataRecorder {
	if path == "" {
		path = "noclat_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	logrus.WithField("file", filename).Info("recording results")

	w := newWriter(db)
	w.exec = startExecRecorder(w)

	return w
}

// NewWithDB creates a DataRecorder on an open database.
func NewWithDB(db *sql.DB) DataRecorder {
	return newWriter(db)
}

func newWriter(db *sql.DB) *sqliteWriter {
	w := &sqliteWriter{
		db:        db,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(w.Flush)

	return w
}

type table struct {
	structType reflect.Type
	columns    []string
	entries    []any
}

type sqliteWriter struct {
	lock sync.Mutex
	db   *sql.DB

	tables      map[string]*table
	tableOrder  []string
	batchSize   int
	numBuffered int

	exec *execRecorder
}

func columnType(kind reflect.Kind) (string, bool) {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return "INTEGER", true
	case reflect.Float32, reflect.Float64:
		return "REAL", true
	case reflect.String:
		return "TEXT", true
	default:
		return "", false
	}
}

func columnDefinitions(sampleEntry any) ([]string, error) {
	t := reflect.TypeOf(sampleEntry)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a struct", ErrInvalidEntry, sampleEntry)
	}

	defs := make([]string, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		sqlType, ok := columnType(field.Type.Kind())

		if !field.IsExported() || !ok {
			return nil, fmt.Errorf("%w: field %s cannot be stored",
				ErrInvalidEntry, field.Name)
		}

		defs = append(defs, field.Name+" "+sqlType)
	}

	return defs, nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	defs, err := columnDefinitions(sampleEntry)
	if err != nil {
		panic(err)
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	if _, exists := w.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	w.mustExecute(fmt.Sprintf("CREATE TABLE %s (\n\t%s\n);",
		tableName, strings.Join(defs, ",\n\t")))

	w.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
		columns:    structs.Names(sampleEntry),
	}
	w.tableOrder = append(w.tableOrder, tableName)
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	w.lock.Lock()
	defer w.lock.Unlock()

	table, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.structType {
		panic(fmt.Errorf("%w: %T does not match table %s",
			ErrInvalidEntry, entry, tableName))
	}

	table.entries = append(table.entries, entry)

	w.numBuffered++
	if w.numBuffered >= w.batchSize {
		w.flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	w.lock.Lock()
	defer w.lock.Unlock()

	tables := append([]string(nil), w.tableOrder...)
	sort.Strings(tables)

	return tables
}

func (w *sqliteWriter) Flush() {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.flush()
}

// flush writes the buffered entries of all tables in one transaction.
func (w *sqliteWriter) flush() {
	if w.numBuffered == 0 {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		panic(err)
	}

	for _, tableName := range w.tableOrder {
		table := w.tables[tableName]
		if len(table.entries) == 0 {
			continue
		}

		err = insertAll(tx, tableName, table)
		if err != nil {
			_ = tx.Rollback()
			panic(err)
		}

		table.entries = nil
	}

	err = tx.Commit()
	if err != nil {
		panic(err)
	}

	w.numBuffered = 0
}

func insertAll(tx *sql.Tx, tableName string, table *table) error {
	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(table.columns)), ", ")

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(table.columns, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range table.entries {
		_, err = stmt.Exec(structs.Values(entry)...)
		if err != nil {
			return fmt.Errorf("inserting into %s: %w", tableName, err)
		}
	}

	return nil
}

func (w *sqliteWriter) Close() error {
	w.lock.Lock()
	exec := w.exec
	w.exec = nil
	w.lock.Unlock()

	if exec != nil {
		exec.End()
	}

	w.Flush()

	return w.db.Close()
}

func (w *sqliteWriter) mustExecute(query string) {
	_, err := w.db.Exec(query)
	if err != nil {
		logrus.WithError(err).WithField("query", query).Error("sqlite")
		panic(err)
	}
}
