// Package datarecording stores simulation records in SQLite tables whose
// columns are derived from Go structs.
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

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of
	// sampleEntry. Entries must be structs of scalar fields.
	CreateTable(tableName string, sampleEntry any) error

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any) error

	// ListTables returns the names of the tables created, sorted.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush() error

	// Close flushes and releases the database.
	Close() error
}

// ErrTableNotFound is returned when inserting into an unknown table.
var ErrTableNotFound = errors.New("table does not exist")

const defaultBatchSize = 100000

// New creates a DataRecorder writing to <path>.sqlite3. An empty path picks
// a unique name. The file must not exist yet. Buffered data is flushed when
// the program leaves through atexit.Exit.
func New(path string) (DataRecorder, error) {
	if path == "" {
		path = "startgap_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	w := newSQLiteWriter(db)
	w.ownsDB = true

	atexit.Register(func() { _ = w.Flush() })

	return w, nil
}

// NewWithDB creates a DataRecorder on an open database. Close flushes but
// leaves the database open.
func NewWithDB(db *sql.DB) DataRecorder {
	return newSQLiteWriter(db)
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteWriter is the writer that writes data into SQLite database
type sqliteWriter struct {
	sync.Mutex
	db     *sql.DB
	ownsDB bool

	tables     map[string]*table
	batchSize  int
	entryCount int
}

func newSQLiteWriter(db *sql.DB) *sqliteWriter {
	return &sqliteWriter{
		db:        db,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*table),
	}
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("entry of type %v is not a struct", t)
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !isAllowedKind(field.Type.Kind()) {
			return fmt.Errorf("field %s of kind %s cannot be recorded",
				field.Name, field.Type.Kind())
		}
	}

	return nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) error {
	err := checkStructFields(sampleEntry)
	if err != nil {
		return err
	}

	w.Lock()
	defer w.Unlock()

	if _, exists := w.tables[tableName]; exists {
		return fmt.Errorf("table %s already exists", tableName)
	}

	fields := strings.Join(structs.Names(sampleEntry), ", \n\t")
	createTableSQL := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`

	_, err = w.db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("creating table %s: %w", tableName, err)
	}

	w.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}

	return nil
}

func (w *sqliteWriter) InsertData(tableName string, entry any) error {
	w.Lock()

	t, exists := w.tables[tableName]
	if !exists {
		w.Unlock()
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}

	if reflect.TypeOf(entry) != t.structType {
		w.Unlock()
		return fmt.Errorf("entry of type %T does not match table %s",
			entry, tableName)
	}

	t.entries = append(t.entries, entry)
	w.entryCount++
	full := w.entryCount >= w.batchSize

	w.Unlock()

	if full {
		return w.Flush()
	}

	return nil
}

func (w *sqliteWriter) ListTables() []string {
	w.Lock()
	defer w.Unlock()

	return w.tableNames()
}

func (w *sqliteWriter) tableNames() []string {
	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (w *sqliteWriter) Flush() error {
	w.Lock()
	defer w.Unlock()

	if w.entryCount == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	for _, name := range w.tableNames() {
		t := w.tables[name]
		if len(t.entries) == 0 {
			continue
		}

		err = insertEntries(tx, name, t.entries)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	for _, t := range w.tables {
		t.entries = nil
	}
	w.entryCount = 0

	return nil
}

func insertEntries(tx *sql.Tx, tableName string, entries []any) error {
	placeholders := structs.Names(entries[0])
	for i := range placeholders {
		placeholders[i] = "?"
	}

	sqlStr := "INSERT INTO " + tableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"

	stmt, err := tx.Prepare(sqlStr)
	if err != nil {
		return fmt.Errorf("preparing insert into %s: %w", tableName, err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		v := reflect.ValueOf(entry)
		values := make([]any, v.NumField())
		for i := range values {
			values[i] = columnValue(v.Field(i))
		}

		_, err = stmt.Exec(values...)
		if err != nil {
			return fmt.Errorf("inserting into %s: %w", tableName, err)
		}
	}

	return nil
}

// columnValue converts a field to a value the sqlite3 driver accepts. The
// driver rejects uint64 values with the high bit set, so unsigned integers
// are stored as int64 when they fit and as float64 otherwise.
func columnValue(f reflect.Value) any {
	switch f.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		u := f.Uint()
		if u > 1<<63-1 {
			return float64(u)
		}

		return int64(u)
	default:
		return f.Interface()
	}
}

func (w *sqliteWriter) Close() error {
	err := w.Flush()
	if err != nil {
		return err
	}

	if w.ownsDB {
		return w.db.Close()
	}

	return nil
}
