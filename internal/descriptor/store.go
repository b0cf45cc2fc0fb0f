package descriptor

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/roach88/archq/internal/archetype"
)

//go:embed schema.sql
var schemaSQL string

// Store persists archetype descriptors in a SQL database.
//
// One row per archetype, keyed by its full identifier. Relations, properties
// and subtypes are kept as a JSON document in the descriptor column.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open connects to a descriptor store and creates its table if needed.
//
// driver is one of DriverSQLite, DriverPostgres or DriverMySQL. For sqlite3
// the dsn is a file path and the connection is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(driver, dsn string, opts ...StoreOption) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{
		db:     db,
		driver: driver,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if driver == DriverSQLite {
		// SQLite only supports one writer at a time.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s.logger.Debug("descriptor store opened", "driver", driver)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// bind returns the n-th (1-based) placeholder in the driver's syntax.
func (s *Store) bind(n int) string {
	if s.driver == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// descriptorRecord is the JSON form of the descriptor column.
type descriptorRecord struct {
	Relations  []archetype.Relation `json:"relations,omitempty"`
	Properties []archetype.Property `json:"properties,omitempty"`
	Subtypes   []string             `json:"subtypes,omitempty"`
}

func marshalDescriptor(schema archetype.TypeSchema) (string, error) {
	rec := descriptorRecord{Relations: schema.Relations, Properties: schema.Properties}
	for _, sub := range schema.Subtypes {
		rec.Subtypes = append(rec.Subtypes, sub.String())
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal descriptor %s: %w", schema.Name, err)
	}
	return string(data), nil
}

func unmarshalDescriptor(data string, schema *archetype.TypeSchema) error {
	var rec descriptorRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return fmt.Errorf("unmarshal descriptor %s: %w", schema.Name, err)
	}
	schema.Relations = rec.Relations
	schema.Properties = rec.Properties
	for _, sub := range rec.Subtypes {
		name, err := archetype.ParseTypeName(sub)
		if err != nil {
			return fmt.Errorf("unmarshal descriptor %s: %w", schema.Name, err)
		}
		schema.Subtypes = append(schema.Subtypes, name)
	}
	return nil
}

// Save validates and writes schemas in one transaction. A schema with the
// same identifier as a stored one replaces it.
func (s *Store) Save(ctx context.Context, schemas ...archetype.TypeSchema) error {
	for _, schema := range schemas {
		if err := schema.Validate(); err != nil {
			return fmt.Errorf("save descriptors: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save descriptors: %w", err)
	}
	defer tx.Rollback()

	del := "DELETE FROM archetypes WHERE name = " + s.bind(1)
	ins := fmt.Sprintf(`
		INSERT INTO archetypes
		(name, namespace, family, concept, version, source, is_primary, descriptor)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)
	`, s.bind(1), s.bind(2), s.bind(3), s.bind(4), s.bind(5), s.bind(6), s.bind(7), s.bind(8))

	for _, schema := range schemas {
		descriptor, err := marshalDescriptor(schema)
		if err != nil {
			return err
		}
		key := schema.Name.String()
		if _, err := tx.ExecContext(ctx, del, key); err != nil {
			return fmt.Errorf("save descriptor %s: %w", key, err)
		}
		_, err = tx.ExecContext(ctx, ins,
			key,
			schema.Name.Namespace,
			schema.Name.Family,
			schema.Name.Concept,
			schema.Name.Version,
			schema.Source,
			schema.Primary,
			descriptor,
		)
		if err != nil {
			return fmt.Errorf("save descriptor %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save descriptors: %w", err)
	}
	s.logger.Info("descriptors saved", "count", len(schemas))
	return nil
}

// Load returns every stored schema ordered by identifier.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) Load(ctx context.Context) ([]archetype.TypeSchema, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT namespace, family, concept, version, source, is_primary, descriptor
		FROM archetypes
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer rows.Close()

	schemas := []archetype.TypeSchema{}
	for rows.Next() {
		var schema archetype.TypeSchema
		var descriptor string
		if err := rows.Scan(
			&schema.Name.Namespace,
			&schema.Name.Family,
			&schema.Name.Concept,
			&schema.Name.Version,
			&schema.Source,
			&schema.Primary,
			&descriptor,
		); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		if err := unmarshalDescriptor(descriptor, &schema); err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}

	s.logger.Debug("descriptors loaded", "count", len(schemas))
	return schemas, nil
}

// Registry loads every stored schema into a Registry.
func (s *Store) Registry(ctx context.Context) (*archetype.Registry, error) {
	schemas, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return newRegistry(schemas)
}

// Delete removes the schema with the given identifier. It reports whether a
// row was removed.
func (s *Store) Delete(ctx context.Context, name archetype.TypeName) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM archetypes WHERE name = "+s.bind(1), name.String())
	if err != nil {
		return false, fmt.Errorf("delete descriptor %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete descriptor %s: %w", name, err)
	}
	return n > 0, nil
}
