package descriptor

import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)
