package sqlite

// Schema DDL for the key-value table. Every project namespace stores three
// rows (testModules, testPlans, testResults); the global namespace stores the
// project list.
const (
	createKVSQLite = `CREATE TABLE IF NOT EXISTS kv (
    namespace TEXT NOT NULL,
    item_key TEXT NOT NULL,
    payload TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (namespace, item_key)
);`

	createKVMySQL = `CREATE TABLE IF NOT EXISTS kv (
    namespace VARCHAR(191) NOT NULL,
    item_key VARCHAR(64) NOT NULL,
    payload LONGTEXT NOT NULL,
    updated_at VARCHAR(40) NOT NULL,
    PRIMARY KEY (namespace, item_key)
) DEFAULT CHARSET=utf8mb4`
)

// Statements shared by both dialects.
const (
	selectNamespace = `SELECT item_key, payload FROM kv WHERE namespace = ?`
	deleteNamespace = `DELETE FROM kv WHERE namespace = ?`
	selectAll       = `SELECT namespace, item_key, payload FROM kv`
)

// Upserts differ per dialect.
const (
	upsertSQLite = `INSERT INTO kv (namespace, item_key, payload, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(namespace, item_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

	upsertMySQL = `INSERT INTO kv (namespace, item_key, payload, updated_at) VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`
)

// dialect bundles the driver name and the statements that vary by engine.
type dialect struct {
	driver string
	create string
	upsert string
}

var (
	sqliteDialect = dialect{driver: "sqlite", create: createKVSQLite, upsert: upsertSQLite}
	mysqlDialect  = dialect{driver: "mysql", create: createKVMySQL, upsert: upsertMySQL}
)
