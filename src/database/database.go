package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/duitku/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateUserTable()
	migrateKasbonTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		is_email_verified BOOLEAN DEFAULT FALSE,
		password_reset_token TEXT,
		password_reset_token_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL CHECK(type IN ('income', 'expense')),
		is_default BOOLEAN DEFAULT FALSE,
		icon TEXT DEFAULT 'circle',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		UNIQUE(user_id, name, type)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		amount REAL NOT NULL CHECK(amount >= 0),
		type TEXT NOT NULL CHECK(type IN ('income', 'expense')),
		category_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		transaction_date TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(category_id) REFERENCES categories(id)
	);

	CREATE TABLE IF NOT EXISTS savings_goals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		target_amount REAL NOT NULL,
		current_amount REAL NOT NULL DEFAULT 0,
		start_date TEXT NOT NULL,
		target_date TEXT,
		notes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS savings_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		goal_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		type TEXT NOT NULL CHECK(type IN ('deposit', 'withdraw')),
		amount REAL NOT NULL,
		date TEXT NOT NULL,
		note TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(goal_id) REFERENCES savings_goals(id),
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS kasbon (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		person TEXT NOT NULL,
		amount REAL NOT NULL,
		note TEXT,
		date TEXT NOT NULL,
		is_settled BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// tableColumns returns the set of existing columns for a table, or nil if the
// table does not exist yet (in which case CREATE TABLE will define it fully).
func tableColumns(table string) map[string]bool {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&tableName)
	if err != nil {
		if err != sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Error("Error checking for table", "table", table, "error", err)
			} else {
				stdlog.Printf("Error checking for table %s: %v", table, err)
			}
		}
		return nil
	}

	rows, err := DB.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema", "table", table, "error", err)
		} else {
			stdlog.Printf("Error querying table schema for %s: %v", table, err)
		}
		return nil
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info", "table", table, "error", err)
			} else {
				stdlog.Printf("Error scanning column info for %s: %v", table, err)
			}
			return nil
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info", "table", table, "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for %s: %v", table, err)
		}
		return nil
	}
	return columnExists
}

func addColumn(table, columnDef, columnName string) {
	_, err := DB.Exec("ALTER TABLE " + table + " ADD COLUMN " + columnDef)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error adding column", "table", table, "column", columnName, "error", err)
		} else {
			stdlog.Printf("Error adding '%s' column to '%s' table: %v", columnName, table, err)
		}
	} else {
		if logger.L != nil {
			logger.L.Info("Added column", "table", table, "column", columnName)
		} else {
			stdlog.Printf("Added '%s' column to '%s' table", columnName, table)
		}
	}
}

func migrateUserTable() {
	columnExists := tableColumns("users")
	if columnExists == nil {
		return
	}

	if _, ok := columnExists["is_email_verified"]; !ok {
		addColumn("users", "is_email_verified BOOLEAN DEFAULT FALSE", "is_email_verified")
	}
	if _, ok := columnExists["password_reset_token"]; !ok {
		addColumn("users", "password_reset_token TEXT", "password_reset_token")
	}
	if _, ok := columnExists["password_reset_token_expires_at"]; !ok {
		addColumn("users", "password_reset_token_expires_at TIMESTAMP", "password_reset_token_expires_at")
	}
	if _, ok := columnExists["updated_at"]; !ok {
		addColumn("users", "updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP", "updated_at")
	}
}

func migrateKasbonTable() {
	columnExists := tableColumns("kasbon")
	if columnExists == nil {
		return
	}

	if _, ok := columnExists["is_settled"]; !ok {
		addColumn("kasbon", "is_settled BOOLEAN DEFAULT FALSE", "is_settled")
		_, errUpdate := DB.Exec("UPDATE kasbon SET is_settled = FALSE WHERE is_settled IS NULL")
		if errUpdate != nil {
			if logger.L != nil {
				logger.L.Error("Error backfilling is_settled for existing kasbon rows", "error", errUpdate)
			} else {
				stdlog.Printf("Error backfilling is_settled for existing kasbon rows: %v", errUpdate)
			}
		}
	}
	if _, ok := columnExists["note"]; !ok {
		addColumn("kasbon", "note TEXT", "note")
	}
}
