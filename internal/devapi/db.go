package devapi

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// Open opens (or creates) the sqlite database and applies migrations.
// Use ":memory:" in tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'agent' CHECK(role IN ('admin','manager','agent')),
			is_active INTEGER NOT NULL DEFAULT 1,
			phone TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			date_joined TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS companies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			industry TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			postal_code TEXT NOT NULL DEFAULT '',
			is_customer INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			mobile TEXT NOT NULL DEFAULT '',
			company_id INTEGER REFERENCES companies(id) ON DELETE SET NULL,
			job_title TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			is_customer INTEGER NOT NULL DEFAULT 0,
			is_prospect INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS cases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			case_number TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'general',
			priority TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low','medium','high','urgent')),
			status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open','in_progress','pending','resolved','closed')),
			source TEXT NOT NULL DEFAULT 'web',
			customer_id INTEGER NOT NULL REFERENCES contacts(id),
			company_id INTEGER REFERENCES companies(id) ON DELETE SET NULL,
			assigned_to INTEGER REFERENCES users(id) ON DELETE SET NULL,
			created_by INTEGER NOT NULL REFERENCES users(id),
			due_date TEXT NOT NULL DEFAULT '',
			sla_hours INTEGER NOT NULL DEFAULT 24,
			tags TEXT NOT NULL DEFAULT '',
			resolved_at TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS case_responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			case_id INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
			author_id INTEGER NOT NULL REFERENCES users(id),
			response_type TEXT NOT NULL DEFAULT 'note',
			content TEXT NOT NULL,
			is_internal INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS case_attachments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			case_id INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
			filename TEXT NOT NULL DEFAULT '',
			file_size INTEGER NOT NULL DEFAULT 0,
			uploaded_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
			created_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email_type TEXT NOT NULL DEFAULT 'outbound' CHECK(email_type IN ('inbound','outbound','system')),
			status TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft','queued','sent','delivered','failed','bounced')),
			subject TEXT NOT NULL DEFAULT '',
			from_email TEXT NOT NULL DEFAULT '',
			to_email TEXT NOT NULL DEFAULT '',
			cc_emails TEXT NOT NULL DEFAULT '',
			bcc_emails TEXT NOT NULL DEFAULT '',
			html_content TEXT NOT NULL DEFAULT '',
			text_content TEXT NOT NULL DEFAULT '',
			message_id TEXT NOT NULL DEFAULT '',
			thread_id TEXT NOT NULL DEFAULT '',
			case_id INTEGER REFERENCES cases(id) ON DELETE SET NULL,
			user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
			error_message TEXT NOT NULL DEFAULT '',
			retry_count INTEGER NOT NULL DEFAULT 0,
			starred INTEGER NOT NULL DEFAULT 0,
			archived INTEGER NOT NULL DEFAULT 0,
			sent_at TEXT NOT NULL DEFAULT '',
			delivered_at TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS email_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email_id INTEGER NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
			event TEXT NOT NULL,
			timestamp TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS email_attachments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email_id INTEGER NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
			filename TEXT NOT NULL DEFAULT '',
			file_size INTEGER NOT NULL DEFAULT 0,
			content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
			created_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS sms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sms_type TEXT NOT NULL DEFAULT 'outbound' CHECK(sms_type IN ('inbound','outbound','system')),
			status TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft','queued','sent','delivered','failed','undelivered')),
			message TEXT NOT NULL DEFAULT '',
			from_number TEXT NOT NULL DEFAULT '',
			to_number TEXT NOT NULL DEFAULT '',
			case_id INTEGER REFERENCES cases(id) ON DELETE SET NULL,
			user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
			message_id TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			retry_count INTEGER NOT NULL DEFAULT 0,
			sent_at TEXT NOT NULL DEFAULT '',
			delivered_at TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS sms_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sms_id INTEGER NOT NULL REFERENCES sms(id) ON DELETE CASCADE,
			event TEXT NOT NULL,
			timestamp TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			meeting_type TEXT NOT NULL DEFAULT 'internal',
			status TEXT NOT NULL DEFAULT 'scheduled' CHECK(status IN ('scheduled','confirmed','in_progress','completed','cancelled')),
			priority TEXT NOT NULL DEFAULT 'medium',
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			all_day INTEGER NOT NULL DEFAULT 0,
			location TEXT NOT NULL DEFAULT '',
			location_type TEXT NOT NULL DEFAULT 'virtual',
			meeting_url TEXT NOT NULL DEFAULT '',
			organizer_id INTEGER NOT NULL REFERENCES users(id),
			is_recurring INTEGER NOT NULL DEFAULT 0,
			recurrence_rule TEXT NOT NULL DEFAULT '',
			parent_meeting INTEGER REFERENCES meetings(id) ON DELETE SET NULL,
			reminder_minutes INTEGER NOT NULL DEFAULT 15,
			agenda TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS meeting_attendees (
			meeting_id INTEGER NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			joined INTEGER NOT NULL DEFAULT 0,
			UNIQUE(meeting_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','in_progress','completed','cancelled')),
			priority TEXT NOT NULL DEFAULT 'medium',
			assigned_to INTEGER REFERENCES users(id) ON DELETE SET NULL,
			due_date TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS folders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			parent_id INTEGER REFERENCES folders(id) ON DELETE CASCADE,
			created_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			filename TEXT NOT NULL DEFAULT '',
			file_size INTEGER NOT NULL DEFAULT 0,
			mime_type TEXT NOT NULL DEFAULT 'application/octet-stream',
			folder_id INTEGER REFERENCES folders(id) ON DELETE SET NULL,
			uploaded_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS email_configs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			provider TEXT NOT NULL DEFAULT 'smtp',
			email_address TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			smtp_host TEXT NOT NULL DEFAULT '',
			smtp_port INTEGER NOT NULL DEFAULT 587,
			smtp_username TEXT NOT NULL DEFAULT '',
			smtp_password TEXT NOT NULL DEFAULT '',
			use_tls INTEGER NOT NULL DEFAULT 1,
			use_ssl INTEGER NOT NULL DEFAULT 0,
			imap_host TEXT NOT NULL DEFAULT '',
			imap_port INTEGER NOT NULL DEFAULT 993,
			is_active INTEGER NOT NULL DEFAULT 1,
			is_verified INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS sms_configs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			provider TEXT NOT NULL DEFAULT 'twilio',
			account_sid TEXT NOT NULL DEFAULT '',
			auth_token TEXT NOT NULL DEFAULT '',
			from_number TEXT NOT NULL DEFAULT '',
			webhook_url TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			is_verified INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

// Seed creates the default admin account and a demo dataset when the
// database is empty.
func Seed(db *sql.DB) error {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	ts := now()
	res, err := db.Exec(
		`INSERT INTO users (email, password_hash, first_name, last_name, role, is_active, date_joined)
		 VALUES (?, ?, 'Mint', 'Admin', 'admin', 1, ?)`,
		"admin@mint.local", string(hash), ts)
	if err != nil {
		return err
	}
	adminID, _ := res.LastInsertId()

	companyRes, err := db.Exec(
		`INSERT INTO companies (name, industry, website, city, country, is_customer, created_at, updated_at)
		 VALUES ('Acme Logistics', 'logistics', 'https://acme.example', 'Rotterdam', 'NL', 1, ?, ?)`, ts, ts)
	if err != nil {
		return err
	}
	companyID, _ := companyRes.LastInsertId()

	contactRes, err := db.Exec(
		`INSERT INTO contacts (first_name, last_name, email, phone, company_id, job_title, is_customer, created_at, updated_at)
		 VALUES ('Eva', 'Jansen', 'eva@acme.example', '+31101234567', ?, 'Operations Lead', 1, ?, ?)`,
		companyID, ts, ts)
	if err != nil {
		return err
	}
	contactID, _ := contactRes.LastInsertId()

	_, err = db.Exec(
		`INSERT INTO cases (case_number, title, description, category, priority, customer_id, company_id, created_by, created_at, updated_at)
		 VALUES ('CASE-0001', 'Shipment tracking unavailable', 'Tracking page times out for order 4417.', 'technical', 'high', ?, ?, ?, ?, ?)`,
		contactID, companyID, adminID, ts, ts)
	return err
}
