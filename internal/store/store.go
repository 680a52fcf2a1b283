package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jobtrail/jobtrail/internal/classify"
)

// Application is the persisted record for one job application. Identity
// is the (company, role) pair, compared case-insensitively.
type Application struct {
	ID            int64
	Company       string
	Role          string
	JobType       string
	Country       string
	Source        string
	DateApplied   string // YYYY-MM-DD
	ResumeVersion string
	Status        classify.Status
	StatusDate    string // YYYY-MM-DD, date of last status change
	Notes         string
	CreatedAt     time.Time
}

type Store struct {
	db *sql.DB
}

// scanApplication handles nullable columns when scanning a row
func scanApplication(scanner interface{ Scan(...any) error }) (*Application, error) {
	var a Application
	var jobType, country, source, dateApplied, resumeVersion, statusDate, notes sql.NullString
	var status string
	var createdAt sql.NullTime

	err := scanner.Scan(&a.ID, &a.Company, &a.Role, &jobType, &country, &source,
		&dateApplied, &resumeVersion, &status, &statusDate, &notes, &createdAt)
	if err != nil {
		return nil, err
	}

	a.JobType = jobType.String
	a.Country = country.String
	a.Source = source.String
	a.DateApplied = dateApplied.String
	a.ResumeVersion = resumeVersion.String
	a.Status = classify.Status(status)
	a.StatusDate = statusDate.String
	a.Notes = notes.String
	a.CreatedAt = createdAt.Time
	return &a, nil
}

const applicationColumns = `id, company, role, job_type, country, source, date_applied, resume_version, status, status_date, notes, created_at`

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	// Add columns introduced after the first schema version. These must
	// run before the index creation below.
	s.db.Exec(`ALTER TABLE applications ADD COLUMN notes TEXT`)
	s.db.Exec(`ALTER TABLE applications ADD COLUMN resume_version TEXT`)

	query := `
	CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company TEXT NOT NULL,
		role TEXT NOT NULL,
		job_type TEXT,
		country TEXT,
		source TEXT,
		date_applied TEXT,
		resume_version TEXT,
		status TEXT NOT NULL DEFAULT 'Pending',
		status_date TEXT,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_company_role ON applications(company, role);
	CREATE INDEX IF NOT EXISTS idx_app_status ON applications(status);
	CREATE INDEX IF NOT EXISTS idx_date_applied ON applications(date_applied);

	-- Key/value settings (monitored email, last scan time, lookback days)
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// FindByCompanyRole looks up a record by its natural key. Returns nil
// without error when no record matches.
func (s *Store) FindByCompanyRole(company, role string) (*Application, error) {
	query := `
	SELECT ` + applicationColumns + `
	FROM applications WHERE LOWER(company) = LOWER(?) AND LOWER(role) = LOWER(?) LIMIT 1`

	app, err := scanApplication(s.db.QueryRow(query, company, role))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query application: %w", err)
	}
	return app, nil
}

func (s *Store) Insert(app *Application) error {
	query := `
	INSERT INTO applications (company, role, job_type, country, source, date_applied, resume_version, status, status_date, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		app.Company,
		app.Role,
		app.JobType,
		app.Country,
		app.Source,
		app.DateApplied,
		app.ResumeVersion,
		string(app.Status),
		app.StatusDate,
		app.Notes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	app.ID = id
	return nil
}

// UpdateStatus records a status transition. status_date moves only
// through this method, so it always reflects the last status change.
func (s *Store) UpdateStatus(id int64, status classify.Status, statusDate string) error {
	result, err := s.db.Exec(`UPDATE applications SET status = ?, status_date = ? WHERE id = ?`,
		string(status), statusDate, id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("application %d not found", id)
	}
	return nil
}

// Update edits record fields. Status and status_date are not touched
// here; transitions go through UpdateStatus.
func (s *Store) Update(app *Application) error {
	result, err := s.db.Exec(`
	UPDATE applications
	SET company = ?, role = ?, job_type = ?, country = ?, source = ?, date_applied = ?, resume_version = ?, notes = ?
	WHERE id = ?`,
		app.Company, app.Role, app.JobType, app.Country, app.Source,
		app.DateApplied, app.ResumeVersion, app.Notes, app.ID)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("application %d not found", app.ID)
	}
	return nil
}

func (s *Store) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("application %d not found", id)
	}
	return nil
}

func (s *Store) Get(id int64) (*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`

	app, err := scanApplication(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query application: %w", err)
	}
	return app, nil
}

func (s *Store) List() ([]Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications ORDER BY date_applied DESC, id DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

// Stats returns the number of applications per status
func (s *Store) Stats() (map[classify.Status]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[classify.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats[classify.Status(status)] = count
	}
	return stats, rows.Err()
}

// GetSetting returns the stored value for key, or "" when unset
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting: %w", err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
	INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

// DefaultDBPath returns the standard database location
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "applications.db"
	}
	return filepath.Join(home, ".jobtrail", "applications.db")
}
