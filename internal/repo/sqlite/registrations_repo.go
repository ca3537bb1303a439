// Package sqlite provides a single-file registration store for local runs.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mockskills/collabzone/internal/domain/registration"
	"github.com/mockskills/collabzone/internal/observability"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schemaSQL string

const selectColumns = `id, formatted_id, email, name, location, bio, department,
	profile_picture_url, portfolio_url, github_url, linkedin_url, skills, join_date`

type RegistrationsRepo struct {
	sqlDB *sql.DB
	prom  *observability.Prom
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database file and applies the schema.
func Open(path string, prom *observability.Prom) (*RegistrationsRepo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single writer keeps AUTOINCREMENT ids and the unique index consistent
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &RegistrationsRepo{sqlDB: sqlDB, prom: prom, now: time.Now}, nil
}

func (s *RegistrationsRepo) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *RegistrationsRepo) observe(op string, fn func() error) error {
	if s.prom != nil {
		return s.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (s *RegistrationsRepo) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

func (s *RegistrationsRepo) ExistsByEmail(ctx context.Context, email string) (exists bool, err error) {
	err = s.observe("registrations.exists_by_email", func() error {
		return s.sqlDB.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM collabzone_joinus_register WHERE email = ?)`,
			email,
		).Scan(&exists)
	})
	return
}

func (s *RegistrationsRepo) Save(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	skills, err := json.Marshal(skillsOrEmpty(reg.Skills))
	if err != nil {
		return registration.Registration{}, fmt.Errorf("encode skills: %w", err)
	}

	if reg.ID == 0 {
		return s.insert(ctx, reg, string(skills))
	}
	return s.update(ctx, reg, string(skills))
}

func (s *RegistrationsRepo) insert(ctx context.Context, reg registration.Registration, skills string) (registration.Registration, error) {
	var id int64

	err := s.observe("registrations.insert", func() error {
		res, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO collabzone_joinus_register
			(email, name, location, bio, department, profile_picture_url, portfolio_url, github_url, linkedin_url, skills, join_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			reg.Email, reg.Name, reg.Location, reg.Bio, string(reg.Department),
			reg.ProfilePictureURL, reg.PortfolioURL, reg.GithubURL, reg.LinkedinURL, skills, toMillis(s.now()),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})

	if err != nil {
		if isEmailConflict(err) {
			return registration.Registration{}, registration.ErrEmailTaken
		}
		return registration.Registration{}, fmt.Errorf("insert registration: %w", err)
	}

	return s.FindByID(ctx, id)
}

func (s *RegistrationsRepo) update(ctx context.Context, reg registration.Registration, skills string) (registration.Registration, error) {
	var formattedID sql.NullString
	if reg.FormattedID != "" {
		formattedID = sql.NullString{String: reg.FormattedID, Valid: true}
	}

	var affected int64
	err := s.observe("registrations.update", func() error {
		res, err := s.sqlDB.ExecContext(ctx, `
		UPDATE collabzone_joinus_register
		SET formatted_id = COALESCE(formatted_id, ?),
			email = ?,
			name = ?,
			location = ?,
			bio = ?,
			department = ?,
			profile_picture_url = ?,
			portfolio_url = ?,
			github_url = ?,
			linkedin_url = ?,
			skills = ?
		WHERE id = ?`,
			formattedID, reg.Email, reg.Name, reg.Location, reg.Bio, string(reg.Department),
			reg.ProfilePictureURL, reg.PortfolioURL, reg.GithubURL, reg.LinkedinURL, skills, reg.ID,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})

	if err != nil {
		if isEmailConflict(err) {
			return registration.Registration{}, registration.ErrEmailTaken
		}
		return registration.Registration{}, fmt.Errorf("update registration %d: %w", reg.ID, err)
	}
	if affected == 0 {
		return registration.Registration{}, registration.ErrNotFound
	}

	return s.FindByID(ctx, reg.ID)
}

func (s *RegistrationsRepo) FindByID(ctx context.Context, id int64) (reg registration.Registration, err error) {
	err = s.observe("registrations.find_by_id", func() error {
		row := s.sqlDB.QueryRowContext(ctx,
			`SELECT `+selectColumns+` FROM collabzone_joinus_register WHERE id = ?`, id)
		reg, err = scanRegistration(row)
		return err
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return registration.Registration{}, registration.ErrNotFound
		}
		return registration.Registration{}, err
	}
	return reg, nil
}

func (s *RegistrationsRepo) FindAll(ctx context.Context) ([]registration.Registration, error) {
	return s.list(ctx, "registrations.find_all",
		`SELECT `+selectColumns+` FROM collabzone_joinus_register ORDER BY id ASC`)
}

func (s *RegistrationsRepo) ListMissingFormattedID(ctx context.Context, afterID int64, limit int) ([]registration.Registration, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	return s.list(ctx, "registrations.list_missing_formatted_id",
		`SELECT `+selectColumns+` FROM collabzone_joinus_register WHERE formatted_id IS NULL AND id > ? ORDER BY id ASC LIMIT ?`,
		afterID, limit)
}

func (s *RegistrationsRepo) list(ctx context.Context, op, query string, args ...any) ([]registration.Registration, error) {
	var rows *sql.Rows

	err := s.observe(op, func() error {
		var qerr error
		rows, qerr = s.sqlDB.QueryContext(ctx, query, args...)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]registration.Registration, 0)
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row scanner) (registration.Registration, error) {
	var r registration.Registration
	var formattedID sql.NullString
	var department, skills string
	var joinDate int64

	err := row.Scan(
		&r.ID,
		&formattedID,
		&r.Email,
		&r.Name,
		&r.Location,
		&r.Bio,
		&department,
		&r.ProfilePictureURL,
		&r.PortfolioURL,
		&r.GithubURL,
		&r.LinkedinURL,
		&skills,
		&joinDate,
	)
	if err != nil {
		return registration.Registration{}, err
	}

	if err := json.Unmarshal([]byte(skills), &r.Skills); err != nil {
		return registration.Registration{}, fmt.Errorf("decode skills for %d: %w", r.ID, err)
	}
	r.FormattedID = formattedID.String
	r.Department = registration.Department(department)
	r.JoinDate = fromMillis(joinDate)

	return r, nil
}

func isEmailConflict(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
		return strings.Contains(strings.ToLower(sqliteErr.Error()), "email")
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "collabzone_joinus_register.email")
}

func skillsOrEmpty(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}
