package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mockskills/collabzone/internal/domain/registration"
	"github.com/mockskills/collabzone/internal/observability"
)

const selectColumns = `id, formatted_id, email, name, location, bio, department,
	profile_picture_url, portfolio_url, github_url, linkedin_url, skills, join_date`

type RegistrationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationsRepo {
	return &RegistrationsRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *RegistrationsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *RegistrationsRepo) Ping(ctx context.Context) error {
	return repo.pool.Ping(ctx)
}

func (repo *RegistrationsRepo) ExistsByEmail(ctx context.Context, email string) (exists bool, err error) {
	err = repo.observe("registrations.exists_by_email", func() error {
		return repo.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM collabzone_joinus_register WHERE email = $1)`,
			email,
		).Scan(&exists)
	})
	return
}

// Save inserts when reg has no id, otherwise updates the stored fields.
// The email constraint is the authority on uniqueness.
func (repo *RegistrationsRepo) Save(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	if reg.ID == 0 {
		return repo.insert(ctx, reg)
	}
	return repo.update(ctx, reg)
}

func (repo *RegistrationsRepo) insert(ctx context.Context, reg registration.Registration) (saved registration.Registration, err error) {
	err = repo.observe("registrations.insert", func() error {
		row := repo.pool.QueryRow(ctx, `
		INSERT INTO collabzone_joinus_register
			(email, name, location, bio, department, profile_picture_url, portfolio_url, github_url, linkedin_url, skills)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+selectColumns,
			reg.Email, reg.Name, reg.Location, reg.Bio, string(reg.Department),
			reg.ProfilePictureURL, reg.PortfolioURL, reg.GithubURL, reg.LinkedinURL, skillsOrEmpty(reg.Skills),
		)
		saved, err = scanRegistration(row)
		return err
	})

	if err != nil {
		if isEmailConflict(err) {
			return registration.Registration{}, registration.ErrEmailTaken
		}
		return registration.Registration{}, fmt.Errorf("insert registration: %w", err)
	}

	return saved, nil
}

func (repo *RegistrationsRepo) update(ctx context.Context, reg registration.Registration) (saved registration.Registration, err error) {
	var formattedID *string
	if reg.FormattedID != "" {
		formattedID = &reg.FormattedID
	}

	err = repo.observe("registrations.update", func() error {
		// an existing formatted_id wins over the incoming one
		row := repo.pool.QueryRow(ctx, `
		UPDATE collabzone_joinus_register
		SET formatted_id = COALESCE(formatted_id, $2),
			email = $3,
			name = $4,
			location = $5,
			bio = $6,
			department = $7,
			profile_picture_url = $8,
			portfolio_url = $9,
			github_url = $10,
			linkedin_url = $11,
			skills = $12
		WHERE id = $1
		RETURNING `+selectColumns,
			reg.ID, formattedID, reg.Email, reg.Name, reg.Location, reg.Bio, string(reg.Department),
			reg.ProfilePictureURL, reg.PortfolioURL, reg.GithubURL, reg.LinkedinURL, skillsOrEmpty(reg.Skills),
		)
		saved, err = scanRegistration(row)
		return err
	})

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return registration.Registration{}, registration.ErrNotFound
		case isEmailConflict(err):
			return registration.Registration{}, registration.ErrEmailTaken
		default:
			return registration.Registration{}, fmt.Errorf("update registration %d: %w", reg.ID, err)
		}
	}

	return saved, nil
}

func (repo *RegistrationsRepo) FindByID(ctx context.Context, id int64) (reg registration.Registration, err error) {
	err = repo.observe("registrations.find_by_id", func() error {
		row := repo.pool.QueryRow(ctx,
			`SELECT `+selectColumns+` FROM collabzone_joinus_register WHERE id = $1`,
			id,
		)
		reg, err = scanRegistration(row)
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration.Registration{}, registration.ErrNotFound
		}
		return registration.Registration{}, err
	}

	return reg, nil
}

func (repo *RegistrationsRepo) FindAll(ctx context.Context) ([]registration.Registration, error) {
	return repo.list(ctx, "registrations.find_all",
		`SELECT `+selectColumns+` FROM collabzone_joinus_register ORDER BY id ASC`)
}

// ListMissingFormattedID pages by id: only rows with id > afterID are returned.
func (repo *RegistrationsRepo) ListMissingFormattedID(ctx context.Context, afterID int64, limit int) ([]registration.Registration, error) {
	if limit <= 0 {
		return repo.list(ctx, "registrations.list_missing_formatted_id",
			`SELECT `+selectColumns+` FROM collabzone_joinus_register WHERE formatted_id IS NULL AND id > $1 ORDER BY id ASC`,
			afterID)
	}

	return repo.list(ctx, "registrations.list_missing_formatted_id",
		`SELECT `+selectColumns+` FROM collabzone_joinus_register WHERE formatted_id IS NULL AND id > $1 ORDER BY id ASC LIMIT $2`,
		afterID, limit)
}

func (repo *RegistrationsRepo) list(ctx context.Context, op, query string, args ...any) (regs []registration.Registration, err error) {
	var rows pgx.Rows

	err = repo.observe(op, func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, query, args...)
		return qerr
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	regs = make([]registration.Registration, 0)

	for rows.Next() {
		r, scanErr := scanRegistration(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		regs = append(regs, r)
	}

	if e := rows.Err(); e != nil {
		if repo.prom != nil {
			repo.prom.DbErrorsTotal.WithLabelValues(op, "rows_err").Inc()
		}
		return nil, e
	}

	return regs, nil
}

func scanRegistration(row pgx.Row) (registration.Registration, error) {
	var r registration.Registration
	var formattedID *string
	var department string

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
		&r.Skills,
		&r.JoinDate,
	)

	if err != nil {
		return registration.Registration{}, err
	}

	if formattedID != nil {
		r.FormattedID = *formattedID
	}
	r.Department = registration.Department(department)
	r.JoinDate = r.JoinDate.UTC()

	return r, nil
}

func skillsOrEmpty(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}
