package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const errRepoNotConfigured = "clients repository not configured"

// PGRepository is the Postgres implementation of Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) FindAccountIDsByPhones(ctx context.Context, phones []string) ([]uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT account_id FROM account_phones WHERE phone = ANY($1)`,
		phones,
	)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

func (r *PGRepository) FindAccountIDsByPhoneSuffix(ctx context.Context, suffix string) ([]uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT account_id
		 FROM account_phones
		 WHERE right(regexp_replace(phone, '\D', '', 'g'), $2) = $1
		 LIMIT 2`,
		suffix, len(suffix),
	)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGRepository) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	if r == nil || r.pool == nil {
		return Account{}, errors.New(errRepoNotConfigured)
	}

	var a Account
	err := r.pool.QueryRow(ctx,
		`SELECT id, full_name, preferred_language, created_at FROM accounts WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.FullName, &a.PreferredLanguage, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

func (r *PGRepository) ActiveContract(ctx context.Context, accountID uuid.UUID) (Contract, error) {
	if r == nil || r.pool == nil {
		return Contract{}, errors.New(errRepoNotConfigured)
	}

	var (
		c            Contract
		propertyName *string
		unitNumber   *string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT c.id, c.property_id, p.name, c.unit_id, u.unit_number, c.start_date, c.end_date, c.rent_cents
		 FROM contracts c
		 LEFT JOIN properties p ON p.id = c.property_id
		 LEFT JOIN units u ON u.id = c.unit_id
		 WHERE c.account_id = $1
		   AND c.status = 'active'
		   AND c.end_date >= current_date
		 ORDER BY c.created_at DESC
		 LIMIT 1`,
		accountID,
	).Scan(&c.ID, &c.PropertyID, &propertyName, &c.UnitID, &unitNumber, &c.StartDate, &c.EndDate, &c.RentCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrNotFound
	}
	if err != nil {
		return Contract{}, err
	}
	if propertyName != nil {
		c.PropertyName = *propertyName
	}
	if unitNumber != nil {
		c.UnitNumber = *unitNumber
	}
	return c, nil
}

func (r *PGRepository) CreateAccount(ctx context.Context, name string, phones []string) (Account, error) {
	if r == nil || r.pool == nil {
		return Account{}, errors.New(errRepoNotConfigured)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Account{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	a := Account{ID: uuid.New(), FullName: name, PreferredLanguage: "en"}
	err = tx.QueryRow(ctx,
		`INSERT INTO accounts (id, full_name, preferred_language)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		a.ID, a.FullName, a.PreferredLanguage,
	).Scan(&a.CreatedAt)
	if err != nil {
		return Account{}, fmt.Errorf("insert account: %w", err)
	}

	for _, p := range phones {
		if _, err := tx.Exec(ctx,
			`INSERT INTO account_phones (account_id, phone) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			a.ID, p,
		); err != nil {
			return Account{}, fmt.Errorf("insert account phone: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, err
	}
	return a, nil
}
