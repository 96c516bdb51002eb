package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const errRepoNotConfigured = "intake repository not configured"

// PGRepository stores intake records in Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) CreateRequest(ctx context.Context, req Request) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO intake_requests
		 (id, display_id, kind, account_id, property_id, unit_id, category, priority, description, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.DisplayID, string(req.Kind), req.AccountID, req.PropertyID, req.UnitID,
		req.Category, req.Priority, req.Description, req.Status, req.CreatedAt,
	)
	return err
}

func (r *PGRepository) ListOpenRequests(ctx context.Context, accountID uuid.UUID, limit int) ([]Request, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, display_id, kind, account_id, property_id, unit_id, category, priority, description, status, created_at
		 FROM intake_requests
		 WHERE account_id = $1
		   AND status NOT IN ('resolved', 'closed', 'cancelled')
		 ORDER BY created_at DESC
		 LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var (
			req  Request
			kind string
		)
		if err := rows.Scan(&req.ID, &req.DisplayID, &kind, &req.AccountID, &req.PropertyID, &req.UnitID,
			&req.Category, &req.Priority, &req.Description, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		req.Kind = Kind(kind)
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *PGRepository) CreateRenewal(ctx context.Context, renewal Renewal) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO renewal_requests (id, display_id, account_id, contract_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		renewal.ID, renewal.DisplayID, renewal.AccountID, renewal.ContractID, renewal.CreatedAt,
	)
	return err
}

// SequenceGenerator allocates display IDs from Postgres sequences, one per prefix.
type SequenceGenerator struct {
	pool *pgxpool.Pool
}

func NewSequenceGenerator(pool *pgxpool.Pool) *SequenceGenerator {
	return &SequenceGenerator{pool: pool}
}

var displaySequences = map[string]string{
	PrefixMaintenance: "maintenance_display_seq",
	PrefixComplaint:   "complaint_display_seq",
	PrefixRenewal:     "renewal_display_seq",
}

func (g *SequenceGenerator) NextDisplayID(ctx context.Context, prefix string) (string, error) {
	if g == nil || g.pool == nil {
		return "", errors.New("display id generator not configured")
	}
	seq, ok := displaySequences[prefix]
	if !ok {
		return "", fmt.Errorf("unknown display id prefix %q", prefix)
	}

	var n int64
	if err := g.pool.QueryRow(ctx, `SELECT nextval($1::regclass)`, seq).Scan(&n); err != nil {
		return "", err
	}
	return FormatDisplayID(prefix, n), nil
}

// FormatDisplayID renders prefix and n as e.g. "MR-000123".
func FormatDisplayID(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}
