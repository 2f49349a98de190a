package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/owner"
	"github.com/finance-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const (
	clientColumns   = `id, name, email, document_number, phone, address, created_at, updated_at`
	merchantColumns = `id, business_name, trading_name, email, nif, phone, address, merchant_category_code, created_at, updated_at`
)

// ownerConstraints maps unique constraints to the field reported to callers
var ownerConstraints = map[string]string{
	"clients_email_key":           "email",
	"clients_document_number_key": "document_number",
	"merchants_email_key":         "email",
	"merchants_nif_key":           "nif",
}

// OwnerRepository implements the owner.Repository interface for PostgreSQL
type OwnerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ owner.Repository = (*OwnerRepository)(nil)

func NewOwnerRepository(logger *slog.Logger, db *persistence.PostgresDB) *OwnerRepository {
	return &OwnerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *OwnerRepository) CreateClient(ctx context.Context, client *owner.Client) error {
	query := `
		INSERT INTO clients (name, email, document_number, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		client.Name,
		client.Email,
		client.DocumentNumber,
		client.Phone,
		client.Address,
		client.CreatedAt,
		client.UpdatedAt,
	).Scan(&client.ID)
	if err != nil {
		if dup := duplicateOwner(err); dup != nil {
			return dup
		}
		r.logger.Error("Failed to create client", "error", err)
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

func (r *OwnerRepository) GetClient(ctx context.Context, id int64) (*owner.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	client, err := scanClient(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, owner.ErrOwnerNotFound{Kind: account.OwnerClient, ID: id}
		}
		r.logger.Error("Failed to get client", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

func (r *OwnerRepository) ListClients(ctx context.Context) ([]*owner.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY id ASC`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list clients", "error", err)
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]*owner.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over clients: %w", err)
	}

	return clients, nil
}

func (r *OwnerRepository) UpdateClient(ctx context.Context, client *owner.Client) error {
	query := `
		UPDATE clients
		SET name = $1, email = $2, document_number = $3, phone = $4, address = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := r.querier.Exec(ctx, query,
		client.Name,
		client.Email,
		client.DocumentNumber,
		client.Phone,
		client.Address,
		client.UpdatedAt,
		client.ID,
	)
	if err != nil {
		if dup := duplicateOwner(err); dup != nil {
			return dup
		}
		r.logger.Error("Failed to update client", "id", client.ID, "error", err)
		return fmt.Errorf("failed to update client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return owner.ErrOwnerNotFound{Kind: account.OwnerClient, ID: client.ID}
	}

	return nil
}

// DeleteClient relies on the accounts foreign key to refuse clients that still hold accounts
func (r *OwnerRepository) DeleteClient(ctx context.Context, id int64) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if _, ok := persistence.ForeignKeyViolation(err); ok {
			return owner.ErrOwnerHasAccounts{ID: id}
		}
		r.logger.Error("Failed to delete client", "id", id, "error", err)
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return owner.ErrOwnerNotFound{Kind: account.OwnerClient, ID: id}
	}

	return nil
}

func (r *OwnerRepository) CreateMerchant(ctx context.Context, merchant *owner.Merchant) error {
	query := `
		INSERT INTO merchants (business_name, trading_name, email, nif, phone, address, merchant_category_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		merchant.BusinessName,
		merchant.TradingName,
		merchant.Email,
		merchant.NIF,
		merchant.Phone,
		merchant.Address,
		merchant.MerchantCategoryCode,
		merchant.CreatedAt,
		merchant.UpdatedAt,
	).Scan(&merchant.ID)
	if err != nil {
		if dup := duplicateOwner(err); dup != nil {
			return dup
		}
		r.logger.Error("Failed to create merchant", "error", err)
		return fmt.Errorf("failed to create merchant: %w", err)
	}

	return nil
}

func (r *OwnerRepository) GetMerchant(ctx context.Context, id int64) (*owner.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`

	merchant, err := scanMerchant(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, owner.ErrOwnerNotFound{Kind: account.OwnerMerchant, ID: id}
		}
		r.logger.Error("Failed to get merchant", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}

	return merchant, nil
}

func (r *OwnerRepository) ListMerchants(ctx context.Context) ([]*owner.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants ORDER BY id ASC`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list merchants", "error", err)
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	defer rows.Close()

	merchants := make([]*owner.Merchant, 0)
	for rows.Next() {
		merchant, err := scanMerchant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan merchant: %w", err)
		}
		merchants = append(merchants, merchant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over merchants: %w", err)
	}

	return merchants, nil
}

// duplicateOwner returns nil unless err violates one of the owner unique constraints
func duplicateOwner(err error) error {
	constraint, ok := persistence.UniqueViolation(err)
	if !ok {
		return nil
	}
	field, known := ownerConstraints[constraint]
	if !known {
		return nil
	}
	return owner.ErrDuplicateOwner{Field: field}
}

func scanClient(row scanner) (*owner.Client, error) {
	var c owner.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.DocumentNumber, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanMerchant(row scanner) (*owner.Merchant, error) {
	var m owner.Merchant
	err := row.Scan(&m.ID, &m.BusinessName, &m.TradingName, &m.Email, &m.NIF, &m.Phone, &m.Address, &m.MerchantCategoryCode, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
