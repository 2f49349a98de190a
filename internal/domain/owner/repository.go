package owner

import (
	"context"
	"strconv"

	"github.com/finance-ledger/internal/domain/account"
)

// Repository defines client and merchant persistence
type Repository interface {
	// CreateClient assigns the id. Email and document number are unique.
	CreateClient(ctx context.Context, client *Client) error
	GetClient(ctx context.Context, id int64) (*Client, error)
	ListClients(ctx context.Context) ([]*Client, error)
	UpdateClient(ctx context.Context, client *Client) error
	// DeleteClient fails with ErrOwnerHasAccounts while any account references the client
	DeleteClient(ctx context.Context, id int64) error

	// CreateMerchant assigns the id. Email and NIF are unique.
	CreateMerchant(ctx context.Context, merchant *Merchant) error
	GetMerchant(ctx context.Context, id int64) (*Merchant, error)
	ListMerchants(ctx context.Context) ([]*Merchant, error)
}

// EnsureExists returns ErrOwnerNotFound unless the party is registered
func EnsureExists(ctx context.Context, repo Repository, kind account.OwnerKind, id int64) error {
	var err error
	switch kind {
	case account.OwnerClient:
		_, err = repo.GetClient(ctx, id)
	case account.OwnerMerchant:
		_, err = repo.GetMerchant(ctx, id)
	default:
		return ErrOwnerNotFound{Kind: kind, ID: id}
	}
	return err
}

// ErrOwnerNotFound indicates a missing client or merchant
type ErrOwnerNotFound struct {
	Kind account.OwnerKind
	ID   int64
}

func (e ErrOwnerNotFound) Error() string {
	kind := "owner"
	switch e.Kind {
	case account.OwnerClient:
		kind = "client"
	case account.OwnerMerchant:
		kind = "merchant"
	}
	return kind + " not found: id " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrOwnerNotFound when the target carries no id
func (e ErrOwnerNotFound) Is(target error) bool {
	t, ok := target.(ErrOwnerNotFound)
	if !ok {
		return false
	}
	if t.ID == 0 {
		return t.Kind == "" || t.Kind == e.Kind
	}
	return e.Kind == t.Kind && e.ID == t.ID
}

// ErrDuplicateOwner indicates a unique field already held by another owner
type ErrDuplicateOwner struct {
	Field string
}

func (e ErrDuplicateOwner) Error() string {
	return "an owner with this " + e.Field + " already exists"
}

func (e ErrDuplicateOwner) Is(target error) bool {
	t, ok := target.(ErrDuplicateOwner)
	if !ok {
		return false
	}
	return t.Field == "" || e.Field == t.Field
}

// ErrOwnerHasAccounts indicates an owner that cannot be removed while accounts reference it
type ErrOwnerHasAccounts struct {
	ID int64
}

func (e ErrOwnerHasAccounts) Error() string {
	return "owner " + strconv.FormatInt(e.ID, 10) + " still holds accounts"
}

func (e ErrOwnerHasAccounts) Is(target error) bool {
	t, ok := target.(ErrOwnerHasAccounts)
	return ok && (t.ID == 0 || e.ID == t.ID)
}
