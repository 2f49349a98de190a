package memory

import (
	"context"
	"sort"

	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/owner"
)

// ownerRepository keeps clients and merchants in the store's committed state. Owner
// writes are single-row and apply immediately.
type ownerRepository struct {
	store *Store
}

var _ owner.Repository = (*ownerRepository)(nil)

func (r *ownerRepository) CreateClient(_ context.Context, client *owner.Client) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clientConflict(client, 0); err != nil {
		return err
	}
	s.nextClientID++
	client.ID = s.nextClientID
	c := *client
	s.clients[client.ID] = &c
	return nil
}

func (r *ownerRepository) GetClient(_ context.Context, id int64) (*owner.Client, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	client, ok := r.store.clients[id]
	if !ok {
		return nil, owner.ErrOwnerNotFound{Kind: account.OwnerClient, ID: id}
	}
	c := *client
	return &c, nil
}

func (r *ownerRepository) ListClients(_ context.Context) ([]*owner.Client, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	clients := make([]*owner.Client, 0, len(r.store.clients))
	for _, client := range r.store.clients {
		c := *client
		clients = append(clients, &c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients, nil
}

func (r *ownerRepository) UpdateClient(_ context.Context, client *owner.Client) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client.ID]; !ok {
		return owner.ErrOwnerNotFound{Kind: account.OwnerClient, ID: client.ID}
	}
	if err := s.clientConflict(client, client.ID); err != nil {
		return err
	}
	c := *client
	s.clients[client.ID] = &c
	return nil
}

func (r *ownerRepository) DeleteClient(_ context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		return owner.ErrOwnerNotFound{Kind: account.OwnerClient, ID: id}
	}
	for _, acc := range s.accounts {
		if acc.ClientID != nil && *acc.ClientID == id {
			return owner.ErrOwnerHasAccounts{ID: id}
		}
	}
	delete(s.clients, id)
	return nil
}

func (r *ownerRepository) CreateMerchant(_ context.Context, merchant *owner.Merchant) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.merchants {
		switch {
		case existing.Email == merchant.Email:
			return owner.ErrDuplicateOwner{Field: "email"}
		case existing.NIF == merchant.NIF:
			return owner.ErrDuplicateOwner{Field: "nif"}
		}
	}
	s.nextMerchantID++
	merchant.ID = s.nextMerchantID
	m := *merchant
	s.merchants[merchant.ID] = &m
	return nil
}

func (r *ownerRepository) GetMerchant(_ context.Context, id int64) (*owner.Merchant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	merchant, ok := r.store.merchants[id]
	if !ok {
		return nil, owner.ErrOwnerNotFound{Kind: account.OwnerMerchant, ID: id}
	}
	m := *merchant
	return &m, nil
}

func (r *ownerRepository) ListMerchants(_ context.Context) ([]*owner.Merchant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	merchants := make([]*owner.Merchant, 0, len(r.store.merchants))
	for _, merchant := range r.store.merchants {
		m := *merchant
		merchants = append(merchants, &m)
	}
	sort.Slice(merchants, func(i, j int) bool { return merchants[i].ID < merchants[j].ID })
	return merchants, nil
}

// clientConflict must be called with mu held. self is skipped so an update may keep
// its own email and document number.
func (s *Store) clientConflict(client *owner.Client, self int64) error {
	for id, existing := range s.clients {
		if id == self {
			continue
		}
		switch {
		case existing.Email == client.Email:
			return owner.ErrDuplicateOwner{Field: "email"}
		case existing.DocumentNumber == client.DocumentNumber:
			return owner.ErrDuplicateOwner{Field: "document_number"}
		}
	}
	return nil
}
