package service

import (
	"context"
	"log/slog"

	"github.com/finance-ledger/internal/domain/owner"
	"github.com/finance-ledger/internal/logger"
)

// OwnerServiceImpl implements the OwnerService interface
type OwnerServiceImpl struct {
	owners owner.Repository
	logger *slog.Logger
}

var _ OwnerService = (*OwnerServiceImpl)(nil)

func NewOwnerService(logger *slog.Logger, owners owner.Repository) *OwnerServiceImpl {
	return &OwnerServiceImpl{
		owners: owners,
		logger: logger,
	}
}

func (s *OwnerServiceImpl) CreateClient(ctx context.Context, details owner.ClientDetails) (*owner.Client, error) {
	client, err := owner.NewClient(details)
	if err != nil {
		return nil, err
	}
	if err := s.owners.CreateClient(ctx, client); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Client registered", "client_id", client.ID)
	return client, nil
}

func (s *OwnerServiceImpl) GetClient(ctx context.Context, id int64) (*owner.Client, error) {
	return s.owners.GetClient(ctx, id)
}

func (s *OwnerServiceImpl) ListClients(ctx context.Context) ([]*owner.Client, error) {
	return s.owners.ListClients(ctx)
}

// UpdateClient replaces every editable field of the client
func (s *OwnerServiceImpl) UpdateClient(ctx context.Context, id int64, details owner.ClientDetails) (*owner.Client, error) {
	client, err := s.owners.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := client.Apply(details); err != nil {
		return nil, err
	}
	if err := s.owners.UpdateClient(ctx, client); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Client updated", "client_id", id)
	return client, nil
}

func (s *OwnerServiceImpl) DeleteClient(ctx context.Context, id int64) error {
	if err := s.owners.DeleteClient(ctx, id); err != nil {
		return err
	}

	logger.FromContext(ctx, s.logger).Info("Client removed", "client_id", id)
	return nil
}

func (s *OwnerServiceImpl) CreateMerchant(ctx context.Context, details owner.MerchantDetails) (*owner.Merchant, error) {
	merchant, err := owner.NewMerchant(details)
	if err != nil {
		return nil, err
	}
	if err := s.owners.CreateMerchant(ctx, merchant); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Merchant registered", "merchant_id", merchant.ID)
	return merchant, nil
}

func (s *OwnerServiceImpl) GetMerchant(ctx context.Context, id int64) (*owner.Merchant, error) {
	return s.owners.GetMerchant(ctx, id)
}

func (s *OwnerServiceImpl) ListMerchants(ctx context.Context) ([]*owner.Merchant, error) {
	return s.owners.ListMerchants(ctx)
}
