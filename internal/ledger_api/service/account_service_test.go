package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/finance-ledger/internal/data/memory"
	"github.com/finance-ledger/internal/domain/account"
	"github.com/finance-ledger/internal/domain/money"
	"github.com/finance-ledger/internal/domain/owner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func int64Ptr(v int64) *int64 { return &v }

// registerClient and registerMerchant add an owner to the store's registry and return its id
func registerClient(t *testing.T, store *memory.Store, document string) int64 {
	t.Helper()
	client, err := owner.NewClient(owner.ClientDetails{
		Name:           "Client " + document,
		Email:          "client" + document + "@example.com",
		DocumentNumber: document,
		Phone:          "+351 910 000 000",
	})
	require.NoError(t, err)
	require.NoError(t, store.Owners().CreateClient(context.Background(), client))
	return client.ID
}

func registerMerchant(t *testing.T, store *memory.Store, nif string) int64 {
	t.Helper()
	merchant, err := owner.NewMerchant(owner.MerchantDetails{
		BusinessName: "Merchant " + nif,
		Email:        "merchant" + nif + "@example.com",
		NIF:          nif,
		Phone:        "+351 210 000 000",
	})
	require.NoError(t, err)
	require.NoError(t, store.Owners().CreateMerchant(context.Background(), merchant))
	return merchant.ID
}

func newAccountService(store *memory.Store) *AccountServiceImpl {
	return NewAccountService(discardLogger(), store, store.Owners())
}

func TestAccountService_Open(t *testing.T) {
	store := memory.NewStore()
	svc := newAccountService(store)
	clientID := registerClient(t, store, "100")
	merchantID := registerMerchant(t, store, "500")

	t.Run("SuccessfulOpen", func(t *testing.T) {
		limit := money.MustParse("500.00")
		acc, err := svc.Open(context.Background(), OpenAccountInput{
			Type:           account.TypeSavings,
			ClientID:       &clientID,
			InitialDeposit: money.MustParse("100.00"),
			AvailableLimit: &limit,
		})

		require.NoError(t, err)
		assert.NoError(t, account.ValidateAccountNumber(acc.AccountNumber))
		assert.Equal(t, account.StatusActive, acc.Status)

		stored, err := svc.GetByNumber(context.Background(), acc.AccountNumber)
		require.NoError(t, err)
		assert.Equal(t, "100.00", stored.Balance.String())
		assert.Equal(t, "500.00", stored.AvailableLimit.String())
	})

	t.Run("RejectsTwoOwners", func(t *testing.T) {
		_, err := svc.Open(context.Background(), OpenAccountInput{
			Type:       account.TypeChecking,
			ClientID:   &clientID,
			MerchantID: &merchantID,
		})
		assert.ErrorIs(t, err, account.ErrInvalidOwner)
	})

	t.Run("RejectsNegativeDeposit", func(t *testing.T) {
		_, err := svc.Open(context.Background(), OpenAccountInput{
			Type:           account.TypeChecking,
			MerchantID:     &merchantID,
			InitialDeposit: money.MustParse("-1.00"),
		})
		assert.ErrorIs(t, err, account.ErrNegativeOpening)
	})

	t.Run("RejectsUnregisteredOwner", func(t *testing.T) {
		for _, input := range []OpenAccountInput{
			{Type: account.TypeChecking, ClientID: int64Ptr(42)},
			{Type: account.TypeBusiness, MerchantID: int64Ptr(42)},
		} {
			acc, err := svc.Open(context.Background(), input)
			assert.Nil(t, acc)
			assert.ErrorIs(t, err, owner.ErrOwnerNotFound{ID: 42})
		}

		accounts, err := store.Accounts().ListByOwner(context.Background(), account.OwnerClient, 42)
		require.NoError(t, err)
		assert.Empty(t, accounts, "nothing is stored for an unregistered owner")
	})
}

func TestAccountService_GetByNumber(t *testing.T) {
	svc := newAccountService(memory.NewStore())

	_, err := svc.GetByNumber(context.Background(), "1234567890")
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})

	_, err = svc.GetByNumber(context.Background(), "abc")
	assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountNumber: "abc"})
}

func TestAccountService_ListByOwner(t *testing.T) {
	store := memory.NewStore()
	svc := newAccountService(store)
	clientID := registerClient(t, store, "100")
	merchantID := registerMerchant(t, store, "500")
	require.Equal(t, clientID, merchantID, "client and merchant ids are drawn from separate sequences")

	for _, typ := range []account.Type{account.TypeChecking, account.TypeSavings} {
		_, err := svc.Open(context.Background(), OpenAccountInput{Type: typ, MerchantID: &merchantID})
		require.NoError(t, err)
	}
	_, err := svc.Open(context.Background(), OpenAccountInput{Type: account.TypeChecking, ClientID: &clientID})
	require.NoError(t, err)

	merchantAccounts, err := svc.ListByOwner(context.Background(), account.OwnerMerchant, merchantID)
	require.NoError(t, err)
	assert.Len(t, merchantAccounts, 2)

	clientAccounts, err := svc.ListByOwner(context.Background(), account.OwnerClient, clientID)
	require.NoError(t, err)
	assert.Len(t, clientAccounts, 1)

	_, err = svc.ListByOwner(context.Background(), account.OwnerClient, 77)
	assert.ErrorIs(t, err, owner.ErrOwnerNotFound{Kind: account.OwnerClient, ID: 77})
}

func TestAccountService_ChangeStatus(t *testing.T) {
	store := memory.NewStore()
	svc := newAccountService(store)
	clientID := registerClient(t, store, "300")
	acc, err := svc.Open(context.Background(), OpenAccountInput{
		Type:           account.TypeBusiness,
		ClientID:       &clientID,
		InitialDeposit: money.MustParse("75.00"),
	})
	require.NoError(t, err)

	t.Run("Blocks", func(t *testing.T) {
		updated, err := svc.ChangeStatus(context.Background(), acc.AccountNumber, account.StatusBlocked)
		require.NoError(t, err)
		assert.Equal(t, account.StatusBlocked, updated.Status)

		stored, err := svc.GetByNumber(context.Background(), acc.AccountNumber)
		require.NoError(t, err)
		assert.Equal(t, account.StatusBlocked, stored.Status)
		assert.Equal(t, "75.00", stored.Balance.String())
	})

	t.Run("SameStatusIsNoop", func(t *testing.T) {
		before, err := svc.GetByNumber(context.Background(), acc.AccountNumber)
		require.NoError(t, err)

		_, err = svc.ChangeStatus(context.Background(), acc.AccountNumber, account.StatusBlocked)
		require.NoError(t, err)

		after, err := svc.GetByNumber(context.Background(), acc.AccountNumber)
		require.NoError(t, err)
		assert.Equal(t, before.Version, after.Version)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		_, err := svc.ChangeStatus(context.Background(), acc.AccountNumber, "FROZEN")
		assert.ErrorIs(t, err, account.ErrInvalidStatus)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		_, err := svc.ChangeStatus(context.Background(), "9999999999", account.StatusActive)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{})
	})
}
