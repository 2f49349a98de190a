package account

import (
	"errors"
	"testing"
	"time"

	"github.com/finance-ledger/internal/domain/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestNewAccount(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		limit := money.MustParse("1000.00")

		beforeCreation := time.Now()
		acc, err := NewAccount(OpenParams{
			Type:           TypeChecking,
			ClientID:       int64Ptr(7),
			InitialDeposit: money.MustParse("1000.00"),
			AvailableLimit: &limit,
		})
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, acc)

		assert.Equal(t, TypeChecking, acc.Type)
		assert.Equal(t, StatusActive, acc.Status)
		assert.Equal(t, "1000.00", acc.Balance.String())
		assert.Equal(t, "1000.00", acc.AvailableLimit.String())
		assert.Equal(t, 1, acc.Version, "Initial version should be 1")
		assert.Empty(t, acc.AccountNumber, "Account number is assigned by the store")

		kind, id := acc.Owner()
		assert.Equal(t, OwnerClient, kind)
		assert.Equal(t, int64(7), id)

		assert.WithinDuration(t, beforeCreation, acc.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)
		assert.Equal(t, acc.CreatedAt, acc.UpdatedAt)
	})

	t.Run("ZeroBalanceByDefault", func(t *testing.T) {
		acc, err := NewAccount(OpenParams{Type: TypeSavings, MerchantID: int64Ptr(3)})
		require.NoError(t, err)
		assert.True(t, acc.Balance.IsZero())
		assert.Nil(t, acc.AvailableLimit)

		kind, _ := acc.Owner()
		assert.Equal(t, OwnerMerchant, kind)
	})

	tests := []struct {
		name    string
		params  OpenParams
		wantErr error
	}{
		{
			name:    "BothOwners",
			params:  OpenParams{Type: TypeChecking, ClientID: int64Ptr(1), MerchantID: int64Ptr(2)},
			wantErr: ErrInvalidOwner,
		},
		{
			name:    "NoOwner",
			params:  OpenParams{Type: TypeChecking},
			wantErr: ErrInvalidOwner,
		},
		{
			name:    "UnknownType",
			params:  OpenParams{Type: "CRYPTO", ClientID: int64Ptr(1)},
			wantErr: ErrInvalidType,
		},
		{
			name:    "NegativeInitialDeposit",
			params:  OpenParams{Type: TypeBusiness, ClientID: int64Ptr(1), InitialDeposit: money.MustParse("-1.00")},
			wantErr: ErrNegativeOpening,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := NewAccount(tt.params)
			assert.Nil(t, acc)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAccount_Credit(t *testing.T) {
	t.Run("SuccessfulCredit", func(t *testing.T) {
		acc := &Account{
			AccountNumber: "0000000001",
			Balance:       money.MustParse("1000.00"),
			Status:        StatusActive,
			Version:       1,
			CreatedAt:     time.Now().Add(-time.Hour),
			UpdatedAt:     time.Now().Add(-time.Hour),
		}

		err := acc.Credit(money.MustParse("500.00"))

		require.NoError(t, err)
		assert.Equal(t, "1500.00", acc.Balance.String())
		assert.Equal(t, 1, acc.Version, "version is bumped by the store")
		assert.True(t, acc.UpdatedAt.After(acc.CreatedAt))
	})

	t.Run("RejectsZero", func(t *testing.T) {
		acc := &Account{Balance: money.MustParse("10.00"), Version: 1}
		assert.ErrorIs(t, acc.Credit(money.Zero()), ErrInvalidAmount)
		assert.Equal(t, "10.00", acc.Balance.String())
	})
}

func TestAccount_CreditOverflow(t *testing.T) {
	acc := &Account{AccountNumber: "0000000009", Balance: money.MustParse("99999999999999999.00")}

	assert.True(t, acc.CanCredit(money.MustParse("0.99")))
	assert.False(t, acc.CanCredit(money.MustParse("1.00")))

	err := acc.Credit(money.MustParse("1.00"))
	assert.ErrorIs(t, err, money.ErrOutOfRange)
	assert.Equal(t, "99999999999999999.00", acc.Balance.String())
}

func TestAccount_Debit(t *testing.T) {
	t.Run("SuccessfulDebit", func(t *testing.T) {
		acc := &Account{Balance: money.MustParse("100.00"), Version: 2}

		require.NoError(t, acc.Debit(money.MustParse("30.00")))
		assert.Equal(t, "70.00", acc.Balance.String())
	})

	t.Run("WholeBalance", func(t *testing.T) {
		acc := &Account{Balance: money.MustParse("100.00")}
		require.NoError(t, acc.Debit(money.MustParse("100.00")))
		assert.True(t, acc.Balance.IsZero())
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		acc := &Account{Balance: money.MustParse("1000.00"), Version: 1}

		err := acc.Debit(money.MustParse("1500.00"))

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, "1000.00", acc.Balance.String())
	})
}

func TestAccount_CanDebit(t *testing.T) {
	acc := &Account{Balance: money.MustParse("10.00")}
	assert.True(t, acc.CanDebit(money.MustParse("9.99")))
	assert.True(t, acc.CanDebit(money.MustParse("10.00")))
	assert.False(t, acc.CanDebit(money.MustParse("10.01")))
}

func TestAccount_EnsureActive(t *testing.T) {
	for _, status := range []Status{StatusInactive, StatusBlocked, StatusClosed} {
		t.Run(string(status), func(t *testing.T) {
			acc := &Account{AccountNumber: "1234567890", Status: status}
			err := acc.EnsureActive()

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAccountNotActive{}))

			var notActive ErrAccountNotActive
			require.True(t, errors.As(err, &notActive))
			assert.Equal(t, status, notActive.Status)
		})
	}

	acc := &Account{Status: StatusActive}
	assert.NoError(t, acc.EnsureActive())
}

func TestAccount_ChangeStatus(t *testing.T) {
	acc := &Account{Status: StatusActive, Balance: money.MustParse("50.00"), Version: 1}

	previous, err := acc.ChangeStatus(StatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, previous)
	assert.Equal(t, StatusBlocked, acc.Status)
	assert.Equal(t, "50.00", acc.Balance.String(), "status changes never move money")

	_, err = acc.ChangeStatus("FROZEN")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, StatusBlocked, acc.Status)

	updatedAt := acc.UpdatedAt
	previous, err = acc.ChangeStatus(StatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, previous)
	assert.Equal(t, updatedAt, acc.UpdatedAt, "same status is a no-op")
}

func TestGenerateAccountNumber(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		number := GenerateAccountNumber()
		require.NoError(t, ValidateAccountNumber(number))
		seen[number] = struct{}{}
	}
	assert.Greater(t, len(seen), 95)
}

func TestValidateAccountNumber(t *testing.T) {
	assert.NoError(t, ValidateAccountNumber("0123456789"))
	assert.ErrorIs(t, ValidateAccountNumber("123"), ErrInvalidAccountNumber)
	assert.ErrorIs(t, ValidateAccountNumber("12345abcde"), ErrInvalidAccountNumber)
}

func TestErrAccountNotFound_Is(t *testing.T) {
	err := ErrAccountNotFound{AccountNumber: "1111111111"}
	assert.True(t, errors.Is(err, ErrAccountNotFound{}))
	assert.True(t, errors.Is(err, ErrAccountNotFound{AccountNumber: "1111111111"}))
	assert.False(t, errors.Is(err, ErrAccountNotFound{AccountNumber: "2222222222"}))
	assert.Equal(t, "account not found: id 9", ErrAccountNotFound{ID: 9}.Error())
}
