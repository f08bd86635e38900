package integration_test

import (
	"context"
	"testing"

	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/metinatakli/table-reservation-system/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type WalletTestSuite struct {
	BaseSuite
}

func TestWalletSuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	suite.Run(t, new(WalletTestSuite))
}

func (s *WalletTestSuite) TestDebit() {
	ctx := context.Background()
	wallets := repository.NewPostgresWalletRepository(s.app.DB)

	transaction, err := wallets.Debit(ctx, TestUserId, decimal.RequireFromString("49.99"), "Gift card")
	s.Require().NoError(err)
	s.Equal(domain.TransactionTypeDebit, transaction.Type)
	s.Equal("-49.99", transaction.Amount.StringFixed(2))
	s.Nil(transaction.ReservationID)

	balance, err := wallets.GetBalance(ctx, TestUserId)
	s.Require().NoError(err)
	s.Equal("200.01", balance.StringFixed(2))

	_, err = wallets.Debit(ctx, TestPoorUserId, decimal.RequireFromString("10.01"), "Gift card")
	s.ErrorIs(err, domain.ErrInsufficientBalance)

	balance, err = wallets.GetBalance(ctx, TestPoorUserId)
	s.Require().NoError(err)
	s.Equal("10.00", balance.StringFixed(2))

	_, err = wallets.Debit(ctx, TestUserId, decimal.RequireFromString("-1"), "Gift card")
	s.ErrorIs(err, domain.ErrInvalidAmount)

	wallet, err := wallets.GetByUserId(ctx, TestUserId)
	s.Require().NoError(err)
	s.Equal("200.01", wallet.Balance.StringFixed(2))
	s.Len(wallet.Transactions, 2)
}
