package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidAmount(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0.01", true},
		{"10", true},
		{"10.50", true},
		{"0", false},
		{"-5", false},
		{"1.005", false},
		{"0.001", false},
		{"92233720368547758.07", true},
		{"92233720368547758.08", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestValidOpeningBalance(t *testing.T) {
	assert.True(t, ValidOpeningBalance(decimal.Zero))
	assert.True(t, ValidOpeningBalance(decimal.RequireFromString("100.25")))
	assert.False(t, ValidOpeningBalance(decimal.RequireFromString("-0.01")))
	assert.False(t, ValidOpeningBalance(decimal.RequireFromString("3.141")))
}

func TestTransactionType(t *testing.T) {
	for _, typ := range []TransactionType{TypeInitialDeposit, TypeDeposit, TypeWithdraw, TypeTransferOut, TypeTransferIn} {
		assert.True(t, typ.Valid(), typ)
	}
	assert.False(t, TransactionType("Refund").Valid())

	assert.True(t, TypeTransferOut.IsTransfer())
	assert.True(t, TypeTransferIn.IsTransfer())
	assert.False(t, TypeDeposit.IsTransfer())
}

func TestTransactionRecordString(t *testing.T) {
	tests := []struct {
		name string
		rec  TransactionRecord
		want string
	}{
		{
			name: "deposit",
			rec:  TransactionRecord{Type: TypeDeposit, Amount: decimal.NewFromInt(50)},
			want: "Deposit 50.00",
		},
		{
			name: "transfer out",
			rec:  TransactionRecord{Type: TypeTransferOut, Amount: decimal.NewFromInt(20), CounterpartyAccountID: Counterparty(1002)},
			want: "TransferOut 20.00 -> 1002",
		},
		{
			name: "transfer in",
			rec:  TransactionRecord{Type: TypeTransferIn, Amount: decimal.RequireFromString("20.5"), CounterpartyAccountID: Counterparty(1001)},
			want: "TransferIn 20.50 <- 1001",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.String())
		})
	}
}

func TestExceedsMaxBalance(t *testing.T) {
	cent := decimal.RequireFromString("0.01")
	assert.False(t, ExceedsMaxBalance(MaxBalance.Sub(cent), cent))
	assert.True(t, ExceedsMaxBalance(MaxBalance, cent))
	assert.False(t, ExceedsMaxBalance(MaxBalance, cent.Neg()))
	assert.Equal(t, "92233720368547758.07", MaxBalance.StringFixed(2))
}

func TestTransactionRecordValidate(t *testing.T) {
	one := decimal.NewFromInt(1)
	tests := []struct {
		name    string
		rec     TransactionRecord
		wantErr string
	}{
		{"deposit", TransactionRecord{AccountID: 1, Type: TypeDeposit, Amount: one}, ""},
		{"transfer out", TransactionRecord{AccountID: 1, Type: TypeTransferOut, Amount: one, CounterpartyAccountID: Counterparty(2)}, ""},
		{"unknown type", TransactionRecord{AccountID: 1, Type: "Refund", Amount: one}, "unknown transaction type"},
		{"zero amount", TransactionRecord{AccountID: 1, Type: TypeWithdraw, Amount: decimal.Zero}, "record amount"},
		{"transfer in without counterparty", TransactionRecord{AccountID: 1, Type: TypeTransferIn, Amount: one}, "has no counterparty"},
		{"withdraw with counterparty", TransactionRecord{AccountID: 1, Type: TypeWithdraw, Amount: one, CounterpartyAccountID: Counterparty(2)}, "must not have a counterparty"},
		{"initial deposit with counterparty", TransactionRecord{AccountID: 1, Type: TypeInitialDeposit, Amount: one, CounterpartyAccountID: Counterparty(2)}, "must not have a counterparty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
	assert.ErrorIs(t, tests[3].rec.Validate(), ErrInvalidAmount)
}
