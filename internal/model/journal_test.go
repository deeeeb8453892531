package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxRateLabel(t *testing.T) {
	tests := []struct {
		rate TaxRate
		want string
	}{
		{TaxRateZero, "0%"},
		{TaxRateReduced8, "8%軽"},
		{TaxRateStandard10, "10%"},
	}
	for _, tt := range tests {
		got, err := tt.rate.Label()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)

		back, err := ParseTaxRate(got)
		require.NoError(t, err)
		assert.Equal(t, tt.rate, back)
	}
}

func TestTaxRateLabel_Unknown(t *testing.T) {
	_, err := TaxRate(7).Label()
	assert.ErrorIs(t, err, ErrTaxRate)

	_, err = ParseTaxRate("5%")
	assert.ErrorIs(t, err, ErrTaxRate)
}

func TestAccountApplyLink(t *testing.T) {
	acct := NewAccount(LedgerAccount{ID: "a1", Name: "Cash"}, "Assets:Cash")
	assert.Equal(t, NoAccount, acct.Code)
	assert.Equal(t, NoAccount, acct.SupplementaryCode)
	assert.False(t, acct.Linked)
	assert.Equal(t, Link{Name: "Assets:Cash"}, acct.AsLink())

	acct.ApplyLink(Link{Name: "Assets:Cash", Code: "101", AccountName: "現金"})
	assert.True(t, acct.Linked)
	assert.Equal(t, "101", acct.Code)
	assert.Equal(t, NoAccount, acct.SupplementaryCode, "empty supplementary code keeps sentinel")
	assert.Equal(t, "現金", acct.AccountName)
	assert.Equal(t, "", acct.SupplementaryName)
}
