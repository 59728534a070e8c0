package subscription

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("unknown_kind")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownKind))
	assert.Contains(t, err.Error(), "dex_trades|dex_orders|dex_pools|transactions|transfers|balances")
}

func TestKind_Dimensions(t *testing.T) {
	want := map[Kind][]Dimension{
		DexTrades:    {Program, Pool, Token, Trader},
		DexOrders:    {Program, Pool, Token, Trader},
		DexPools:     {Program, Pool, Token},
		Transactions: {Program, Signer},
		Transfers:    {Sender, Receiver, Token},
		Balances:     {Address, Token},
	}
	for k, dims := range want {
		assert.ElementsMatch(t, dims, k.Dimensions(), k)
	}
	assert.Nil(t, Kind("nope").Dimensions())
	assert.False(t, Transfers.Honors(Program))
	assert.True(t, Transactions.Honors(Signer))
}

func TestKind_Method(t *testing.T) {
	m, err := DexPools.Method()
	require.NoError(t, err)
	assert.Equal(t, "/solana.corecast.CoreCast/DexPools", m.Path)

	_, err = Kind("nope").Method()
	assert.True(t, errors.Is(err, ErrUnknownKind))
}
