package subscription

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func fullFilters() FilterSet {
	lists := make(map[Dimension][]string)
	for _, d := range AllDimensions() {
		lists[d] = []string{string(d) + "-1", string(d) + "-2"}
	}
	return NewFilterSet(lists)
}

func TestBuild_DexTradesScenario(t *testing.T) {
	filters := NewFilterSet(map[Dimension][]string{
		Program: {"P1", "P2"},
		Pool:    {},
	})

	req, err := Build(DexTrades, filters)
	require.NoError(t, err)

	programs, ok := Addresses(req, Program)
	require.True(t, ok)
	assert.Equal(t, []string{"P1", "P2"}, programs)

	for _, d := range []Dimension{Pool, Token, Trader} {
		_, ok := Addresses(req, d)
		assert.False(t, ok, "%s must be absent", d)
	}
}

func TestBuild_UnhonoredDimensionsNeverReferenced(t *testing.T) {
	filters := fullFilters()
	for _, kind := range Kinds() {
		req, err := Build(kind, filters)
		require.NoError(t, err, kind)

		for _, d := range AllDimensions() {
			addrs, ok := Addresses(req, d)
			if kind.Honors(d) {
				assert.True(t, ok, "%s should carry %s", kind, d)
				assert.Equal(t, filters.Get(d), addrs)
				continue
			}
			assert.False(t, ok, "%s must not carry %s", kind, d)
		}
	}
}

func TestBuild_EmptyListsAreAbsent(t *testing.T) {
	empty := NewFilterSet(map[Dimension][]string{
		Program: {}, Pool: nil, Token: {}, Trader: {},
		Sender: {}, Receiver: {}, Address: {}, Signer: {},
	})
	for _, kind := range Kinds() {
		req, err := Build(kind, empty)
		require.NoError(t, err)

		fields := req.Descriptor().Fields()
		for i := 0; i < fields.Len(); i++ {
			assert.False(t, req.Has(fields.Get(i)), "%s.%s should be unset", kind, fields.Get(i).Name())
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	filters := fullFilters()
	for _, kind := range Kinds() {
		a, err := Build(kind, filters)
		require.NoError(t, err)
		b, err := Build(kind, filters)
		require.NoError(t, err)
		assert.True(t, proto.Equal(a, b), kind)
	}
}

func TestBuild_KeepsOrderAndDuplicates(t *testing.T) {
	filters := NewFilterSet(map[Dimension][]string{
		Token: {"B", "A", "B"},
	})
	req, err := Build(Balances, filters)
	require.NoError(t, err)

	tokens, ok := Addresses(req, Token)
	require.True(t, ok)
	assert.Equal(t, []string{"B", "A", "B"}, tokens)
}

func TestBuild_UnknownKind(t *testing.T) {
	_, err := Build(Kind("unknown_kind"), fullFilters())
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestFilterSet_IsolatedFromCaller(t *testing.T) {
	programs := []string{"P1"}
	fs := NewFilterSet(map[Dimension][]string{Program: programs})
	programs[0] = "changed"

	got := fs.Get(Program)
	assert.Equal(t, []string{"P1"}, got)
	got[0] = "changed again"
	assert.Equal(t, []string{"P1"}, fs.Get(Program))
	assert.Nil(t, fs.Get(Signer))
}

func TestDescribe(t *testing.T) {
	req, err := Build(Transfers, NewFilterSet(map[Dimension][]string{
		Sender: {"a", "b"},
		Token:  {"t"},
		Signer: {"ignored"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "sender=2 token=1", Describe(Transfers, req))

	empty, err := Build(Balances, FilterSet{})
	require.NoError(t, err)
	assert.Equal(t, "unfiltered", Describe(Balances, empty))
}
