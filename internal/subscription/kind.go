package subscription

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fystack/corecast-client/internal/schema"
)

// Kind selects one of the CoreCast event streams.
type Kind string

const (
	DexTrades    Kind = "dex_trades"
	DexOrders    Kind = "dex_orders"
	DexPools     Kind = "dex_pools"
	Transactions Kind = "transactions"
	Transfers    Kind = "transfers"
	Balances     Kind = "balances"
)

var ErrUnknownKind = errors.New("unknown stream type")

type kindInfo struct {
	method string
	label  string
	dims   []Dimension
}

// kinds fixes, per stream, which filter dimensions the request carries.
// Anything not listed for a kind is never read.
var kinds = map[Kind]kindInfo{
	DexTrades:    {schema.MethodDexTrades, "DEX trades", []Dimension{Program, Pool, Token, Trader}},
	DexOrders:    {schema.MethodDexOrders, "DEX orders", []Dimension{Program, Pool, Token, Trader}},
	DexPools:     {schema.MethodDexPools, "DEX pool events", []Dimension{Program, Pool, Token}},
	Transactions: {schema.MethodTransactions, "parsed transactions", []Dimension{Program, Signer}},
	Transfers:    {schema.MethodTransfers, "transfers", []Dimension{Sender, Receiver, Token}},
	Balances:     {schema.MethodBalances, "balance updates", []Dimension{Address, Token}},
}

// Kinds lists the supported stream kinds in a stable order.
func Kinds() []Kind {
	return []Kind{DexTrades, DexOrders, DexPools, Transactions, Transfers, Balances}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnknownKind, s, supported())
	}
	return k, nil
}

func supported() string {
	names := make([]string, 0, len(kinds))
	for _, k := range Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, "|")
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Dimensions returns the filter dimensions honored by k.
func (k Kind) Dimensions() []Dimension {
	info, ok := kinds[k]
	if !ok {
		return nil
	}
	return append([]Dimension(nil), info.dims...)
}

func (k Kind) Honors(d Dimension) bool {
	for _, hd := range kinds[k].dims {
		if hd == d {
			return true
		}
	}
	return false
}

// Method is the CoreCast RPC that serves k.
func (k Kind) Method() (schema.MethodInfo, error) {
	info, ok := kinds[k]
	if !ok {
		return schema.MethodInfo{}, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
	return schema.Method(info.method)
}

// Label is a human name for log lines.
func (k Kind) Label() string {
	if info, ok := kinds[k]; ok {
		return info.label
	}
	return string(k)
}

func (k Kind) String() string { return string(k) }
