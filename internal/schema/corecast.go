// Package schema carries the CoreCast wire contract: the subscription request
// messages, the six stream message shapes and the streaming service. The
// descriptors are assembled at init and consumed through protoreflect, so the
// rest of the client never depends on generated per-message Go types.
//
// Field numbers follow the names the service exposes; once generated
// bitquery_corecast_proto descriptors are available, fileProto should be
// replaced by their file descriptor.
package schema

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

const (
	Package  = "solana.corecast"
	FileName = "solana/corecast/corecast.proto"
	Service  = "CoreCast"
)

// Method names on the CoreCast service.
const (
	MethodDexTrades    = "DexTrades"
	MethodDexOrders    = "DexOrders"
	MethodDexPools     = "DexPools"
	MethodTransactions = "Transactions"
	MethodTransfers    = "Transfers"
	MethodBalances     = "Balances"
)

// AddressFilter is the message every filter field of a request points at.
const AddressFilter = "AddressFilter"

const (
	tBool   = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tUint32 = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	tUint64 = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	tInt64  = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tDouble = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
)

var file protoreflect.FileDescriptor

func init() {
	fd, err := protodesc.NewFile(fileProto(), nil)
	if err != nil {
		panic(fmt.Sprintf("schema: build %s: %v", FileName, err))
	}
	file = fd
}

// File returns the CoreCast file descriptor.
func File() protoreflect.FileDescriptor { return file }

// Message looks up a message descriptor by its short name.
func Message(name string) (protoreflect.MessageDescriptor, error) {
	md := file.Messages().ByName(protoreflect.Name(name))
	if md == nil {
		return nil, fmt.Errorf("schema: unknown message %q", name)
	}
	return md, nil
}

// MethodInfo is what a caller needs to open one server-streaming call.
type MethodInfo struct {
	Name     string
	Path     string // "/solana.corecast.CoreCast/DexTrades"
	Request  protoreflect.MessageDescriptor
	Response protoreflect.MessageDescriptor
}

// Method resolves a CoreCast method by name.
func Method(name string) (MethodInfo, error) {
	svc := file.Services().ByName(Service)
	m := svc.Methods().ByName(protoreflect.Name(name))
	if m == nil {
		return MethodInfo{}, fmt.Errorf("schema: unknown method %q", name)
	}
	return MethodInfo{
		Name:     name,
		Path:     fmt.Sprintf("/%s/%s", svc.FullName(), m.Name()),
		Request:  m.Input(),
		Response: m.Output(),
	}, nil
}

func fileProto() *descriptorpb.FileDescriptorProto {
	addr := func(name string, n int32) *descriptorpb.FieldDescriptorProto {
		return messageField(name, n, AddressFilter)
	}
	header := func() []*descriptorpb.FieldDescriptorProto {
		return []*descriptorpb.FieldDescriptorProto{
			messageField("block", 1, "BlockHeader"),
			messageField("transaction", 2, "TransactionHeader"),
		}
	}
	withHeader := func(name string, extra ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
		return message(name, append(header(), extra...)...)
	}

	instruction := message("ParsedInstruction",
		scalar("index", 1, tUint32),
		bytesField("program", 2),
		stringField("method", 3),
		bytesField("accounts", 4, repeated()),
		bytesField("data", 5),
		messageField("arguments", 6, "ParsedInstruction.ArgumentsEntry", repeated()),
	)
	instruction.NestedType = []*descriptorpb.DescriptorProto{{
		Name: proto.String("ArgumentsEntry"),
		Field: []*descriptorpb.FieldDescriptorProto{
			stringField("key", 1),
			stringField("value", 2),
		},
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
	}}

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(FileName),
		Package: proto.String(Package),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			enum("OrderSide", "ORDER_SIDE_UNSPECIFIED", "ORDER_SIDE_BUY", "ORDER_SIDE_SELL"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			// requests
			message(AddressFilter, stringField("addresses", 1, repeated())),
			message("SubscribeTradesRequest", addr("program", 1), addr("pool", 2), addr("token", 3), addr("trader", 4)),
			message("SubscribeOrdersRequest", addr("program", 1), addr("pool", 2), addr("token", 3), addr("trader", 4)),
			message("SubscribePoolsRequest", addr("program", 1), addr("pool", 2), addr("token", 3)),
			message("SubscribeTransactionsRequest", addr("program", 1), addr("signer", 2)),
			message("SubscribeTransfersRequest", addr("sender", 1), addr("receiver", 2), addr("token", 3)),
			message("SubscribeBalanceUpdateRequest", addr("address", 1), addr("token", 2)),

			// shared headers
			message("BlockHeader",
				scalar("slot", 1, tUint64),
				bytesField("hash", 2),
				scalar("parent_slot", 3, tUint64),
				scalar("height", 4, tUint64),
				scalar("timestamp", 5, tInt64),
			),
			message("TransactionHeader",
				bytesField("signature", 1),
				scalar("index", 2, tUint32),
				scalar("fee", 3, tUint64),
				bytesField("fee_payer", 4),
				bytesField("signers", 5, repeated()),
				scalar("success", 6, tBool),
				stringField("error", 7),
			),
			message("Currency",
				bytesField("mint_address", 1),
				stringField("name", 2),
				stringField("symbol", 3),
				scalar("decimals", 4, tUint32),
				scalar("native", 5, tBool),
			),
			message("Market",
				bytesField("market_address", 1),
				messageField("base_currency", 2, "Currency"),
				messageField("quote_currency", 3, "Currency"),
			),
			message("Dex",
				bytesField("program_address", 1),
				stringField("protocol_name", 2),
				stringField("protocol_family", 3),
			),

			// trades
			message("TradeSide",
				scalar("amount", 1, tUint64),
				messageField("currency", 2, "Currency"),
				bytesField("account", 3),
			),
			message("DexTradeEvent",
				messageField("dex", 1, "Dex"),
				messageField("market", 2, "Market"),
				messageField("buy", 3, "TradeSide"),
				messageField("sell", 4, "TradeSide"),
				bytesField("trader", 5),
				scalar("instruction_index", 6, tUint32),
			),

			// orders
			message("Order",
				bytesField("order_id", 1),
				enumField("side", 2, "OrderSide"),
				scalar("limit_price", 3, tUint64),
				scalar("limit_amount", 4, tUint64),
				bytesField("owner", 5),
			),
			withOneofs(message("DexOrderEvent",
				messageField("dex", 1, "Dex"),
				messageField("market", 2, "Market"),
				messageField("order", 3, "Order"),
				scalar("placed", 4, tBool, inOneof(0)),
				scalar("cancelled", 5, tBool, inOneof(0)),
				scalar("filled", 6, tBool, inOneof(0)),
			), "status"),

			// pools
			message("PoolSide",
				scalar("amount", 1, tUint64),
				messageField("currency", 2, "Currency"),
				bytesField("vault", 3),
			),
			message("LiquidityChange",
				messageField("base", 1, "PoolSide"),
				messageField("quote", 2, "PoolSide"),
				bytesField("provider", 3),
			),
			message("PriceChange",
				scalar("price", 1, tDouble),
				scalar("base_reserve", 2, tUint64),
				scalar("quote_reserve", 3, tUint64),
			),
			withOneofs(message("DexPoolEvent",
				messageField("dex", 1, "Dex"),
				messageField("market", 2, "Market"),
				messageField("liquidity_added", 3, "LiquidityChange", inOneof(0)),
				messageField("liquidity_removed", 4, "LiquidityChange", inOneof(0)),
				messageField("price_changed", 5, "PriceChange", inOneof(0)),
			), "change"),

			// transactions, transfers, balances
			instruction,
			message("Transfer",
				scalar("amount", 1, tUint64),
				messageField("currency", 2, "Currency"),
				bytesField("sender", 3),
				bytesField("receiver", 4),
				scalar("instruction_index", 5, tUint32),
			),
			message("BalanceUpdate",
				bytesField("address", 1),
				messageField("currency", 2, "Currency"),
				scalar("pre_balance", 3, tUint64),
				scalar("post_balance", 4, tUint64),
			),

			// stream messages
			withHeader("DexTradeMessage", messageField("trade", 3, "DexTradeEvent")),
			withHeader("DexOrderMessage", messageField("order", 3, "DexOrderEvent")),
			withHeader("DexPoolMessage", messageField("pool_event", 3, "DexPoolEvent")),
			withHeader("ParsedTransactionMessage",
				messageField("instructions", 3, "ParsedInstruction", repeated()),
				stringField("log_messages", 4, repeated()),
			),
			withHeader("TransferMessage", messageField("transfer", 3, "Transfer")),
			withHeader("BalanceUpdateMessage", messageField("balance_update", 3, "BalanceUpdate")),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String(Service),
			Method: []*descriptorpb.MethodDescriptorProto{
				serverStream(MethodDexTrades, "SubscribeTradesRequest", "DexTradeMessage"),
				serverStream(MethodDexOrders, "SubscribeOrdersRequest", "DexOrderMessage"),
				serverStream(MethodDexPools, "SubscribePoolsRequest", "DexPoolMessage"),
				serverStream(MethodTransactions, "SubscribeTransactionsRequest", "ParsedTransactionMessage"),
				serverStream(MethodTransfers, "SubscribeTransfersRequest", "TransferMessage"),
				serverStream(MethodBalances, "SubscribeBalanceUpdateRequest", "BalanceUpdateMessage"),
			},
		}},
	}
}
