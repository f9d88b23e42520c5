package cancel

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/emberwallet/swapcore/engine/currency"
)

// Reactor cancelOrders function ABI
const cancelOrdersABI = `[{"inputs":[{"name":"encodedOrders","type":"bytes[]"}],"name":"cancelOrders","outputs":[],"type":"function"}]`

// Order is one pending limit order eligible for cancellation. EncodedOrder
// is the opaque payload the reactor contract validated at placement time.
type Order struct {
	ChainID      currency.ChainID
	OrderHash    common.Hash
	EncodedOrder hexutil.Bytes
}

// TxRequest is an unsigned cancellation transaction ready for the signing
// provider.
type TxRequest struct {
	ChainID currency.ChainID
	To      common.Address
	Data    hexutil.Bytes
	Value   *big.Int
}

// BuildCancelRequest packs the orders' encoded payloads into a single
// cancelOrders call against the reactor. All orders are scoped to one chain,
// taken from the first order.
func BuildCancelRequest(orders []Order, reactor common.Address) (*TxRequest, error) {
	if len(orders) == 0 {
		return nil, fmt.Errorf("no orders to cancel")
	}

	parsedABI, err := abi.JSON(strings.NewReader(cancelOrdersABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse reactor ABI: %w", err)
	}

	encoded := make([][]byte, len(orders))
	for i, order := range orders {
		encoded[i] = order.EncodedOrder
	}
	data, err := parsedABI.Pack("cancelOrders", encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to pack cancelOrders data: %w", err)
	}

	return &TxRequest{
		ChainID: orders[0].ChainID,
		To:      reactor,
		Data:    data,
		Value:   big.NewInt(0),
	}, nil
}
