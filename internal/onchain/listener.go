package onchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// PayoutItem is one skim configuration entry in a payout listener.
type PayoutItem struct {
	Pool        common.Address
	Token       common.Address
	PoolName    string
	Bribe       common.Address
	Operation   uint8
	To          common.Address
	DexName     string
	FeePercent  *big.Int
	FeeReceiver common.Address
}

// PayoutItems reads every configured item from a payout listener contract.
func PayoutItems(ctx context.Context, c Caller, listener common.Address) ([]PayoutItem, error) {
	listenerABI, err := payoutListenerABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse payout listener abi: %w", err)
	}
	values, err := call(ctx, c, listener, listenerABI, "getItems")
	if err != nil {
		return nil, err
	}
	items := *abi.ConvertType(values[0], new([]PayoutItem)).(*[]PayoutItem)
	return items, nil
}

// ListedPools returns the lower-cased pool addresses a listener skims.
func ListedPools(ctx context.Context, c Caller, listener common.Address) (map[string]bool, error) {
	items, err := PayoutItems(ctx, c, listener)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[strings.ToLower(it.Pool.Hex())] = true
	}
	return out, nil
}
