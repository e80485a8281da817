package evm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/StrathCole/pricefeed/pkg/server/sources"
)

// contract binds a parsed ABI to one deployed address.
type contract struct {
	caller  ethereum.ContractCaller
	address common.Address
	abi     abi.ABI
}

// dial connects to rpc_url and returns the client as a caller plus its closer.
func dial(config map[string]interface{}) (ethereum.ContractCaller, func(), error) {
	rpcURL := sources.GetString(config, "rpc_url", "")
	if rpcURL == "" {
		return nil, nil, fmt.Errorf("%w: %w", sources.ErrInvalidConfig, ErrRPCURLRequired)
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return client, client.Close, nil
}

func parseAddress(config map[string]interface{}) (common.Address, error) {
	raw := sources.GetString(config, "address", "")
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: %w: %q", sources.ErrInvalidConfig, ErrAddressRequired, raw)
	}
	return common.HexToAddress(raw), nil
}

func newContract(caller ethereum.ContractCaller, address common.Address, abiJSON string) (*contract, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return &contract{caller: caller, address: address, abi: parsed}, nil
}

// call executes a view method at the latest block and unpacks its outputs.
func (c *contract) call(ctx context.Context, method string) ([]interface{}, error) {
	data, err := c.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	result, err := c.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &c.address,
		Data: data,
	}, nil) // nil = latest block
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	out, err := c.abi.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return out, nil
}
