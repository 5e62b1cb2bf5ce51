package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ChainReader is the slice of an Ethereum client used to bind minter contracts.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

func DialChain(rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	return client, nil
}

// BindContracts builds the signing domain of every configured minter. When client is non-nil the
// chain id comes from the node (eth_chainId) and every minter must have contract code deployed.
func BindContracts(ctx context.Context, chain ChainConfig, client ChainReader, logger *zap.Logger) (map[TokenStandard]ContractBinding, error) {
	chainID := chain.ChainID
	if client != nil {
		remoteChainID, err := client.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chain id: %w", err)
		}
		if chainID != nil && chainID.Cmp(remoteChainID) != 0 {
			logger.Warn("configured chain id differs from node, using node value",
				zap.String("configured", chainID.String()),
				zap.String("node", remoteChainID.String()),
			)
		}
		chainID = remoteChainID
	}

	bindings := make(map[TokenStandard]ContractBinding, len(chain.Minters))
	for standard, address := range chain.Minters {
		if client != nil {
			code, err := client.CodeAt(ctx, address, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch code for %s minter %s: %w", standard, address.Hex(), err)
			}
			if len(code) == 0 {
				return nil, fmt.Errorf("%s minter %s has no contract code on chain %s", standard, address.Hex(), chainID)
			}
		}
		bindings[standard] = ContractBinding{
			Address:       address,
			ChainID:       new(big.Int).Set(chainID),
			DomainName:    chain.DomainName,
			DomainVersion: chain.DomainVersion,
		}
	}
	return bindings, nil
}
