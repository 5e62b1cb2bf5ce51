package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var EIP712Domain []apitypes.Type = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// These are meant to match the voucher structs declared by the lazy minting contracts. Field
// order matters: it is part of the type hash.
var (
	Voucher721PrimaryType  = "MintVoucher721"
	Voucher1155PrimaryType = "MintVoucher1155"
)

// ContractBinding scopes voucher signatures to the contract that will redeem them.
type ContractBinding struct {
	Address       common.Address
	ChainID       *big.Int
	DomainName    string
	DomainVersion string
}

func (binding ContractBinding) Domain() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              binding.DomainName,
		Version:           binding.DomainVersion,
		ChainId:           (*math.HexOrDecimal256)(binding.ChainID),
		VerifyingContract: binding.Address.Hex(),
	}
}

// VoucherTypedData lays the payload out as EIP-712 typed data. Only the fields present on the
// payload become part of the schema.
func VoucherTypedData(payload *VoucherPayload, binding ContractBinding) (apitypes.TypedData, error) {
	if binding.ChainID == nil {
		return apitypes.TypedData{}, fmt.Errorf("%w: contract binding has no chain id", ErrSigningFailure)
	}
	if payload.MinPrice == nil {
		return apitypes.TypedData{}, fmt.Errorf("%w: voucher has no minPrice", ErrSigningFailure)
	}

	var fields []apitypes.Type
	message := apitypes.TypedDataMessage{}

	addTokenID := func() error {
		tokenID, err := payload.TokenID.Big()
		if err != nil {
			return err
		}
		fields = append(fields, apitypes.Type{Name: "tokenId", Type: "uint256"})
		message["tokenId"] = tokenID.String()
		return nil
	}

	var primaryType string
	switch payload.Standard {
	case Standard721:
		primaryType = Voucher721PrimaryType
		if payload.TokenID != "" {
			if err := addTokenID(); err != nil {
				return apitypes.TypedData{}, err
			}
		}
		fields = append(fields, apitypes.Type{Name: "minPrice", Type: "uint256"})
		message["minPrice"] = payload.MinPrice.String()
		if payload.URI != "" {
			fields = append(fields, apitypes.Type{Name: "uri", Type: "string"})
			message["uri"] = payload.URI
		}
	case Standard1155:
		primaryType = Voucher1155PrimaryType
		if payload.Amount == nil || payload.Nonce == nil {
			return apitypes.TypedData{}, fmt.Errorf("%w: %s voucher needs amount and nonce", ErrSigningFailure, payload.Standard)
		}
		if err := addTokenID(); err != nil {
			return apitypes.TypedData{}, err
		}
		fields = append(fields,
			apitypes.Type{Name: "minPrice", Type: "uint256"},
			apitypes.Type{Name: "amount", Type: "uint256"},
			apitypes.Type{Name: "nonce", Type: "uint256"},
		)
		message["minPrice"] = payload.MinPrice.String()
		message["amount"] = payload.Amount.String()
		message["nonce"] = payload.Nonce.String()
	default:
		return apitypes.TypedData{}, fmt.Errorf("%w: unknown token standard %d", ErrSigningFailure, int(payload.Standard))
	}

	fields = append(fields, apitypes.Type{Name: "signer", Type: "address"})
	message["signer"] = payload.Signer.Hex()
	if payload.Receiver != nil {
		fields = append(fields, apitypes.Type{Name: "receiver", Type: "address"})
		message["receiver"] = payload.Receiver.Hex()
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": EIP712Domain,
			primaryType:    fields,
		},
		PrimaryType: primaryType,
		Domain:      binding.Domain(),
		Message:     message,
	}, nil
}

func VoucherHash(payload *VoucherPayload, binding ContractBinding) ([]byte, error) {
	data, err := VoucherTypedData(payload, binding)
	if err != nil {
		return nil, err
	}

	messageHash, _, hashErr := apitypes.TypedDataAndHash(data)
	if hashErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailure, hashErr)
	}
	return messageHash, nil
}
