package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// VoucherSigner signs vouchers for the minter contracts it is bound to. It holds no mutable
// state and is safe for concurrent use.
type VoucherSigner struct {
	identity *Identity
	bindings map[TokenStandard]ContractBinding
}

func NewVoucherSigner(identity *Identity, bindings map[TokenStandard]ContractBinding) *VoucherSigner {
	copied := make(map[TokenStandard]ContractBinding, len(bindings))
	for standard, binding := range bindings {
		copied[standard] = binding
	}
	return &VoucherSigner{identity: identity, bindings: copied}
}

func (signer *VoucherSigner) Address() (common.Address, error) {
	if signer.identity == nil {
		return common.Address{}, fmt.Errorf("%w: no signing identity", ErrSigningFailure)
	}
	return signer.identity.Address, nil
}

func (signer *VoucherSigner) Binding(standard TokenStandard) (ContractBinding, bool) {
	binding, ok := signer.bindings[standard]
	return binding, ok
}

// SignVoucher signs the payload's typed data under the domain of the contract bound for its
// standard.
func (signer *VoucherSigner) SignVoucher(payload *VoucherPayload) (*SignedVoucher, error) {
	if signer.identity == nil || signer.identity.PrivateKey == nil {
		return nil, fmt.Errorf("%w: no signing identity", ErrSigningFailure)
	}
	binding, ok := signer.bindings[payload.Standard]
	if !ok || binding.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: no %s contract binding", ErrSigningFailure, payload.Standard)
	}
	if payload.Signer != signer.identity.Address {
		return nil, fmt.Errorf("%w: payload signer %s is not %s", ErrSigningFailure, payload.Signer.Hex(), signer.identity.Address.Hex())
	}

	messageHash, err := VoucherHash(payload, binding)
	if err != nil {
		return nil, err
	}

	signature, err := SignRawMessage(messageHash, signer.identity.PrivateKey, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailure, err)
	}

	return &SignedVoucher{
		VoucherPayload: *payload,
		Signature:      hexutil.Encode(signature),
	}, nil
}

// RecoverVoucherSigner returns the address that produced the voucher's signature under the
// given binding.
func RecoverVoucherSigner(voucher *SignedVoucher, binding ContractBinding) (common.Address, error) {
	messageHash, err := VoucherHash(&voucher.VoucherPayload, binding)
	if err != nil {
		return common.Address{}, err
	}

	signature, decodeErr := hexutil.Decode(voucher.Signature)
	if decodeErr != nil {
		return common.Address{}, fmt.Errorf("signature decode error: %w", decodeErr)
	}
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes long", crypto.SignatureLength)
	}

	// Normalize signature so that 27 -> 0, 28 -> 1.
	// For more context: https://github.com/ethereum/go-ethereum/issues/2053
	if signature[crypto.RecoveryIDOffset] == 27 || signature[crypto.RecoveryIDOffset] == 28 {
		signature[crypto.RecoveryIDOffset] -= 27
	}

	signerPubkey, recoverErr := crypto.SigToPub(messageHash, signature)
	if recoverErr != nil {
		return common.Address{}, fmt.Errorf("unable to get public key from signature: %w", recoverErr)
	}
	return crypto.PubkeyToAddress(*signerPubkey), nil
}

// VerifyVoucher reports whether the voucher was signed by its declared signer for the bound
// contract.
func VerifyVoucher(voucher *SignedVoucher, binding ContractBinding) (bool, error) {
	recovered, err := RecoverVoucherSigner(voucher, binding)
	if err != nil {
		return false, err
	}
	return recovered == voucher.Signer, nil
}
