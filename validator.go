package main

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

// RequestValidator checks voucher requests before any upstream call is made.
type RequestValidator struct {
	validate        *validator.Validate
	requireReceiver bool
}

func NewRequestValidator(requireReceiver bool) *RequestValidator {
	return &RequestValidator{validate: validator.New(), requireReceiver: requireReceiver}
}

// VoucherKind resolves the voucher variant for a request. A receiver is mandatory when the
// deployment requires one; otherwise its presence selects the receiver-restricted variant.
func (rv *RequestValidator) VoucherKind(standard TokenStandard, receiver string) (VoucherKind, common.Address, error) {
	if !standard.Valid() {
		return 0, common.Address{}, fmt.Errorf("%w: unsupported token standard %d", ErrValidationFailure, int(standard))
	}

	receiver = strings.TrimSpace(receiver)
	tag := "omitempty,eth_addr"
	if rv.requireReceiver {
		tag = "required,eth_addr"
	}
	if err := rv.validate.Var(receiver, tag); err != nil {
		if receiver == "" {
			return 0, common.Address{}, fmt.Errorf("%w: receiver is required", ErrValidationFailure)
		}
		return 0, common.Address{}, fmt.Errorf("%w: receiver %q is not an address", ErrValidationFailure, receiver)
	}

	if receiver == "" {
		return KindFor(standard, false), common.Address{}, nil
	}
	return KindFor(standard, true), common.HexToAddress(receiver), nil
}
