package main

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type TokenStandard int

const (
	Standard721  TokenStandard = 721
	Standard1155 TokenStandard = 1155
)

func (s TokenStandard) String() string {
	return fmt.Sprintf("erc%d", int(s))
}

func (s TokenStandard) Valid() bool {
	return s == Standard721 || s == Standard1155
}

// VoucherKind enumerates the voucher variants the service issues.
type VoucherKind int

const (
	Standard721Plain VoucherKind = iota
	Standard721WithReceiver
	Standard1155Plain
	Standard1155WithReceiver
)

func KindFor(standard TokenStandard, withReceiver bool) VoucherKind {
	switch {
	case standard == Standard1155 && withReceiver:
		return Standard1155WithReceiver
	case standard == Standard1155:
		return Standard1155Plain
	case withReceiver:
		return Standard721WithReceiver
	default:
		return Standard721Plain
	}
}

func (k VoucherKind) Standard() TokenStandard {
	if k == Standard1155Plain || k == Standard1155WithReceiver {
		return Standard1155
	}
	return Standard721
}

func (k VoucherKind) RequiresReceiver() bool {
	return k == Standard721WithReceiver || k == Standard1155WithReceiver
}

func (k VoucherKind) String() string {
	switch k {
	case Standard721Plain:
		return "erc721"
	case Standard721WithReceiver:
		return "erc721-receiver"
	case Standard1155Plain:
		return "erc1155"
	case Standard1155WithReceiver:
		return "erc1155-receiver"
	default:
		return fmt.Sprintf("VoucherKind(%d)", int(k))
	}
}

// VoucherRequest carries everything needed to build a voucher payload. TokenID, when set,
// takes precedence over deriving one from ContentIdentifier with Scheme.
type VoucherRequest struct {
	Kind              VoucherKind
	Scheme            TokenIDScheme
	TokenID           TokenID
	ContentIdentifier string
	MinPrice          *big.Int
	Amount            *big.Int
	Nonce             *big.Int
	Signer            common.Address
	Receiver          common.Address
}

// VoucherPayload is the unsigned voucher. Fields that do not apply to a kind stay empty and
// are left out of both the JSON body and the typed data that gets signed.
type VoucherPayload struct {
	Standard TokenStandard   `json:"standard"`
	MinPrice *big.Int        `json:"minPrice"`
	TokenID  TokenID         `json:"tokenId,omitempty"`
	URI      string          `json:"uri,omitempty"`
	Amount   *big.Int        `json:"amount,omitempty"`
	Nonce    *big.Int        `json:"nonce,omitempty"`
	Signer   common.Address  `json:"signer"`
	Receiver *common.Address `json:"receiver,omitempty"`
}

type SignedVoucher struct {
	VoucherPayload
	Signature string `json:"signature"`
}

// VoucherFactory builds voucher payloads. Now supplies the default 1155 nonce: two requests
// landing in the same millisecond without an explicit nonce get the same one.
type VoucherFactory struct {
	Codec CIDCodec
	Now   func() time.Time
}

func NewVoucherFactory(codec CIDCodec) *VoucherFactory {
	return &VoucherFactory{Codec: codec, Now: time.Now}
}

func (f *VoucherFactory) Build(request VoucherRequest) (*VoucherPayload, error) {
	standard := request.Kind.Standard()
	payload := &VoucherPayload{
		Standard: standard,
		MinPrice: new(big.Int),
		Signer:   request.Signer,
	}
	if request.MinPrice != nil {
		if request.MinPrice.Sign() < 0 {
			return nil, fmt.Errorf("%w: minPrice must not be negative", ErrValidationFailure)
		}
		payload.MinPrice.Set(request.MinPrice)
	}

	switch {
	case request.TokenID != "":
		payload.TokenID = request.TokenID
	case request.Scheme == SchemeURI && standard == Standard721:
		if request.ContentIdentifier == "" {
			return nil, fmt.Errorf("%w: content identifier required for uri vouchers", ErrMalformedIdentifier)
		}
		payload.URI = request.ContentIdentifier
	case request.Scheme == SchemeURI:
		return nil, fmt.Errorf("%w: %s vouchers need a token id, scheme %q derives none", ErrValidationFailure, standard, request.Scheme)
	default:
		tokenID, err := f.Codec.DeriveTokenID(request.Scheme, request.ContentIdentifier)
		if err != nil {
			return nil, err
		}
		payload.TokenID = tokenID
	}

	if standard == Standard1155 {
		if request.Amount == nil {
			return nil, fmt.Errorf("%w: amount required for %s vouchers", ErrValidationFailure, standard)
		}
		payload.Amount = new(big.Int).Set(request.Amount)

		if request.Nonce != nil {
			payload.Nonce = new(big.Int).Set(request.Nonce)
		} else {
			payload.Nonce = big.NewInt(f.Now().UnixMilli())
		}
	}

	if request.Kind.RequiresReceiver() {
		if request.Receiver == (common.Address{}) {
			return nil, fmt.Errorf("%w: receiver required for %s vouchers", ErrValidationFailure, request.Kind)
		}
		receiver := request.Receiver
		payload.Receiver = &receiver
	}

	return payload, nil
}
