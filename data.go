package main

import (
	"math/big"
)

type PingResponse struct {
	Status string `json:"status"`
}

type AddressResponse struct {
	Address string `json:"address"`
}

type BindingStatus struct {
	Standard      string   `json:"standard"`
	Address       string   `json:"address"`
	ChainID       *big.Int `json:"chainID"`
	DomainName    string   `json:"domainName"`
	DomainVersion string   `json:"domainVersion"`
	TokenIDScheme string   `json:"tokenIdScheme"`
}

type StatusResponse struct {
	Version         string          `json:"version"`
	Signer          string          `json:"signer"`
	StorageBackend  string          `json:"storageBackend"`
	RequireReceiver bool            `json:"requireReceiver"`
	Bindings        []BindingStatus `json:"bindings"`
}

// VoucherResponse is a signed voucher with the metadata CID echoed for clients that need it.
// The CID is not part of the signed data.
type VoucherResponse struct {
	*SignedVoucher
	URI string `json:"uri,omitempty"`
}

type ValidateResponse struct {
	Valid     bool   `json:"valid"`
	Recovered string `json:"recovered,omitempty"`
}

type VoucherHashResponse struct {
	VoucherHash string `json:"voucherHash"`
}
