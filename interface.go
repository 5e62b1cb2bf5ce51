package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Image is image content ready to be uploaded alongside NFT metadata.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// NFTMetadata is the metadata document stored for each minted token.
type NFTMetadata struct {
	Name        string
	Description string
	Image       *Image
}

type ImageSource interface {
	FetchImage(ctx context.Context) (*Image, error)
}

// Storage uploads NFT metadata and its image and returns the content identifier of the
// metadata. An empty hashAlgorithm leaves the choice to the backend.
type Storage interface {
	UploadNFT(ctx context.Context, metadata NFTMetadata, hashAlgorithm string) (string, error)
}

// Authorizer decides whether a voucher may be issued to the requester.
type Authorizer interface {
	Authorize(ctx context.Context, kind VoucherKind, receiver common.Address) (bool, error)
}

type VoucherIssuer interface {
	Issue(ctx context.Context, standard TokenStandard, receiver string) (*SignedVoucher, string, error)
	Signer() *VoucherSigner
}
