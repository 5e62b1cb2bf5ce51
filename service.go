package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// VoucherService issues signed vouchers: it checks the route's configuration and the request,
// acquires an image, uploads it with its metadata and signs a voucher for the resulting CID.
type VoucherService struct {
	config     *Config
	validator  *RequestValidator
	authorizer Authorizer
	images     ImageSource
	storage    Storage
	factory    *VoucherFactory
	signer     *VoucherSigner
	logger     *zap.Logger
}

type VoucherServiceDeps struct {
	Authorizer Authorizer
	Images     ImageSource
	Storage    Storage
	Factory    *VoucherFactory
	Signer     *VoucherSigner
	Logger     *zap.Logger
}

func NewVoucherService(config *Config, deps VoucherServiceDeps) *VoucherService {
	service := &VoucherService{
		config:     config,
		validator:  NewRequestValidator(config.Voucher.RequireReceiver),
		authorizer: deps.Authorizer,
		images:     deps.Images,
		storage:    deps.Storage,
		factory:    deps.Factory,
		signer:     deps.Signer,
		logger:     deps.Logger,
	}
	if service.authorizer == nil {
		service.authorizer = GrantAllAuthorizer{}
	}
	if service.factory == nil {
		service.factory = NewVoucherFactory(DefaultCIDCodec())
	}
	if service.logger == nil {
		service.logger = zap.NewNop()
	}
	return service
}

func (service *VoucherService) Signer() *VoucherSigner {
	return service.signer
}

// Issue produces a signed voucher for standard and returns it with the CID of the uploaded
// metadata. Configuration and request problems are reported before any upstream call.
func (service *VoucherService) Issue(ctx context.Context, standard TokenStandard, receiver string) (*SignedVoucher, string, error) {
	if err := service.config.RequireFor(standard); err != nil {
		return nil, "", err
	}
	if service.signer == nil || service.storage == nil || service.images == nil {
		return nil, "", fmt.Errorf("%w: voucher service for %s is not fully wired", ErrConfigurationMissing, standard)
	}

	kind, receiverAddress, err := service.validator.VoucherKind(standard, receiver)
	if err != nil {
		return nil, "", err
	}

	signerAddress, err := service.signer.Address()
	if err != nil {
		return nil, "", err
	}

	earned, err := service.authorizer.Authorize(ctx, kind, receiverAddress)
	if err != nil {
		return nil, "", err
	}
	if !earned {
		return nil, "", fmt.Errorf("%w: voucher is not yet earned", ErrUnauthorizedRequest)
	}

	image, err := service.images.FetchImage(ctx)
	if err != nil {
		return nil, "", err
	}

	contentIdentifier, err := service.storage.UploadNFT(ctx, NFTMetadata{
		Name:        service.config.Metadata.Name,
		Description: service.config.Metadata.Description,
		Image:       image,
	}, service.config.Storage.HashAlgorithms[standard])
	if err != nil {
		return nil, "", err
	}
	service.logger.Info("uploaded nft metadata",
		zap.Stringer("kind", kind),
		zap.String("cid", contentIdentifier),
	)

	request := VoucherRequest{
		Kind:              kind,
		Scheme:            service.config.Voucher.Schemes[standard],
		ContentIdentifier: contentIdentifier,
		MinPrice:          service.config.Voucher.MinPrice,
		Signer:            signerAddress,
		Receiver:          receiverAddress,
	}
	if standard == Standard1155 {
		request.Amount = service.config.Voucher.Amount
	}

	payload, err := service.factory.Build(request)
	if err != nil {
		return nil, "", err
	}

	voucher, err := service.signer.SignVoucher(payload)
	if err != nil {
		return nil, "", err
	}
	return voucher, contentIdentifier, nil
}
