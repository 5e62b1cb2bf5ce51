package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// ResolveSigner recovers the signing identity and binds it to the configured minter contracts.
// A missing signer configuration is not an error here: the signer is returned without an
// identity and voucher routes report the missing setting per request.
func ResolveSigner(ctx context.Context, config *Config, logger *zap.Logger) (*VoucherSigner, error) {
	var secrets SecretFetcher
	if config.Signer.MnemonicSecretID != "" {
		fetcher, err := NewAWSSecretFetcher(ctx, config.Signer.AWSRegion)
		if err != nil {
			return nil, err
		}
		secrets = fetcher
	}

	identity, err := LoadIdentity(config.Signer, secrets)
	if err != nil {
		if !errors.Is(err, ErrConfigurationMissing) {
			return nil, err
		}
		logger.Warn("no signer configured, voucher routes will fail", zap.Error(err))
	}

	var chainReader ChainReader
	if config.Chain.RPCURL != "" {
		client, err := DialChain(config.Chain.RPCURL)
		if err != nil {
			return nil, err
		}
		defer client.Close()
		chainReader = client
	}

	bindings, err := BindContracts(ctx, config.Chain, chainReader, logger)
	if err != nil {
		return nil, err
	}

	if identity != nil {
		logger.Info("voucher signer ready", zap.String("address", identity.Address.Hex()))
	}
	return NewVoucherSigner(identity, bindings), nil
}

func NewImageSource(config ImageConfig) ImageSource {
	if config.Source == ImageSourceGenerated {
		return GeneratedImageSource{Size: 800}
	}
	return NewHTTPImageSource(config.URL, config.Timeout)
}

func NewStorage(config StorageConfig, logger *zap.Logger) Storage {
	if config.Backend == StorageBackendIPFS {
		return NewIPFSStorage(config.APIURL, config.APIKey, config.Timeout)
	}
	return NewChainSafeStorage(config.APIURL, config.APIKey, config.Timeout, logger)
}

// BuildVoucherService wires every collaborator of the voucher service from configuration.
func BuildVoucherService(ctx context.Context, config *Config, logger *zap.Logger) (*VoucherService, error) {
	signer, err := ResolveSigner(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	return NewVoucherService(config, VoucherServiceDeps{
		Authorizer: GrantAllAuthorizer{},
		Images:     NewImageSource(config.Image),
		Storage:    NewStorage(config.Storage, logger),
		Factory:    NewVoucherFactory(DefaultCIDCodec()),
		Signer:     signer,
		Logger:     logger,
	}), nil
}
