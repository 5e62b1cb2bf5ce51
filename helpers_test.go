package main

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic      = "test test test test test test test test test test test junk"
	testSignerAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testPrivateKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testReceiver      = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"
	testDigest        = "6c5b4cf952e4abd89e3a0d6b3f29e59352788ed7146727ab0b9879d7b76efc10"
	testCIDBase32     = "bafybeidmlngpsuxevpmj4oqnnm7stzmtkj4i5vyum4t2wc4yphl3o3x4ca"
	testCIDBase16     = "f01701220" + testDigest
	testRawTokenID    = "0x1220" + testDigest
	testMinter721     = "0x5fbdb2315678AFECb367f032c93F642f64180Aa3"
	testMinter1155    = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
	testDomainName    = "LazyNFT-Voucher"
	testDomainVersion = "1"
	testChainID       = 5
)

func testIdentity(t *testing.T) *Identity {
	t.Helper()
	key, err := PrivateKey(testPrivateKeyHex)
	require.NoError(t, err)
	return NewIdentity(key)
}

func testBindings() map[TokenStandard]ContractBinding {
	return map[TokenStandard]ContractBinding{
		Standard721: {
			Address:       common.HexToAddress(testMinter721),
			ChainID:       big.NewInt(testChainID),
			DomainName:    testDomainName,
			DomainVersion: testDomainVersion,
		},
		Standard1155: {
			Address:       common.HexToAddress(testMinter1155),
			ChainID:       big.NewInt(testChainID),
			DomainName:    testDomainName,
			DomainVersion: testDomainVersion,
		},
	}
}

func testConfig() *Config {
	return &Config{
		Signer: SignerConfig{PrivateKey: testPrivateKeyHex},
		Chain: ChainConfig{
			ChainID:       big.NewInt(testChainID),
			DomainName:    testDomainName,
			DomainVersion: testDomainVersion,
			Minters: map[TokenStandard]common.Address{
				Standard721:  common.HexToAddress(testMinter721),
				Standard1155: common.HexToAddress(testMinter1155),
			},
		},
		Storage: StorageConfig{
			Backend: StorageBackendChainSafe,
			APIURL:  "http://storage.invalid",
			APIKey:  "key",
			HashAlgorithms: map[TokenStandard]string{
				Standard1155: "blake2b-224",
			},
		},
		Voucher: VoucherConfig{
			Schemes: map[TokenStandard]TokenIDScheme{
				Standard721:  SchemeURI,
				Standard1155: SchemeRaw,
			},
			MinPrice:        big.NewInt(0),
			Amount:          big.NewInt(1),
			RequireReceiver: true,
		},
		Metadata: MetadataConfig{Name: "test lazy mint nft", Description: "nft description"},
	}
}

type fakeImageSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeImageSource) FetchImage(ctx context.Context) (*Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Image{Name: "image.png", ContentType: "image/png", Data: []byte("png")}, nil
}

type uploadCall struct {
	metadata      NFTMetadata
	hashAlgorithm string
}

type fakeStorage struct {
	mu    sync.Mutex
	calls []uploadCall
	cid   string
	err   error
}

func (f *fakeStorage) UploadNFT(ctx context.Context, metadata NFTMetadata, hashAlgorithm string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, uploadCall{metadata: metadata, hashAlgorithm: hashAlgorithm})
	if f.err != nil {
		return "", f.err
	}
	return f.cid, nil
}

type denyAuthorizer struct{}

func (denyAuthorizer) Authorize(ctx context.Context, kind VoucherKind, receiver common.Address) (bool, error) {
	return false, nil
}

var errUpstreamDown = errors.New("connection refused")
