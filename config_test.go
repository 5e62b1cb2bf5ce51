package main

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	SetConfigDefaults(v)
	v.AutomaticEnv()
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, 3000, config.Server.Port)
	assert.Equal(t, "5", config.Chain.ChainID.String())
	assert.Equal(t, DefaultDerivationPath, config.Signer.DerivationPath)
	assert.Equal(t, SchemeURI, config.Voucher.Schemes[Standard721])
	assert.Equal(t, SchemeRaw, config.Voucher.Schemes[Standard1155])
	assert.Equal(t, "blake2b-224", config.Storage.HashAlgorithms[Standard1155])
	assert.Equal(t, "", config.Storage.HashAlgorithms[Standard721])
	assert.Equal(t, "0", config.Voucher.MinPrice.String())
	assert.Equal(t, "1", config.Voucher.Amount.String())
	assert.True(t, config.Voucher.RequireReceiver)
	assert.Equal(t, StorageBackendChainSafe, config.Storage.Backend)
	assert.Equal(t, ImageSourceURL, config.Image.Source)
	assert.Equal(t, "https://picsum.photos/800.jpg", config.Image.URL)
	assert.Equal(t, 30*time.Second, config.Image.Timeout)
	assert.Empty(t, config.Chain.Minters)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SIGNER_MNEMONIC", testMnemonic)
	t.Setenv("MINTER_721_ADDRESS", testMinter721)
	t.Setenv("MINTER_1155_ADDRESS", testMinter1155)
	t.Setenv("STORAGE_API_URL", "https://storage.example/")
	t.Setenv("STORAGE_API_KEY", "key")
	t.Setenv("MIN_PRICE", "0.01")
	t.Setenv("TOKEN_ID_SCHEME_1155", "keccak")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PORT", "8080")

	config, err := LoadConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, testMnemonic, config.Signer.Mnemonic)
	assert.Equal(t, common.HexToAddress(testMinter721), config.Chain.Minters[Standard721])
	assert.Equal(t, common.HexToAddress(testMinter1155), config.Chain.Minters[Standard1155])
	assert.Equal(t, "https://storage.example", config.Storage.APIURL)
	assert.Equal(t, "10000000000000000", config.Voucher.MinPrice.String())
	assert.Equal(t, SchemeKeccak, config.Voucher.Schemes[Standard1155])
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, config.Server.CORSAllowedOrigins)
	assert.Equal(t, 8080, config.Server.Port)

	assert.NoError(t, config.RequireFor(Standard721))
	assert.NoError(t, config.RequireFor(Standard1155))
}

func TestLoadConfigRejectsMalformedValues(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"address":      {"minter_721_address": "0x1234"},
		"chain id":     {"chain_id": "goerli"},
		"scheme":       {"token_id_scheme_721": "sha1"},
		"1155 uri":     {"token_id_scheme_1155": "uri"},
		"price":        {"min_price": "-1"},
		"amount":       {"voucher_amount": "0"},
		"backend":      {"storage_backend": "s3"},
		"image source": {"image_source": "camera"},
	}
	for name, values := range cases {
		v := newTestViper()
		for key, value := range values {
			v.Set(key, value)
		}
		_, err := LoadConfig(v)
		assert.Error(t, err, name)
	}
}

func TestRequireFor(t *testing.T) {
	v := newTestViper()
	v.Set("minter_721_address", testMinter721)
	v.Set("storage_backend", StorageBackendIPFS)
	v.Set("storage_api_url", "http://127.0.0.1:5001")
	config, err := LoadConfig(v)
	require.NoError(t, err)

	err = config.RequireFor(Standard721)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Contains(t, err.Error(), "signer key")

	config.Signer.PrivateKey = testPrivateKeyHex
	assert.NoError(t, config.RequireFor(Standard721))

	err = config.RequireFor(Standard1155)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Contains(t, err.Error(), "1155 minter address")
}

func TestParseEtherAmount(t *testing.T) {
	cases := map[string]string{
		"":       "0",
		"0":      "0",
		"1":      "1000000000000000000",
		"1.5":    "1500000000000000000",
		"0.0001": "100000000000000",
	}
	for raw, expected := range cases {
		amount, err := ParseEtherAmount(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, expected, amount.String(), raw)
	}

	for _, raw := range []string{"-0.5", "abc", "0.0000000000000000001"} {
		_, err := ParseEtherAmount(raw)
		assert.Error(t, err, raw)
	}
}
