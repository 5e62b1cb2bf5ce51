package main

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedFactory(now time.Time) *VoucherFactory {
	factory := NewVoucherFactory(DefaultCIDCodec())
	factory.Now = func() time.Time { return now }
	return factory
}

func TestVoucherKinds(t *testing.T) {
	cases := []struct {
		standard         TokenStandard
		withReceiver     bool
		kind             VoucherKind
		requiresReceiver bool
	}{
		{Standard721, false, Standard721Plain, false},
		{Standard721, true, Standard721WithReceiver, true},
		{Standard1155, false, Standard1155Plain, false},
		{Standard1155, true, Standard1155WithReceiver, true},
	}
	for _, c := range cases {
		kind := KindFor(c.standard, c.withReceiver)
		assert.Equal(t, c.kind, kind)
		assert.Equal(t, c.standard, kind.Standard())
		assert.Equal(t, c.requiresReceiver, kind.RequiresReceiver())
	}
}

func TestBuild721URI(t *testing.T) {
	signer := common.HexToAddress(testSignerAddress)
	payload, err := NewVoucherFactory(DefaultCIDCodec()).Build(VoucherRequest{
		Kind:              Standard721Plain,
		Scheme:            SchemeURI,
		ContentIdentifier: testCIDBase32,
		MinPrice:          big.NewInt(0),
		Signer:            signer,
	})
	require.NoError(t, err)

	assert.Equal(t, Standard721, payload.Standard)
	assert.Equal(t, testCIDBase32, payload.URI)
	assert.Empty(t, payload.TokenID)
	assert.Nil(t, payload.Amount)
	assert.Nil(t, payload.Nonce)
	assert.Nil(t, payload.Receiver)
	assert.Equal(t, signer, payload.Signer)
	assert.Equal(t, 0, payload.MinPrice.Sign())
}

func TestBuild721DerivedTokenID(t *testing.T) {
	factory := NewVoucherFactory(DefaultCIDCodec())
	payload, err := factory.Build(VoucherRequest{
		Kind:              Standard721WithReceiver,
		Scheme:            SchemeKeccak,
		ContentIdentifier: testCIDBase32,
		Signer:            common.HexToAddress(testSignerAddress),
		Receiver:          common.HexToAddress(testReceiver),
	})
	require.NoError(t, err)

	expected, err := KeccakTokenID(testCIDBase32)
	require.NoError(t, err)
	assert.Equal(t, expected, payload.TokenID)
	assert.Empty(t, payload.URI)
	require.NotNil(t, payload.Receiver)
	assert.Equal(t, common.HexToAddress(testReceiver), *payload.Receiver)
}

func TestBuildPrecomputedTokenIDWins(t *testing.T) {
	payload, err := NewVoucherFactory(DefaultCIDCodec()).Build(VoucherRequest{
		Kind:              Standard721Plain,
		Scheme:            SchemeURI,
		TokenID:           "0x2a",
		ContentIdentifier: testCIDBase32,
		Signer:            common.HexToAddress(testSignerAddress),
	})
	require.NoError(t, err)
	assert.Equal(t, TokenID("0x2a"), payload.TokenID)
	assert.Empty(t, payload.URI)
}

func TestBuild1155ExplicitFields(t *testing.T) {
	payload, err := NewVoucherFactory(DefaultCIDCodec()).Build(VoucherRequest{
		Kind:     Standard1155WithReceiver,
		TokenID:  "0x2a",
		MinPrice: big.NewInt(0),
		Amount:   big.NewInt(1),
		Nonce:    big.NewInt(1700000000000),
		Signer:   common.HexToAddress(testSignerAddress),
		Receiver: common.HexToAddress(testReceiver),
	})
	require.NoError(t, err)

	assert.Equal(t, Standard1155, payload.Standard)
	assert.Equal(t, "0", payload.MinPrice.String())
	assert.Equal(t, "1", payload.Amount.String())
	assert.Equal(t, "1700000000000", payload.Nonce.String())
	require.NotNil(t, payload.Receiver)
	assert.Equal(t, common.HexToAddress(testReceiver), *payload.Receiver)
}

func TestBuild1155DefaultNonce(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	payload, err := fixedFactory(now).Build(VoucherRequest{
		Kind:    Standard1155Plain,
		TokenID: "0x2a",
		Amount:  big.NewInt(3),
		Signer:  common.HexToAddress(testSignerAddress),
	})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1700000000123), payload.Nonce)
}

// Default nonces are the wall clock in milliseconds, so vouchers built within the same
// millisecond for the same token are indistinguishable.
func TestBuild1155DefaultNonceCanCollide(t *testing.T) {
	factory := fixedFactory(time.UnixMilli(1700000000000))
	request := VoucherRequest{
		Kind:    Standard1155Plain,
		TokenID: "0x2a",
		Amount:  big.NewInt(1),
		Signer:  common.HexToAddress(testSignerAddress),
	}

	first, err := factory.Build(request)
	require.NoError(t, err)
	second, err := factory.Build(request)
	require.NoError(t, err)

	assert.Equal(t, first.Nonce, second.Nonce)
	assert.Equal(t, first, second)
}

func TestBuildDeterministic(t *testing.T) {
	factory := NewVoucherFactory(DefaultCIDCodec())
	request := VoucherRequest{
		Kind:              Standard1155WithReceiver,
		Scheme:            SchemeKeccak,
		ContentIdentifier: testCIDBase32,
		MinPrice:          big.NewInt(1000),
		Amount:            big.NewInt(5),
		Nonce:             big.NewInt(42),
		Signer:            common.HexToAddress(testSignerAddress),
		Receiver:          common.HexToAddress(testReceiver),
	}

	first, err := factory.Build(request)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		payload, err := factory.Build(request)
		require.NoError(t, err)
		payloadJSON, err := json.Marshal(payload)
		require.NoError(t, err)
		assert.Equal(t, firstJSON, payloadJSON)
	}
}

func TestBuildDoesNotAliasInputs(t *testing.T) {
	minPrice := big.NewInt(7)
	payload, err := NewVoucherFactory(DefaultCIDCodec()).Build(VoucherRequest{
		Kind:     Standard721Plain,
		TokenID:  "0x2a",
		MinPrice: minPrice,
		Signer:   common.HexToAddress(testSignerAddress),
	})
	require.NoError(t, err)

	minPrice.SetInt64(99)
	assert.Equal(t, "7", payload.MinPrice.String())
}

func TestBuildErrors(t *testing.T) {
	factory := NewVoucherFactory(DefaultCIDCodec())
	signer := common.HexToAddress(testSignerAddress)

	_, err := factory.Build(VoucherRequest{Kind: Standard721Plain, Scheme: SchemeRaw, ContentIdentifier: "garbage", Signer: signer})
	assert.ErrorIs(t, err, ErrMalformedIdentifier)

	_, err = factory.Build(VoucherRequest{Kind: Standard721Plain, Scheme: SchemeURI, Signer: signer})
	assert.ErrorIs(t, err, ErrMalformedIdentifier)

	_, err = factory.Build(VoucherRequest{Kind: Standard1155Plain, Scheme: SchemeURI, ContentIdentifier: testCIDBase32, Amount: big.NewInt(1), Signer: signer})
	assert.ErrorIs(t, err, ErrValidationFailure)

	_, err = factory.Build(VoucherRequest{Kind: Standard1155Plain, TokenID: "0x2a", Signer: signer})
	assert.ErrorIs(t, err, ErrValidationFailure)

	_, err = factory.Build(VoucherRequest{Kind: Standard721WithReceiver, TokenID: "0x2a", Signer: signer})
	assert.ErrorIs(t, err, ErrValidationFailure)

	_, err = factory.Build(VoucherRequest{Kind: Standard721Plain, TokenID: "0x2a", MinPrice: big.NewInt(-1), Signer: signer})
	assert.ErrorIs(t, err, ErrValidationFailure)
}

func TestPayloadJSONOmitsAbsentFields(t *testing.T) {
	payload, err := NewVoucherFactory(DefaultCIDCodec()).Build(VoucherRequest{
		Kind:              Standard721Plain,
		Scheme:            SchemeURI,
		ContentIdentifier: testCIDBase32,
		Signer:            common.HexToAddress(testSignerAddress),
	})
	require.NoError(t, err)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &fields))
	assert.Contains(t, fields, "minPrice")
	assert.Contains(t, fields, "uri")
	assert.Contains(t, fields, "signer")
	assert.NotContains(t, fields, "tokenId")
	assert.NotContains(t, fields, "amount")
	assert.NotContains(t, fields, "nonce")
	assert.NotContains(t, fields, "receiver")
}
