package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// TokenID is the 0x-prefixed hexadecimal form of an on-chain token identifier.
type TokenID string

// TokenIDScheme selects how a content identifier becomes a token id. It is fixed per deployed
// contract: switching schemes changes which token ids a contract will accept.
type TokenIDScheme string

const (
	// SchemeRaw re-encodes the CID's multihash as the token id. Reversible.
	SchemeRaw TokenIDScheme = "raw"
	// SchemeKeccak hashes the CID string with keccak256. Not reversible.
	SchemeKeccak TokenIDScheme = "keccak"
	// SchemeURI derives no token id and carries the CID string as the voucher uri.
	SchemeURI TokenIDScheme = "uri"
)

func ParseTokenIDScheme(raw string) (TokenIDScheme, error) {
	switch scheme := TokenIDScheme(strings.ToLower(strings.TrimSpace(raw))); scheme {
	case SchemeRaw, SchemeKeccak, SchemeURI:
		return scheme, nil
	default:
		return "", fmt.Errorf("unknown token id scheme: %q", raw)
	}
}

func TokenIDFromBytes(b []byte) TokenID {
	return TokenID("0x" + hex.EncodeToString(b))
}

func TokenIDFromBig(value *big.Int) TokenID {
	text := value.Text(16)
	if len(text)%2 != 0 {
		text = "0" + text
	}
	return TokenID("0x" + text)
}

func (id TokenID) Bytes() ([]byte, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(string(id), "0x"), "0X")
	if raw == "" || len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: %q has odd or empty hex payload", ErrMalformedTokenID, string(id))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTokenID, err)
	}
	return b, nil
}

// Big returns the token id as an integer suitable for a uint256 field.
func (id TokenID) Big() (*big.Int, error) {
	b, err := id.Bytes()
	if err != nil {
		return nil, err
	}
	value := new(big.Int).SetBytes(b)
	if value.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %s does not fit in 256 bits", ErrMalformedTokenID, string(id))
	}
	return value, nil
}

// CIDCodec converts between content identifiers and token ids. Version and Codec are the
// prefix stripped on the way to a token id and restored on the way back.
type CIDCodec struct {
	Version uint64
	Codec   uint64
}

func DefaultCIDCodec() CIDCodec {
	return CIDCodec{Version: 1, Codec: cid.DagProtobuf}
}

// ToTokenID strips the CID prefix and renders the remaining multihash as a token id, so
// f01701220<digest> becomes 0x1220<digest>.
func (c CIDCodec) ToTokenID(identifier string) (TokenID, error) {
	parsed, err := cid.Decode(identifier)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedIdentifier, err)
	}
	if parsed.Version() != c.Version {
		return "", fmt.Errorf("%w: CIDv%d, expected CIDv%d", ErrMalformedIdentifier, parsed.Version(), c.Version)
	}
	if parsed.Type() != c.Codec {
		return "", fmt.Errorf("%w: codec 0x%x, expected 0x%x", ErrMalformedIdentifier, parsed.Type(), c.Codec)
	}

	return TokenIDFromBytes(parsed.Hash()), nil
}

// ToContentIdentifier restores the CID prefix and renders the identifier in its canonical
// base32 form.
func (c CIDCodec) ToContentIdentifier(id TokenID) (string, error) {
	b, err := id.Bytes()
	if err != nil {
		return "", err
	}

	decoded, err := multihash.Decode(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedTokenID, err)
	}
	if len(decoded.Digest) != decoded.Length {
		return "", fmt.Errorf("%w: digest is %d bytes, header declares %d", ErrMalformedTokenID, len(decoded.Digest), decoded.Length)
	}
	reencoded, err := multihash.Encode(decoded.Digest, decoded.Code)
	if err != nil || !bytes.Equal(reencoded, b) {
		return "", fmt.Errorf("%w: payload is not exactly one multihash", ErrMalformedTokenID)
	}

	if c.Version == 0 {
		return cid.NewCidV0(multihash.Multihash(b)).String(), nil
	}
	return cid.NewCidV1(c.Codec, multihash.Multihash(b)).String(), nil
}

// KeccakTokenID hashes the textual content identifier. The result is only a uniqueness key.
func KeccakTokenID(identifier string) (TokenID, error) {
	if _, err := cid.Decode(identifier); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedIdentifier, err)
	}
	return TokenIDFromBytes(crypto.Keccak256([]byte(identifier))), nil
}

func (c CIDCodec) DeriveTokenID(scheme TokenIDScheme, identifier string) (TokenID, error) {
	switch scheme {
	case SchemeRaw:
		return c.ToTokenID(identifier)
	case SchemeKeccak:
		return KeccakTokenID(identifier)
	default:
		return "", fmt.Errorf("scheme %q does not derive token ids", scheme)
	}
}
