package main

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/term"
)

// DefaultDerivationPath is the first account of the standard Ethereum BIP-44 tree, the account
// wallets recover from a mnemonic by default.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// Identity is the wallet vouchers are signed with.
type Identity struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

func NewIdentity(key *ecdsa.PrivateKey) *Identity {
	return &Identity{PrivateKey: key, Address: crypto.PubkeyToAddress(key.PublicKey)}
}

// IdentityFromMnemonic recovers the wallet at derivationPath from a BIP-39 recovery phrase.
func IdentityFromMnemonic(mnemonic, derivationPath string) (*Identity, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}

	if derivationPath == "" {
		derivationPath = DefaultDerivationPath
	}
	path, err := accounts.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path %q: %w", derivationPath, err)
	}

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	for _, index := range path {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("error deriving %s: %w", derivationPath, err)
		}
	}

	childKey, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	privateKey, err := crypto.ToECDSA(childKey.Serialize())
	if err != nil {
		return nil, err
	}
	return NewIdentity(privateKey), nil
}

// PrivateKey decodes a private key from its hex representation.
func PrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	parsedPrivateKey, parseErr := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	return parsedPrivateKey, parseErr
}

// PrivateKeyFromKeystoreFile loads a private key from a keystore file. If prompt is true, the user will be
// interactively prompted for the password to the keystore file even if the password variable is nonempty.
func PrivateKeyFromKeystoreFile(keystoreFile, password string, prompt bool) (*ecdsa.PrivateKey, error) {
	keystoreContent, readErr := os.ReadFile(keystoreFile)
	if readErr != nil {
		return nil, readErr
	}

	if prompt {
		passwordRaw, inputErr := PromptSecret(fmt.Sprintf("Please provide a password for keystore (%s): ", keystoreFile))
		if inputErr != nil {
			return nil, inputErr
		}
		password = passwordRaw
	}

	key, err := keystore.DecryptKey(keystoreContent, password)
	if err != nil {
		return nil, err
	}
	return key.PrivateKey, nil
}

// PromptSecret reads a line from the terminal without echoing it.
func PromptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprint(os.Stderr, "\n")
	if err != nil {
		return "", fmt.Errorf("error reading input: %s", err.Error())
	}
	return strings.TrimSpace(string(raw)), nil
}

// LoadIdentity resolves the signing identity from the signer configuration. Sources are tried
// in order: mnemonic, mnemonic held in AWS Secrets Manager, raw private key, keystore file.
// secrets may be nil when no secret id is configured.
func LoadIdentity(config SignerConfig, secrets SecretFetcher) (*Identity, error) {
	switch {
	case config.Mnemonic != "":
		return IdentityFromMnemonic(config.Mnemonic, config.DerivationPath)
	case config.MnemonicSecretID != "":
		if secrets == nil {
			return nil, errors.New("no secret store available to resolve the signer mnemonic")
		}
		mnemonic, err := secrets.FetchSecret(config.MnemonicSecretID)
		if err != nil {
			return nil, err
		}
		return IdentityFromMnemonic(mnemonic, config.DerivationPath)
	case config.PrivateKey != "":
		key, err := PrivateKey(config.PrivateKey)
		if err != nil {
			return nil, err
		}
		return NewIdentity(key), nil
	case config.Keystore != "":
		key, err := PrivateKeyFromKeystoreFile(config.Keystore, config.KeystorePassword, !config.KeystorePasswordSet)
		if err != nil {
			return nil, err
		}
		return NewIdentity(key), nil
	default:
		return nil, fmt.Errorf("%w: no signer mnemonic, private key or keystore is configured", ErrConfigurationMissing)
	}
}

// Signs bytes using a private key and return the signature.
// The "sensible" parameter refers to the v-byte of the signature. If it is true, then the v-byte will
// be 0 or 1. Default should be sensible=false.
func SignRawMessage(message []byte, key *ecdsa.PrivateKey, sensible bool) ([]byte, error) {
	signature, err := crypto.Sign(message, key)
	if err != nil {
		return nil, err
	}
	if !sensible {
		// This refers to a bug in an early Ethereum client implementation where the v parameter byte was
		// shifted by 27: https://github.com/ethereum/go-ethereum/issues/2053
		// Contracts recovering with ECDSA.recover expect 27 or 28.
		if signature[64] < 2 {
			signature[64] += 27
		}
	}
	return signature, nil
}
