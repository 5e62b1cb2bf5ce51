package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromMnemonic(t *testing.T) {
	identity, err := IdentityFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testSignerAddress), identity.Address)
	assert.Equal(t, testPrivateKeyHex, common.Bytes2Hex(crypto.FromECDSA(identity.PrivateKey)))

	second, err := IdentityFromMnemonic("  test test test test test test\ntest test test test test junk ", "m/44'/60'/0'/0/1")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), second.Address)
}

func TestIdentityFromMnemonicErrors(t *testing.T) {
	_, err := IdentityFromMnemonic("test test test", "")
	assert.Error(t, err)

	_, err = IdentityFromMnemonic(testMnemonic, "m/not/a/path")
	assert.Error(t, err)
}

type staticSecrets struct {
	values map[string]string
}

func (s staticSecrets) FetchSecret(secretID string) (string, error) {
	value, ok := s.values[secretID]
	if !ok {
		return "", errors.New("secret not found")
	}
	return value, nil
}

func TestLoadIdentitySources(t *testing.T) {
	expected := common.HexToAddress(testSignerAddress)

	identity, err := LoadIdentity(SignerConfig{Mnemonic: testMnemonic}, nil)
	require.NoError(t, err)
	assert.Equal(t, expected, identity.Address)

	identity, err = LoadIdentity(SignerConfig{MnemonicSecretID: "signer"}, staticSecrets{values: map[string]string{"signer": testMnemonic}})
	require.NoError(t, err)
	assert.Equal(t, expected, identity.Address)

	_, err = LoadIdentity(SignerConfig{MnemonicSecretID: "signer"}, nil)
	assert.Error(t, err)

	identity, err = LoadIdentity(SignerConfig{PrivateKey: "0x" + testPrivateKeyHex}, nil)
	require.NoError(t, err)
	assert.Equal(t, expected, identity.Address)

	_, err = LoadIdentity(SignerConfig{}, nil)
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestLoadIdentityFromKeystore(t *testing.T) {
	key, err := PrivateKey(testPrivateKeyHex)
	require.NoError(t, err)

	encrypted, err := keystore.EncryptKey(&keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, "hunter2", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	keystoreFile := filepath.Join(t.TempDir(), "signer.json")
	require.NoError(t, os.WriteFile(keystoreFile, encrypted, 0o600))

	identity, err := LoadIdentity(SignerConfig{
		Keystore:            keystoreFile,
		KeystorePassword:    "hunter2",
		KeystorePasswordSet: true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testSignerAddress), identity.Address)

	_, err = LoadIdentity(SignerConfig{
		Keystore:            keystoreFile,
		KeystorePassword:    "wrong",
		KeystorePasswordSet: true,
	}, nil)
	assert.Error(t, err)
}

func TestSignRawMessageRecoveryByte(t *testing.T) {
	key, err := PrivateKey(testPrivateKeyHex)
	require.NoError(t, err)
	hash := crypto.Keccak256([]byte("voucher"))

	shifted, err := SignRawMessage(hash, key, false)
	require.NoError(t, err)
	assert.Contains(t, []byte{27, 28}, shifted[64])

	sensible, err := SignRawMessage(hash, key, true)
	require.NoError(t, err)
	assert.Contains(t, []byte{0, 1}, sensible[64])
	assert.Equal(t, shifted[:64], sensible[:64])
}
