package main

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	StorageBackendChainSafe = "chainsafe"
	StorageBackendIPFS      = "ipfs"

	ImageSourceURL       = "url"
	ImageSourceGenerated = "generated"
)

type SignerConfig struct {
	Mnemonic            string
	MnemonicSecretID    string
	AWSRegion           string
	PrivateKey          string
	Keystore            string
	KeystorePassword    string
	KeystorePasswordSet bool
	DerivationPath      string
}

func (config SignerConfig) Configured() bool {
	return config.Mnemonic != "" || config.MnemonicSecretID != "" || config.PrivateKey != "" || config.Keystore != ""
}

type ChainConfig struct {
	ChainID       *big.Int
	RPCURL        string
	DomainName    string
	DomainVersion string
	Minters       map[TokenStandard]common.Address
}

type StorageConfig struct {
	Backend        string
	APIURL         string
	APIKey         string
	HashAlgorithms map[TokenStandard]string
	Timeout        time.Duration
}

type VoucherConfig struct {
	Schemes         map[TokenStandard]TokenIDScheme
	MinPrice        *big.Int
	Amount          *big.Int
	RequireReceiver bool
}

type ImageConfig struct {
	Source  string
	URL     string
	Timeout time.Duration
}

type MetadataConfig struct {
	Name        string
	Description string
}

type ServerConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
	Timeout            time.Duration
}

// Config is built once at startup and never modified afterwards.
type Config struct {
	Debug    bool
	Signer   SignerConfig
	Chain    ChainConfig
	Storage  StorageConfig
	Voucher  VoucherConfig
	Image    ImageConfig
	Metadata MetadataConfig
	Server   ServerConfig
}

func SetConfigDefaults(v *viper.Viper) {
	v.SetDefault("signer_derivation_path", DefaultDerivationPath)
	v.SetDefault("chain_id", "5")
	v.SetDefault("eip712_domain_name", "LazyNFT-Voucher")
	v.SetDefault("eip712_domain_version", "1")
	v.SetDefault("storage_backend", StorageBackendChainSafe)
	v.SetDefault("storage_hash_721", "")
	v.SetDefault("storage_hash_1155", "blake2b-224")
	v.SetDefault("storage_timeout", 60*time.Second)
	v.SetDefault("token_id_scheme_721", string(SchemeURI))
	v.SetDefault("token_id_scheme_1155", string(SchemeRaw))
	v.SetDefault("min_price", "0")
	v.SetDefault("voucher_amount", "1")
	v.SetDefault("require_receiver", true)
	v.SetDefault("image_source", ImageSourceURL)
	v.SetDefault("image_url", "https://picsum.photos/800.jpg")
	v.SetDefault("image_timeout", 30*time.Second)
	v.SetDefault("nft_name", "test lazy mint nft")
	v.SetDefault("nft_description", "nft description ipsum lorem")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3000)
	v.SetDefault("http_timeout", 120*time.Second)
}

// LoadConfig reads every setting out of v. Settings a route needs but that are absent are
// reported when that route is used; settings that are present but malformed fail here.
func LoadConfig(v *viper.Viper) (*Config, error) {
	config := &Config{
		Debug: v.GetBool("debug"),
		Signer: SignerConfig{
			Mnemonic:            v.GetString("signer_mnemonic"),
			MnemonicSecretID:    v.GetString("signer_mnemonic_secret_id"),
			AWSRegion:           v.GetString("aws_region"),
			PrivateKey:          v.GetString("signer_private_key"),
			Keystore:            v.GetString("signer_keystore"),
			KeystorePassword:    v.GetString("signer_keystore_password"),
			KeystorePasswordSet: v.IsSet("signer_keystore_password"),
			DerivationPath:      v.GetString("signer_derivation_path"),
		},
		Chain: ChainConfig{
			RPCURL:        v.GetString("rpc_url"),
			DomainName:    v.GetString("eip712_domain_name"),
			DomainVersion: v.GetString("eip712_domain_version"),
			Minters:       map[TokenStandard]common.Address{},
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(v.GetString("storage_backend")),
			APIURL:  strings.TrimRight(v.GetString("storage_api_url"), "/"),
			APIKey:  v.GetString("storage_api_key"),
			HashAlgorithms: map[TokenStandard]string{
				Standard721:  v.GetString("storage_hash_721"),
				Standard1155: v.GetString("storage_hash_1155"),
			},
			Timeout: v.GetDuration("storage_timeout"),
		},
		Voucher: VoucherConfig{
			Schemes:         map[TokenStandard]TokenIDScheme{},
			RequireReceiver: v.GetBool("require_receiver"),
		},
		Image: ImageConfig{
			Source:  strings.ToLower(v.GetString("image_source")),
			URL:     v.GetString("image_url"),
			Timeout: v.GetDuration("image_timeout"),
		},
		Metadata: MetadataConfig{
			Name:        v.GetString("nft_name"),
			Description: v.GetString("nft_description"),
		},
		Server: ServerConfig{
			Host:    v.GetString("host"),
			Port:    v.GetInt("port"),
			Timeout: v.GetDuration("http_timeout"),
		},
	}

	chainIDRaw := v.GetString("chain_id")
	chainID, chainIDParsed := new(big.Int).SetString(chainIDRaw, 0)
	if !chainIDParsed || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("CHAIN_ID must be a positive integer, got %s", chainIDRaw)
	}
	config.Chain.ChainID = chainID

	for standard, key := range map[TokenStandard]string{Standard721: "minter_721_address", Standard1155: "minter_1155_address"} {
		raw := v.GetString(key)
		if raw == "" {
			continue
		}
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("%s must be an Ethereum address, got %s", strings.ToUpper(key), raw)
		}
		config.Chain.Minters[standard] = common.HexToAddress(raw)
	}

	for standard, key := range map[TokenStandard]string{Standard721: "token_id_scheme_721", Standard1155: "token_id_scheme_1155"} {
		scheme, err := ParseTokenIDScheme(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strings.ToUpper(key), err)
		}
		config.Voucher.Schemes[standard] = scheme
	}
	if config.Voucher.Schemes[Standard1155] == SchemeURI {
		return nil, errors.New("TOKEN_ID_SCHEME_1155 must derive a token id (raw or keccak)")
	}

	minPrice, err := ParseEtherAmount(v.GetString("min_price"))
	if err != nil {
		return nil, fmt.Errorf("MIN_PRICE: %w", err)
	}
	config.Voucher.MinPrice = minPrice

	amount, amountParsed := new(big.Int).SetString(v.GetString("voucher_amount"), 10)
	if !amountParsed || amount.Sign() <= 0 {
		return nil, fmt.Errorf("VOUCHER_AMOUNT must be a positive integer, got %s", v.GetString("voucher_amount"))
	}
	config.Voucher.Amount = amount

	switch config.Storage.Backend {
	case StorageBackendChainSafe, StorageBackendIPFS:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND: %s", config.Storage.Backend)
	}

	switch config.Image.Source {
	case ImageSourceURL, ImageSourceGenerated:
	default:
		return nil, fmt.Errorf("unknown IMAGE_SOURCE: %s", config.Image.Source)
	}

	for _, origin := range strings.Split(v.GetString("cors_allowed_origins"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			config.Server.CORSAllowedOrigins = append(config.Server.CORSAllowedOrigins, origin)
		}
	}

	return config, nil
}

// ParseEtherAmount converts a decimal ether amount into wei.
func ParseEtherAmount(raw string) (*big.Int, error) {
	if strings.TrimSpace(raw) == "" {
		return new(big.Int), nil
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative, got %s", raw)
	}
	wei := amount.Shift(18)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than 18 decimal places", raw)
	}
	return wei.BigInt(), nil
}

// RequireFor reports the settings a voucher route needs that are absent.
func (config *Config) RequireFor(standard TokenStandard) error {
	var missing []string
	if !config.Signer.Configured() {
		missing = append(missing, "signer key")
	}
	if _, ok := config.Chain.Minters[standard]; !ok {
		missing = append(missing, fmt.Sprintf("%d minter address", int(standard)))
	}
	if config.Storage.APIURL == "" {
		missing = append(missing, "storage API URL")
	}
	if config.Storage.Backend == StorageBackendChainSafe && config.Storage.APIKey == "" {
		missing = append(missing, "storage API key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", "))
	}
	return nil
}
