package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// cliState carries configuration from the root command into its subcommands.
type cliState struct {
	v          *viper.Viper
	configFile string
	envFile    string
}

func (state *cliState) load() (*Config, *zap.Logger, error) {
	if err := godotenv.Load(state.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to load %s: %w", state.envFile, err)
	}

	if state.configFile != "" {
		state.v.SetConfigFile(state.configFile)
		if err := state.v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to read config %s: %w", state.configFile, err)
		}
	}

	config, err := LoadConfig(state.v)
	if err != nil {
		return nil, nil, err
	}
	logger, err := NewLogger(config.Debug)
	if err != nil {
		return nil, nil, err
	}
	return config, logger, nil
}

func CreateRootCommand() *cobra.Command {
	state := &cliState{v: viper.New()}
	SetConfigDefaults(state.v)
	state.v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "vouchers",
		Short: "Vouchers: issue signed lazy minting vouchers for ERC721 and ERC1155 tokens",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&state.configFile, "config", "", "Path to a YAML configuration file (keys match the environment variable names, lowercased)")
	rootCmd.PersistentFlags().StringVar(&state.envFile, "env-file", ".env", "Path to a .env file loaded before reading the environment")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable development logging")
	state.v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	versionCmd := CreateVersionCommand()
	serveCmd := CreateServeCommand(state)
	addressCmd := CreateAddressCommand(state)
	tokenIDCmd := CreateTokenIDCommand()
	cidCmd := CreateCIDCommand()
	signCmd := CreateSignCommand(state)
	rootCmd.AddCommand(versionCmd, serveCmd, addressCmd, tokenIDCmd, cidCmd, signCmd)

	rootCmd.SetOut(os.Stdout)

	return rootCmd
}

func CreateVersionCommand() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of vouchers",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(VoucherServiceVersion)
		},
	}
	return versionCmd
}

func CreateServeCommand(state *cliState) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the voucher API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := state.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			service, err := BuildVoucherService(ctx, config, logger)
			if err != nil {
				return err
			}

			handlers := NewHandlers(service, config, logger)
			return RunServer(ctx, NewRouter(handlers, config, logger), config.Server, logger)
		},
	}

	serveCmd.Flags().String("host", "0.0.0.0", "Server listening address")
	serveCmd.Flags().Int("port", 3000, "Server listening port")
	state.v.BindPFlag("host", serveCmd.Flags().Lookup("host"))
	state.v.BindPFlag("port", serveCmd.Flags().Lookup("port"))

	return serveCmd
}

func CreateAddressCommand(state *cliState) *cobra.Command {
	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Print the address of the configured signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := state.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			var secrets SecretFetcher
			if config.Signer.MnemonicSecretID != "" {
				secrets, err = NewAWSSecretFetcher(cmd.Context(), config.Signer.AWSRegion)
				if err != nil {
					return err
				}
			}
			identity, err := LoadIdentity(config.Signer, secrets)
			if err != nil {
				return err
			}
			cmd.Println(identity.Address.Hex())
			return nil
		},
	}
	return addressCmd
}

func CreateTokenIDCommand() *cobra.Command {
	var scheme string
	tokenIDCmd := &cobra.Command{
		Use:   "token-id <cid>",
		Short: "Derive the token id of a content identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedScheme, err := ParseTokenIDScheme(scheme)
			if err != nil {
				return err
			}
			tokenID, err := DefaultCIDCodec().DeriveTokenID(parsedScheme, args[0])
			if err != nil {
				return err
			}
			cmd.Println(string(tokenID))
			return nil
		},
	}
	tokenIDCmd.Flags().StringVar(&scheme, "scheme", string(SchemeRaw), "Token id scheme: raw or keccak")
	return tokenIDCmd
}

func CreateCIDCommand() *cobra.Command {
	cidCmd := &cobra.Command{
		Use:   "cid <tokenId>",
		Short: "Recover the content identifier of a raw scheme token id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier, err := DefaultCIDCodec().ToContentIdentifier(TokenID(args[0]))
			if err != nil {
				return err
			}
			cmd.Println(identifier)
			return nil
		},
	}
	return cidCmd
}

// CreateSignCommand signs a voucher for content that is already in storage, without running
// the server.
func CreateSignCommand(state *cliState) *cobra.Command {
	var standardRaw, contentIdentifier, tokenID, receiver, minPrice, schemeRaw string
	var amount, nonce int64
	var promptMnemonic bool

	signCmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a voucher for an existing content identifier or token id",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := state.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			var standard TokenStandard
			switch standardRaw {
			case "721", "erc721":
				standard = Standard721
			case "1155", "erc1155":
				standard = Standard1155
			default:
				return fmt.Errorf("unknown token standard: %s", standardRaw)
			}

			if promptMnemonic {
				mnemonic, promptErr := PromptSecret("Signer mnemonic: ")
				if promptErr != nil {
					return promptErr
				}
				config.Signer.Mnemonic = mnemonic
			}

			signer, err := ResolveSigner(cmd.Context(), config, logger)
			if err != nil {
				return err
			}
			signerAddress, err := signer.Address()
			if err != nil {
				return err
			}

			scheme := config.Voucher.Schemes[standard]
			if schemeRaw != "" {
				if scheme, err = ParseTokenIDScheme(schemeRaw); err != nil {
					return err
				}
			}

			request := VoucherRequest{
				Kind:              KindFor(standard, receiver != ""),
				Scheme:            scheme,
				TokenID:           TokenID(tokenID),
				ContentIdentifier: contentIdentifier,
				MinPrice:          config.Voucher.MinPrice,
				Signer:            signerAddress,
			}
			if receiver != "" {
				if !common.IsHexAddress(receiver) {
					return fmt.Errorf("%w: receiver %q is not an address", ErrValidationFailure, receiver)
				}
				request.Receiver = common.HexToAddress(receiver)
			}
			if minPrice != "" {
				if request.MinPrice, err = ParseEtherAmount(minPrice); err != nil {
					return err
				}
			}
			if standard == Standard1155 {
				if amount <= 0 {
					return fmt.Errorf("%w: amount must be positive", ErrValidationFailure)
				}
				request.Amount = big.NewInt(amount)
				if nonce > 0 {
					request.Nonce = big.NewInt(nonce)
				}
			}

			payload, err := NewVoucherFactory(DefaultCIDCodec()).Build(request)
			if err != nil {
				return err
			}
			voucher, err := signer.SignVoucher(payload)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(voucher)
		},
	}

	signCmd.Flags().StringVar(&standardRaw, "standard", "721", "Token standard: 721 or 1155")
	signCmd.Flags().StringVar(&contentIdentifier, "cid", "", "Content identifier of the token metadata")
	signCmd.Flags().StringVar(&tokenID, "token-id", "", "Precomputed token id (takes precedence over --cid)")
	signCmd.Flags().StringVar(&schemeRaw, "scheme", "", "Token id scheme override: raw, keccak or uri")
	signCmd.Flags().StringVar(&receiver, "receiver", "", "Restrict redemption to this address")
	signCmd.Flags().StringVar(&minPrice, "min-price", "", "Minimum price in ether (defaults to MIN_PRICE)")
	signCmd.Flags().Int64Var(&amount, "amount", 1, "Amount of tokens (1155 only)")
	signCmd.Flags().Int64Var(&nonce, "nonce", 0, "Voucher nonce (1155 only, defaults to the current time in milliseconds)")
	signCmd.Flags().BoolVar(&promptMnemonic, "prompt", false, "Prompt for the signer mnemonic instead of reading configuration")

	return signCmd
}
