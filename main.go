// Lazy minting voucher service and command-line interface.
//
// The github.com/moonstream-to/ethereal-nfts/vouchers package uploads NFT images and metadata to
// content-addressed storage and issues EIP-712 signed vouchers that let a buyer mint the token
// later, so the issuer never pays gas up front. This package defines the HTTP API and the
// command-line interface that configures and starts it.

package main

import (
	"os"
)

func main() {
	command := CreateRootCommand()
	err := command.Execute()
	if err != nil {
		os.Exit(1)
	}
}
