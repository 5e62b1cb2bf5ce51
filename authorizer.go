package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// GrantAllAuthorizer issues a voucher to everyone who asks. Games plug in their own Authorizer
// to check whether the player has earned the token.
type GrantAllAuthorizer struct{}

func (GrantAllAuthorizer) Authorize(ctx context.Context, kind VoucherKind, receiver common.Address) (bool, error) {
	return true, nil
}
