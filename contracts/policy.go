package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

const sponsorPolicyABIJSON = `[
	{"type":"function","name":"canSponsor","stateMutability":"view","inputs":[{"name":"sender","type":"address"},{"name":"feeToken","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
]`

var sponsorPolicyABI = mustParseABI(sponsorPolicyABIJSON)

// SponsorPolicy binds the on-chain sponsor policy registry.
type SponsorPolicy struct {
	addr   common.Address
	caller Caller
}

// NewSponsorPolicy binds the registry at addr.
func NewSponsorPolicy(addr common.Address, caller Caller) *SponsorPolicy {
	return &SponsorPolicy{addr: addr, caller: caller}
}

// CanSponsor reports whether the registry allows sponsoring sender's fees in
// feeToken.
func (p *SponsorPolicy) CanSponsor(ctx context.Context, sender, feeToken common.Address) (bool, error) {
	res, err := viewCall(ctx, p.caller, sponsorPolicyABI, p.addr, "canSponsor", sender, feeToken)
	if err != nil {
		return false, err
	}
	return res[0].(bool), nil
}
