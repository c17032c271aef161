// Package chains is the registry of known Chapay networks: their chain ids,
// endpoints and protocol contract addresses. Additional networks can be
// loaded from a TOML registry file.
package chains

import (
	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github/chapool/go-chapay/client"
)

// Chain describes one Chapay network.
type Chain struct {
	Name         string      `toml:"name"`
	ID           uint64      `toml:"id"`
	RPCURL       string      `toml:"rpc_url"`
	RelayURL     string      `toml:"relay_url"`
	ExplorerURL  string      `toml:"explorer_url"`
	NativeSymbol string      `toml:"native_symbol"`
	Contracts    ContractSet `toml:"contracts"`
}

// ContractSet holds the protocol contract addresses of a chain.
type ContractSet struct {
	FeeTokenRegistry common.Address `toml:"fee_token_registry"`
	DefaultFeeToken  common.Address `toml:"default_fee_token"`
	FeeSwap          common.Address `toml:"fee_swap"`
	SponsorPolicy    common.Address `toml:"sponsor_policy"`
	BatchExecutor    common.Address `toml:"batch_executor"`
}

var defaultContracts = ContractSet{
	FeeTokenRegistry: common.HexToAddress("0x00000000000000000000000000000000000fee00"),
	DefaultFeeToken:  common.HexToAddress("0x00000000000000000000000000000000000fee01"),
	FeeSwap:          common.HexToAddress("0x00000000000000000000000000000000000fee02"),
	SponsorPolicy:    common.HexToAddress("0x00000000000000000000000000000000000fee03"),
	BatchExecutor:    common.HexToAddress("0x00000000000000000000000000000000000fee04"),
}

// Built in networks.
var (
	Mainnet = Chain{
		Name:         "mainnet",
		ID:           119,
		RPCURL:       "https://rpc.chapay.network",
		RelayURL:     "https://relay.chapay.network",
		ExplorerURL:  "https://scan.chapay.network",
		NativeSymbol: "CHA",
		Contracts:    defaultContracts,
	}

	Testnet = Chain{
		Name:         "testnet",
		ID:           1119,
		RPCURL:       "https://rpc.testnet.chapay.network",
		RelayURL:     "https://relay.testnet.chapay.network",
		ExplorerURL:  "https://scan.testnet.chapay.network",
		NativeSymbol: "tCHA",
		Contracts:    defaultContracts,
	}

	Devnet = Chain{
		Name:         "devnet",
		ID:           1337,
		RPCURL:       "http://localhost:8545",
		RelayURL:     "http://localhost:8560",
		NativeSymbol: "CHA",
		Contracts:    defaultContracts,
	}
)

// All returns the built in networks.
func All() []Chain {
	return []Chain{Mainnet, Testnet, Devnet}
}

// ByID looks up a built in network by chain id.
func ByID(id uint64) (Chain, bool) {
	for _, c := range All() {
		if c.ID == id {
			return c, true
		}
	}
	return Chain{}, false
}

// ByName looks up a built in network by name.
func ByName(name string) (Chain, bool) {
	for _, c := range All() {
		if c.Name == name {
			return c, true
		}
	}
	return Chain{}, false
}

// ClientConfig returns the chain's endpoints in client form.
func (c Chain) ClientConfig() client.Config {
	return client.Config{URL: c.RPCURL, RelayURL: c.RelayURL}
}

// Validate checks the minimal fields of a chain entry.
func (c Chain) Validate() error {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.Name, "name"),
		vala.StringNotEmpty(c.RPCURL, "rpc_url"),
	).Check(); err != nil {
		return err
	}
	if c.ID == 0 {
		return errors.New("chain id must not be zero")
	}
	return nil
}

type registryFile struct {
	Chains []Chain `toml:"chain"`
}

// Load reads additional networks from a TOML registry file with one
// [[chain]] table per network.
func Load(path string) ([]Chain, error) {
	var reg registryFile
	if _, err := toml.DecodeFile(path, &reg); err != nil {
		return nil, errors.Wrapf(err, "loading chain registry %s", path)
	}
	for i, c := range reg.Chains {
		if err := c.Validate(); err != nil {
			return nil, errors.Wrapf(err, "chain %d", i)
		}
	}
	return reg.Chains, nil
}
