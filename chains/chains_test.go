package chains_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/go-chapay/chains"
)

func TestBuiltinRegistry(t *testing.T) {
	all := chains.All()
	require.Len(t, all, 3)

	seen := map[uint64]bool{}
	for _, c := range all {
		require.NoError(t, c.Validate())
		assert.False(t, seen[c.ID], "duplicate chain id %d", c.ID)
		seen[c.ID] = true
	}

	mainnet, ok := chains.ByID(119)
	require.True(t, ok)
	assert.Equal(t, "mainnet", mainnet.Name)

	devnet, ok := chains.ByID(1337)
	require.True(t, ok)
	assert.Equal(t, "devnet", devnet.Name)
	assert.Equal(t, "http://localhost:8545", devnet.RPCURL)
	assert.Equal(t, "http://localhost:8560", devnet.RelayURL)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000fee01"), devnet.Contracts.DefaultFeeToken)

	_, ok = chains.ByID(0)
	assert.False(t, ok)

	testnet, ok := chains.ByName("testnet")
	require.True(t, ok)
	assert.Equal(t, uint64(1119), testnet.ID)

	_, ok = chains.ByName("unknown")
	assert.False(t, ok)
}

func TestClientConfig(t *testing.T) {
	cfg := chains.Devnet.ClientConfig()
	assert.Equal(t, chains.Devnet.RPCURL, cfg.URL)
	assert.Equal(t, chains.Devnet.RelayURL, cfg.RelayURL)
}

func TestLoadRegistry(t *testing.T) {
	content := `[[chain]]
name = "local"
id = 9999
rpc_url = "http://127.0.0.1:9545"
relay_url = "http://127.0.0.1:9560"
native_symbol = "CHA"

[chain.contracts]
fee_token_registry = "0x00000000000000000000000000000000000fee00"
fee_swap = "0x1111111111111111111111111111111111111111"
`

	path := filepath.Join(t.TempDir(), "chains.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := chains.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	c := loaded[0]
	assert.Equal(t, "local", c.Name)
	assert.Equal(t, uint64(9999), c.ID)
	assert.Equal(t, "http://127.0.0.1:9545", c.RPCURL)
	assert.Equal(t, "http://127.0.0.1:9560", c.RelayURL)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000fee00"), c.Contracts.FeeTokenRegistry)
	assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), c.Contracts.FeeSwap)
	assert.Equal(t, common.Address{}, c.Contracts.BatchExecutor)
}

func TestLoadRegistryRejectsInvalidEntries(t *testing.T) {
	content := `[[chain]]
name = "broken"
id = 4242
`

	path := filepath.Join(t.TempDir(), "chains.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := chains.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc_url")
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := chains.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
