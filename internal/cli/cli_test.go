package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/go-chapay/internal/cli"
)

func setOption(t *testing.T, key, value string) {
	t.Helper()
	viper.Set(key, value)
	t.Cleanup(viper.Reset)
}

func TestResolveChainByName(t *testing.T) {
	setOption(t, "chain", "testnet")

	chain, err := cli.ResolveChain()
	require.NoError(t, err)
	assert.Equal(t, uint64(1119), chain.ID)
}

func TestResolveChainByID(t *testing.T) {
	setOption(t, "chain", "119")

	chain, err := cli.ResolveChain()
	require.NoError(t, err)
	assert.Equal(t, "mainnet", chain.Name)
}

func TestResolveChainUnknown(t *testing.T) {
	setOption(t, "chain", "nope")

	_, err := cli.ResolveChain()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown chain "nope"`)
}

func TestResolveChainEndpointOverrides(t *testing.T) {
	setOption(t, "chain", "devnet")
	viper.Set("rpc-url", "http://example.invalid:8545")
	viper.Set("relay-url", "http://example.invalid:8560")

	chain, err := cli.ResolveChain()
	require.NoError(t, err)
	assert.Equal(t, "http://example.invalid:8545", chain.RPCURL)
	assert.Equal(t, "http://example.invalid:8560", chain.RelayURL)
}

func TestResolveChainFromFile(t *testing.T) {
	registry := filepath.Join(t.TempDir(), "chains.toml")
	require.NoError(t, os.WriteFile(registry, []byte(`
[[chain]]
name = "staging"
id = 900
rpc_url = "http://staging:8545"
relay_url = "http://staging:8560"
native_symbol = "CHA"
`), 0o600))

	setOption(t, "chain", "staging")
	viper.Set("chains-file", registry)

	chain, err := cli.ResolveChain()
	require.NoError(t, err)
	assert.Equal(t, uint64(900), chain.ID)
	assert.Equal(t, "http://staging:8545", chain.RPCURL)
}

func TestResolveChainFilePrecedesBuiltin(t *testing.T) {
	registry := filepath.Join(t.TempDir(), "chains.toml")
	require.NoError(t, os.WriteFile(registry, []byte(`
[[chain]]
name = "devnet"
id = 1337
rpc_url = "http://custom:8545"
native_symbol = "CHA"
`), 0o600))

	setOption(t, "chain", "devnet")
	viper.Set("chains-file", registry)

	chain, err := cli.ResolveChain()
	require.NoError(t, err)
	assert.Equal(t, "http://custom:8545", chain.RPCURL)
}

func TestKeystorePath(t *testing.T) {
	viper.Reset()
	_, err := cli.KeystorePath()
	require.Error(t, err)

	setOption(t, "keystore", "/tmp/key.json")
	path, err := cli.KeystorePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/key.json", path)
}
