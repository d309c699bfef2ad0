package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletAddressIsChecksummedHexString(t *testing.T) {
	key, err := LoadSigningKey(KeyConfig{
		RawPrivateKey: "0000000000000000000000000000000000000000000000000000000000000001",
	})
	require.NoError(t, err)
	require.NotNil(t, key)

	var addr string = WalletAddress(key)
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", addr)
}
