package crypto

import (
	"crypto/ecdsa"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// LoadSigningKey resolves the configured private key and parses it into an
// ECDSA key usable for transaction signing. Returns nil (no error) when no
// key source is configured, so read-only deployments can run without a
// wallet.
func LoadSigningKey(cfg KeyConfig) (*ecdsa.PrivateKey, error) {
	if cfg.RawPrivateKey == "" && cfg.EncryptedKeyPath == "" {
		return nil, nil
	}
	keyHex, err := LoadKey(cfg)
	if err != nil {
		return nil, err
	}
	key, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("crypto: parsing signing key: %w", err)
	}
	return key, nil
}

// WalletAddress derives the checksummed wallet address for a signing key.
func WalletAddress(key *ecdsa.PrivateKey) string {
	if key == nil {
		return ""
	}
	return ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
}
