package crypto

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// GenerateWallet creates a fresh secp256k1 keypair and returns the EVM
// address together with the hex-encoded private key (0x-prefixed).
func GenerateWallet() (address, signingKey string, err error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return "", "", err
	}
	address = ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
	signingKey = hexutil.Encode(ethcrypto.FromECDSA(key))
	return address, signingKey, nil
}

// AddressFromKey derives the EVM address of a hex-encoded private key.
func AddressFromKey(signingKey string) (string, error) {
	trimmed := strings.TrimPrefix(signingKey, "0x")
	if trimmed == "" {
		return "", errors.New("empty signing key")
	}
	key, err := ethcrypto.HexToECDSA(trimmed)
	if err != nil {
		return "", errors.New("invalid private key format")
	}
	return ethcrypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
