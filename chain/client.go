package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
)

// Monad testnet parameters. MON is the native token, so value transfers are
// plain transactions.
const (
	MonadTestnetChainID = 10143
	DefaultRPCURL       = "https://testnet-rpc.monad.xyz"

	transferGasLimit = 21000
)

// Transferer sends a signed native-token transfer and returns the
// transaction hash. The runtime and the x402 client depend on this interface
// so tests can substitute a fake.
type Transferer interface {
	Transfer(ctx context.Context, signingKey, to string, amountMON float64) (string, error)
}

// Client talks to an EVM-compatible chain over JSON-RPC.
type Client struct {
	eth       *ethclient.Client
	chainID   *big.Int
	masterKey string

	// Nonce allocation must be serialized per sender: two concurrent
	// transfers signed with the same key would otherwise race for the same
	// pending nonce.
	mu      sync.Mutex
	senders map[common.Address]*sync.Mutex
}

// NewClient dials the RPC endpoint. masterKey may be empty; FundWallet then
// reports an error instead of sending.
func NewClient(ctx context.Context, rpcURL string, chainID int64, masterKey string) (*Client, error) {
	if strings.TrimSpace(rpcURL) == "" {
		return nil, errors.New("chain: RPC URL not configured")
	}
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to dial %s: %w", rpcURL, err)
	}
	return &Client{
		eth:     eth,
		chainID: big.NewInt(chainID),
		masterKey: masterKey,
		senders: make(map[common.Address]*sync.Mutex),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	if c != nil && c.eth != nil {
		c.eth.Close()
	}
}

// Transfer sends amountMON from the account behind signingKey to the given
// address and returns the transaction hash.
func (c *Client) Transfer(ctx context.Context, signingKey, to string, amountMON float64) (string, error) {
	if c == nil || c.eth == nil {
		return "", errors.New("chain: client not initialized")
	}
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(signingKey, "0x"))
	if err != nil {
		return "", errors.New("invalid private key format")
	}
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("invalid destination address: %s", to)
	}

	from := ethcrypto.PubkeyToAddress(key.PublicKey)
	lock := c.senderLock(from)
	lock.Lock()
	defer lock.Unlock()

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to fetch nonce for %s: %w", from.Hex(), err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := coretypes.NewTransaction(nonce, common.HexToAddress(to), ToWei(amountMON), transferGasLimit, gasPrice, nil)
	signed, err := coretypes.SignTx(tx, coretypes.LatestSignerForChainID(c.chainID), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return signed.Hash().Hex(), nil
}

// FundWallet transfers amountMON from the master wallet to the given
// address. Used to seed freshly created agent wallets with gas money.
func (c *Client) FundWallet(ctx context.Context, to string, amountMON float64) (string, error) {
	if strings.TrimSpace(c.masterKey) == "" {
		return "", errors.New("chain: master key not configured, skipping funding")
	}
	return c.Transfer(ctx, c.masterKey, to, amountMON)
}

// BalanceAt returns the current balance of an address in wei.
func (c *Client) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	if c == nil || c.eth == nil {
		return nil, errors.New("chain: client not initialized")
	}
	return c.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
}

func (c *Client) senderLock(addr common.Address) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.senders[addr]
	if !ok {
		lock = &sync.Mutex{}
		c.senders[addr] = lock
	}
	return lock
}

// ToWei converts a MON amount to wei. Precision beyond 18 decimals is
// truncated.
func ToWei(amountMON float64) *big.Int {
	wei, _ := new(big.Float).Mul(
		big.NewFloat(amountMON),
		new(big.Float).SetInt(big.NewInt(params.Ether)),
	).Int(nil)
	return wei
}
