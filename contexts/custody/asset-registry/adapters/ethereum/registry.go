// Package ethereumadapter speaks the ERC1155 surface of an on-chain asset
// registry. It satisfies the marketplace ledger's custody port so production
// deployments can escrow against the real token contract; transfers are
// signed with the ledger's operator key and wait for inclusion.
package ethereumadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc1155ABI = `[
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"safeTransferFrom","type":"function","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"id","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]},
  {"name":"setApprovalForAll","type":"function","stateMutability":"nonpayable","inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"outputs":[]},
  {"name":"isApprovedForAll","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"mint","type":"function","stateMutability":"nonpayable","inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]}
]`

type Client struct {
	eth      *ethclient.Client
	contract abi.ABI
	signer   *bind.TransactOpts
	operator common.Address
	logger   *slog.Logger
}

func New(ctx context.Context, rpcURL string, operatorKeyHex string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("ethereum: dial %s: %w", rpcURL, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(operatorKeyHex, "0x"))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("ethereum: parse operator key: %w", err)
	}
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("ethereum: resolve chain id: %w", err)
	}
	signer, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("ethereum: build transactor: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc1155ABI))
	if err != nil {
		eth.Close()
		return nil, err
	}

	return &Client{
		eth:      eth,
		contract: parsed,
		signer:   signer,
		operator: crypto.PubkeyToAddress(key.PublicKey),
		logger:   logger,
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

// Operator is the on-chain identity transfers are signed with. It must be
// approved by sellers via setApprovalForAll before listings can escrow.
func (c *Client) Operator() string {
	return c.operator.Hex()
}

func (c *Client) BalanceOf(ctx context.Context, assetContract string, holder string, assetID uint64) (uint64, error) {
	bound := c.bound(assetContract)
	var out []any
	err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf",
		common.HexToAddress(holder), new(big.Int).SetUint64(assetID))
	if err != nil {
		return 0, fmt.Errorf("ethereum: balanceOf: %w", err)
	}
	if len(out) != 1 {
		return 0, errors.New("ethereum: balanceOf returned unexpected outputs")
	}
	balance, ok := out[0].(*big.Int)
	if !ok || !balance.IsUint64() {
		return 0, errors.New("ethereum: balanceOf result out of range")
	}
	return balance.Uint64(), nil
}

func (c *Client) Transfer(
	ctx context.Context,
	assetContract string,
	from string,
	to string,
	assetID uint64,
	quantity uint64,
) error {
	bound := c.bound(assetContract)
	opts := *c.signer
	opts.Context = ctx

	tx, err := bound.Transact(&opts, "safeTransferFrom",
		common.HexToAddress(from),
		common.HexToAddress(to),
		new(big.Int).SetUint64(assetID),
		new(big.Int).SetUint64(quantity),
		[]byte{},
	)
	if err != nil {
		return fmt.Errorf("ethereum: safeTransferFrom: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return fmt.Errorf("ethereum: wait for transfer %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status == 0 {
		return fmt.Errorf("ethereum: transfer %s reverted", tx.Hash().Hex())
	}

	c.logger.Info("custody transfer mined",
		"event", "custody_transfer_mined",
		"module", "custody/asset-registry",
		"layer", "adapter",
		"tx", tx.Hash().Hex(),
		"contract", assetContract,
		"asset_id", assetID,
		"quantity", quantity,
	)
	return nil
}

func (c *Client) Mint(
	ctx context.Context,
	assetContract string,
	holder string,
	assetID uint64,
	quantity uint64,
	data []byte,
) error {
	bound := c.bound(assetContract)
	opts := *c.signer
	opts.Context = ctx

	tx, err := bound.Transact(&opts, "mint",
		common.HexToAddress(holder),
		new(big.Int).SetUint64(assetID),
		new(big.Int).SetUint64(quantity),
		data,
	)
	if err != nil {
		return fmt.Errorf("ethereum: mint: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return fmt.Errorf("ethereum: wait for mint %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status == 0 {
		return fmt.Errorf("ethereum: mint %s reverted", tx.Hash().Hex())
	}
	return nil
}

func (c *Client) IsApprovedForAll(
	ctx context.Context,
	assetContract string,
	owner string,
	operator string,
) (bool, error) {
	bound := c.bound(assetContract)
	var out []any
	err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "isApprovedForAll",
		common.HexToAddress(owner), common.HexToAddress(operator))
	if err != nil {
		return false, fmt.Errorf("ethereum: isApprovedForAll: %w", err)
	}
	if len(out) != 1 {
		return false, errors.New("ethereum: isApprovedForAll returned unexpected outputs")
	}
	approved, ok := out[0].(bool)
	if !ok {
		return false, errors.New("ethereum: isApprovedForAll returned non-bool")
	}
	return approved, nil
}

func (c *Client) bound(assetContract string) *bind.BoundContract {
	address := common.HexToAddress(assetContract)
	return bind.NewBoundContract(address, c.contract, c.eth, c.eth, c.eth)
}
