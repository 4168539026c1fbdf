package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/blues/tss/internal/config"
	"github.com/blues/tss/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client 托管账户链上客户端
// 所有支付代币和售卖代币的进出都经由托管账户执行，
// 转账失败会向上传播，由调用方回滚整笔操作。
type Client struct {
	client        *ethclient.Client
	privateKey    *ecdsa.PrivateKey
	custodyAddr   common.Address
	chainId       *big.Int
	erc20ABI      abi.ABI
	confirmations uint64
}

// ERC20合约ABI定义（仅托管转账所需的方法）
const erc20ABI = `[
	{
		"constant": false,
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "from", "type": "address"},
			{"name": "to", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	}
]`

// erc20TransferGasLimit 代币转账的gas上限
const erc20TransferGasLimit = uint64(100000)

func Init(cfg config.ChainConfig) (*Client, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 解析私钥
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	// 解析ABI
	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}

	return &Client{
		client:        client,
		privateKey:    privateKey,
		custodyAddr:   crypto.PubkeyToAddress(privateKey.PublicKey),
		chainId:       big.NewInt(cfg.ChainId),
		erc20ABI:      parsedABI,
		confirmations: uint64(cfg.Confirmations),
	}, nil
}

// CustodyAddress 托管账户地址
func (c *Client) CustodyAddress() string {
	return c.custodyAddr.Hex()
}

// EscrowIn 把amount个token从from转入托管账户
// 依赖from事先对托管账户的授权额度
func (c *Client) EscrowIn(ctx context.Context, token, from string, amount *big.Int) error {
	input, err := c.erc20ABI.Pack("transferFrom", common.HexToAddress(from), c.custodyAddr, amount)
	if err != nil {
		return fmt.Errorf("failed to pack transferFrom: %w", err)
	}
	return c.sendTokenTx(ctx, common.HexToAddress(token), input)
}

// EscrowOut 把amount个token从托管账户转给to
func (c *Client) EscrowOut(ctx context.Context, token, to string, amount *big.Int) error {
	input, err := c.erc20ABI.Pack("transfer", common.HexToAddress(to), amount)
	if err != nil {
		return fmt.Errorf("failed to pack transfer: %w", err)
	}
	return c.sendTokenTx(ctx, common.HexToAddress(token), input)
}

// sendTokenTx 用托管私钥签名并发送代币合约调用，等待上链
func (c *Client) sendTokenTx(ctx context.Context, token common.Address, input []byte) error {
	nonce, err := c.client.PendingNonceAt(ctx, c.custodyAddr)
	if err != nil {
		return fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, token, big.NewInt(0), erc20TransferGasLimit, gasPrice, input)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainId), c.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.client, signedTx)
	if err != nil {
		return fmt.Errorf("failed to wait for transaction %s: %w", signedTx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("token transfer reverted: %s", signedTx.Hash().Hex())
	}

	if err := c.waitConfirmations(ctx, receipt.BlockNumber.Uint64()); err != nil {
		return fmt.Errorf("failed to confirm transaction %s: %w", signedTx.Hash().Hex(), err)
	}

	logger.Debug("Token transfer confirmed: tx=%s block=%d", signedTx.Hash().Hex(), receipt.BlockNumber.Uint64())
	return nil
}

// confirmationPollInterval 确认深度轮询间隔
const confirmationPollInterval = 3 * time.Second

// waitConfirmations 等待链头超过上链区块配置的确认数，降低重组风险
func (c *Client) waitConfirmations(ctx context.Context, minedBlock uint64) error {
	if c.confirmations == 0 {
		return nil
	}

	for {
		latest, err := c.GetLatestBlock()
		if err != nil {
			return err
		}
		if latest >= minedBlock+c.confirmations {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(confirmationPollInterval):
		}
	}
}

// TokenBalance 查询托管账户在某代币上的余额
func (c *Client) TokenBalance(ctx context.Context, token string) (*big.Int, error) {
	input, err := c.erc20ABI.Pack("balanceOf", c.custodyAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}

	tokenAddr := common.HexToAddress(token)
	output, err := c.client.CallContract(ctx, callMsg(tokenAddr, input), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	results, err := c.erc20ABI.Unpack("balanceOf", output)
	if err != nil || len(results) == 0 {
		return nil, fmt.Errorf("failed to unpack balanceOf: %w", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type")
	}
	return balance, nil
}

// Now 返回最新区块时间，作为合约的账本时钟
// 链访问失败时退回本地时钟，保证只读路径可用
func (c *Client) Now() uint64 {
	header, err := c.client.HeaderByNumber(context.Background(), nil)
	if err != nil {
		logger.Warn("Failed to fetch latest header, falling back to local clock: %v", err)
		return uint64(time.Now().Unix())
	}
	return header.Time
}

func callMsg(to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{To: &to, Data: data}
}

// GetLatestBlock 获取最新区块号
func (c *Client) GetLatestBlock() (uint64, error) {
	header, err := c.client.HeaderByNumber(context.Background(), nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}
