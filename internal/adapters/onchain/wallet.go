// Package onchain reads settlement-asset balances and manages the one-time
// exchange approvals on Polygon. Approvals are a precondition for any fill,
// not part of the trading protocol itself.
package onchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	polygonChainID = int64(137)

	// USDC.e collateral on Polygon
	usdcAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	// CTF contract — holds outcome tokens (ERC1155)
	ctfAddress = "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045"

	// Exchange spenders that need allowances before orders can fill
	exchangeAddress        = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
	negRiskExchangeAddress = "0xC5d563A36AE78145C45a50134d48A1215220f80a"
	negRiskAdapterAddress  = "0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296"

	approvalGasLimit = uint64(80_000)
)

var (
	erc20ABI   abi.ABI
	erc1155ABI abi.ABI
)

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{"name":"balanceOf","type":"function",
		 "inputs":[{"name":"account","type":"address"}],
		 "outputs":[{"name":"","type":"uint256"}]},
		{"name":"approve","type":"function",
		 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
		 "outputs":[{"name":"","type":"bool"}]},
		{"name":"allowance","type":"function",
		 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
		 "outputs":[{"name":"","type":"uint256"}]}
	]`))
	if err != nil {
		panic("erc20 abi parse: " + err.Error())
	}
	erc1155ABI, err = abi.JSON(strings.NewReader(`[
		{"name":"balanceOf","type":"function",
		 "inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],
		 "outputs":[{"name":"","type":"uint256"}]},
		{"name":"setApprovalForAll","type":"function",
		 "inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],
		 "outputs":[]},
		{"name":"isApprovedForAll","type":"function",
		 "inputs":[{"name":"account","type":"address"},{"name":"operator","type":"address"}],
		 "outputs":[{"name":"","type":"bool"}]}
	]`))
	if err != nil {
		panic("erc1155 abi parse: " + err.Error())
	}
}

// Wallet reads balances and sets approvals for one Polygon account.
type Wallet struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewWallet dials the given Polygon RPC. privateKeyHex may carry a 0x prefix.
func NewWallet(rpcURL, privateKeyHex string) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("onchain: invalid private key: %w", err)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("onchain: dial rpc %s: %w", rpcURL, err)
	}

	return &Wallet{
		client:     client,
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the wallet address.
func (w *Wallet) Address() string { return w.address.Hex() }

// USDCBalance implements ports.BalanceProvider: the on-chain USDC.e balance
// in whole USDC.
func (w *Wallet) USDCBalance(ctx context.Context) (float64, error) {
	callData, err := erc20ABI.Pack("balanceOf", w.address)
	if err != nil {
		return 0, fmt.Errorf("onchain: pack balanceOf: %w", err)
	}

	token := common.HexToAddress(usdcAddress)
	result, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return 0, fmt.Errorf("onchain: usdc balance call: %w", err)
	}

	vals, err := erc20ABI.Unpack("balanceOf", result)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("onchain: unpack balanceOf: %w", err)
	}

	raw := vals[0].(*big.Int)
	bal, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), big.NewFloat(1e6)).Float64()
	return bal, nil
}

// TokenBalance returns the ERC-1155 balance for an outcome token, in shares.
// Ground truth for a position: if > 0, a buy filled regardless of ledger state.
func (w *Wallet) TokenBalance(ctx context.Context, tokenID string) (float64, error) {
	tid, ok := new(big.Int).SetString(tokenID, 10)
	if !ok {
		return 0, fmt.Errorf("onchain: invalid token ID: %s", tokenID)
	}

	callData, err := erc1155ABI.Pack("balanceOf", w.address, tid)
	if err != nil {
		return 0, fmt.Errorf("onchain: pack erc1155 balanceOf: %w", err)
	}

	ctf := common.HexToAddress(ctfAddress)
	result, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &ctf, Data: callData}, nil)
	if err != nil {
		return 0, fmt.Errorf("onchain: token balance call: %w", err)
	}

	vals, err := erc1155ABI.Unpack("balanceOf", result)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("onchain: unpack erc1155 balanceOf: %w", err)
	}

	raw := vals[0].(*big.Int)
	shares, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), big.NewFloat(1e6)).Float64()
	return shares, nil
}

// EnsureApprovals verifies and sets, for all three exchange spenders:
//   - USDC.e allowance (collateral for BUY fills)
//   - ERC-1155 setApprovalForAll on the CTF contract (token transfers on SELL)
func (w *Wallet) EnsureApprovals(ctx context.Context) error {
	spenders := []struct {
		label string
		addr  common.Address
	}{
		{"CTF Exchange", common.HexToAddress(exchangeAddress)},
		{"NegRisk CTF Exchange", common.HexToAddress(negRiskExchangeAddress)},
		{"NegRisk Adapter", common.HexToAddress(negRiskAdapterAddress)},
	}

	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	minAllowance := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000)) // 1M USDC

	for _, sp := range spenders {
		allowance, err := w.usdcAllowance(ctx, sp.addr)
		if err != nil {
			return fmt.Errorf("check USDC allowance for %s: %w", sp.label, err)
		}
		if allowance.Cmp(minAllowance) < 0 {
			slog.Info("onchain: approving USDC", "spender", sp.label)
			if err := w.sendTx(ctx, common.HexToAddress(usdcAddress), erc20ABI, "approve", sp.addr, maxUint256); err != nil {
				return fmt.Errorf("approve USDC for %s: %w", sp.label, err)
			}
		}

		approved, err := w.isApprovedForAll(ctx, sp.addr)
		if err != nil {
			return fmt.Errorf("check CTF approval for %s: %w", sp.label, err)
		}
		if !approved {
			slog.Info("onchain: approving CTF", "operator", sp.label)
			if err := w.sendTx(ctx, common.HexToAddress(ctfAddress), erc1155ABI, "setApprovalForAll", sp.addr, true); err != nil {
				return fmt.Errorf("approve CTF for %s: %w", sp.label, err)
			}
		}
	}
	return nil
}

func (w *Wallet) usdcAllowance(ctx context.Context, spender common.Address) (*big.Int, error) {
	callData, err := erc20ABI.Pack("allowance", w.address, spender)
	if err != nil {
		return nil, err
	}

	token := common.HexToAddress(usdcAddress)
	result, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return nil, err
	}

	vals, err := erc20ABI.Unpack("allowance", result)
	if err != nil || len(vals) == 0 {
		return big.NewInt(0), err
	}
	return vals[0].(*big.Int), nil
}

func (w *Wallet) isApprovedForAll(ctx context.Context, operator common.Address) (bool, error) {
	callData, err := erc1155ABI.Pack("isApprovedForAll", w.address, operator)
	if err != nil {
		return false, err
	}

	ctf := common.HexToAddress(ctfAddress)
	result, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &ctf, Data: callData}, nil)
	if err != nil {
		return false, err
	}

	vals, err := erc1155ABI.Unpack("isApprovedForAll", result)
	if err != nil || len(vals) == 0 {
		return false, err
	}
	return vals[0].(bool), nil
}

// sendTx packs, signs, sends one transaction and waits for its receipt.
func (w *Wallet) sendTx(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) error {
	callData, err := contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", method, err)
	}

	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return fmt.Errorf("nonce: %w", err)
	}

	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), approvalGasLimit, gasPrice, callData)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(polygonChainID)), w.privateKey)
	if err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("send tx: %w", err)
	}

	receiptCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	receipt, err := w.waitForReceipt(receiptCtx, signed.Hash())
	if err != nil {
		return fmt.Errorf("wait receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%s tx reverted: %s", method, signed.Hash().Hex())
	}

	slog.Info("onchain: transaction confirmed", "method", method, "tx", signed.Hash().Hex())
	return nil
}

func (w *Wallet) waitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	for {
		receipt, err := w.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}
