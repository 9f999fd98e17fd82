package clob

// auth.go — credential manager (L1 auth).
//
// Derives short-lived API credentials by signing the ClobAuth EIP-712
// payload with the wallet key and posting it to the exchange's
// key-derivation endpoint. The protocol advertises no expiry: invalidation
// only shows up as a 401/403 (or an "auth" error message) on a later
// request, at which point the caller re-derives reactively.

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/builder"

	"github.com/tradekit/autobot/internal/domain"
)

const (
	polygonChainID = int64(137)

	// CLOB EIP-712 auth domain
	clobDomainName    = "ClobAuthDomain"
	clobDomainVersion = "1"
	// Fixed attestation signed when deriving API keys
	clobAuthMessage = "This message attests that I control the given wallet"

	deriveAPIKeyPath = "/auth/derive-api-key"

	// Taker sentinel — zero address means any taker
	zeroAddress = "0x0000000000000000000000000000000000000000"
)

// Credentials are the CLOB API credentials derived from a wallet.
// The secret is base64url and keys the L2 HMAC scheme.
type Credentials struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// Session is the authenticated trading session: wallet key, the single
// copy of derived credentials, and the HTTP plumbing. One live session per
// credential set — the ledger is per-process state with no cross-process
// lock, so a second instance on the same key can double-submit.
type Session struct {
	*Client
	privateKey   *ecdsa.PrivateKey
	address      common.Address
	creds        *Credentials
	orderBuilder builder.ExchangeOrderBuilder
}

// NewSession creates a session from a hex private key (0x prefix optional).
// Credentials are not derived yet; call DeriveCredentials.
func NewSession(baseURL, privateKeyHex string) (*Session, error) {
	if len(privateKeyHex) > 1 && privateKeyHex[0:2] == "0x" {
		privateKeyHex = privateKeyHex[2:]
	}
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("clob: invalid private key: %w", err)
	}
	return &Session{
		Client:       NewClient(baseURL),
		privateKey:   key,
		address:      crypto.PubkeyToAddress(key.PublicKey),
		orderBuilder: builder.NewExchangeOrderBuilderImpl(big.NewInt(polygonChainID), nil),
	}, nil
}

// Address returns the wallet address.
func (s *Session) Address() string {
	return s.address.Hex()
}

// DeriveCredentials signs the ClobAuth payload and exchanges it for API
// credentials, replacing the session's only copy. Stateless and
// retry-free: backoff orchestration belongs to the caller.
func (s *Session) DeriveCredentials(ctx context.Context) error {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig, err := s.signClobAuth(ts, "0")
	if err != nil {
		return fmt.Errorf("clob: sign auth payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+deriveAPIKeyPath, nil)
	if err != nil {
		return fmt.Errorf("clob: derive-api-key request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("POLY-ADDRESS", s.address.Hex())
	req.Header.Set("POLY-SIGNATURE", sig)
	req.Header.Set("POLY-TIMESTAMP", ts)
	req.Header.Set("POLY-NONCE", "0")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("clob: derive-api-key: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &domain.AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var creds Credentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return fmt.Errorf("clob: parse credentials: %w", err)
	}
	s.creds = &creds
	return nil
}

// Reauthenticate implements ports.OrderExecutor: re-derive after a
// credential rejection mid-run.
func (s *Session) Reauthenticate(ctx context.Context) error {
	s.creds = nil
	return s.DeriveCredentials(ctx)
}

// EIP-712 type hashes (computed once).
var (
	eip712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId)",
	))
	clobAuthTypeHash = crypto.Keccak256Hash([]byte(
		"ClobAuth(address address,string timestamp,uint256 nonce,string message)",
	))
)

// clobAuthDomainSeparator computes the EIP-712 domain separator for
// ClobAuthDomain (name, version, chainId — no verifying contract).
func clobAuthDomainSeparator() common.Hash {
	var buf []byte
	buf = append(buf, eip712DomainTypeHash.Bytes()...)
	buf = append(buf, crypto.Keccak256Hash([]byte(clobDomainName)).Bytes()...)
	buf = append(buf, crypto.Keccak256Hash([]byte(clobDomainVersion)).Bytes()...)
	buf = append(buf, common.LeftPadBytes(big.NewInt(polygonChainID).Bytes(), 32)...)
	return crypto.Keccak256Hash(buf)
}

// signClobAuth signs the ClobAuth typed data for L1 auth.
func (s *Session) signClobAuth(timestamp, nonce string) (string, error) {
	nonceInt, ok := new(big.Int).SetString(nonce, 10)
	if !ok {
		return "", fmt.Errorf("invalid nonce: %s", nonce)
	}

	var structBuf []byte
	structBuf = append(structBuf, clobAuthTypeHash.Bytes()...)
	structBuf = append(structBuf, common.LeftPadBytes(s.address.Bytes(), 32)...)
	structBuf = append(structBuf, crypto.Keccak256Hash([]byte(timestamp)).Bytes()...)
	structBuf = append(structBuf, common.LeftPadBytes(nonceInt.Bytes(), 32)...)
	structBuf = append(structBuf, crypto.Keccak256Hash([]byte(clobAuthMessage)).Bytes()...)
	structHash := crypto.Keccak256Hash(structBuf)

	var rawBuf []byte
	rawBuf = append(rawBuf, 0x19, 0x01)
	rawBuf = append(rawBuf, clobAuthDomainSeparator().Bytes()...)
	rawBuf = append(rawBuf, structHash.Bytes()...)
	msgHash := crypto.Keccak256Hash(rawBuf)

	sig, err := crypto.Sign(msgHash.Bytes(), s.privateKey)
	if err != nil {
		return "", err
	}
	sig[64] += 27
	return "0x" + fmt.Sprintf("%x", sig), nil
}
