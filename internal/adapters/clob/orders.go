package clob

// orders.go — order builder and submitter.
//
// The builder computes maker/taker amounts in integer micro-units with
// fixed-point decimals (floor at 6 dp — rounding up would overspend the
// budget or make the order unfillable) and signs the EIP-712 Order typed
// data via go-order-utils. The signing domain's verifying contract differs
// for negative-risk markets; the wrong one yields a signature the exchange
// rejects as invalid, not a business error.
//
// Submission is a single attempt, never auto-retried: the protocol offers
// no idempotency, so resubmitting after a timeout is not safe against
// duplicate fills.

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	gomodel "github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"

	"github.com/tradekit/autobot/internal/domain"
)

const (
	orderPath = "/order"

	// FOK: fill immediately and completely, or kill. No resting orders to
	// track, so the ledger only ever sees confirmed fills.
	orderTypeFOK = "FOK"

	// Exchange fee, basis points (2%). Part of the signed payload.
	feeRateBps = "200"
)

// clobOrderRequest is the JSON body sent to POST /order. All numeric order
// fields ride as decimal strings — token IDs and amounts exceed 2^53.
type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"`
}

type clobOrderBody struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          string `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

type clobOrderResponse struct {
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
}

// orderAmounts computes the two integer micro-unit legs of an order.
// BUY: maker = USDC offered, taker = shares requested.
// SELL: maker = shares offered, taker = USDC requested.
func orderAmounts(side domain.Side, price, amount float64) (maker, taker int64, err error) {
	if price <= 0 || price >= 1 {
		return 0, 0, &domain.InvalidOrderError{Reason: fmt.Sprintf("price %.4f outside (0, 1)", price)}
	}
	if amount <= 0 {
		return 0, 0, &domain.InvalidOrderError{Reason: fmt.Sprintf("non-positive amount %.6f", amount)}
	}

	amt := decimal.NewFromFloat(amount)
	px := decimal.NewFromFloat(price)

	switch side {
	case domain.SideBuy:
		maker = amt.RoundDown(6).Shift(6).IntPart()
		taker = amt.Div(px).RoundDown(6).Shift(6).IntPart()
	case domain.SideSell:
		maker = amt.RoundDown(6).Shift(6).IntPart()
		taker = amt.Mul(px).RoundDown(6).Shift(6).IntPart()
	default:
		return 0, 0, &domain.InvalidOrderError{Reason: "unknown side " + string(side)}
	}

	if maker <= 0 || taker <= 0 {
		return 0, 0, &domain.InvalidOrderError{
			Reason: fmt.Sprintf("degenerate amounts maker=%d taker=%d (price=%.4f amount=%.6f)", maker, taker, price, amount),
		}
	}
	return maker, taker, nil
}

// buildOrderBody signs the order and serializes it to the wire shape.
func (s *Session) buildOrderBody(req domain.PlaceOrderRequest) (clobOrderBody, error) {
	makerAmt, takerAmt, err := orderAmounts(req.Side, req.Price, req.Amount)
	if err != nil {
		return clobOrderBody{}, err
	}

	side := gomodel.BUY
	if req.Side == domain.SideSell {
		side = gomodel.SELL
	}

	verifyingContract := gomodel.CTFExchange
	if req.NegRisk {
		verifyingContract = gomodel.NegRiskCTFExchange
	}

	orderData := &gomodel.OrderData{
		Maker:         s.address.Hex(),
		Taker:         zeroAddress,
		TokenId:       req.TokenID,
		MakerAmount:   strconv.FormatInt(makerAmt, 10),
		TakerAmount:   strconv.FormatInt(takerAmt, 10),
		Side:          side,
		FeeRateBps:    feeRateBps,
		Nonce:         "0", // no on-chain replay nonce; the salt is the only uniqueness
		Signer:        s.address.Hex(),
		Expiration:    "0", // good-until-cancelled; FOK decides at match time anyway
		SignatureType: gomodel.EOA,
	}

	signed, err := s.orderBuilder.BuildSignedOrder(s.privateKey, orderData, verifyingContract)
	if err != nil {
		return clobOrderBody{}, fmt.Errorf("clob: sign order: %w", err)
	}

	return clobOrderBody{
		Salt:          signed.Order.Salt.String(),
		Maker:         signed.Order.Maker.Hex(),
		Signer:        signed.Order.Signer.Hex(),
		Taker:         signed.Order.Taker.Hex(),
		TokenID:       req.TokenID,
		MakerAmount:   signed.Order.MakerAmount.String(),
		TakerAmount:   signed.Order.TakerAmount.String(),
		Expiration:    signed.Order.Expiration.String(),
		Nonce:         signed.Order.Nonce.String(),
		FeeRateBps:    signed.Order.FeeRateBps.String(),
		Side:          string(req.Side),
		SignatureType: int(signed.Order.SignatureType.Int64()),
		Signature:     "0x" + hex.EncodeToString(signed.Signature),
	}, nil
}

// PlaceOrder implements ports.OrderExecutor.
//
// Outcome classification:
//   - *domain.InvalidOrderError / *domain.SubmissionError: nothing was sent.
//   - *domain.AuthError: credentials were rejected (401/403 or an "auth"
//     message); the caller re-derives and abandons this attempt.
//   - Filled / Rejected: a definitive exchange answer.
//   - Ambiguous: the request may have reached the exchange (transport error
//     in flight, timeout, unparseable body). Never resubmit the same salt.
func (s *Session) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.SubmitResult, error) {
	body, err := s.buildOrderBody(req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(clobOrderRequest{
		Order:     body,
		Owner:     s.credsAPIKey(),
		OrderType: orderTypeFOK,
	})
	if err != nil {
		return nil, &domain.SubmissionError{Op: "marshal order", Err: err}
	}
	bodyStr := string(payload)

	headers, err := l2Headers(s.creds, s.address.Hex(), http.MethodPost, orderPath, bodyStr, time.Now())
	if err != nil {
		return nil, &domain.SubmissionError{Op: "sign request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+orderPath, strings.NewReader(bodyStr))
	if err != nil {
		return nil, &domain.SubmissionError{Op: "build request", Err: err}
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := s.http.Do(httpReq)
	if err != nil {
		// In flight: the exchange may or may not have seen the order.
		return domain.Ambiguous{}, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &domain.AuthError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed clobOrderResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return domain.Ambiguous{HTTPStatus: resp.StatusCode}, nil
	}

	// The only success signal the protocol provides: a truthy success flag
	// or a non-empty order ID. HTTP 200 alone proves nothing.
	if parsed.Success || parsed.OrderID != "" {
		return domain.Filled{OrderID: parsed.OrderID}, nil
	}

	if strings.Contains(strings.ToLower(parsed.ErrorMsg), "auth") {
		return nil, &domain.AuthError{Status: resp.StatusCode, Body: parsed.ErrorMsg}
	}

	reason := parsed.ErrorMsg
	if reason == "" {
		reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return domain.Rejected{Reason: reason}, nil
}

func (s *Session) credsAPIKey() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.APIKey
}
