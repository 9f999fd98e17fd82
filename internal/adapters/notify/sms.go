package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tradekit/autobot/internal/domain"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// SMS sends a short message per realized trade via the Twilio REST API.
// Delivery is best effort: a failed send is logged and never blocks trading.
type SMS struct {
	http       *http.Client
	accountSID string
	authToken  string
	from       string
	to         string
}

// NewSMS returns nil if any credential is missing, so callers can treat the
// notifier as simply not configured.
func NewSMS(accountSID, authToken, from, to string) *SMS {
	if accountSID == "" || authToken == "" || from == "" || to == "" {
		return nil
	}
	return &SMS{
		http:       &http.Client{Timeout: 10 * time.Second},
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		to:         to,
	}
}

// Status is a no-op; SMS announces realized trades only.
func (s *SMS) Status(context.Context, domain.LedgerState, []domain.Opportunity) error {
	return nil
}

// TradeClosed sends one message summarizing the realized trade.
func (s *SMS) TradeClosed(ctx context.Context, trade domain.RealizedTrade, totalPnL float64) {
	emoji := "📈"
	if trade.Profit < 0 {
		emoji = "📉"
	}
	body := fmt.Sprintf("%s Trade closed: %s (%s)\n%.1f shares @ %.0fc\nP&L: $%+.2f | Total: $%+.2f",
		emoji, truncate(trade.Question, 60), trade.Outcome,
		trade.Shares, trade.ExitPrice*100, trade.Profit, totalPnL)

	if err := s.send(ctx, body); err != nil {
		slog.Warn("sms send failed", "error", err)
	}
}

func (s *SMS) send(ctx context.Context, body string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioBaseURL, s.accountSID)

	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", s.to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}
