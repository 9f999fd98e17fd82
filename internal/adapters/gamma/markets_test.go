package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marketJSON(i int) string {
	return fmt.Sprintf(`{
		"id": "m%d",
		"conditionId": "0xcond%d",
		"slug": "market-%d",
		"question": "Question %d?",
		"negRisk": %t,
		"endDate": "2025-06-10T12:00:00Z",
		"liquidityNum": 15000.5,
		"volume24hr": 4200,
		"outcomes": "[\"Yes\", \"No\"]",
		"outcomePrices": "[\"0.12\", \"0.88\"]",
		"clobTokenIds": "[\"10%d\", \"20%d\"]"
	}`, i, i, i, i, i%2 == 0, i, i)
}

func TestFetchActiveMarketsPagination(t *testing.T) {
	var offsets []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, offset)
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		assert.Equal(t, "false", r.URL.Query().Get("closed"))
		assert.Equal(t, "true", r.URL.Query().Get("enableOrderBook"))

		// two full pages then a short one
		n := 100
		if offset >= 200 {
			n = 7
		}
		items := make([]string, n)
		for i := range items {
			items[i] = marketJSON(offset + i)
		}
		fmt.Fprintf(w, "[%s]", joinComma(items))
	}))
	defer srv.Close()

	markets, err := NewClient(srv.URL).FetchActiveMarkets(context.Background())
	require.NoError(t, err)
	assert.Len(t, markets, 207)
	assert.Equal(t, []int{0, 100, 200}, offsets, "stops after a short page")
}

func TestFetchActiveMarketsMapsFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			fmt.Fprint(w, "[]")
			return
		}
		fmt.Fprint(w, "["+marketJSON(0)+"]")
	}))
	defer srv.Close()

	markets, err := NewClient(srv.URL).FetchActiveMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 1)

	m := markets[0]
	assert.Equal(t, "0xcond0", m.ConditionID)
	assert.Equal(t, "Question 0?", m.Question)
	assert.True(t, m.NegRisk)
	assert.InDelta(t, 15000.5, m.Liquidity, 1e-9)
	assert.InDelta(t, 4200.0, m.Volume24h, 1e-9)
	assert.Equal(t, 2025, m.EndDate.Year())

	require.Len(t, m.Outcomes, 2)
	assert.Equal(t, "Yes", m.Outcomes[0].Label)
	assert.Equal(t, "100", m.Outcomes[0].TokenID)
	assert.InDelta(t, 0.12, m.Outcomes[0].Price, 1e-9)
	assert.InDelta(t, 0.88, m.Outcomes[1].Price, 1e-9)
}

func TestFetchActiveMarketsFirstPageFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchActiveMarkets(context.Background())
	assert.Error(t, err)
}

func TestFetchActiveMarketsLaterPageFailureIsPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		items := make([]string, 100)
		for i := range items {
			items[i] = marketJSON(i)
		}
		fmt.Fprintf(w, "[%s]", joinComma(items))
	}))
	defer srv.Close()

	markets, err := NewClient(srv.URL).FetchActiveMarkets(context.Background())
	require.NoError(t, err, "partial catalog beats no catalog")
	assert.Len(t, markets, 100)
}

func TestDecodeStringArrayBothEncodings(t *testing.T) {
	direct := decodeStringArray(json.RawMessage(`["Yes","No"]`))
	assert.Equal(t, []string{"Yes", "No"}, direct)

	nested := decodeStringArray(json.RawMessage(`"[\"Yes\",\"No\"]"`))
	assert.Equal(t, []string{"Yes", "No"}, nested)

	assert.Nil(t, decodeStringArray(nil))
	assert.Nil(t, decodeStringArray(json.RawMessage(`"not an array"`)))
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
