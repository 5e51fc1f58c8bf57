package constituent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const holdingsPreamble = `iShares Russell 2000 ETF
Fund Holdings as of,"Aug 29, 2025"
Inception Date,"May 22, 2000"

Ticker,Name,Sector,Asset Class,Market Value,Weight (%)
`

func holdingsCSV(tickers []string) string {
	var b strings.Builder
	b.WriteString(holdingsPreamble)
	for _, t := range tickers {
		fmt.Fprintf(&b, "%s,\"Some Corp\",Industrials,Equity,\"1,000\",0.05\n", t)
	}
	b.WriteString("XTSLA,\"BLK CSH FND TREASURY SL AGENCY\",Cash and/or Derivatives,Money Market,\"9,999\",0.10\n")
	b.WriteString("USD,\"US DOLLAR\",Cash and/or Derivatives,Cash,\"1\",0.00\n")
	return b.String()
}

func syntheticTickers(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("T%c%c", 'A'+i/26%26, 'A'+i%26))
	}
	return out
}

func TestExtractTickers(t *testing.T) {
	records := [][]string{
		{"iShares Core S&P 500 ETF"},
		{"Fund Holdings as of", "Aug 29, 2025"},
		{"Ticker", "Name"},
		{"AAPL", "APPLE INC"},
		{"MSFT", "MICROSOFT CORP"},
		{"BRK-B", "BERKSHIRE HATHAWAY CLASS B"},
		{"BF.B", "BROWN FORMAN CLASS B"},
		{"AAPL", "APPLE INC"}, // duplicate
		{"XTSLA", "CASH FUND"},
		{"USD", "US DOLLAR"},
	}
	got := extractTickers(records)
	assert.Equal(t, []string{"AAPL", "MSFT", "BRK-B", "BF.B"}, got)
}

func TestIsEquityTicker(t *testing.T) {
	for _, ok := range []string{"A", "AAPL", "BRK-B", "BF.B", "GOOGL"} {
		assert.True(t, isEquityTicker(ok), ok)
	}
	for _, bad := range []string{"", "CASH", "USD", "TOTAL", "-", "1234", "TOOLONGX", "AB CD"} {
		assert.False(t, isEquityTicker(bad), bad)
	}
}

func TestRussell2000CachesResult(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(holdingsCSV(syntheticTickers(120))))
	}))
	defer srv.Close()

	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := NewService(srv.Client(), WithBaseURL(srv.URL))
	svc.now = func() time.Time { return now }

	first, cached, err := svc.Russell2000(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, first, 120)

	second, cached, err := svc.Russell2000(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	// cache expires after the TTL
	now = now.Add(25 * time.Hour)
	_, cached, err = svc.Russell2000(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, calls)
}

func TestRussell2000RejectsShortList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(holdingsCSV([]string{"AAPL", "MSFT"})))
	}))
	defer srv.Close()

	svc := NewService(srv.Client(), WithBaseURL(srv.URL))
	_, _, err := svc.Russell2000(context.Background())
	assert.ErrorContains(t, err, "format change")
}

func TestSP500CapsAtIndexSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(holdingsCSV(syntheticTickers(520))))
	}))
	defer srv.Close()

	svc := NewService(srv.Client(), WithBaseURL(srv.URL))
	got, err := svc.SP500(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 505)
}

func TestSP500UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	svc := NewService(srv.Client(), WithBaseURL(srv.URL))
	_, err := svc.SP500(context.Background())
	assert.ErrorContains(t, err, "403")
}
