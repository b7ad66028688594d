package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// redirectTransport sends every Omise API call to a local test server.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	req.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

type omiseCall struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

type fakeOmise struct {
	mu        sync.Mutex
	calls     []omiseCall
	responses map[string]string
}

func (f *fakeOmise) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, omiseCall{Method: r.Method, Path: r.URL.Path, Body: body})
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"object":"error","status":404,"code":"not_found","message":"no such path"}`)
		return
	}
	_, _ = io.WriteString(w, resp)
}

func (f *fakeOmise) requests() []omiseCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]omiseCall(nil), f.calls...)
}

func newTestOmise(t *testing.T, responses map[string]string) (*Omise, *fakeOmise) {
	t.Helper()

	fake := &fakeOmise{responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	g, err := NewOmise("pkey_test_moveup", "skey_test_moveup", zap.NewNop())
	require.NoError(t, err)
	g.client.Client = &http.Client{Transport: redirectTransport{target: target}}
	return g, fake
}

func TestNewOmise_RejectsMalformedKeys(t *testing.T) {
	_, err := NewOmise("public", "secret", zap.NewNop())
	assert.Error(t, err)
}

func TestOmise_AuthorizeCreatesUncapturedCharge(t *testing.T) {
	g, fake := newTestOmise(t, map[string]string{
		"POST /charges": `{"object":"charge","id":"chrg_test_1","status":"pending","authorized":true}`,
	})
	bookingID := uuid.New()

	ref, err := g.Authorize(context.Background(), AuthorizeRequest{
		BookingID: bookingID,
		Amount:    decimal.RequireFromString("50.00"),
		Currency:  "EUR",
		Source:    "tokn_test_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "chrg_test_1", ref)

	calls := fake.requests()
	require.Len(t, calls, 1)
	assert.Equal(t, false, calls[0].Body["capture"])
	assert.Equal(t, float64(5000), calls[0].Body["amount"])
	assert.Equal(t, "eur", calls[0].Body["currency"])
	assert.Equal(t, "tokn_test_1", calls[0].Body["card"])
	metadata, ok := calls[0].Body["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, bookingID.String(), metadata["booking_id"])
}

func TestOmise_AuthorizeDeclined(t *testing.T) {
	g, _ := newTestOmise(t, map[string]string{
		"POST /charges": `{"object":"charge","id":"chrg_test_2","status":"failed","failure_code":"insufficient_fund"}`,
	})

	_, err := g.Authorize(context.Background(), AuthorizeRequest{
		BookingID: uuid.New(),
		Amount:    decimal.NewFromInt(50),
		Currency:  "EUR",
	})
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Contains(t, err.Error(), "insufficient_fund")
}

func TestOmise_Capture(t *testing.T) {
	g, fake := newTestOmise(t, map[string]string{
		"POST /charges/chrg_test_1/capture": `{"object":"charge","id":"chrg_test_1","status":"successful","paid":true}`,
	})

	require.NoError(t, g.Capture(context.Background(), "chrg_test_1"))
	require.Len(t, fake.requests(), 1)

	assert.Error(t, g.Capture(context.Background(), "chrg_missing"))
}

func TestOmise_ReleaseReversesHold(t *testing.T) {
	g, fake := newTestOmise(t, map[string]string{
		"POST /charges/chrg_test_1/reverse": `{"object":"charge","id":"chrg_test_1","status":"reversed","reversed":true}`,
	})

	require.NoError(t, g.Release(context.Background(), "chrg_test_1"))

	calls := fake.requests()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/charges/chrg_test_1/reverse", calls[0].Path)
}

func TestOmise_RefundTagsKey(t *testing.T) {
	g, fake := newTestOmise(t, map[string]string{
		"GET /charges/chrg_test_1/refunds":  `{"object":"list","data":[]}`,
		"POST /charges/chrg_test_1/refunds": `{"object":"refund","id":"rfnd_test_1","amount":5000,"charge":"chrg_test_1"}`,
	})

	ref, err := g.Refund(context.Background(), "chrg_test_1", decimal.NewFromInt(50), "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "rfnd_test_1", ref)

	calls := fake.requests()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Equal(t, http.MethodPost, calls[1].Method)
	assert.Equal(t, float64(5000), calls[1].Body["amount"])
	metadata, ok := calls[1].Body["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "txn-1", metadata[refundKeyField])
}

func TestOmise_RefundReusesTaggedRefund(t *testing.T) {
	g, fake := newTestOmise(t, map[string]string{
		"GET /charges/chrg_test_1/refunds": `{"object":"list","data":[
			{"object":"refund","id":"rfnd_other","amount":1000,"metadata":{"refund_key":"txn-0"}},
			{"object":"refund","id":"rfnd_test_1","amount":5000,"metadata":{"refund_key":"txn-1"}}
		]}`,
	})

	ref, err := g.Refund(context.Background(), "chrg_test_1", decimal.NewFromInt(50), "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "rfnd_test_1", ref)

	for _, call := range fake.requests() {
		assert.NotEqual(t, http.MethodPost, call.Method, "no new refund may be created")
	}
}
