package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecorderCountersIncrement(t *testing.T) {
	t.Parallel()

	r := New()
	r.ProviderCall("AAPL", true)
	r.ProviderCall("AAPL", false)
	r.CacheHit("AAPL")
	r.CacheMiss("MSFT")
	r.ObserveTick(15 * time.Millisecond)
	r.RecordTrade("BUY")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestRecorderIndependentRegistries(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()
	a.CacheHit("AAPL")

	assert.NotPanics(t, func() {
		b.CacheHit("AAPL")
	})
}
