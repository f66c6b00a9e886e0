package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.PushItems.WithLabelValues(ResultCommitted).Add(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.PushItems.WithLabelValues(ResultCommitted)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PushItems.WithLabelValues(ResultCommitted)))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := NewNop()
	m.PulledChanges.Add(3)
	m.AuthAttempts.WithLabelValues("ok").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "kidsbank_pulled_changes_total 3")
	assert.Contains(t, string(body), `kidsbank_auth_attempts_total{result="ok"} 1`)
}
