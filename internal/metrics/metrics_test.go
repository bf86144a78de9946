package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAuthMetrics_ObserveOperation(t *testing.T) {
	authMetrics := NewAuthMetrics(prometheus.NewRegistry())

	authMetrics.ObserveOperation("login", nil)
	authMetrics.ObserveOperation("login", errors.New("boom"))
	authMetrics.ObserveOperation("login", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(authMetrics.operations.WithLabelValues("login", ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(authMetrics.operations.WithLabelValues("login", ResultFailure)))
}

func TestAuthMetrics_ObserveHash(t *testing.T) {
	registry := prometheus.NewRegistry()
	authMetrics := NewAuthMetrics(registry)

	authMetrics.ObserveHash("verify", time.Now())

	assert.Equal(t, 1, testutil.CollectAndCount(authMetrics.hashDuration))
}

func TestAuthMetrics_NilIsNoop(t *testing.T) {
	var authMetrics *AuthMetrics
	assert.NotPanics(t, func() {
		authMetrics.ObserveOperation("login", nil)
		authMetrics.ObserveHash("hash", time.Now())
	})
}
