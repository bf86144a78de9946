package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"time"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// AuthMetrics счетчики операций аутентификации. Методы безопасно вызывать у nil.
type AuthMetrics struct {
	operations   *prometheus.CounterVec
	hashDuration *prometheus.HistogramVec
}

func NewAuthMetrics(registerer prometheus.Registerer) *AuthMetrics {
	authMetrics := &AuthMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verifly",
			Name:      "auth_operations_total",
			Help:      "Количество операций аутентификации по типу и результату.",
		}, []string{"operation", "result"}),
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "verifly",
			Name:      "password_hash_seconds",
			Help:      "Время хэширования и проверки паролей.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
	}

	registerer.MustRegister(authMetrics.operations, authMetrics.hashDuration)
	return authMetrics
}

func (authMetrics *AuthMetrics) ObserveOperation(operation string, err error) {
	if authMetrics == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	authMetrics.operations.WithLabelValues(operation, result).Inc()
}

func (authMetrics *AuthMetrics) ObserveHash(op string, started time.Time) {
	if authMetrics == nil {
		return
	}
	authMetrics.hashDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
