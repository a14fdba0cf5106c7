package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAppointmentMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAppointmentMetrics(reg)
	m.Observe("create", "201", 0.02)
	m.Observe("create", "201", 0.03)
	m.Observe("create", "400", 0.001)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("create", "201")); got != 2 {
		t.Fatalf("expected 2 created, got %v", got)
	}
}

func TestNotificationMetricsObserveSend(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewNotificationMetrics(reg)
	m.ObserveSend("patient", true)
	m.ObserveSend("doctor", false)

	if got := testutil.ToFloat64(m.sentTotal.WithLabelValues("doctor", "failed")); got != 1 {
		t.Fatalf("expected 1 failed doctor send, got %v", got)
	}
	if got := testutil.ToFloat64(m.sentTotal.WithLabelValues("patient", "sent")); got != 1 {
		t.Fatalf("expected 1 patient send, got %v", got)
	}
}

func TestAuthMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAuthMetrics(reg)
	m.Observe("sign_in", "invalid_credential")
	if got := testutil.CollectAndCount(m.attemptsTotal); got != 1 {
		t.Fatalf("expected one series, got %d", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var a *AppointmentMetrics
	a.Observe("list", "200", 0.1)
	var n *NotificationMetrics
	n.ObserveSend("patient", true)
	var au *AuthMetrics
	au.Observe("sign_up", "ok")
}
