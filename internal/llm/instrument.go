package llm

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/internal/logger"
)

// Metrics holds the prometheus collectors for generation calls.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the generation collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patient_education",
			Subsystem: "generation",
			Name:      "calls_total",
			Help:      "Generation service calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "patient_education",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Generation service call latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration)
	}
	return m
}

type instrumented struct {
	next    Client
	log     *logrus.Entry
	metrics *Metrics
}

// Instrument wraps next so every call is logged and counted.
func Instrument(next Client, l *logger.Logger, m *Metrics) Client {
	return &instrumented{next: next, log: l.WithComponent("llm"), metrics: m}
}

func (c *instrumented) GenerateText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := c.next.GenerateText(ctx, prompt)
	c.observe("text", start, len(prompt), err)
	return text, err
}

func (c *instrumented) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	start := time.Now()
	text, err := c.next.GenerateWithImage(ctx, prompt, image, mimeType)
	c.observe("image", start, len(prompt), err)
	return text, err
}

func (c *instrumented) observe(op string, start time.Time, promptLen int, err error) {
	elapsed := time.Since(start)
	outcome := "success"
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		outcome = string(genErr.Reason)
	} else if err != nil {
		outcome = "error"
	}

	c.metrics.calls.WithLabelValues(op, outcome).Inc()
	c.metrics.duration.WithLabelValues(op).Observe(elapsed.Seconds())

	entry := c.log.WithFields(logrus.Fields{
		"operation":     op,
		"outcome":       outcome,
		"prompt_length": promptLen,
		"duration_ms":   elapsed.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("generation call failed")
		return
	}
	entry.Debug("generation call completed")
}
