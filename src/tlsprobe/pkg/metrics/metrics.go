/*
 * Copyright 2018- The Pixie Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Request results used as the "result" label.
const (
	ResultSuccess     = "success"
	ResultFailure     = "failure"
	ResultDecodeError = "decode_error"
)

var (
	// RequestsTotal counts request loop iterations by outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tlsprobe_requests_total",
			Help: "Total number of GET requests attempted by the request loop",
		},
		[]string{"result"},
	)

	// RequestDuration is the time from sending the request to reading the full body.
	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tlsprobe_request_duration_seconds",
			Help:    "Duration of a single GET request including the TLS handshake and body read",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ResponseBytes counts response body bytes read.
	ResponseBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tlsprobe_response_bytes_total",
			Help: "Total number of response body bytes received",
		},
	)
)

// ObserveRequest records one request loop iteration.
func ObserveRequest(result string, d time.Duration, bodyBytes int) {
	RequestsTotal.WithLabelValues(result).Inc()
	if result == ResultFailure {
		return
	}
	RequestDuration.Observe(d.Seconds())
	ResponseBytes.Add(float64(bodyBytes))
}

// mux is an interface describing the methods MustRegisterMetricsHandler requires.
type mux interface {
	Handle(pattern string, handler http.Handler)
}

// MustRegisterMetricsHandler registers the metrics endpoint.
func MustRegisterMetricsHandler(mux mux) {
	mux.Handle("/metrics", promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	m := http.NewServeMux()
	MustRegisterMetricsHandler(m)
	srv := &http.Server{
		Addr:              addr,
		Handler:           m,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Failed to shut down metrics server")
		}
	}()

	log.WithField("addr", addr).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
