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

// Package requestloop repeatedly fetches a single URL, one request at a time,
// with a fixed wait after every request.
package requestloop

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/metrics"
	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/utils"
)

const (
	// DefaultMaxRequests is the number of requests a Loop attempts.
	DefaultMaxRequests = 10000
	// DefaultInterval is the wait after every request.
	DefaultInterval = 10 * time.Second
)

var (
	errColor     = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
)

// Doer sends a single HTTP request. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// State is the position of a Loop in its request/wait cycle.
type State int

// Loop states.
const (
	StateIdle State = iota
	StateRequesting
	StateSucceeded
	StateFailed
	StateWaiting
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRequesting:
		return "Requesting"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateWaiting:
		return "Waiting"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Sleeper blocks for d, returning early with ctx.Err() if ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Observer is notified of every iteration's result.
type Observer func(result string, d time.Duration, bodyBytes int)

// Option configures a Loop.
type Option func(*Loop)

// WithMaxRequests overrides DefaultMaxRequests.
func WithMaxRequests(n int) Option {
	return func(l *Loop) {
		l.maxRequests = n
	}
}

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		l.interval = d
	}
}

// WithSleeper replaces the function used to wait between requests.
func WithSleeper(s Sleeper) Option {
	return func(l *Loop) {
		l.sleep = s
	}
}

// WithObserver replaces the prometheus recorder.
func WithObserver(o Observer) Option {
	return func(l *Loop) {
		l.observe = o
	}
}

// WithTransitionHook registers f to be called on every state change.
func WithTransitionHook(f func(from, to State)) Option {
	return func(l *Loop) {
		l.onTransition = f
	}
}

// Loop sends GET requests to a target. A Loop is not safe for concurrent use.
type Loop struct {
	client      Doer
	target      string
	out         *utils.CLIOutput
	maxRequests int
	interval    time.Duration
	sleep       Sleeper
	observe     Observer

	onTransition func(from, to State)
	state        State
	runID        uuid.UUID
}

// New creates a Loop in the Idle state.
func New(client Doer, target string, out *utils.CLIOutput, opts ...Option) *Loop {
	l := &Loop{
		client:      client,
		target:      target,
		out:         out,
		maxRequests: DefaultMaxRequests,
		interval:    DefaultInterval,
		sleep:       sleepContext,
		observe:     metrics.ObserveRequest,
		state:       StateIdle,
		runID:       uuid.Must(uuid.NewV4()),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current state.
func (l *Loop) State() State {
	return l.state
}

func (l *Loop) transition(to State) {
	from := l.state
	l.state = to
	log.WithField("run_id", l.runID.String()).
		WithField("from", from.String()).
		WithField("to", to.String()).
		Debug("Request loop state change")
	if l.onTransition != nil {
		l.onTransition(from, to)
	}
}

// Run attempts exactly maxRequests requests, waiting the interval after each one.
// Request failures are reported and never stop the loop. Run only returns an error
// when ctx is cancelled, along with the stats gathered so far.
func (l *Loop) Run(ctx context.Context) (*Stats, error) {
	log.WithField("run_id", l.runID.String()).
		WithField("target", l.target).
		WithField("max_requests", l.maxRequests).
		WithField("interval", l.interval).
		Info("Starting request loop")

	stats := &Stats{}
	for counter := 0; counter < l.maxRequests; counter++ {
		l.iterate(ctx, counter, stats)

		l.transition(StateWaiting)
		if err := l.sleep(ctx, l.interval); err != nil {
			l.transition(StateTerminated)
			log.WithField("run_id", l.runID.String()).
				WithField("attempted", stats.Attempted).
				WithError(err).
				Info("Request loop cancelled")
			return stats, err
		}
	}

	l.transition(StateTerminated)
	l.out.WithColor(successColor).Infof("Reached the maximum of %d requests, exiting.", l.maxRequests)
	return stats, nil
}

func (l *Loop) iterate(ctx context.Context, i int, stats *Stats) {
	l.transition(StateRequesting)
	l.out.Infof("Request %d: GET %s", i, l.target)

	start := time.Now()
	resp, err := l.send(ctx)
	if err != nil {
		l.transition(StateFailed)
		l.out.WithColor(errColor).WithError(err).Error("Request failed")
		stats.recordFailure()
		l.observe(metrics.ResultFailure, time.Since(start), 0)
		return
	}
	defer resp.Body.Close()

	l.transition(StateSucceeded)
	body, err := io.ReadAll(resp.Body)
	latency := time.Since(start)
	if err != nil {
		l.out.WithColor(warnColor).WithError(err).Error("Failed to read response text")
		stats.recordResponse(latency, len(body), true)
		l.observe(metrics.ResultDecodeError, latency, len(body))
		return
	}

	text, err := decodeText(body, resp.Header.Get("Content-Type"))
	if err != nil {
		l.out.WithColor(warnColor).WithError(err).Error("Failed to decode response text")
		l.out.Infof("Response [%d]: %s", resp.StatusCode, text)
		stats.recordResponse(latency, len(body), true)
		l.observe(metrics.ResultDecodeError, latency, len(body))
		return
	}

	l.out.Infof("Response [%d]: %s", resp.StatusCode, text)
	stats.recordResponse(latency, len(body), false)
	l.observe(metrics.ResultSuccess, latency, len(body))
}

func (l *Loop) send(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.target, nil)
	if err != nil {
		return nil, err
	}
	return l.client.Do(req)
}
