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

// Package profiler runs a binary under `perf stat` and reports the captured output.
package profiler

import (
	"context"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/utils"
)

const (
	// PerfBinary is the profiler executable, resolved through PATH.
	PerfBinary = "perf"
	// DefaultEvent is the hardware event counted by perf stat.
	DefaultEvent = "cycles"
)

var (
	headerOKColor  = color.New(color.FgGreen)
	headerErrColor = color.New(color.FgRed)
)

// PerfStatArgs returns the perf arguments that count event for a single run of binary.
func PerfStatArgs(event, binary string) []string {
	return []string{"stat", "-e", event, binary}
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithEvent overrides DefaultEvent.
func WithEvent(event string) Option {
	return func(p *Profiler) {
		p.event = event
	}
}

// Profiler runs a target binary under perf stat.
type Profiler struct {
	runner Runner
	out    *utils.CLIOutput
	event  string
}

// New creates a Profiler.
func New(runner Runner, out *utils.CLIOutput, opts ...Option) *Profiler {
	p := &Profiler{
		runner: runner,
		out:    out,
		event:  DefaultEvent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Profile runs binary under perf stat and waits for it to exit. The error is non-nil only
// when perf could not be spawned; a non-zero exit status is reported through the Output.
func (p *Profiler) Profile(ctx context.Context, binary string) (*Output, error) {
	args := PerfStatArgs(p.event, binary)
	log.WithField("binary", binary).WithField("event", p.event).Info("Profiling binary")

	start := time.Now()
	out, err := p.runner.Run(ctx, PerfBinary, args...)
	if err != nil {
		log.WithError(err).Error("Failed to execute command")
		return nil, err
	}
	log.WithField("exit_code", out.ExitCode).
		WithField("elapsed", time.Since(start)).
		Debug("Profiled binary exited")
	return out, nil
}

// Report prints the captured output streams followed by the exit status.
func (p *Profiler) Report(out *Output) {
	p.out.WithColor(headerOKColor).Info("Standard Output:")
	p.out.Info(string(out.Stdout))
	p.out.WithColor(headerErrColor).Info("Standard Error:")
	p.out.Info(string(out.Stderr))

	if out.Success() {
		p.out.WithColor(headerOKColor).Info("Command executed successfully!")
		return
	}
	p.out.WithColor(headerErrColor).Infof("Command failed with status: %d", out.ExitCode)
}

// Run profiles binary and reports the result.
func (p *Profiler) Run(ctx context.Context, binary string) error {
	out, err := p.Profile(ctx, binary)
	if err != nil {
		return err
	}
	p.Report(out)
	return nil
}
