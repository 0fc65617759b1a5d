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

// Package cmd implements the send_request command.
package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/certs"
	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/config"
	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/httpclient"
	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/metrics"
	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/requestloop"
	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/utils"
)

const (
	metricsAddrKey = "metrics_addr"
	metricsAddrEnv = "METRICS_ADDR"
)

var errColor = color.New(color.FgRed)

func init() {
	levelStr := os.Getenv("LOG_LEVEL")
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	RootCmd.Flags().String(metricsAddrKey, "", "Address to serve prometheus metrics on. Disabled when empty")
}

// RootCmd requests the backend test file over TLS until the request limit is reached.
var RootCmd = &cobra.Command{
	Use:           "send_request",
	Short:         "Repeatedly fetch the backend test file over TLS",
	Long:          "Fetches $BACKEND_URL/testfile.txt over HTTPS, trusting the CA certificate at $CA_CERT_PATH.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		bindFlags(v, cmd.Flags())
		return utils.RunWithInterruptibleContext(func(ctx context.Context) error {
			_, err := run(ctx, v, utils.DefaultCLIOutput())
			return err
		})
	},
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	// Both calls only fail on a nil flag or an empty key.
	_ = v.BindPFlag(metricsAddrKey, fs.Lookup(metricsAddrKey))
	_ = v.BindEnv(metricsAddrKey, metricsAddrEnv)
}

// run validates the configuration before touching the filesystem or the network.
func run(ctx context.Context, v *viper.Viper, out *utils.CLIOutput, opts ...requestloop.Option) (*requestloop.Stats, error) {
	cfg, err := config.Load(v)
	if err != nil {
		out.WithColor(errColor).Error(err.Error())
		return nil, err
	}

	root, err := certs.LoadRootCert(cfg.CACertPath)
	if err != nil {
		out.WithColor(errColor).Error(err.Error())
		return nil, err
	}
	log.WithField("path", root.Path()).
		WithField("subjects", root.Subjects()).
		Info("Loaded CA certificate")

	client, err := httpclient.New(root)
	if err != nil {
		out.WithColor(errColor).WithError(err).Error("Failed to build client")
		return nil, err
	}

	loop := requestloop.New(client, cfg.TargetURL(), out, opts...)
	stats, err := runLoop(ctx, loop, v.GetString(metricsAddrKey))
	if stats != nil {
		stats.Render(out.Out())
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return stats, nil
	}
	return stats, err
}

func runLoop(ctx context.Context, loop *requestloop.Loop, metricsAddr string) (*requestloop.Stats, error) {
	if metricsAddr == "" {
		return loop.Run(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	var stats *requestloop.Stats
	g.Go(func() error {
		defer stopServing()
		var err error
		stats, err = loop.Run(gctx)
		return err
	})
	g.Go(func() error {
		return metrics.Serve(serveCtx, metricsAddr)
	})
	err := g.Wait()
	return stats, err
}
