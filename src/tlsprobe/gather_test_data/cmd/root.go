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

// Package cmd implements the gather_test_data command.
package cmd

import (
	"context"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/profiler"
	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/utils"
)

func init() {
	levelStr := os.Getenv("LOG_LEVEL")
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// RootCmd profiles the send_request binary of the current build mode.
var RootCmd = &cobra.Command{
	Use:           "gather_test_data",
	Short:         "Count CPU cycles of send_request with perf stat",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return utils.RunWithInterruptibleContext(func(ctx context.Context) error {
			return run(ctx, profiler.NewExecRunner(), utils.DefaultCLIOutput(), profiler.TargetBinary())
		})
	},
}

// run only fails when perf could not be started.
func run(ctx context.Context, runner profiler.Runner, out *utils.CLIOutput, binary string) error {
	log.WithField("build_mode", profiler.BuildMode).Debug("Selected target binary")
	if err := profiler.New(runner, out).Run(ctx, binary); err != nil {
		out.WithColor(color.New(color.FgRed)).WithError(err).Error("Failed to execute command")
		return err
	}
	return nil
}
