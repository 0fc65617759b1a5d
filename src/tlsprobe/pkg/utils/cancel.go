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

package utils

import (
	"context"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
)

// RunWithInterruptibleContext runs f with a context that is cancelled on the first
// interrupt. A second interrupt exits the process without cleanup.
func RunWithInterruptibleContext(f func(context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	go func() {
		select {
		case <-c:
		case <-ctx.Done():
			return
		}
		cancel()
		log.Info("Received interrupt. Stopping after the current request...")
		select {
		case <-c:
		case <-ctx.Done():
			return
		}
		log.Info("Received second interrupt. Exiting ungracefully...")
		os.Exit(1)
	}()

	return f(ctx)
}
