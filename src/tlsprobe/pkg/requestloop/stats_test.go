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

package requestloop_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/requestloop"
)

func TestStats_LatencyEmpty(t *testing.T) {
	s := &requestloop.Stats{}
	assert.Equal(t, requestloop.LatencySummary{}, s.Latency())
}

func TestStats_RenderAfterRun(t *testing.T) {
	i := 0
	client := doerFunc(func(req *http.Request) (*http.Response, error) {
		defer func() { i++ }()
		if i%2 == 1 {
			return nil, errors.New("timeout")
		}
		return textResponse(http.StatusOK, "", make([]byte, 1000)), nil
	})
	out, _, _ := newOutput()

	stats, err := requestloop.New(client, target, out,
		requestloop.WithMaxRequests(4),
		requestloop.WithSleeper((&recordingSleeper{}).sleep),
		requestloop.WithObserver((&recordingObserver{}).observe)).Run(context.Background())
	require.NoError(t, err)

	lat := stats.Latency()
	assert.True(t, lat.P50 <= lat.P95)
	assert.True(t, lat.P95 <= lat.P99)
	assert.True(t, lat.Mean >= 0)

	var buf bytes.Buffer
	stats.Render(&buf)
	rendered := buf.String()
	assert.Contains(t, rendered, "ATTEMPTED")
	assert.Contains(t, rendered, "DECODE ERRORS")
	assert.Contains(t, rendered, "2.0 kB")
}
