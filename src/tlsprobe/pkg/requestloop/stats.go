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

package requestloop

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Stats summarizes the iterations of a single Run.
type Stats struct {
	Attempted     int
	Succeeded     int
	Failed        int
	DecodeErrors  int
	BytesReceived uint64

	latencies []time.Duration
}

// LatencySummary holds the latency distribution of the requests that got a response.
type LatencySummary struct {
	Mean time.Duration
	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
}

func (s *Stats) recordFailure() {
	s.Attempted++
	s.Failed++
}

func (s *Stats) recordResponse(latency time.Duration, n int, decodeErr bool) {
	s.Attempted++
	s.Succeeded++
	if decodeErr {
		s.DecodeErrors++
	}
	s.BytesReceived += uint64(n)
	s.latencies = append(s.latencies, latency)
}

// Latency computes the latency summary. The zero value is returned when no request got a response.
func (s *Stats) Latency() LatencySummary {
	if len(s.latencies) == 0 {
		return LatencySummary{}
	}

	sorted := make([]time.Duration, len(s.latencies))
	copy(sorted, s.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, lat := range sorted {
		sum += lat
	}

	return LatencySummary{
		Mean: sum / time.Duration(len(sorted)),
		P50:  sorted[len(sorted)*50/100],
		P95:  sorted[len(sorted)*95/100],
		P99:  sorted[len(sorted)*99/100],
	}
}

// Render writes the stats as a table.
func (s *Stats) Render(w io.Writer) {
	lat := s.Latency()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Attempted", "Succeeded", "Failed", "Decode Errors", "Received", "Mean", "P50", "P95", "P99"})
	table.Append([]string{
		fmt.Sprintf("%d", s.Attempted),
		fmt.Sprintf("%d", s.Succeeded),
		fmt.Sprintf("%d", s.Failed),
		fmt.Sprintf("%d", s.DecodeErrors),
		humanize.Bytes(s.BytesReceived),
		lat.Mean.Round(time.Microsecond).String(),
		lat.P50.Round(time.Microsecond).String(),
		lat.P95.Round(time.Microsecond).String(),
		lat.P99.Round(time.Microsecond).String(),
	})
	table.Render()
}
