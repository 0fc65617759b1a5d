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
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// ErrInvalidUTF8 is returned when a body without a declared charset is not UTF-8.
var ErrInvalidUTF8 = errors.New("response body is not valid UTF-8")

// decodeText decodes body using the charset declared in contentType, defaulting to UTF-8.
// On error the returned text is a lossy rendering of the body.
func decodeText(body []byte, contentType string) (string, error) {
	lossy := strings.ToValidUTF8(string(body), string(utf8.RuneError))

	label := ""
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			label = params["charset"]
		}
	}

	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		if !utf8.Valid(body) {
			return lossy, ErrInvalidUTF8
		}
		return string(body), nil
	}

	enc, name := charset.Lookup(label)
	if enc == nil {
		return lossy, fmt.Errorf("unsupported charset %q", label)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return lossy, fmt.Errorf("failed to decode %s body: %w", name, err)
	}
	return string(decoded), nil
}
