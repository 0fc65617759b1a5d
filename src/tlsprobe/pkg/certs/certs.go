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

// Package certs loads the PEM encoded CA certificate that the request client trusts.
package certs

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
)

const pemCertificateType = "CERTIFICATE"

// ErrNoCertificate is returned when the file holds no CERTIFICATE PEM block.
var ErrNoCertificate = errors.New("no PEM certificate found")

// ParseError is returned when a CERTIFICATE block cannot be parsed.
type ParseError struct {
	Path  string
	Block int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse certificate block %d in %s: %v", e.Block, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RootCert is a certificate to install as an additional root of trust.
type RootCert struct {
	path  string
	certs []*x509.Certificate
}

// LoadRootCert reads the file at path and parses every CERTIFICATE block in it.
func LoadRootCert(path string) (*RootCert, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CA certificate: %w", err)
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}
	return ParsePEM(path, buf)
}

// ParsePEM parses buf, read from path, as PEM encoded certificates.
func ParsePEM(path string, buf []byte) (*RootCert, error) {
	rc := &RootCert{path: path}
	rest := buf
	for idx := 0; ; idx++ {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != pemCertificateType {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, &ParseError{Path: path, Block: idx, Err: err}
		}
		rc.certs = append(rc.certs, cert)
	}
	if len(rc.certs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoCertificate)
	}
	return rc, nil
}

// Path returns the file the certificates were loaded from.
func (r *RootCert) Path() string {
	return r.path
}

// Certificates returns the parsed certificates in file order.
func (r *RootCert) Certificates() []*x509.Certificate {
	out := make([]*x509.Certificate, len(r.certs))
	copy(out, r.certs)
	return out
}

// Fingerprints returns the hex SHA-256 of each certificate in file order.
func (r *RootCert) Fingerprints() []string {
	fps := make([]string, len(r.certs))
	for i, c := range r.certs {
		sum := sha256.Sum256(c.Raw)
		fps[i] = hex.EncodeToString(sum[:])
	}
	return fps
}

// Subjects returns the subject of each certificate in file order.
func (r *RootCert) Subjects() []string {
	subjects := make([]string, len(r.certs))
	for i, c := range r.certs {
		subjects[i] = c.Subject.String()
	}
	return subjects
}
