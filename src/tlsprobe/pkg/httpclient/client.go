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

package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/certs"
)

// DefaultTimeout bounds a single request, including reading the body.
const DefaultTimeout = 30 * time.Second

// ErrNoRootCertificates is returned when the client is built without a root certificate.
var ErrNoRootCertificates = errors.New("no root certificates to trust")

type options struct {
	timeout    time.Duration
	systemPool func() (*x509.CertPool, error)
}

// Option configures the client built by New.
type Option func(*options)

// WithTimeout overrides DefaultTimeout. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithSystemPool replaces the source of the default trust store.
func WithSystemPool(f func() (*x509.CertPool, error)) Option {
	return func(o *options) {
		o.systemPool = f
	}
}

// New builds an HTTPS client that trusts root in addition to the system roots.
func New(root *certs.RootCert, opts ...Option) (*http.Client, error) {
	if root == nil || len(root.Certificates()) == 0 {
		return nil, ErrNoRootCertificates
	}

	o := &options{
		timeout:    DefaultTimeout,
		systemPool: x509.SystemCertPool,
	}
	for _, opt := range opts {
		opt(o)
	}

	certPool, err := o.systemPool()
	if err != nil || certPool == nil {
		log.WithError(err).Warn("Failed to load system cert pool, trusting only the configured CA")
		certPool = x509.NewCertPool()
	}
	for _, c := range root.Certificates() {
		certPool.AddCert(c)
	}

	log.WithField("ca", root.Path()).
		WithField("fingerprints", root.Fingerprints()).
		Debug("Added CA certificate to the trust store")

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{
		RootCAs:    certPool,
		MinVersion: tls.VersionTLS12,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   o.timeout,
	}, nil
}
