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

package httpclient_test

import (
	"crypto/x509"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/certs"
	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/httpclient"
	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/testutils"
)

var testfileHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("hello pqc"))
})

func emptySystemPool() (*x509.CertPool, error) {
	return x509.NewCertPool(), nil
}

func loadRoot(t *testing.T, ca *testutils.CA) *certs.RootCert {
	rc, err := certs.LoadRootCert(ca.WritePEM(t))
	require.NoError(t, err)
	return rc
}

func get(t *testing.T, c *http.Client, url string) (string, error) {
	resp, err := c.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b), nil
}

func TestNew_TrustsConfiguredCA(t *testing.T) {
	ca := testutils.GenerateCA(t)
	backend := testutils.NewTLSBackend(t, ca, testfileHandler)

	c, err := httpclient.New(loadRoot(t, ca), httpclient.WithSystemPool(emptySystemPool))
	require.NoError(t, err)

	body, err := get(t, c, backend.URL+"/testfile.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello pqc", body)
}

func TestNew_RejectsUnknownCA(t *testing.T) {
	backend := testutils.NewTLSBackend(t, testutils.GenerateCA(t), testfileHandler)

	c, err := httpclient.New(loadRoot(t, testutils.GenerateCA(t)), httpclient.WithSystemPool(emptySystemPool))
	require.NoError(t, err)

	_, err = get(t, c, backend.URL+"/testfile.txt")
	require.Error(t, err)
}

func TestNew_AugmentsSystemPool(t *testing.T) {
	systemCA := testutils.GenerateCA(t)
	extraCA := testutils.GenerateCA(t)
	systemBackend := testutils.NewTLSBackend(t, systemCA, testfileHandler)
	extraBackend := testutils.NewTLSBackend(t, extraCA, testfileHandler)

	systemPool := func() (*x509.CertPool, error) {
		p := x509.NewCertPool()
		p.AddCert(systemCA.Cert)
		return p, nil
	}
	c, err := httpclient.New(loadRoot(t, extraCA), httpclient.WithSystemPool(systemPool))
	require.NoError(t, err)

	_, err = get(t, c, systemBackend.URL)
	assert.NoError(t, err)
	_, err = get(t, c, extraBackend.URL)
	assert.NoError(t, err)
}

func TestNew_SystemPoolUnavailable(t *testing.T) {
	ca := testutils.GenerateCA(t)
	backend := testutils.NewTLSBackend(t, ca, testfileHandler)

	failing := func() (*x509.CertPool, error) {
		return nil, errors.New("no system roots")
	}
	c, err := httpclient.New(loadRoot(t, ca), httpclient.WithSystemPool(failing))
	require.NoError(t, err)

	_, err = get(t, c, backend.URL)
	assert.NoError(t, err)
}

func TestNew_SameFileSameBehavior(t *testing.T) {
	ca := testutils.GenerateCA(t)
	backend := testutils.NewTLSBackend(t, ca, testfileHandler)
	path := ca.WritePEM(t)

	for i := 0; i < 2; i++ {
		rc, err := certs.LoadRootCert(path)
		require.NoError(t, err)
		c, err := httpclient.New(rc, httpclient.WithSystemPool(emptySystemPool))
		require.NoError(t, err)

		body, err := get(t, c, backend.URL)
		require.NoError(t, err)
		assert.Equal(t, "hello pqc", body)
	}
}

func TestNew_Options(t *testing.T) {
	ca := testutils.GenerateCA(t)

	c, err := httpclient.New(loadRoot(t, ca))
	require.NoError(t, err)
	assert.Equal(t, httpclient.DefaultTimeout, c.Timeout)

	c, err = httpclient.New(loadRoot(t, ca), httpclient.WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.Timeout)
}

func TestNew_NoRoot(t *testing.T) {
	_, err := httpclient.New(nil)
	assert.True(t, errors.Is(err, httpclient.ErrNoRootCertificates))
}
