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

package certs_test

import (
	"encoding/pem"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/certs"
	"github.com/pqc-tls/tlsprobe/src/tlsprobe/pkg/testutils"
)

func TestLoadRootCert(t *testing.T) {
	ca := testutils.GenerateCA(t)
	path := ca.WritePEM(t)

	rc, err := certs.LoadRootCert(path)
	require.NoError(t, err)
	require.Len(t, rc.Certificates(), 1)
	assert.True(t, rc.Certificates()[0].Equal(ca.Cert))
	assert.Equal(t, path, rc.Path())
	assert.Equal(t, []string{ca.Cert.Subject.String()}, rc.Subjects())
}

func TestLoadRootCert_Idempotent(t *testing.T) {
	path := testutils.GenerateCA(t).WritePEM(t)

	first, err := certs.LoadRootCert(path)
	require.NoError(t, err)
	second, err := certs.LoadRootCert(path)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprints(), second.Fingerprints())
}

func TestLoadRootCert_Bundle(t *testing.T) {
	ca1 := testutils.GenerateCA(t)
	ca2 := testutils.GenerateCA(t)
	key := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("not a cert")})

	bundle := append(append(append([]byte{}, ca1.PEM...), key...), ca2.PEM...)
	rc, err := certs.LoadRootCert(testutils.WriteFile(t, "bundle.pem", bundle))
	require.NoError(t, err)

	got := rc.Certificates()
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(ca1.Cert))
	assert.True(t, got[1].Equal(ca2.Cert))
}

func TestLoadRootCert_MissingFile(t *testing.T) {
	_, err := certs.LoadRootCert(filepath.Join(t.TempDir(), "missing.crt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadRootCert_NoCertificate(t *testing.T) {
	tests := []struct {
		name     string
		contents []byte
	}{
		{
			name:     "empty file",
			contents: []byte{},
		},
		{
			name:     "not pem",
			contents: []byte("this is not a certificate\n"),
		},
		{
			name:     "only a key",
			contents: pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: []byte{1, 2, 3}}),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := certs.LoadRootCert(testutils.WriteFile(t, "ca.crt", test.contents))
			require.Error(t, err)
			assert.True(t, errors.Is(err, certs.ErrNoCertificate))
		})
	}
}

func TestLoadRootCert_MalformedBlock(t *testing.T) {
	contents := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("garbage")})
	_, err := certs.LoadRootCert(testutils.WriteFile(t, "ca.crt", contents))
	require.Error(t, err)

	var parseErr *certs.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 0, parseErr.Block)
}
