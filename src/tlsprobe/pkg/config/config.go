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

// Package config holds the startup configuration of the request client.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// CACertPathEnv names the PEM CA certificate to trust.
	CACertPathEnv = "CA_CERT_PATH"
	// BackendURLEnv is the base URL of the backend, without a trailing path.
	BackendURLEnv = "BACKEND_URL"

	caCertPathKey = "ca_cert_path"
	backendURLKey = "backend_url"

	// TestFile is requested relative to the backend URL on every iteration.
	TestFile = "testfile.txt"
)

// Config is read once at startup and never mutated.
type Config struct {
	CACertPath string
	BackendURL string
}

// Error is returned when the configuration is incomplete.
type Error struct {
	CACertPath string
	BackendURL string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Environment variables %s and %s must be set. %s='%s', %s='%s'",
		CACertPathEnv, BackendURLEnv, CACertPathEnv, e.CACertPath, BackendURLEnv, e.BackendURL)
}

// IsConfigError returns true if err is, or wraps, a configuration error.
func IsConfigError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}

// BindEnv binds the configuration keys to their environment variables.
func BindEnv(v *viper.Viper) {
	// BindEnv only errors when called without a key.
	_ = v.BindEnv(caCertPathKey, CACertPathEnv)
	_ = v.BindEnv(backendURLKey, BackendURLEnv)
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	BindEnv(v)
	c := &Config{
		CACertPath: v.GetString(caCertPathKey),
		BackendURL: v.GetString(backendURLKey),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that both values are non-empty.
func (c *Config) Validate() error {
	if c.CACertPath == "" || c.BackendURL == "" {
		return &Error{CACertPath: c.CACertPath, BackendURL: c.BackendURL}
	}
	return nil
}

// TargetURL is the URL requested by every iteration of the request loop.
func (c *Config) TargetURL() string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(c.BackendURL, "/"), TestFile)
}
