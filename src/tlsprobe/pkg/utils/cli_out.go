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
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// CLIOutput writes user facing console lines. Info lines go to the out stream,
// Error lines go to the err stream.
type CLIOutput struct {
	out io.Writer
	err io.Writer
}

// NewCLIOutput returns a CLIOutput writing to the given streams.
func NewCLIOutput(out, err io.Writer) *CLIOutput {
	return &CLIOutput{out: out, err: err}
}

// DefaultCLIOutput returns a CLIOutput bound to the process stdout and stderr.
func DefaultCLIOutput() *CLIOutput {
	return NewCLIOutput(os.Stdout, os.Stderr)
}

// CLIOutputEntry represents an output log entry.
type CLIOutputEntry struct {
	o         *CLIOutput
	textColor *color.Color
	err       error
}

// WithColor returns a struct that can be used to log text to the CLI
// in a specific color.
func (o *CLIOutput) WithColor(c *color.Color) *CLIOutputEntry {
	return &CLIOutputEntry{o: o, textColor: c}
}

// WithError returns a struct that can be used to log text to the CLI
// with a specific error.
func (o *CLIOutput) WithError(err error) *CLIOutputEntry {
	return &CLIOutputEntry{o: o, err: err}
}

// Infof prints the input string to the out stream formatted with the input args.
func (o *CLIOutput) Infof(format string, args ...interface{}) {
	o.entry().Infof(format, args...)
}

// Info prints the input string to the out stream.
func (o *CLIOutput) Info(str string) {
	o.entry().Info(str)
}

// Errorf prints the input string to the err stream formatted with the input args.
func (o *CLIOutput) Errorf(format string, args ...interface{}) {
	o.entry().Errorf(format, args...)
}

// Error prints the input string to the err stream.
func (o *CLIOutput) Error(str string) {
	o.entry().Error(str)
}

// Out returns the out stream, for callers that render directly to it.
func (o *CLIOutput) Out() io.Writer {
	return o.out
}

func (o *CLIOutput) entry() *CLIOutputEntry {
	return &CLIOutputEntry{o: o}
}

// WithColor returns a struct that can be used to log text to the CLI
// in a specific color.
func (c *CLIOutputEntry) WithColor(textColor *color.Color) *CLIOutputEntry {
	return &CLIOutputEntry{
		o:         c.o,
		err:       c.err,
		textColor: textColor,
	}
}

// WithError returns a struct that can be used to log text to the CLI
// with a specific error.
func (c *CLIOutputEntry) WithError(err error) *CLIOutputEntry {
	return &CLIOutputEntry{
		o:         c.o,
		err:       err,
		textColor: c.textColor,
	}
}

func (c *CLIOutputEntry) write(w io.Writer, format string, args ...interface{}) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	if c.err != nil {
		text += fmt.Sprintf(": %s", c.err.Error())
	}
	text += "\n"
	if c.textColor == nil {
		fmt.Fprint(w, text)
	} else {
		c.textColor.Fprint(w, text)
	}
}

// Infof prints the input string to the out stream formatted with the input args.
func (c *CLIOutputEntry) Infof(format string, args ...interface{}) {
	c.write(c.o.out, format, args...)
}

// Info prints the input string to the out stream.
func (c *CLIOutputEntry) Info(str string) {
	c.write(c.o.out, str)
}

// Errorf prints the input string to the err stream formatted with the input args.
func (c *CLIOutputEntry) Errorf(format string, args ...interface{}) {
	c.write(c.o.err, format, args...)
}

// Error prints the input string to the err stream.
func (c *CLIOutputEntry) Error(str string) {
	c.write(c.o.err, str)
}
