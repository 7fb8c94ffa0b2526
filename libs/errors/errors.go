// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package errors

import (
	"errors"
	"strings"
)

// CumulatedErrors collects the failures of a validation pass so they can be
// reported together. It unwraps to every collected error.
type CumulatedErrors struct {
	Errors []error
}

func NewCumulatedErrors() *CumulatedErrors {
	return &CumulatedErrors{}
}

// Add records err, nil errors are ignored.
func (e *CumulatedErrors) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *CumulatedErrors) HasAny() bool {
	return len(e.Errors) > 0
}

// Err returns nil when nothing was collected, e otherwise.
func (e *CumulatedErrors) Err() error {
	if !e.HasAny() {
		return nil
	}
	return e
}

func (e *CumulatedErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, ", also ")
}

func (e *CumulatedErrors) Unwrap() []error {
	return e.Errors
}

// Is reports whether any collected error matches target.
func (e *CumulatedErrors) Is(target error) bool {
	for _, err := range e.Errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
