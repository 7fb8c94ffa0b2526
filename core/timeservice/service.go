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

package timeservice

import (
	"sync"
	"time"
)

// Svc provides the time stamped on created markets. It follows the wall
// clock unless a time was pinned with SetTimeNow.
type Svc struct {
	mu     sync.RWMutex
	now    func() time.Time
	pinned time.Time
}

func New() *Svc {
	return &Svc{now: time.Now}
}

// NewWithClock is New with a custom clock.
func NewWithClock(now func() time.Time) *Svc {
	return &Svc{now: now}
}

// SetTimeNow pins the current time, a zero time goes back to the clock.
func (s *Svc) SetTimeNow(t time.Time) {
	s.mu.Lock()
	s.pinned = t
	s.mu.Unlock()
}

func (s *Svc) GetTimeNow() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.pinned.IsZero() {
		return s.pinned
	}
	return s.now().UTC()
}
