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

package timeservice_test

import (
	"testing"
	"time"

	"code.vegaprotocol.io/dex/core/timeservice"

	"github.com/stretchr/testify/assert"
)

func TestTimeService(t *testing.T) {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("cet", 3600))
	svc := timeservice.NewWithClock(func() time.Time { return clock })

	assert.Equal(t, clock.UTC(), svc.GetTimeNow())
	assert.Equal(t, time.UTC, svc.GetTimeNow().Location())

	pinned := time.Unix(1_700_000_000, 0)
	svc.SetTimeNow(pinned)
	assert.Equal(t, pinned, svc.GetTimeNow())

	svc.SetTimeNow(time.Time{})
	assert.Equal(t, clock.UTC(), svc.GetTimeNow())
}
