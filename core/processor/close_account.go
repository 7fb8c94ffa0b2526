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

package processor

import (
	"fmt"

	"code.vegaprotocol.io/dex/core/events"
	"code.vegaprotocol.io/dex/core/state"
)

func (p *Processor) closeAccount(c *call) error {
	owner, err := c.account(1)
	if err != nil {
		return err
	}
	userAcc := c.accs[0]
	if err := checkSigner(owner); err != nil {
		return err
	}
	if err := p.checkStateOwner(userAcc); err != nil {
		return err
	}
	u, err := state.LoadUserAccount(userAcc.Data)
	if err != nil {
		return err
	}
	if u.Header.Owner != owner.Key {
		return fmt.Errorf("%w: %s", ErrInvalidUserAccountOwner, userAcc.Key)
	}
	if !u.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrUserAccountStillActive, userAcc.Key)
	}
	market := u.Header.Market
	if err := userAcc.Close(); err != nil {
		return err
	}
	c.emit(events.NewAccountClosed(c.ctx, market, userAcc.Key, owner.Key))
	return nil
}
