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
	"code.vegaprotocol.io/dex/core/instruction"
	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/core/types"
)

// UserAccountAddress returns the identity of the user account of an owner
// on a market.
func UserAccountAddress(market, owner, programID types.Pubkey) (types.Pubkey, error) {
	key, _, err := types.FindProgramAddress([][]byte{market[:], owner[:]}, programID)
	return key, err
}

func (p *Processor) initializeAccount(c *call, params *instruction.InitializeAccountParams) error {
	owner, err := c.account(1)
	if err != nil {
		return err
	}
	userAcc := c.accs[0]
	if err := checkSigner(owner); err != nil {
		return err
	}
	expected, err := UserAccountAddress(params.Market, owner.Key, p.programID)
	if err != nil {
		return err
	}
	if err := checkAccountKey(userAcc, expected, ErrInvalidUserAccountKey); err != nil {
		return err
	}
	if params.MaxOrders == 0 {
		return ErrInvalidCapacity
	}
	if !userAcc.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInitialized, userAcc.Key)
	}
	size, err := state.ComputeAllocationSize(params.MaxOrders)
	if err != nil {
		return err
	}
	if err := userAcc.Allocate(size, p.programID); err != nil {
		return err
	}
	u, err := state.LoadUserAccountUnchecked(userAcc.Data)
	if err != nil {
		return err
	}
	u.Header = state.NewUserAccountHeader(params.Market, owner.Key)
	u.Commit()

	c.emit(events.NewUserAccountInitialized(c.ctx, params.Market, userAcc.Key, owner.Key, params.MaxOrders))
	return nil
}
