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
	"errors"

	"code.vegaprotocol.io/dex/core/state"
	"code.vegaprotocol.io/dex/libs/num"
)

var (
	ErrInvalidProgramID = errors.New("instruction addressed to another program")
	// ErrNoOp is returned when an operation had nothing to do. Callers use it
	// to detect wasted submissions during simulation.
	ErrNoOp = errors.New("no operation was performed")
	// ErrOrderbook wraps every failure of the matching engine.
	ErrOrderbook          = errors.New("the order matching engine returned an error")
	ErrTransactionAborted = errors.New("the order type caused the transaction to abort")
	ErrMissingUserAccount = errors.New("a user account needed to consume an event is missing")
	ErrNumericalOverflow  = num.ErrOverflow
	ErrOrderTooSmall      = errors.New("the base order size is too small")
	ErrUserAccountFull    = state.ErrUserAccountFull

	ErrInvalidMarketParams       = errors.New("currency multipliers and tick size must be non zero")
	ErrInvalidOrderParams        = errors.New("invalid order side, type or self trade behavior")
	ErrMarketAlreadyInitialized  = errors.New("the market account contains initialized state")
	ErrAccountAlreadyInitialized = errors.New("the account contains initialized state")
	ErrInvalidStateAccountOwner  = errors.New("state account is not owned by the program")
	ErrInvalidOrderbookAccount   = errors.New("invalid orderbook account")
	ErrInvalidBaseVaultAccount   = errors.New("invalid base vault account")
	ErrInvalidQuoteVaultAccount  = errors.New("invalid quote vault account")
	ErrInvalidVaultAccount       = errors.New("vault must be owned by the market signer without delegate nor close authority")
	ErrInvalidMarketSigner       = errors.New("invalid market signer account")
	ErrInvalidMarketAdmin        = errors.New("invalid market admin account")
	ErrInvalidUserAccountOwner   = errors.New("invalid user account owner")
	ErrInvalidUserAccountMarket  = errors.New("the user account does not belong to the market")
	ErrInvalidUserAccountKey     = errors.New("the user account is not derived from the market and the owner")
	ErrInvalidDiscountAccount    = errors.New("invalid discount token account")
	ErrInvalidCreatorAccount     = errors.New("invalid creator token account")
	ErrInvalidDestinationAccount = errors.New("invalid destination token account")
	ErrInvalidCapacity           = errors.New("a user account must be able to hold at least one order")
	ErrMissingSigner             = errors.New("a required signature is missing")
	ErrOrderIDMismatch           = errors.New("order id does not match the order at the given index")
	ErrUserAccountStillActive    = errors.New("the user account still holds orders or free balances")
	ErrMarketStillActive         = errors.New("the market still holds funds or uncollected fees")
	ErrEventQueueNotEmpty        = errors.New("the event queue must be empty")
	ErrMissingMetadata           = errors.New("the token metadata account is empty")
)
