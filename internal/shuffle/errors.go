// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package shuffle

import "errors"

var (
	// ErrClosed is returned by operations on a closed shuffle.
	ErrClosed = errors.New("shuffle is closed")
	// ErrAlreadyRun is returned by Emit and Run once Run has been called.
	ErrAlreadyRun = errors.New("shuffle has already run")
)
