// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xcm

import "errors"

var (
	ErrInvalidMessage         = errors.New("invalid message")
	ErrInvalidAsset           = errors.New("invalid asset")
	ErrNoAssets               = errors.New("no assets")
	ErrUnsupportedVersion     = errors.New("unsupported version")
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
)
