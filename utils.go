// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xcm

import (
	"crypto/sha256"
	"errors"
	"math"

	"github.com/luxfi/ids"
)

const (
	// KiB is 1024 bytes
	KiB = 1024

	// MaxMessageSize bounds the encoding of a single message
	MaxMessageSize = 64 * KiB

	// MaxInstructions bounds the number of instructions in a message
	MaxInstructions = 100

	// MaxAssets bounds the number of assets carried by one instruction
	MaxAssets = 16
)

var errAddOverflow = errors.New("addition would overflow")

// AddUint64 adds two uint64 values and returns an error if overflow
func AddUint64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, errAddOverflow
	}
	return a + b, nil
}

// ComputeID hashes data into an ids.ID
func ComputeID(data []byte) ids.ID {
	return ids.ID(sha256.Sum256(data))
}
