// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VerboseKey    = "verbose"

	// Environment variable prefix. XCM_STORE_DIR overrides store-dir.
	EnvPrefix = "XCM"

	// Top-level configuration keys
	NetworkKey              = "network"
	StoreDirKey             = "store-dir"
	MaxVersionKey           = "max-version"
	MaxWeightKey            = "max-weight"
	TranslationCacheSizeKey = "translation-cache-size"
	ChainsKey               = "chains"
)
