// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/xcm/types"
)

// Development accounts funded by the default topology
var (
	Alice = types.AccountID{0x01}
	Bob   = types.AccountID{0x02}
)

func NewConfig(v *viper.Viper) (Config, error) {
	cfg, err := BuildConfig(v)
	if err != nil {
		return cfg, err
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// BuildFlagSet returns the flags shared by every command
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("xcm", pflag.ContinueOnError)
	AddFlags(fs)
	return fs
}

// AddFlags registers the configuration flags on fs
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFileKey, "", "JSON or YAML file describing the network")
	fs.String(StoreDirKey, "", "directory to persist ledgers in, empty keeps them in memory")
	fs.Bool(VerboseKey, false, "log to stderr")
}

// BuildViper builds the viper instance. The config file is optional; without
// one the default two chain topology is used. Every key may also be provided
// through an XCM_ prefixed environment variable.
func BuildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Map flag names to env var names. Hyphens are replaced with underscores.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	filename := getExpandedPath(v, ConfigFileKey)
	if filename == "" {
		return v, nil
	}
	v.SetConfigFile(filename)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		v.SetConfigType("yaml")
	default:
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return v, nil
}

func SetDefaultConfigValues(v *viper.Viper) {
	v.SetDefault(NetworkKey, defaultNetwork)
	v.SetDefault(MaxVersionKey, defaultMaxVersion)
	v.SetDefault(MaxWeightKey, defaultMaxWeight)
	v.SetDefault(TranslationCacheSizeKey, defaultTranslationCacheSize)
}

// BuildConfig constructs the network config using Viper.
// The following precedence order is used. Each item takes precedence over the item below it:
//  1. Flags
//  2. Environment variables
//  3. Config file
//  4. Defaults
func BuildConfig(v *viper.Viper) (Config, error) {
	SetDefaultConfigValues(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal viper config: %w", err)
	}
	cfg.StoreDir = getExpandedPath(v, StoreDirKey)
	if !v.IsSet(ChainsKey) {
		cfg.Chains = DefaultChains()
	}
	return cfg, nil
}

// DefaultChains is a pair of peered chains that trust each other's
// teleports, with Alice holding 1000 on both.
func DefaultChains() []ChainConfig {
	return []ChainConfig{
		{
			ID:          1,
			Peers:       []uint32{2},
			Teleporters: []uint32{2},
			Balances:    map[string]string{Alice.String(): "1000"},
		},
		{
			ID:          2,
			Peers:       []uint32{1},
			Teleporters: []uint32{1},
			Balances:    map[string]string{Alice.String(): "1000"},
		},
	}
}

// getExpandedPath gets the string in viper corresponding to [key] and expands
// any variables using the OS env.
func getExpandedPath(v *viper.Viper, key string) string {
	return os.Expand(
		v.GetString(key),
		func(strVar string) string {
			return os.Getenv(strVar)
		},
	)
}
