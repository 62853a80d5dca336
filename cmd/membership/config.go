package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// config is a YAML configuration of the application. Every field can be
// overridden by the corresponding global flag.
type config struct {
	RPC struct {
		Endpoint       string        `yaml:"endpoint"`
		DialTimeout    time.Duration `yaml:"dial_timeout"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"rpc"`

	Wallet struct {
		Path     string `yaml:"path"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
	} `yaml:"wallet"`

	Contract struct {
		// Little-endian hex string or Neo address.
		Hash string `yaml:"hash"`
		// Directory with compiled contract.nef and manifest.json.
		Dir                 string `yaml:"dir"`
		MintLimit           uint64 `yaml:"mint_limit"`
		VotingAuthority     string `yaml:"voting_authority"`
		ReputationAuthority string `yaml:"reputation_authority"`
	} `yaml:"contract"`

	Logger struct {
		Level string `yaml:"level"`
	} `yaml:"logger"`
}

const (
	defaultDialTimeout    = 15 * time.Second
	defaultRequestTimeout = 15 * time.Second
	defaultLogLevel       = "info"
)

// loadConfig reads configuration from the YAML file at path (if any) and
// applies global flag values set in ctx.
func loadConfig(ctx *cli.Context) (*config, error) {
	cfg := new(config)
	cfg.RPC.DialTimeout = defaultDialTimeout
	cfg.RPC.RequestTimeout = defaultRequestTimeout
	cfg.Logger.Level = defaultLogLevel

	if p := ctx.GlobalString("config"); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		err = parseConfig(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", p, err)
		}
	}

	for flag, dst := range map[string]*string{
		"rpc":       &cfg.RPC.Endpoint,
		"wallet":    &cfg.Wallet.Path,
		"address":   &cfg.Wallet.Address,
		"password":  &cfg.Wallet.Password,
		"contract":  &cfg.Contract.Hash,
		"log-level": &cfg.Logger.Level,
	} {
		if ctx.GlobalIsSet(flag) {
			*dst = ctx.GlobalString(flag)
		}
	}

	return cfg, nil
}

func parseConfig(data []byte, cfg *config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *config) contractHash() (util.Uint160, error) {
	if c.Contract.Hash == "" {
		return util.Uint160{}, errors.New("missing contract address")
	}
	return parseAddress(c.Contract.Hash)
}

// parseAddress decodes Neo address or little-endian hex string with optional
// 0x prefix.
func parseAddress(s string) (util.Uint160, error) {
	if u, err := address.StringToUint160(s); err == nil {
		return u, nil
	}

	u, err := util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid address '%s': neither Neo address nor LE hex string", s)
	}
	return u, nil
}

// parseOptionalAddress is similar to parseAddress but returns zero value for
// the empty string.
func parseOptionalAddress(s string) (util.Uint160, error) {
	if s == "" {
		return util.Uint160{}, nil
	}
	return parseAddress(s)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	c := zap.NewProductionConfig()
	c.Level = lvl
	c.Encoding = "console"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	c.DisableStacktrace = true

	return c.Build()
}
