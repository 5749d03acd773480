package config

import (
	"errors"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// Mode represents what the tool does with the transaction it builds
type Mode string

const (
	ModeTransfer Mode = "TRANSFER"
	ModeValidate Mode = "VALIDATE"
	ModeFee      Mode = "FEE"
)

// Format selects the transaction format
type Format string

const (
	FormatAuto    Format = "AUTO"
	FormatLegacy  Format = "LEGACY"
	FormatGeneral Format = "GENERAL"
)

// Config holds all configuration for a run
type Config struct {
	// RPC connection
	URL string

	// Account configuration
	Secret  string
	Network uint16

	// Transfer configuration
	Dest   string
	Amount string

	// Transaction parameters
	Tip       uint64
	MortalFor uint64
	Nonce     int64 // -1 resolves the nonce from chain state
	Format    string

	// Run configuration
	Mode  string
	Count uint64
	Rate  float64
	Watch bool

	// Call location overrides for chains with non-standard pallet layout
	BalancesPalletIndex uint64
	TransferCallIndex   uint64

	// Output
	Verbose bool

	// Advanced
	Timeout time.Duration

	// Prometheus metrics
	MetricsEnabled bool
	MetricsPort    int
}

var (
	httpRegex   = regexp.MustCompile(`^https?://`)
	wsRegex     = regexp.MustCompile(`^wss?://`)
	pubKeyRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	// Validate URL
	if c.URL == "" {
		return errors.New("url is required")
	}
	if !httpRegex.MatchString(c.URL) && !wsRegex.MatchString(c.URL) {
		return errors.New("url must be a valid HTTP or WebSocket URL")
	}

	if c.Secret == "" {
		return errors.New("secret is required")
	}

	// Validate mode
	switch c.GetMode() {
	case ModeTransfer, ModeValidate, ModeFee:
		// Valid modes
	default:
		return errors.New("invalid mode: must be TRANSFER, VALIDATE, or FEE")
	}

	// Validate format
	switch c.GetFormat() {
	case FormatAuto, FormatLegacy, FormatGeneral:
		// Valid formats
	default:
		return errors.New("invalid format: must be AUTO, LEGACY, or GENERAL")
	}

	// Validate destination (a 32-byte public key in hex)
	if c.Dest == "" {
		return errors.New("dest is required")
	}
	if !pubKeyRegex.MatchString(c.Dest) {
		return errors.New("dest must be a 64-character hex public key with 0x prefix")
	}

	if _, ok := c.GetAmount(); !ok {
		return errors.New("amount must be a positive decimal number")
	}

	if c.Nonce < -1 {
		return errors.New("nonce must be -1 (auto) or a non-negative number")
	}

	if c.Count == 0 {
		c.Count = 1
	}
	if c.Count > 1 && c.Rate <= 0 {
		c.Rate = 10 // default submissions per second
	}

	// Watching a transaction to finality only works over a subscription
	if c.Watch && !wsRegex.MatchString(c.URL) {
		return errors.New("watch requires a WebSocket URL")
	}

	// Set default timeout
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Minute
	}

	// Set default metrics port
	if c.MetricsEnabled && c.MetricsPort == 0 {
		c.MetricsPort = 9090
	}

	return nil
}

// GetMode returns the parsed mode
func (c *Config) GetMode() Mode {
	return Mode(strings.ToUpper(c.Mode))
}

// GetFormat returns the parsed transaction format
func (c *Config) GetFormat() Format {
	if c.Format == "" {
		return FormatAuto
	}
	return Format(strings.ToUpper(c.Format))
}

// GetAmount parses the transfer amount
func (c *Config) GetAmount() (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(c.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, false
	}
	return amount, true
}

// IsWebSocket returns true if the URL is a WebSocket URL
func (c *Config) IsWebSocket() bool {
	return wsRegex.MatchString(c.URL)
}
