package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/state"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
)

// Lending groups the deployment parameters for the lending module.
type Lending struct {
	MaxLoanAmount   string `toml:"MaxLoanAmount"`
	InterestRateBps uint64 `toml:"InterestRateBps"`
}

// AMM groups the deployment parameters for the pool engine.
type AMM struct {
	DefaultFeeRateBps uint64 `toml:"DefaultFeeRateBps"`
}

// GenesisAccount seeds one account with settlement-asset balance when the
// ledger is started against an empty data directory.
type GenesisAccount struct {
	Address string `toml:"Address"`
	Balance string `toml:"Balance"`
}

type Config struct {
	ListenAddress        string           `toml:"ListenAddress"`
	MetricsAddress       string           `toml:"MetricsAddress"`
	DataDir              string           `toml:"DataDir"`
	NetworkName          string           `toml:"NetworkName"`
	OwnerAddress         string           `toml:"OwnerAddress"`
	BlockIntervalSeconds uint64           `toml:"BlockIntervalSeconds"`
	Genesis              []GenesisAccount `toml:"Genesis"`
	Lending              Lending          `toml:"Lending"`
	AMM                  AMM              `toml:"AMM"`
}

const (
	defaultListenAddress  = "0.0.0.0:8464"
	defaultMetricsAddress = "0.0.0.0:9464"
	defaultDataDir        = "./consortium-data"
	defaultNetworkName    = "dbc-local"
	defaultBlockInterval  = 5
	defaultMaxLoanAmount  = "1000000000000"
	defaultInterestRate   = 5
	defaultFeeRate        = 30
)

// Load loads the configuration from the given path, creating a commented
// default file when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = defaultListenAddress
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		c.MetricsAddress = defaultMetricsAddress
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = defaultNetworkName
	}
	if c.BlockIntervalSeconds == 0 {
		c.BlockIntervalSeconds = defaultBlockInterval
	}
	if strings.TrimSpace(c.Lending.MaxLoanAmount) == "" {
		c.Lending.MaxLoanAmount = defaultMaxLoanAmount
	}
	if c.Lending.InterestRateBps == 0 {
		c.Lending.InterestRateBps = defaultInterestRate
	}
	if c.AMM.DefaultFeeRateBps == 0 {
		c.AMM.DefaultFeeRateBps = defaultFeeRate
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OwnerAddress) != "" {
		if _, err := crypto.DecodeAddress(c.OwnerAddress); err != nil {
			return fmt.Errorf("config: invalid OwnerAddress: %w", err)
		}
	}
	if _, ok := new(big.Int).SetString(c.Lending.MaxLoanAmount, 10); !ok {
		return fmt.Errorf("config: MaxLoanAmount must be a base-10 integer (got %q)", c.Lending.MaxLoanAmount)
	}
	if c.AMM.DefaultFeeRateBps >= 10_000 {
		return fmt.Errorf("config: DefaultFeeRateBps must be below 10000 (got %d)", c.AMM.DefaultFeeRateBps)
	}
	for i, alloc := range c.Genesis {
		if _, err := crypto.DecodeAddress(alloc.Address); err != nil {
			return fmt.Errorf("config: invalid Genesis[%d].Address: %w", i, err)
		}
		balance, ok := new(big.Int).SetString(alloc.Balance, 10)
		if !ok || balance.Sign() <= 0 {
			return fmt.Errorf("config: Genesis[%d].Balance must be a positive base-10 integer (got %q)", i, alloc.Balance)
		}
	}
	return nil
}

// GenesisAllocs returns the decoded genesis allocation list. Validate must
// have accepted the configuration first.
func (c *Config) GenesisAllocs() ([]state.GenesisAlloc, error) {
	allocs := make([]state.GenesisAlloc, 0, len(c.Genesis))
	for i, entry := range c.Genesis {
		addr, err := crypto.DecodeAddress(entry.Address)
		if err != nil {
			return nil, fmt.Errorf("config: invalid Genesis[%d].Address: %w", i, err)
		}
		balance, ok := new(big.Int).SetString(entry.Balance, 10)
		if !ok {
			return nil, fmt.Errorf("config: invalid Genesis[%d].Balance %q", i, entry.Balance)
		}
		allocs = append(allocs, state.GenesisAlloc{Address: addr, Balance: balance})
	}
	return allocs, nil
}

// Owner returns the decoded owner address and whether one is configured.
func (c *Config) Owner() (crypto.Address, bool, error) {
	trimmed := strings.TrimSpace(c.OwnerAddress)
	if trimmed == "" {
		return crypto.Address{}, false, nil
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return crypto.Address{}, false, err
	}
	return addr, true, nil
}

// MaxLoanAmount returns the parsed loan cap. Validate must have accepted the
// configuration first.
func (c *Config) MaxLoanAmount() *big.Int {
	amount, ok := new(big.Int).SetString(c.Lending.MaxLoanAmount, 10)
	if !ok {
		return big.NewInt(0)
	}
	return amount
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if _, err := file.WriteString("# Decentralized Banking Consortium node configuration.\n\n"); err != nil {
		return nil, err
	}
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
