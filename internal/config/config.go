package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `json:"server"`
	Chain  ChainConfig  `json:"chain"`
	Wallet WalletConfig `json:"wallet"`
	Poll   PollConfig   `json:"poll"`
	Log    LogConfig    `json:"log"`
}

// ServerConfig contains server related configurations
type ServerConfig struct {
	Port int `json:"port"`
}

// ChainConfig contains fullnode and contract related configurations
type ChainConfig struct {
	NodeURL            string `json:"node_url"`
	MarketplaceAddress string `json:"marketplace_address"`
	RequestTimeout     int    `json:"request_timeout"` // in seconds
}

// WalletConfig contains wallet bridge related configurations
type WalletConfig struct {
	BridgeURL      string `json:"bridge_url"`
	RequestTimeout int    `json:"request_timeout"` // in seconds
}

// PollConfig contains auction polling configurations
type PollConfig struct {
	AuctionInterval int `json:"auction_interval"` // in seconds
	TickInterval    int `json:"tick_interval"`    // in seconds
}

// LogConfig contains logging configurations
type LogConfig struct {
	Level       string `json:"level"`
	Encoding    string `json:"encoding"`
	Development bool   `json:"development"`
}

// Load loads the configuration from file and environment
func Load() (*Config, error) {
	// Default config
	cfg := &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Chain: ChainConfig{
			NodeURL:        "https://fullnode.devnet.aptoslabs.com/v1",
			RequestTimeout: 15,
		},
		Wallet: WalletConfig{
			RequestTimeout: 120,
		},
		Poll: PollConfig{
			AuctionInterval: 10,
			TickInterval:    1,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}

	// Look for config file
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		// Use default config file path
		configFile = filepath.Join("configs", "config.json")
	}

	// Try to load config from file
	if _, err := os.Stat(configFile); err == nil {
		file, err := os.Open(configFile)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, err
		}
	}

	// Override with environment variables if present
	if port := os.Getenv("SERVER_PORT"); port != "" {
		var serverPort int
		if _, err := fmt.Sscanf(port, "%d", &serverPort); err == nil {
			cfg.Server.Port = serverPort
		}
	}

	if nodeURL := os.Getenv("NODE_URL"); nodeURL != "" {
		cfg.Chain.NodeURL = nodeURL
	}
	if addr := os.Getenv("MARKETPLACE_ADDRESS"); addr != "" {
		cfg.Chain.MarketplaceAddress = addr
	}
	if timeout := os.Getenv("CHAIN_REQUEST_TIMEOUT"); timeout != "" {
		var seconds int
		if _, err := fmt.Sscanf(timeout, "%d", &seconds); err == nil {
			cfg.Chain.RequestTimeout = seconds
		}
	}

	if bridgeURL := os.Getenv("WALLET_BRIDGE_URL"); bridgeURL != "" {
		cfg.Wallet.BridgeURL = bridgeURL
	}
	if timeout := os.Getenv("WALLET_REQUEST_TIMEOUT"); timeout != "" {
		var seconds int
		if _, err := fmt.Sscanf(timeout, "%d", &seconds); err == nil {
			cfg.Wallet.RequestTimeout = seconds
		}
	}

	if interval := os.Getenv("AUCTION_POLL_INTERVAL"); interval != "" {
		var seconds int
		if _, err := fmt.Sscanf(interval, "%d", &seconds); err == nil {
			cfg.Poll.AuctionInterval = seconds
		}
	}
	if interval := os.Getenv("TICK_INTERVAL"); interval != "" {
		var seconds int
		if _, err := fmt.Sscanf(interval, "%d", &seconds); err == nil {
			cfg.Poll.TickInterval = seconds
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if cfg.Chain.MarketplaceAddress == "" {
		return nil, fmt.Errorf("marketplace address is required (set MARKETPLACE_ADDRESS or chain.marketplace_address)")
	}

	return cfg, nil
}
