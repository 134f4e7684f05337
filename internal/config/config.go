package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the YAML configuration.
type Config struct {
	Version   int          `yaml:"version"`
	Server    ServerConfig `yaml:"server"`
	Global    GlobalConfig `yaml:"global"`
	Networks  []Network    `yaml:"networks"`
	Protocols []Protocol   `yaml:"protocols"`
}

type ServerConfig struct {
	Listen         string `yaml:"listen"`
	MetricsListen  string `yaml:"metrics_listen"`
	RequestTimeout string `yaml:"request_timeout"`
}

type GlobalConfig struct {
	DBPath string `yaml:"db_path"`
}

// Network describes one supported chain and how to reach its data source.
type Network struct {
	ID     string `yaml:"id"`
	Type   string `yaml:"type"`
	RPCURL string `yaml:"rpc_url"`

	AlgodURL   string `yaml:"algod_url"`
	IndexerURL string `yaml:"indexer_url"`
}

// Protocol is a heuristic signature set for a named on-chain application.
// A transaction log whose emitting address contains any signature
// (case-sensitive) is attributed to the protocol.
type Protocol struct {
	Name       string   `yaml:"name"`
	Signatures []string `yaml:"signatures"`
}

var envPattern = regexp.MustCompile(`\${([A-Za-z_][A-Za-z0-9_]*)}`)

// Load reads, interpolates env vars, parses YAML, and validates.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	interpolated, err := interpolateEnv(string(raw))
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDotEnv(configPath string) error {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	return nil
}

func interpolateEnv(input string) (string, error) {
	missing := []string{}
	out := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing environment variables: %s", strings.Join(dedup(missing), ", "))
	}
	return out, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.RequestTimeout == "" {
		c.Server.RequestTimeout = "15s"
	}
}

// RequestTimeout returns the parsed per-request deadline.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// Validate performs small, direct schema checks.
func (c *Config) Validate() error {
	if c.Version == 0 {
		return errors.New("version is required")
	}
	if len(c.Networks) == 0 {
		return errors.New("at least one network is required")
	}

	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("server.request_timeout: %w", err)
	}

	networkIDs := map[string]struct{}{}
	for _, n := range c.Networks {
		if _, exists := networkIDs[n.ID]; exists {
			return fmt.Errorf("duplicate network id: %s", n.ID)
		}
		networkIDs[n.ID] = struct{}{}
		if err := n.Validate(); err != nil {
			return fmt.Errorf("network %s: %w", n.ID, err)
		}
	}

	protocolNames := map[string]struct{}{}
	for _, p := range c.Protocols {
		if _, exists := protocolNames[p.Name]; exists {
			return fmt.Errorf("duplicate protocol: %s", p.Name)
		}
		protocolNames[p.Name] = struct{}{}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("protocol %s: %w", p.Name, err)
		}
	}

	return nil
}

func (n *Network) Validate() error {
	if n.ID == "" {
		return errors.New("id is required")
	}
	switch strings.ToLower(n.Type) {
	case "evm":
		if n.RPCURL == "" {
			return errors.New("rpc_url is required for evm networks")
		}
	case "algorand":
		if n.AlgodURL == "" || n.IndexerURL == "" {
			return errors.New("algod_url and indexer_url are required for algorand networks")
		}
	default:
		return fmt.Errorf("unsupported network type: %s", n.Type)
	}
	return nil
}

func (p *Protocol) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if len(p.Signatures) == 0 {
		return errors.New("at least one signature is required")
	}
	for _, s := range p.Signatures {
		if strings.TrimSpace(s) == "" {
			return errors.New("signatures must be non-empty")
		}
	}
	return nil
}

func dedup(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
