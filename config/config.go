package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	ecies "github.com/ecies/go/v2"
	"github.com/joho/godotenv"
	"github.com/zeebo/errs"

	"github.com/kutluhann/kademlia-routing/constants"
	"github.com/kutluhann/kademlia-routing/id_tools"
)

// Error is the class of configuration errors.
var Error = errs.Class("config")

// Config is the runtime configuration, read from the environment after an
// optional .env file, plus the identity key once it has been loaded.
type Config struct {
	privateKey *ecies.PrivateKey

	BucketSize   int
	LogLevel     string
	LogDev       bool
	IdentityPath string
	HTTPPort     int
	SeedPeers    int

	CheckTrials     int
	CheckSeed       uint64
	CheckOperations int
}

var (
	config     *Config
	configOnce sync.Once
	configErr  error
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		BucketSize:      constants.DefaultBucketSize,
		LogLevel:        "info",
		IdentityPath:    id_tools.PrivateKeyFilePath,
		HTTPPort:        8000,
		CheckTrials:     1000,
		CheckOperations: 64,
	}
}

// Load reads the given env files (".env" when none are named; a missing file
// is not an error) and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, Error.Wrap(err)
		}
	}

	cfg := Default()
	var err error
	if cfg.BucketSize, err = intEnv("KAD_BUCKET_SIZE", cfg.BucketSize); err != nil {
		return nil, err
	}
	if cfg.HTTPPort, err = intEnv("KAD_HTTP_PORT", cfg.HTTPPort); err != nil {
		return nil, err
	}
	if cfg.SeedPeers, err = intEnv("KAD_SEED_PEERS", cfg.SeedPeers); err != nil {
		return nil, err
	}
	if cfg.CheckTrials, err = intEnv("KAD_CHECK_TRIALS", cfg.CheckTrials); err != nil {
		return nil, err
	}
	if cfg.CheckOperations, err = intEnv("KAD_CHECK_OPERATIONS", cfg.CheckOperations); err != nil {
		return nil, err
	}
	if cfg.LogDev, err = boolEnv("KAD_LOG_DEV", cfg.LogDev); err != nil {
		return nil, err
	}
	if v := os.Getenv("KAD_CHECK_SEED"); v != "" {
		if cfg.CheckSeed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, Error.New("KAD_CHECK_SEED: %v", err)
		}
	}
	if v := os.Getenv("KAD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("KAD_IDENTITY_PATH"); v != "" {
		cfg.IdentityPath = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init loads the process-wide configuration once.
func Init() (*Config, error) {
	configOnce.Do(func() {
		config, configErr = Load()
	})
	return config, configErr
}

func (c *Config) Validate() error {
	if c.BucketSize < 1 {
		return Error.New("bucket size must be at least 1, got %d", c.BucketSize)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return Error.New("http port %d out of range", c.HTTPPort)
	}
	if c.SeedPeers < 0 {
		return Error.New("seed peers must not be negative, got %d", c.SeedPeers)
	}
	if c.CheckTrials < 1 {
		return Error.New("check trials must be at least 1, got %d", c.CheckTrials)
	}
	if c.CheckOperations < 1 {
		return Error.New("check operations must be at least 1, got %d", c.CheckOperations)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) SetPrivateKey(key *ecies.PrivateKey) {
	c.privateKey = key
}

func (c *Config) GetPrivateKey() *ecies.PrivateKey {
	return c.privateKey
}

func (c *Config) HasPrivateKey() bool {
	return c.privateKey != nil
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, Error.New("%s: %v", name, err)
	}
	return n, nil
}

func boolEnv(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, Error.New("%s: %v", name, err)
	}
	return b, nil
}
