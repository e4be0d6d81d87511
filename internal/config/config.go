package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/core-coin/go-core/v2/common"
	"github.com/joho/godotenv"

	"github.com/core-coin/gutta/internal/models"
)

type Config struct {
	Development bool

	// Blockchain configuration
	MainnetRPCURL          string
	MainnetContractAddress string
	MainnetNetworkID       *big.Int
	MainnetExplorerTxURL   string
	TestnetRPCURL          string
	TestnetContractAddress string
	TestnetNetworkID       *big.Int
	TestnetExplorerTxURL   string

	// AWS configuration
	SecretName     string
	SNSTopicARN    string
	S3Bucket       string
	EmailSender    string
	EmailRecipient string

	// Telegram configuration
	TelegramBotToken string
	TelegramChatID   int64

	// Scheduler configuration
	MinBalanceXCB   string
	MinDailyTxns    int
	MaxDailyTxns    int
	CycleOptions    []int
	SleepPatterns   []time.Duration
	CooldownPeriod  time.Duration
	ReceiptTimeout  time.Duration
	WorkerCount     int
	QueueSize       int
	BackupEvery     int

	// Scraper configuration
	ExplorerAPIURL   string
	ExplorerAPIKey   string
	OracleAPIURL     string
	OracleAPIKey     string
	SourceContracts  []string
	RawWalletTarget  int
	PoolTarget       int
	USDThreshold     float64
	ScrapeInterval   time.Duration

	// Storage configuration
	DataDir            string
	LedgerFileName     string
	PoolFileName       string
	StatusFileName     string
	ModeFileName       string
	SchedulerPIDName   string
	ScraperPIDName     string
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development: getEnvAsBool("DEVELOPMENT", false),

		MainnetRPCURL:          getEnv("MAINNET_RPC_URL", "https://xcbapi.coreblockchain.net/"),
		MainnetContractAddress: getEnv("MAINNET_CONTRACT_ADDRESS", ""),
		MainnetNetworkID:       getEnvAsBigInt("MAINNET_NETWORK_ID", big.NewInt(1)),
		MainnetExplorerTxURL:   getEnv("MAINNET_EXPLORER_TX_URL", "https://blockindex.net/tx/%s"),
		TestnetRPCURL:          getEnv("TESTNET_RPC_URL", "https://xabapi.coreblockchain.net/"),
		TestnetContractAddress: getEnv("TESTNET_CONTRACT_ADDRESS", ""),
		TestnetNetworkID:       getEnvAsBigInt("TESTNET_NETWORK_ID", big.NewInt(3)),
		TestnetExplorerTxURL:   getEnv("TESTNET_EXPLORER_TX_URL", "https://devin.blockindex.net/tx/%s"),

		SecretName:     getEnv("SECRET_NAME", ""),
		SNSTopicARN:    getEnv("SNS_TOPIC_ARN", ""),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		EmailSender:    getEnv("EMAIL_SENDER", ""),
		EmailRecipient: getEnv("EMAIL_RECIPIENT", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvAsInt64("TELEGRAM_CHAT_ID", 0),

		MinBalanceXCB:  getEnv("MIN_BALANCE_THRESHOLD", "0.01"),
		MinDailyTxns:   getEnvAsInt("MIN_MAINNET_TXNS_PER_DAY", 4000),
		MaxDailyTxns:   getEnvAsInt("MAX_MAINNET_TXNS_PER_DAY", 6300),
		CycleOptions:   getEnvAsIntSlice("CYCLE_OPTIONS", []int{3, 5, 7}),
		SleepPatterns:  getEnvAsDurationSlice("SLEEP_PATTERNS_SEC", defaultSleepPatterns()),
		CooldownPeriod: getEnvAsDuration("COOLDOWN_PERIOD", time.Hour),
		ReceiptTimeout: getEnvAsDuration("RECEIPT_TIMEOUT", 5*time.Minute),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 3),
		QueueSize:      getEnvAsInt("QUEUE_SIZE", 10),
		BackupEvery:    getEnvAsInt("BACKUP_EVERY", 100),

		ExplorerAPIURL:  getEnv("EXPLORER_API_URL", "https://blockindex.net/api"),
		ExplorerAPIKey:  getEnv("EXPLORER_API_KEY", ""),
		OracleAPIURL:    getEnv("ORACLE_API_URL", ""),
		OracleAPIKey:    getEnv("ORACLE_API_KEY", ""),
		SourceContracts: getEnvAsStringSlice("SOURCE_CONTRACTS", nil),
		RawWalletTarget: getEnvAsInt("RAW_WALLET_TARGET", 20000),
		PoolTarget:      getEnvAsInt("POOL_TARGET", 4000),
		USDThreshold:    getEnvAsFloat("USD_THRESHOLD", 1.0),
		ScrapeInterval:  getEnvAsDuration("SCRAPE_INTERVAL", 250*time.Millisecond),

		DataDir:          getEnv("DATA_DIR", "./data"),
		LedgerFileName:   getEnv("LEDGER_FILE", "mint_records.csv"),
		PoolFileName:     getEnv("POOL_FILE", "scraped_wallets.json"),
		StatusFileName:   getEnv("STATUS_FILE", "scraper_status.json"),
		ModeFileName:     getEnv("MODE_FILE", "wallet_mode.json"),
		SchedulerPIDName: getEnv("SCHEDULER_PID_FILE", "gutta.pid"),
		ScraperPIDName:   getEnv("SCRAPER_PID_FILE", "scraper.pid"),
	}

	// Set default network ID before validation (required for address validation)
	common.DefaultNetworkID = common.NetworkID(cfg.MainnetNetworkID.Int64())

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.MainnetContractAddress == "" {
		return fmt.Errorf("MAINNET_CONTRACT_ADDRESS is required")
	}
	if _, err := common.HexToAddress(c.MainnetContractAddress); err != nil {
		return fmt.Errorf("invalid MAINNET_CONTRACT_ADDRESS format: %w", err)
	}

	if c.TestnetContractAddress == "" {
		return fmt.Errorf("TESTNET_CONTRACT_ADDRESS is required")
	}

	if c.MainnetRPCURL == "" {
		return fmt.Errorf("MAINNET_RPC_URL is required")
	}
	if c.TestnetRPCURL == "" {
		return fmt.Errorf("TESTNET_RPC_URL is required")
	}

	if c.SecretName == "" {
		return fmt.Errorf("SECRET_NAME is required")
	}

	if c.MinDailyTxns <= 0 || c.MaxDailyTxns < c.MinDailyTxns {
		return fmt.Errorf("daily transaction range [%d, %d] is invalid", c.MinDailyTxns, c.MaxDailyTxns)
	}

	if len(c.CycleOptions) == 0 {
		return fmt.Errorf("CYCLE_OPTIONS must not be empty")
	}
	for _, opt := range c.CycleOptions {
		if opt <= 0 {
			return fmt.Errorf("CYCLE_OPTIONS entries must be positive, got %d", opt)
		}
	}

	if len(c.SleepPatterns) == 0 {
		return fmt.Errorf("SLEEP_PATTERNS_SEC must not be empty")
	}

	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("QUEUE_SIZE must be positive")
	}

	if _, err := c.MinBalanceOre(); err != nil {
		return err
	}

	return nil
}

// Mainnet returns the mainnet network descriptor.
func (c *Config) Mainnet() models.Network {
	return models.Network{
		Name:               models.NetworkMainnet,
		DisplayName:        "Core Mainnet",
		RPCURL:             c.MainnetRPCURL,
		ContractAddress:    c.MainnetContractAddress,
		NetworkID:          c.MainnetNetworkID,
		ExplorerTxTemplate: c.MainnetExplorerTxURL,
	}
}

// Testnet returns the Devin testnet network descriptor.
func (c *Config) Testnet() models.Network {
	return models.Network{
		Name:               models.NetworkTestnet,
		DisplayName:        "Devin Testnet",
		RPCURL:             c.TestnetRPCURL,
		ContractAddress:    c.TestnetContractAddress,
		NetworkID:          c.TestnetNetworkID,
		ExplorerTxTemplate: c.TestnetExplorerTxURL,
	}
}

// MinBalanceOre converts the decimal XCB threshold into ore (10^18 per coin).
func (c *Config) MinBalanceOre() (*big.Int, error) {
	threshold, ok := new(big.Float).SetString(c.MinBalanceXCB)
	if !ok {
		return nil, fmt.Errorf("invalid MIN_BALANCE_THRESHOLD %q", c.MinBalanceXCB)
	}
	ore, _ := new(big.Float).Mul(threshold, big.NewFloat(1e18)).Int(nil)
	if ore.Sign() < 0 {
		return nil, fmt.Errorf("MIN_BALANCE_THRESHOLD must not be negative")
	}
	return ore, nil
}

// defaultSleepPatterns covers roughly one to thirty minutes between mints.
func defaultSleepPatterns() []time.Duration {
	seconds := []int{
		63, 127, 189, 243, 311, 367, 421, 487, 551, 613,
		677, 731, 797, 853, 911, 973, 1031, 1097, 1153, 1217,
		1283, 1337, 1409, 1471, 1531, 1597, 1661, 1723, 1787, 1800,
	}
	patterns := make([]time.Duration, 0, len(seconds))
	for _, s := range seconds {
		patterns = append(patterns, time.Duration(s)*time.Second)
	}
	return patterns
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsInt64(name string, defaultValue int64) int64 {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsFloat(name string, defaultValue float64) float64 {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBigInt(name string, defaultValue *big.Int) *big.Int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, ok := new(big.Int).SetString(valueStr, 10); ok {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsIntSlice(name string, defaultValue []int) []int {
	valueStr, exists := os.LookupEnv(name)
	if !exists {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		values = append(values, value)
	}
	return values
}

func getEnvAsDurationSlice(name string, defaultValue []time.Duration) []time.Duration {
	seconds := getEnvAsIntSlice(name, nil)
	if seconds == nil {
		return defaultValue
	}
	values := make([]time.Duration, 0, len(seconds))
	for _, s := range seconds {
		values = append(values, time.Duration(s)*time.Second)
	}
	return values
}

func getEnvAsStringSlice(name string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(name)
	if !exists || valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
