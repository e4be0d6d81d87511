package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/urfave/cli/v2"

	"github.com/core-coin/gutta/internal/archive"
	"github.com/core-coin/gutta/internal/blockchain"
	"github.com/core-coin/gutta/internal/config"
	"github.com/core-coin/gutta/internal/ledger"
	"github.com/core-coin/gutta/internal/models"
	"github.com/core-coin/gutta/internal/notificator"
	"github.com/core-coin/gutta/internal/scheduler"
	"github.com/core-coin/gutta/internal/scraper"
	"github.com/core-coin/gutta/internal/secrets"
	"github.com/core-coin/gutta/internal/wallets"
	"github.com/core-coin/gutta/pkg/logger"
	"github.com/core-coin/gutta/pkg/pidfile"
	"github.com/core-coin/gutta/pkg/randx"
)

func main() {
	app := &cli.App{
		Name:  "gutta",
		Usage: "Gutta is a drip-minting bot for the Core blockchain",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
			&cli.StringFlag{Name: "data-dir", Aliases: []string{"d"}, Usage: "Data directory"},
			&cli.StringFlag{Name: "mainnet-rpc-url", Usage: "Mainnet RPC endpoint"},
			&cli.StringFlag{Name: "testnet-rpc-url", Usage: "Testnet RPC endpoint"},
			&cli.StringFlag{Name: "secret-name", Aliases: []string{"s"}, Usage: "Secrets Manager entry holding the payer key"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Mint worker count"},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the minting scheduler",
				Action: func(c *cli.Context) error {
					return runScheduler(c)
				},
			},
			{
				Name:  "scrape",
				Usage: "Run one wallet-scraper pass",
				Action: func(c *cli.Context) error {
					return runScraper(c)
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	// Override with flags if set
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("mainnet-rpc-url") {
		cfg.MainnetRPCURL = c.String("mainnet-rpc-url")
	}
	if c.IsSet("testnet-rpc-url") {
		cfg.TestnetRPCURL = c.String("testnet-rpc-url")
	}
	if c.IsSet("secret-name") {
		cfg.SecretName = c.String("secret-name")
	}
	if c.IsSet("workers") {
		cfg.WorkerCount = c.Int("workers")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	return cfg, nil
}

// buildAlerts assembles the alert sink from whichever channels are
// configured; with none, alerts are log-only.
func buildAlerts(cfg *config.Config, awsCfg aws.Config, log *logger.Logger) (models.AlertSink, error) {
	var channels []notificator.Channel

	if cfg.SNSTopicARN != "" {
		channels = append(channels, notificator.NewSNSNotificator(log, awsCfg, cfg.SNSTopicARN))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notificator.NewTelegramNotificator(log, cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram channel: %v", err)
		}
		channels = append(channels, tg)
	}

	return notificator.NewNotificator(log, channels...), nil
}

func runScheduler(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	pidPath := filepath.Join(cfg.DataDir, cfg.SchedulerPIDName)
	if err := pidfile.Check(pidPath); err != nil {
		return err
	}
	if err := pidfile.Write(pidPath); err != nil {
		return err
	}
	defer pidfile.Remove(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %v", err)
	}

	alerts, err := buildAlerts(cfg, awsCfg, log)
	if err != nil {
		return err
	}

	log.Info("retrieving payer private key")
	keyHex, err := secrets.NewManager(awsCfg).Get(ctx, cfg.SecretName)
	if err != nil {
		return fmt.Errorf("failed to retrieve payer key: %w", err)
	}

	mainnet, err := blockchain.NewGocore(cfg.Mainnet(), keyHex, cfg.ReceiptTimeout, log)
	if err != nil {
		return fmt.Errorf("failed to connect to mainnet: %v", err)
	}
	defer mainnet.Close()

	testnet, err := blockchain.NewGocore(cfg.Testnet(), keyHex, cfg.ReceiptTimeout, log)
	if err != nil {
		return fmt.Errorf("failed to connect to testnet: %v", err)
	}
	defer testnet.Close()

	for _, client := range []*blockchain.Gocore{mainnet, testnet} {
		if err := client.VerifyNetworkID(ctx); err != nil {
			return err
		}
	}
	log.Infof("payer address: %s", mainnet.OwnerAddress())

	walletSource, err := buildWalletSource(cfg, log, alerts)
	if err != nil {
		return err
	}

	ledgerStore := ledger.NewCSV(filepath.Join(cfg.DataDir, cfg.LedgerFileName), log, cfg.Mainnet(), cfg.Testnet())
	archiveSink := archive.New(log, awsCfg, cfg.S3Bucket, cfg.EmailSender)

	minBalance, err := cfg.MinBalanceOre()
	if err != nil {
		return err
	}
	minter := scheduler.NewMinter(log, alerts, minBalance)

	sched := scheduler.NewScheduler(log, scheduler.Options{
		WorkerCount:    cfg.WorkerCount,
		QueueSize:      cfg.QueueSize,
		Cooldown:       cfg.CooldownPeriod,
		SleepPatterns:  cfg.SleepPatterns,
		BackupEvery:    cfg.BackupEvery,
		MinDailyTxns:   cfg.MinDailyTxns,
		MaxDailyTxns:   cfg.MaxDailyTxns,
		CycleOptions:   cfg.CycleOptions,
		EmailRecipient: cfg.EmailRecipient,
	}, minter, map[string]models.ChainClient{
		models.NetworkMainnet: mainnet,
		models.NetworkTestnet: testnet,
	}, walletSource, ledgerStore, alerts, archiveSink, randx.New())

	return sched.Run(ctx)
}

func buildWalletSource(cfg *config.Config, log *logger.Logger, alerts models.AlertSink) (models.WalletSource, error) {
	mode, err := wallets.ReadMode(filepath.Join(cfg.DataDir, cfg.ModeFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet mode: %v", err)
	}
	log.Infof("wallet mode: %s", mode)

	if mode == models.ModeGenerate {
		return wallets.NewGenerator(), nil
	}

	pool, recovered, err := wallets.LoadPool(filepath.Join(cfg.DataDir, cfg.PoolFileName), log)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet pool: %v", err)
	}
	if recovered {
		alerts.Notify("Wallet Pool Corrupt",
			"The wallet pool file could not be parsed and was reset to empty. Previously scraped candidates are lost.")
	}
	return pool, nil
}

func runScraper(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	pidPath := filepath.Join(cfg.DataDir, cfg.ScraperPIDName)
	if err := pidfile.Check(pidPath); err != nil {
		return err
	}
	if err := pidfile.Write(pidPath); err != nil {
		return err
	}
	defer pidfile.Remove(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %v", err)
	}

	alerts, err := buildAlerts(cfg, awsCfg, log)
	if err != nil {
		return err
	}

	// The scraper only reads bytecode, so it runs without the payer key.
	chain, err := blockchain.NewGocore(cfg.Mainnet(), "", cfg.ReceiptTimeout, log)
	if err != nil {
		return fmt.Errorf("failed to connect to mainnet: %v", err)
	}
	defer chain.Close()

	pool, recovered, err := wallets.LoadPool(filepath.Join(cfg.DataDir, cfg.PoolFileName), log)
	if err != nil {
		return fmt.Errorf("failed to load wallet pool: %v", err)
	}
	if recovered {
		alerts.Notify("Wallet Pool Corrupt",
			"The wallet pool file could not be parsed and was reset to empty. Starting the pass from scratch.")
	}

	source := scraper.NewExplorerSource(log, cfg.ExplorerAPIURL, cfg.ExplorerAPIKey, cfg.SourceContracts, cfg.ScrapeInterval)
	oracle := scraper.NewUSDOracle(log, cfg.OracleAPIURL, cfg.OracleAPIKey)
	status := scraper.NewStatusFile(filepath.Join(cfg.DataDir, cfg.StatusFileName))

	pass := scraper.NewScraper(log, scraper.Options{
		RawTarget:    cfg.RawWalletTarget,
		PoolTarget:   cfg.PoolTarget,
		USDThreshold: cfg.USDThreshold,
	}, source, oracle, chain, pool, status, alerts)

	return pass.Run(ctx)
}
