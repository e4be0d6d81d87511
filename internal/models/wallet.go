package models

// CandidateWallet is one pre-harvested recipient in the wallet pool.
// The scraper appends entries; the scheduler flips Used exactly once.
type CandidateWallet struct {
	Address string `json:"address"`
	// USDValue is the aggregate fiat-equivalent balance observed by the
	// balance oracle at discovery time.
	USDValue float64 `json:"usd_value"`
	Used     bool    `json:"used"`
	// ScrapedDate is an ISO-8601 timestamp of discovery.
	ScrapedDate string `json:"scraped_date"`
}

// PoolState is the on-disk layout of the wallet pool file. The master set
// holds every address ever seen, used and unused alike, so repeated
// scraper passes never re-admit an address.
type PoolState struct {
	Wallets     []*CandidateWallet `json:"wallets"`
	MasterSet   []string           `json:"master_set"`
	LastUpdated string             `json:"last_updated"`
}

// WalletMode selects where mint recipients come from.
type WalletMode string

const (
	// ModeGenerate creates a fresh keypair per mint.
	ModeGenerate WalletMode = "generate"
	// ModeScraped consumes pre-harvested pool wallets.
	ModeScraped WalletMode = "scraped"
)

// ScraperStatus is the wholesale-overwritten progress file a long scraper
// pass maintains for the external dashboard.
type ScraperStatus struct {
	Status           string `json:"status"` // running, completed, stopped
	WalletsCollected int    `json:"wallets_collected"`
	Target           int    `json:"target"`
	Message          string `json:"message"`
	LastUpdate       string `json:"last_update"`
}

const (
	ScraperStatusRunning   = "running"
	ScraperStatusCompleted = "completed"
	ScraperStatusStopped   = "stopped"
)
