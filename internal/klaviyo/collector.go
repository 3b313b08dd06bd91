package klaviyo

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ignite/agency-pulse/internal/config"
	"github.com/ignite/agency-pulse/internal/engine"
)

// ClientAccount is the slice of a dashboard client the collector needs:
// its identity and its Klaviyo private key.
type ClientAccount struct {
	ID     string
	Name   string
	APIKey string
}

// StorageInterface defines the storage operations needed by the collector
type StorageInterface interface {
	ListClientAccounts(ctx context.Context) ([]ClientAccount, error)
	SaveCampaigns(ctx context.Context, clientID string, records []engine.CampaignRecord) error
	SaveFlows(ctx context.Context, clientID string, records []engine.FlowRecord) error
	SaveFlowTrend(ctx context.Context, clientID, flowID string, points []engine.WeeklyFlowTrendPoint) error
	SaveListGrowth(ctx context.Context, clientID string, records []engine.ListGrowthRecord) error
}

// Collector periodically pulls campaign, flow and list-growth records
// from Klaviyo for every client account and writes them through storage.
type Collector struct {
	client  *Client
	storage StorageInterface
	cfg     config.SyncConfig

	mu        sync.RWMutex
	lastSync  time.Time
	isRunning bool
}

// NewCollector creates a new record sync collector
func NewCollector(client *Client, storage StorageInterface, cfg config.SyncConfig) *Collector {
	return &Collector{
		client:  client,
		storage: storage,
		cfg:     cfg,
	}
}

// LastSyncTime returns when the last full sync pass completed.
func (c *Collector) LastSyncTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

// IsRunning reports whether the sync loop is active.
func (c *Collector) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}

// Start begins the sync loop. It blocks until ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	c.isRunning = true
	c.mu.Unlock()

	log.Println("Starting Klaviyo record sync...")

	// Initial sync
	c.syncAll(ctx)

	ticker := time.NewTicker(c.cfg.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping Klaviyo record sync...")
			c.mu.Lock()
			c.isRunning = false
			c.mu.Unlock()
			return
		case <-ticker.C:
			c.syncAll(ctx)
		}
	}
}

// SyncNow runs one full sync pass outside the schedule, used by the
// manual refresh endpoint.
func (c *Collector) SyncNow(ctx context.Context) {
	c.syncAll(ctx)
}

// syncAll syncs every client account, fanning out per account.
func (c *Collector) syncAll(ctx context.Context) {
	startTime := time.Now()

	accounts, err := c.storage.ListClientAccounts(ctx)
	if err != nil {
		log.Printf("Klaviyo sync: failed to list client accounts: %v", err)
		return
	}
	log.Printf("Klaviyo sync: syncing %d client accounts...", len(accounts))

	var wg sync.WaitGroup
	results := make(chan error, len(accounts))

	for _, account := range accounts {
		wg.Add(1)
		go func(acct ClientAccount) {
			defer wg.Done()
			results <- c.syncAccount(ctx, acct)
		}(account)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	successCount := 0
	for err := range results {
		if err != nil {
			log.Printf("Klaviyo sync: account sync error: %v", err)
		} else {
			successCount++
		}
	}

	c.mu.Lock()
	c.lastSync = time.Now()
	c.mu.Unlock()

	log.Printf("Klaviyo sync completed in %v (%d/%d accounts)",
		time.Since(startTime), successCount, len(accounts))
}

// syncAccount pulls and stores all record types for one client account.
// Individual fetch failures are logged and skipped; the rest of the
// account still syncs.
func (c *Collector) syncAccount(ctx context.Context, acct ClientAccount) error {
	campaigns, err := c.client.GetCampaignStats(ctx, acct.APIKey, c.cfg.LookbackDays)
	if err != nil {
		return err
	}
	records := make([]engine.CampaignRecord, 0, len(campaigns))
	for _, s := range campaigns {
		records = append(records, s.ToCampaignRecord())
	}
	if err := c.storage.SaveCampaigns(ctx, acct.ID, records); err != nil {
		return err
	}

	flows, err := c.client.GetFlowStats(ctx, acct.APIKey, c.cfg.LookbackDays)
	if err != nil {
		log.Printf("Klaviyo sync: %s: flow fetch failed: %v", acct.Name, err)
	} else {
		flowRecords := make([]engine.FlowRecord, 0, len(flows))
		for _, s := range flows {
			flowRecords = append(flowRecords, s.ToFlowRecord())
		}
		if err := c.storage.SaveFlows(ctx, acct.ID, flowRecords); err != nil {
			return err
		}
		c.syncFlowTrends(ctx, acct, flowRecords)
	}

	growth, err := c.client.GetListGrowth(ctx, acct.APIKey, c.cfg.LookbackDays)
	if err != nil {
		log.Printf("Klaviyo sync: %s: list growth fetch failed: %v", acct.Name, err)
		return nil
	}
	growthRecords := make([]engine.ListGrowthRecord, 0, len(growth))
	for _, s := range growth {
		growthRecords = append(growthRecords, s.ToListGrowthRecord())
	}
	return c.storage.SaveListGrowth(ctx, acct.ID, growthRecords)
}

// syncFlowTrends stores the weekly trend series per flow, which feeds the
// recap comparator's prior-period split.
func (c *Collector) syncFlowTrends(ctx context.Context, acct ClientAccount, flows []engine.FlowRecord) {
	for _, f := range flows {
		rows, err := c.client.GetWeeklyFlowTrend(ctx, acct.APIKey, f.ID, c.cfg.LookbackDays)
		if err != nil {
			log.Printf("Klaviyo sync: %s: trend fetch failed for flow %s: %v", acct.Name, f.ID, err)
			continue
		}
		points := make([]engine.WeeklyFlowTrendPoint, 0, len(rows))
		for _, row := range rows {
			if pt, ok := row.ToTrendPoint(); ok {
				points = append(points, pt)
			}
		}
		if err := c.storage.SaveFlowTrend(ctx, acct.ID, f.ID, points); err != nil {
			log.Printf("Klaviyo sync: %s: trend save failed for flow %s: %v", acct.Name, f.ID, err)
		}
	}
}
