package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/agency-pulse/internal/engine"
)

func setupStoreTest(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return NewWithDB(db), mock, func() { db.Close() }
}

func TestSaveCampaigns_ReplacesInsideTransaction(t *testing.T) {
	store, mock, cleanup := setupStoreTest(t)
	defer cleanup()

	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []engine.CampaignRecord{
		{ID: "c1", Name: "Spring Launch", Subject: "It's here", Status: engine.CampaignStatusSent, Channel: "email", SentAt: &sentAt, Recipients: 1000, Revenue: 250},
		{ID: "c2", Name: "Draft Idea", Status: engine.CampaignStatusDraft, Channel: "email"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM campaign_records").
		WithArgs("client-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO campaign_records").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO campaign_records").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := store.SaveCampaigns(context.Background(), "client-1", records); err != nil {
		t.Fatalf("SaveCampaigns failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveCampaigns_RollsBackOnInsertError(t *testing.T) {
	store, mock, cleanup := setupStoreTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM campaign_records").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO campaign_records").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := store.SaveCampaigns(context.Background(), "client-1", []engine.CampaignRecord{{ID: "c1"}})
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLoadCampaigns_KeepsNullSendTimes(t *testing.T) {
	store, mock, cleanup := setupStoreTest(t)
	defer cleanup()

	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "name", "subject", "status", "channel", "sent_at", "recipients",
		"opened", "clicked", "orders", "bounced", "unsubscribed", "revenue",
		"open_rate", "click_rate", "bounce_rate", "unsubscribe_rate",
	}).
		AddRow("c1", "Spring Launch", "It's here", "sent", "email", sentAt, 1000, 300, 50, 5, 2, 1, 250.0, 0.3, 0.05, 0.002, 0.001).
		AddRow("c2", "Draft Idea", "", "draft", "email", nil, 0, 0, 0, 0, 0, 0, 0.0, 0.0, 0.0, 0.0, 0.0)

	mock.ExpectQuery("SELECT (.+) FROM campaign_records").
		WillReturnRows(rows)

	records, err := store.LoadCampaigns(context.Background(), "client-1", engine.Timeframe90)
	if err != nil {
		t.Fatalf("LoadCampaigns failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].SentAt == nil || !records[0].SentAt.Equal(sentAt) {
		t.Errorf("expected sent_at %v, got %v", sentAt, records[0].SentAt)
	}
	if records[1].SentAt != nil {
		t.Errorf("expected nil sent_at for the draft, got %v", records[1].SentAt)
	}
}

func TestLoadFlowTrends_GroupsByFlow(t *testing.T) {
	store, mock, cleanup := setupStoreTest(t)
	defer cleanup()

	w1 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	w2 := w1.AddDate(0, 0, 7)
	rows := sqlmock.NewRows([]string{"flow_id", "week_start", "revenue", "opens", "clicks", "recipients"}).
		AddRow("f1", w1, 100.0, 40, 10, 500).
		AddRow("f1", w2, 150.0, 45, 12, 510).
		AddRow("f2", w1, 80.0, 20, 5, 200)

	mock.ExpectQuery("SELECT (.+) FROM flow_trend_points").
		WithArgs("client-1").
		WillReturnRows(rows)

	trends, err := store.LoadFlowTrends(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("LoadFlowTrends failed: %v", err)
	}
	if len(trends) != 2 {
		t.Fatalf("expected 2 flows, got %d", len(trends))
	}
	if len(trends["f1"]) != 2 || len(trends["f2"]) != 1 {
		t.Errorf("unexpected grouping: f1=%d f2=%d", len(trends["f1"]), len(trends["f2"]))
	}
	if trends["f1"][1].Revenue != 150.0 {
		t.Errorf("expected week 2 revenue 150, got %v", trends["f1"][1].Revenue)
	}
}

func TestSaveListGrowth_SkipsRowsWithoutDate(t *testing.T) {
	store, mock, cleanup := setupStoreTest(t)
	defer cleanup()

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	records := []engine.ListGrowthRecord{
		{Date: &date, Subscribed: 12, Unsubscribed: 3},
		{Date: nil, Subscribed: 99},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM list_growth_records").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO list_growth_records").
		WithArgs("client-1", date, 12, 3).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := store.SaveListGrowth(context.Background(), "client-1", records); err != nil {
		t.Fatalf("SaveListGrowth failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListClientAccounts_OmitsClientsWithoutKey(t *testing.T) {
	store, mock, cleanup := setupStoreTest(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "name", "klaviyo_api_key"}).
		AddRow("client-1", "Acme Apparel", "pk_test_1")

	mock.ExpectQuery("SELECT (.+) FROM clients WHERE klaviyo_api_key").
		WillReturnRows(rows)

	accounts, err := store.ListClientAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListClientAccounts failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].APIKey != "pk_test_1" {
		t.Errorf("unexpected accounts: %+v", accounts)
	}
}
