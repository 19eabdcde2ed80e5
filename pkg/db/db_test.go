package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/cache"
)

var _ cache.Store = (*SummaryStore)(nil)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Use in-memory database for tests
	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// every connection to :memory: is a separate database
	database.SetMaxOpenConns(1)

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func TestOpenAt_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultDBName)
	db, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt() error = %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}

	n, err := db.Summaries().Len(context.Background())
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
}

func TestOpen_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.db")
	t.Setenv(PathEnv, path)

	db, err := Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}

	// reopening an initialized file must not recreate the schema
	db2, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt() second open error = %v", err)
	}
	db2.Close()
}

func TestSummaries_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	store := db.Summaries()

	key := cache.Key(cache.Request{Href: "https://example.com/report.pdf"})

	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get() on empty cache = ok %v, err %v", ok, err)
	}

	if err := store.Put(ctx, key, "Report\n\n• revenue up"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false after Put")
	}
	if got != "Report\n\n• revenue up" {
		t.Errorf("Get() = %q", got)
	}

	// Overwrite keeps a single row
	if err := store.Put(ctx, key, "newer"); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	n, _ := store.Len(ctx)
	if n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if all[key] != "newer" {
		t.Errorf("All()[key] = %q, want newer", all[key])
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	n, _ = store.Len(ctx)
	if n != 0 {
		t.Errorf("Len() after Clear = %d, want 0", n)
	}
}

func TestSettings_DefaultsWhenEmpty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	got, err := db.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got != models.DefaultSettings() {
		t.Errorf("LoadSettings() = %+v, want defaults", got)
	}
}

func TestSettings_SaveAndReset(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.SaveSetting(models.KeyBackendURL, "http://backend:9000"); err != nil {
		t.Fatalf("SaveSetting() error = %v", err)
	}
	if err := db.SaveSetting(models.KeyOCREnabled, "false"); err != nil {
		t.Fatalf("SaveSetting() error = %v", err)
	}
	if err := db.SaveSetting(models.KeyMaxSummaryLength, "not-a-number"); err == nil {
		t.Error("SaveSetting() accepted invalid maxSummaryLength")
	}
	if err := db.SaveSetting("nope", "x"); err == nil {
		t.Error("SaveSetting() accepted unknown key")
	}

	got, err := db.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got.BackendURL != "http://backend:9000" {
		t.Errorf("BackendURL = %q", got.BackendURL)
	}
	if got.OCREnabled {
		t.Error("OCREnabled = true, want false")
	}
	if got.MaxSummaryLength != 400 {
		t.Errorf("MaxSummaryLength = %d, want default 400", got.MaxSummaryLength)
	}

	if err := db.ResetSettings(); err != nil {
		t.Fatalf("ResetSettings() error = %v", err)
	}
	got, _ = db.LoadSettings()
	if got != models.DefaultSettings() {
		t.Errorf("after reset = %+v, want defaults", got)
	}
}

func TestSettings_SaveAll(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	want := models.DefaultSettings()
	want.GeminiAPIKey = "secret"
	want.GroupByType = true
	if err := db.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	got, err := db.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadSettings() = %+v, want %+v", got, want)
	}
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.RecordScanStats(5); err != nil {
		t.Fatalf("RecordScanStats() error = %v", err)
	}
	if err := db.RecordScanStats(3); err != nil {
		t.Fatalf("RecordScanStats() error = %v", err)
	}
	if err := db.IncrementStat(StatSummariesGenerated, 1); err != nil {
		t.Fatalf("IncrementStat() error = %v", err)
	}

	got, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	want := models.Stats{TotalScans: 2, TotalItems: 8, SummariesGenerated: 1}
	if got != want {
		t.Errorf("GetStats() = %+v, want %+v", got, want)
	}

	if err := db.ClearStats(); err != nil {
		t.Fatalf("ClearStats() error = %v", err)
	}
	got, _ = db.GetStats()
	if got != (models.Stats{}) {
		t.Errorf("after clear = %+v, want zero", got)
	}
}

func TestRecordScan(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	items := []models.ScannedItem{
		{ID: "0-0", Type: models.ItemDocument, Name: "a.pdf", Href: models.StrPtr("https://x/a.pdf"), Timestamp: 10, Platform: "Slack"},
		{ID: "0-link-0", Type: models.ItemLink, Name: "https://y", Href: models.StrPtr("https://y"), Timestamp: 20, Platform: "Slack"},
		{ID: "img-0", Type: models.ItemImage, Src: models.StrPtr("https://x/c.png"), Alt: "c", Timestamp: 30, MessageIndex: 1, Platform: "Slack"},
	}

	scanID, err := db.RecordScan("page.html", "Slack", "general", items, nil)
	if err != nil {
		t.Fatalf("RecordScan() error = %v", err)
	}

	scan, err := db.GetScanByID(scanID)
	if err != nil {
		t.Fatalf("GetScanByID() error = %v", err)
	}
	if scan.ItemCount != 3 || scan.Status != ScanSuccess || scan.ChatTitle != "general" {
		t.Errorf("scan = %+v", scan)
	}

	got, err := db.GetScanItems(scanID)
	if err != nil {
		t.Fatalf("GetScanItems() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetScanItems() len = %d, want 3", len(got))
	}
	for i := range items {
		if got[i].ID != items[i].ID || got[i].Type != items[i].Type || got[i].Target() != items[i].Target() {
			t.Errorf("item %d = %+v, want %+v", i, got[i], items[i])
		}
	}
	if got[2].Href != nil {
		t.Errorf("image href = %v, want nil", *got[2].Href)
	}
	if got[2].Alt != "c" || got[2].MessageIndex != 1 {
		t.Errorf("image = %+v", got[2])
	}
}

func TestRecordScan_Failed(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	items := []models.ScannedItem{{ID: "x", Type: models.ItemLink, Name: "x"}}
	scanID, err := db.RecordScan("page.html", "Discord", "", items, errors.New("Discord: could not find chat messages"))
	if err != nil {
		t.Fatalf("RecordScan() error = %v", err)
	}

	scan, err := db.GetScanByID(scanID)
	if err != nil {
		t.Fatalf("GetScanByID() error = %v", err)
	}
	if scan.Status != ScanFailed || scan.ItemCount != 0 {
		t.Errorf("scan = %+v", scan)
	}
	if scan.ErrorMessage == "" {
		t.Error("ErrorMessage is empty")
	}

	got, _ := db.GetScanItems(scanID)
	if len(got) != 0 {
		t.Errorf("failed scan stored %d items", len(got))
	}
}

func TestListAndQueryScans(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	id1, _ := db.RecordScan("a.html", "Slack", "", nil, nil)
	id2, _ := db.RecordScan("b.html", "Discord", "", nil, errors.New("boom"))
	id3, _ := db.RecordScan("c.html", "Slack", "", nil, nil)

	scans, err := db.ListScans(2)
	if err != nil {
		t.Fatalf("ListScans() error = %v", err)
	}
	if len(scans) != 2 || scans[0].ScanID != id3 || scans[1].ScanID != id2 {
		t.Errorf("ListScans(2) = %+v", scans)
	}

	failed, err := db.QueryScans(false, true, "")
	if err != nil {
		t.Fatalf("QueryScans() error = %v", err)
	}
	if len(failed) != 1 || failed[0].ScanID != id2 {
		t.Errorf("failed scans = %+v", failed)
	}

	slack, _ := db.QueryScans(true, false, "slack")
	if len(slack) != 2 || slack[1].ScanID != id1 {
		t.Errorf("slack scans = %+v", slack)
	}

	if _, err := db.GetScanByID(999); err == nil {
		t.Error("GetScanByID(999) error = nil, want not found")
	}
}
