package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/thedittmer/podcast-skill/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	return s
}

func sampleReport() models.LatestReport {
	return models.LatestReport{
		GeneratedAt: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		Rows: []models.ReportRow{
			{Podcast: "Tech Talk", FeedURL: "https://example.com/tech.xml", Episode: "Episode 3"},
			{Podcast: "Broken", FeedURL: "https://example.com/broken.xml", Error: "bad-feed"},
		},
	}
}

func TestReportRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	if _, ok, err := s.LoadReport(); err != nil || ok {
		t.Fatalf("LoadReport() on empty storage = %v, %v", ok, err)
	}
	if err := s.SaveReport(sampleReport()); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	got, ok, err := s.LoadReport()
	if err != nil || !ok {
		t.Fatalf("LoadReport() = %v, %v", ok, err)
	}
	if len(got.Rows) != 2 || got.Rows[0].Episode != "Episode 3" {
		t.Errorf("report = %+v", got)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), reportFile+".tmp")); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestSpreadsheetID(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.LoadSpreadsheetID()
	if err != nil || id != "" {
		t.Fatalf("LoadSpreadsheetID() = %q, %v", id, err)
	}
	if err := s.SaveSpreadsheetID("abc"); err != nil {
		t.Fatalf("SaveSpreadsheetID failed: %v", err)
	}
	if id, _ := s.LoadSpreadsheetID(); id != "abc" {
		t.Errorf("LoadSpreadsheetID() = %q, want abc", id)
	}
}

func TestNewStorageRequiresDir(t *testing.T) {
	if _, err := NewStorage(""); err == nil {
		t.Fatal("expected error for empty data dir")
	}
}

type fakeSheets struct {
	mu       sync.Mutex
	created  int
	updated  [][]interface{}
	frozen   bool
	lastPath string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPath = r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v4/spreadsheets":
		f.created++
		w.Write([]byte(`{"spreadsheetId":"new-sheet"}`))
	case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/values/"):
		var vr sheets.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.updated = vr.Values
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		f.frozen = true
		w.Write([]byte(`{}`))
	case r.Method == http.MethodGet:
		w.Write([]byte(`{"spreadsheetId":"new-sheet","sheets":[{"properties":{"sheetId":7,"title":"Latest"}}]}`))
	default:
		http.NotFound(w, r)
	}
}

func TestExportCreatesSpreadsheet(t *testing.T) {
	fake := &fakeSheets{}
	server := httptest.NewServer(fake)
	defer server.Close()

	ctx := context.Background()
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(server.Client()), option.WithEndpoint(server.URL+"/"))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	s := newTestStorage(t)
	res, err := s.export(ctx, svc, nil, sampleReport(), SheetsOptions{})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if res.SpreadsheetID != "new-sheet" || res.Rows != 2 {
		t.Errorf("result = %+v", res)
	}
	if !strings.HasSuffix(res.URL, "/new-sheet/edit") {
		t.Errorf("URL = %q", res.URL)
	}
	if fake.created != 1 || !fake.frozen {
		t.Errorf("created=%d frozen=%v", fake.created, fake.frozen)
	}
	if len(fake.updated) != 3 || fake.updated[1][0] != "Tech Talk" || fake.updated[2][3] != "bad-feed" {
		t.Errorf("updated values = %v", fake.updated)
	}
	if id, _ := s.LoadSpreadsheetID(); id != "new-sheet" {
		t.Errorf("spreadsheet id not remembered, got %q", id)
	}

	// A second export reuses the remembered spreadsheet.
	if _, err := s.export(ctx, svc, nil, sampleReport(), SheetsOptions{}); err != nil {
		t.Fatalf("second export failed: %v", err)
	}
	if fake.created != 1 {
		t.Errorf("expected no second spreadsheet, created=%d", fake.created)
	}
}

func TestExportToSheetsMissingCredentials(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.ExportToSheets(context.Background(), sampleReport(), SheetsOptions{
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestReportValues(t *testing.T) {
	values := reportValues(sampleReport())
	if len(values) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(values))
	}
	if values[0][0] != "Podcast" {
		t.Errorf("header = %v", values[0])
	}
	if values[1][3] != "ok" || values[1][4] != "2024-06-03 10:00:00" {
		t.Errorf("row = %v", values[1])
	}
}
