package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/thedittmer/podcast-skill/internal/models"
)

type SheetsOptions struct {
	CredentialsFile string
	// SpreadsheetID overrides the remembered spreadsheet. When both are empty a
	// new spreadsheet is created.
	SpreadsheetID string
	// FolderID, if set, is the Drive folder new spreadsheets are moved into.
	FolderID string
}

type ExportResult struct {
	SpreadsheetID string
	URL           string
	Rows          int
}

// ExportToSheets writes report to a Google spreadsheet using service-account
// credentials.
func (s *Storage) ExportToSheets(ctx context.Context, report models.LatestReport, opts SheetsOptions) (ExportResult, error) {
	credentials, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return ExportResult{}, fmt.Errorf("unable to read credentials file: %w", err)
	}

	oauthConfig, err := google.JWTConfigFromJSON(credentials,
		sheets.SpreadsheetsScope,
		drive.DriveFileScope,
	)
	if err != nil {
		return ExportResult{}, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client := oauthConfig.Client(ctx)
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return ExportResult{}, fmt.Errorf("unable to create sheets client: %w", err)
	}
	driveService, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return ExportResult{}, fmt.Errorf("unable to create drive client: %w", err)
	}

	return s.export(ctx, sheetsService, driveService, report, opts)
}

func (s *Storage) export(ctx context.Context, sheetsService *sheets.Service, driveService *drive.Service, report models.LatestReport, opts SheetsOptions) (ExportResult, error) {
	spreadsheetID := opts.SpreadsheetID
	if spreadsheetID == "" {
		stored, err := s.LoadSpreadsheetID()
		if err != nil {
			return ExportResult{}, err
		}
		spreadsheetID = stored
	}

	if spreadsheetID == "" {
		created, err := createSpreadsheet(ctx, sheetsService, driveService, opts.FolderID)
		if err != nil {
			return ExportResult{}, err
		}
		spreadsheetID = created
		if err := s.SaveSpreadsheetID(spreadsheetID); err != nil {
			return ExportResult{}, err
		}
	}

	values := reportValues(report)
	valueRange := &sheets.ValueRange{Values: values}
	_, err := sheetsService.Spreadsheets.Values.Update(
		spreadsheetID,
		fmt.Sprintf("A1:E%d", len(values)),
		valueRange,
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return ExportResult{}, fmt.Errorf("unable to update spreadsheet: %w", err)
	}

	spreadsheet, err := sheetsService.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return ExportResult{}, fmt.Errorf("unable to get spreadsheet: %w", err)
	}
	if len(spreadsheet.Sheets) == 0 {
		return ExportResult{}, fmt.Errorf("spreadsheet has no sheets")
	}

	// Freeze the header row.
	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId: spreadsheet.Sheets[0].Properties.SheetId,
						GridProperties: &sheets.GridProperties{
							FrozenRowCount: 1,
						},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		},
	}
	if _, err := sheetsService.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do(); err != nil {
		return ExportResult{}, fmt.Errorf("unable to freeze first row: %w", err)
	}

	return ExportResult{
		SpreadsheetID: spreadsheetID,
		URL:           fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", spreadsheetID),
		Rows:          len(report.Rows),
	}, nil
}

func createSpreadsheet(ctx context.Context, sheetsService *sheets.Service, driveService *drive.Service, folderID string) (string, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title: "Podcast Latest Episodes",
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: "Latest"}},
		},
	}

	spreadsheet, err := sheetsService.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	if folderID != "" && driveService != nil {
		_, err = driveService.Files.Update(spreadsheet.SpreadsheetId, &drive.File{}).
			AddParents(folderID).
			Fields("id, parents").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("unable to move spreadsheet to folder: %w", err)
		}
	}

	return spreadsheet.SpreadsheetId, nil
}

func reportValues(report models.LatestReport) [][]interface{} {
	generated := report.GeneratedAt.Format("2006-01-02 15:04:05")
	if report.GeneratedAt.IsZero() {
		generated = time.Now().Format("2006-01-02 15:04:05")
	}

	values := [][]interface{}{
		{"Podcast", "Latest Episode", "Feed URL", "Status", "Exported Date"},
	}
	for _, row := range report.Rows {
		status := "ok"
		if row.Error != "" {
			status = row.Error
		}
		values = append(values, []interface{}{
			row.Podcast,
			row.Episode,
			row.FeedURL,
			status,
			generated,
		})
	}
	return values
}
