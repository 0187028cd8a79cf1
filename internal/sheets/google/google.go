// Package google stores ledgers in a Google Sheets document, one tab per
// user. It backs the remote data backend and the sync worker.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"budgetbook/internal/core"
	"budgetbook/internal/persist"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const dataRange = "A2:G"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabPrefix     string
}

var (
	_ persist.UserGateway = (*Client)(nil)
	_ persist.Migrator    = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID and service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_TAB_PREFIX
// (default "Ledger").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	tabPrefix := strings.TrimSpace(os.Getenv("GOOGLE_TAB_PREFIX"))
	if tabPrefix == "" {
		tabPrefix = "Ledger"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabPrefix:     tabPrefix,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Ping verifies credentials and spreadsheet access, returning the document
// title.
func (c *Client) Ping(ctx context.Context) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	doc, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get spreadsheet: %w", err)
	}
	if doc.Properties == nil {
		return "", nil
	}
	return doc.Properties.Title, nil
}

func (c *Client) tabName(userID string) string {
	return fmt.Sprintf("%s %s", c.tabPrefix, strings.TrimSpace(userID))
}

// LoadUser reads the user's tab and decodes it into a ledger. A missing or
// empty tab yields an empty ledger.
func (c *Client) LoadUser(ctx context.Context, userID string) (core.Ledger, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", c.tabName(userID), dataRange)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ledger := decodeRows(resp.Values)
	slog.InfoContext(ctx, "Loaded remote ledger", "user", userID, "months", len(ledger))
	return ledger, nil
}

// SaveUser rewrites the user's whole tab with the given ledger.
func (c *Client) SaveUser(ctx context.Context, userID string, ledger core.Ledger) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	tab := c.tabName(userID)
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	clearRng := fmt.Sprintf("%s!%s", tab, dataRange)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRng, err)
	}

	rows := encodeLedger(ledger)
	if err := c.writeRows(ctx, tab, 2, rows); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Saved remote ledger", "user", userID, "months", len(ledger), "rows", len(rows))
	return nil
}

// UpsertMonth replaces a single month's rows in the user's tab, leaving the
// other months untouched. Used by the sync worker so each pending month is a
// bounded write.
func (c *Client) UpsertMonth(ctx context.Context, userID string, key core.MonthKey, record *core.MonthRecord) error {
	remote, err := c.LoadUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load before upsert: %w", err)
	}
	if record == nil {
		delete(remote, key)
	} else {
		remote[key] = record.Clone()
	}
	return c.SaveUser(ctx, userID, remote)
}

// MigrateLocalToRemote pushes a locally stored ledger into the user's tab.
// Months already present remotely are kept when the local copy does not know
// them; on key conflict the local record wins.
func (c *Client) MigrateLocalToRemote(ctx context.Context, userID string, ledger core.Ledger) error {
	remote, err := c.LoadUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load remote before migration: %w", err)
	}
	merged := remote.Clone()
	for key, record := range ledger {
		merged[key] = record.Clone()
	}
	if err := c.SaveUser(ctx, userID, merged); err != nil {
		return fmt.Errorf("save migrated ledger: %w", err)
	}
	slog.InfoContext(ctx, "Migrated local ledger to remote",
		"user", userID, "local_months", len(ledger), "total_months", len(merged))
	return nil
}

func (c *Client) writeRows(ctx context.Context, tab string, startRow int, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	rng := fmt.Sprintf("%s!A%d", tab, startRow)
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// ensureTab creates the user's tab with a header row if it does not exist.
func (c *Client) ensureTab(ctx context.Context, tab string) error {
	doc, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sheet := range doc.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == tab {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	header := [][]any{{"Month", "Kind", "ID", "Name", "Cents", "Category", "Recurring"}}
	rng := fmt.Sprintf("%s!A1", tab)
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: header}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header for %s: %w", tab, err)
	}
	return nil
}
