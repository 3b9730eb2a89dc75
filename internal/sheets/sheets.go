// Package sheets is a read-only client for the spreadsheet HTTP gateway the
// marketing team edits partner lists through.
package sheets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/refprog/backend/internal/config"
)

// ErrSheetNotFound means the named tab does not exist in the spreadsheet.
// Callers treat it as "nothing to reconcile", not as a failure.
var ErrSheetNotFound = errors.New("sheet not found")

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Rows fetches the named sheet and returns one map per data row, keyed by the
// header row's column titles. Cells beyond the header width are dropped;
// missing trailing cells come back as empty strings.
func Rows(sheetName string) ([]map[string]string, error) {
	cfg := config.Get()
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s",
		cfg.SheetsAPIURL, url.PathEscape(cfg.SpreadsheetID), url.PathEscape(sheetName))

	resp, err := httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("sheets: fetch %q: %w", sheetName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrSheetNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets: fetch %q: status %d", sheetName, resp.StatusCode)
	}

	var payload struct {
		Values [][]string `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("sheets: decode %q: %w", sheetName, err)
	}
	if len(payload.Values) == 0 {
		return nil, nil
	}

	header := payload.Values[0]
	rows := make([]map[string]string, 0, len(payload.Values)-1)
	for _, cells := range payload.Values[1:] {
		row := make(map[string]string, len(header))
		for i, title := range header {
			if title == "" {
				continue
			}
			if i < len(cells) {
				row[title] = cells[i]
			} else {
				row[title] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
