package sheets

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/refprog/backend/internal/config"
)

func serveSheet(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	config.SetForTest(&config.Settings{
		SheetsAPIURL:  server.URL,
		SpreadsheetID: "sheet-1",
	})
}

func TestRows_HeaderKeyed(t *testing.T) {
	serveSheet(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/spreadsheets/sheet-1/values/Autumn" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"values":[
			["Телефон","Имя"],
			["+79110000001","Иванов"],
			["+79110000002"]
		]}`)
	})

	rows, err := Rows("Autumn")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["Телефон"] != "+79110000001" || rows[0]["Имя"] != "Иванов" {
		t.Errorf("row 0 = %v", rows[0])
	}
	// Short rows pad with empty strings instead of dropping keys.
	if rows[1]["Имя"] != "" {
		t.Errorf("short row name = %q, want empty", rows[1]["Имя"])
	}
}

func TestRows_MissingSheet(t *testing.T) {
	serveSheet(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := Rows("Nope")
	if err != ErrSheetNotFound {
		t.Fatalf("expected ErrSheetNotFound, got %v", err)
	}
}

func TestRows_EmptySheet(t *testing.T) {
	serveSheet(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"values":[]}`)
	})
	rows, err := Rows("Autumn")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("empty sheet produced %d rows", len(rows))
	}
}
