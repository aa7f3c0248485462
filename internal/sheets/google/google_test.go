package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smetka/internal/core"

	goption "google.golang.org/api/option"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "", "")
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), "sheet-id", "",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClient_ListAndFindPayers(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Payers!A1:C3","majorDimension":"ROWS","values":[` +
			`["Name","EIK","NAP"],["Алфа ООД","123456789","София"],["Бета ЕООД","987654321","Варна"]]}`))
	})

	payers, err := c.ListPayers(context.Background())
	if err != nil {
		t.Fatalf("ListPayers: %v", err)
	}
	if len(payers) != 2 {
		t.Fatalf("got %d payers", len(payers))
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-id/values/") || !strings.Contains(gotPath, "Payers") {
		t.Errorf("unexpected request path %q", gotPath)
	}

	p, err := c.FindPayer(context.Background(), "987654321")
	if err != nil || p.NAPOffice != "Варна" {
		t.Fatalf("FindPayer: %+v %v", p, err)
	}
	if _, err := c.FindPayer(context.Background(), "111111111"); !errors.Is(err, core.ErrPayerNotFound) {
		t.Fatalf("expected ErrPayerNotFound, got %v", err)
	}
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	})
	if _, err := c.ListPayers(context.Background()); err == nil {
		t.Fatal("expected error from API")
	}
}
