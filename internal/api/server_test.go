package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"cantina/internal/extract"
	"cantina/internal/fetch"
	"cantina/internal/importer"
	"cantina/internal/merge"
	"cantina/internal/session"
	"cantina/internal/store/sqlite"
	"cantina/internal/wine"
)

func setupTestServer(t *testing.T, dsn string, authenticated bool) *Server {
	t.Helper()
	repo, closeFn, err := sqlite.Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("sqlite.Open() error = %v", err)
	}
	t.Cleanup(closeFn)

	sessions := session.NewManager(nil)
	if authenticated {
		sessions.Set(session.Session{UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)})
	}
	im := importer.New(sessions, repo, fetch.NewClient(fetch.Config{}), extract.New(extract.DefaultKnowledge()))
	return New(im, testGridSize)
}

// Small grid so padding assertions stay readable.
const testGridSize = 8

func postJSON(t *testing.T, s *Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	s := setupTestServer(t, "file:api_health?mode=memory&cache=shared", true)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("status field = %q, want ok", got["status"])
	}
}

func TestImportTextReturnsCandidates(t *testing.T) {
	t.Parallel()
	s := setupTestServer(t, "file:api_text?mode=memory&cache=shared", true)

	resp := postJSON(t, s, "/api/import/text", importTextRequest{
		Text:     "Barolo Bussia 2019, Aldo Conterno - 75 €\nRibolla Gialla, Gravner, Friuli - 48 €\n",
		Category: wine.CategoryRossi,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got importTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 2 {
		t.Fatalf("count = %d, want 2", got.Count)
	}
	if len(got.Candidates) != testGridSize {
		t.Fatalf("grid rows = %d, want %d", len(got.Candidates), testGridSize)
	}
	for i, c := range got.Candidates[2:] {
		if !c.Empty() || c.SourceLine != -1 {
			t.Fatalf("padding row %d not blank: %+v", i+2, c)
		}
	}
	if got.BatchID == "" {
		t.Error("batch_id missing")
	}
}

func TestImportTextUnauthenticated(t *testing.T) {
	t.Parallel()
	s := setupTestServer(t, "file:api_noauth?mode=memory&cache=shared", false)

	resp := postJSON(t, s, "/api/import/text", importTextRequest{Text: "Barolo 2019, Conterno", Category: wine.CategoryRossi})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestImportSheetReplaceWithoutConfirmation(t *testing.T) {
	t.Parallel()
	csvSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Barolo,2019,Conterno,Piemonte,\n"))
	}))
	t.Cleanup(csvSrv.Close)

	s := setupTestServer(t, "file:api_replace?mode=memory&cache=shared", true)

	resp := postJSON(t, s, "/api/import/sheet", importSheetRequest{
		URL:      csvSrv.URL + "/list.csv",
		Category: wine.CategoryRossi,
		Mode:     "replace",
	})
	if resp.StatusCode != fiber.StatusPreconditionFailed {
		t.Errorf("status = %d, want 412 for unconfirmed replace", resp.StatusCode)
	}
}

func TestImportSheetAppend(t *testing.T) {
	t.Parallel()
	csvSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Barolo,2019,Conterno,Piemonte,\n"))
	}))
	t.Cleanup(csvSrv.Close)

	s := setupTestServer(t, "file:api_append?mode=memory&cache=shared", true)

	resp := postJSON(t, s, "/api/import/sheet", importSheetRequest{
		URL:      csvSrv.URL + "/list.csv",
		Category: wine.CategoryRossi,
		Mode:     "append",
		Confirm:  merge.Confirmation{},
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var report importer.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Action != merge.ActionInsert {
		t.Errorf("report = %+v, want one insert", report)
	}
}

func TestImportSheetValidation(t *testing.T) {
	t.Parallel()
	s := setupTestServer(t, "file:api_invalid?mode=memory&cache=shared", true)

	tests := []struct {
		name string
		req  importSheetRequest
	}{
		{"missing url", importSheetRequest{Category: wine.CategoryRossi}},
		{"unknown category", importSheetRequest{URL: "https://example.com/x.csv", Category: "VERDI"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := postJSON(t, s, "/api/import/sheet", tt.req)
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}
