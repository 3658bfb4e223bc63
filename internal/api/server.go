// Package api exposes the import pipeline to the UI layer as a small
// JSON API. No rendering happens here; pages consume these endpoints.
package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"cantina/internal/fetch"
	"cantina/internal/flow"
	"cantina/internal/importer"
	"cantina/internal/merge"
	"cantina/internal/session"
	"cantina/internal/sheet"
	"cantina/internal/wine"
)

// Server wires the importer behind HTTP handlers.
type Server struct {
	app      *fiber.App
	importer *importer.Importer
	gridSize int
}

// New builds the server. gridSize is the fixed row count candidate
// grids are padded to for the UI; non-positive values fall back to
// the sheet default.
func New(im *importer.Importer, gridSize int) *Server {
	if gridSize <= 0 {
		gridSize = sheet.GridSize
	}
	s := &Server{
		app:      fiber.New(fiber.Config{DisableStartupMessage: true}),
		importer: im,
		gridSize: gridSize,
	}

	s.app.Get("/healthz", handleHealth)
	s.app.Post("/api/import/text", s.handleImportText)
	s.app.Post("/api/import/sheet", s.handleImportSheet)
	return s
}

// Listen serves on addr until the listener fails.
func (s *Server) Listen(addr string) error {
	log.Printf("api: listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

// App exposes the fiber app for in-process testing.
func (s *Server) App() *fiber.App { return s.app }

func handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

type importTextRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

type importTextResponse struct {
	BatchID string `json:"batch_id"`

	// Count is the number of extracted candidates; Candidates is
	// padded with blank rows to the configured grid size beyond it.
	Count      int              `json:"count"`
	Candidates []wine.Candidate `json:"candidates"`
}

// handleImportText runs analyze only: the confirmation workflow itself
// is driven client-side record by record, so the endpoint returns the
// candidate batch, padded to a fixed-size editable grid, and nothing
// is persisted.
func (s *Server) handleImportText(c *fiber.Ctx) error {
	var req importTextRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed body")
	}
	if req.Category != "" && !wine.IsCategory(req.Category) {
		return badRequest(c, "unknown category")
	}

	batch, _, err := s.importer.AnalyzeText(c.Context(), req.Text, req.Category)
	if err != nil {
		return importError(c, err)
	}
	grid := sheet.PadGrid(append([]wine.Candidate(nil), batch.Candidates...), s.gridSize)
	return c.JSON(importTextResponse{
		BatchID:    batch.ID.String(),
		Count:      batch.Len(),
		Candidates: grid,
	})
}

type importSheetRequest struct {
	URL      string             `json:"url"`
	Category string             `json:"category"`
	Mode     string             `json:"mode"`
	Confirm  merge.Confirmation `json:"confirm"`
}

func (s *Server) handleImportSheet(c *fiber.Ctx) error {
	var req importSheetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed body")
	}
	if req.URL == "" {
		return badRequest(c, "url is required")
	}
	if !wine.IsCategory(req.Category) {
		return badRequest(c, "unknown category")
	}

	report, err := s.importer.ImportSheet(c.Context(), req.URL, req.Category, importer.Mode(req.Mode), req.Confirm)
	if err != nil {
		return importError(c, err)
	}
	return c.JSON(report)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// importError maps pipeline sentinels onto HTTP statuses with a JSON
// error envelope.
func importError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, merge.ErrReplaceNotConfirmed):
		status = fiber.StatusPreconditionFailed
	case errors.Is(err, fetch.ErrRemoteFetch):
		status = fiber.StatusBadGateway
	case errors.Is(err, flow.ErrNothingToImport):
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
