package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/paymi/backend/internal/models"
	"github.com/paymi/backend/internal/receipt"
	"github.com/paymi/backend/internal/storage"
)

// maxReceiptUpload caps the multipart form held in memory.
const maxReceiptUpload = 10 << 20 // 10 MB

// Receipts implements receipt upload, model extraction, and persistence.
type Receipts struct {
	extractor receipt.Extractor
	receipts  storage.ReceiptStore
	db        storage.Pinger
	logger    *slog.Logger
}

// NewReceipts creates the receipt service.
func NewReceipts(extractor receipt.Extractor, receipts storage.ReceiptStore, db storage.Pinger, logger *slog.Logger) *Receipts {
	return &Receipts{extractor: extractor, receipts: receipts, db: db, logger: logger}
}

// Routes registers the receipt endpoints.
func (s *Receipts) Routes(r *mux.Router) {
	r.HandleFunc("/upload_receipt", s.handleUploadReceipt).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/health", healthHandler(s.db)).Methods(http.MethodGet)
}

func (s *Receipts) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxReceiptUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	// Rejected before the model is ever invoked.
	contentType := header.Header.Get("Content-Type")
	if !receipt.AllowedContentTypes[contentType] {
		writeError(w, http.StatusBadRequest, "Invalid file type. Only JPG, PNG, PDF allowed.")
		return
	}

	image, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("Failed to read upload", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	raw, err := s.extractor.Extract(r.Context(), image, contentType)
	if err != nil {
		s.logger.Error("Model extraction failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Error processing receipt: "+err.Error())
		return
	}

	parsed, err := receipt.Parse(raw)
	if err != nil {
		s.logger.Error("Model response rejected", "filename", header.Filename, "error", err)
		if errors.Is(err, receipt.ErrInvalidResponse) {
			writeError(w, http.StatusBadRequest, receipt.ErrInvalidResponse.Error())
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse receipt data: %v", err))
		return
	}

	// Extraction succeeded; persistence is best-effort from here. The caller
	// gets the parse either way, with the storage outcome reported alongside.
	response := map[string]any{
		"store_name": parsed.StoreName(),
		"items":      parsed.Items,
		"total":      parsed.Total,
	}

	rec := &models.Receipt{
		StoreName: parsed.StoreName(),
		Items:     parsed.Items,
		Total:     parsed.Total,
	}
	if err := s.receipts.CreateReceipt(r.Context(), rec); err != nil {
		s.logger.Error("Receipt persistence failed", "store_name", rec.StoreName, "error", err)
		response["persistence"] = "failed"
		response["persistence_error"] = err.Error()
	} else {
		s.logger.Info("Receipt stored", "receipt_id", rec.ID, "store_name", rec.StoreName, "items", len(rec.Items))
		response["persistence"] = "saved"
		response["receipt_id"] = rec.ID
	}

	writeJSON(w, http.StatusOK, response)
}
