package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zombor/grocery-ledger/internal/learned"
	"github.com/zombor/grocery-ledger/internal/stats"
)

// maxUploadSize is large enough for high-resolution phone photos
const maxUploadSize = int64(50 << 20)

const tooLargeMessage = "File is too large. Maximum size is 50MB. Please compress or resize your image."

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// contentTypeFor guesses the MIME type of an upload from its extension
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleListReceipts returns a list of all receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.service.ListReceipts(userFrom(r))
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

// handleUploadReceipt handles receipt upload
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, tooLargeMessage, http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		writeError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		writeError(w, "The uploaded file is empty.", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFor(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	receipt, err := s.service.ProcessReceipt(userFrom(r), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.GetReceipt(userFrom(r), r.PathValue("id"))
	if err != nil {
		s.lookupError(w, "Receipt not found", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleGetReceiptFile returns the file for a receipt
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetReceiptFile(userFrom(r), r.PathValue("id"))
	if err != nil {
		slog.Warn("Error getting receipt file", "id", r.PathValue("id"), "error", err)
		writeError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteReceipt deletes a receipt
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReceipt(userFrom(r), r.PathValue("id")); err != nil {
		s.lookupError(w, "Receipt not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupError maps a not-found error to 404 and anything else to 500
func (s *Server) lookupError(w http.ResponseWriter, notFound string, err error) {
	if IsNotFound(err) {
		writeError(w, notFound, http.StatusNotFound)
		return
	}
	slog.Error("Error handling request", "error", err)
	writeError(w, "Internal server error", http.StatusInternalServerError)
}

// handleSpendByCategory returns spend per category
func (s *Server) handleSpendByCategory(w http.ResponseWriter, r *http.Request) {
	spend, err := s.service.SpendByCategory(userFrom(r))
	if err != nil {
		s.lookupError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, spend)
}

// handleSpendByStore returns spend per store
func (s *Server) handleSpendByStore(w http.ResponseWriter, r *http.Request) {
	spend, err := s.service.SpendByStore(userFrom(r))
	if err != nil {
		s.lookupError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, spend)
}

// handleMonthlyTrend returns spend per month
func (s *Server) handleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	trend, err := s.service.MonthlyTrend(userFrom(r))
	if err != nil {
		s.lookupError(w, "", err)
		return
	}
	if trend == nil {
		trend = []stats.MonthTotal{}
	}
	writeJSON(w, http.StatusOK, trend)
}

// handleListProducts returns products ranked by spend
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	products, err := s.service.Products(userFrom(r), limit)
	if err != nil {
		s.lookupError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// handleProductHistory returns every purchase of one product
func (s *Server) handleProductHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.service.ProductHistory(userFrom(r), r.PathValue("key"))
	if err != nil {
		s.lookupError(w, "Product not found", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// handleListPacks returns the learned pack sizes
func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.LearnedPacks(userFrom(r))
	if err != nil {
		s.lookupError(w, "", err)
		return
	}
	if entries == nil {
		entries = []learned.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
