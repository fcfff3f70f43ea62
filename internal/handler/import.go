package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"laxmi-billing/config"
	"laxmi-billing/internal/importer"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// streamImport saves the uploaded "file" field, then runs the import and
// streams NDJSON progress to the client. Rows keep processing if the client
// disconnects mid-stream.
func streamImport(c *gin.Context, cfg config.ImportConfig, h importer.RowHandler) {
	if cfg.MaxUploadMB > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxUploadMB<<20)
	}

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File exceeds %d MB", cfg.MaxUploadMB)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Printf("Import %s: cannot create upload dir: %v", h.Entity(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}
	path := filepath.Join(cfg.UploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, path); err != nil {
		log.Printf("Import %s: cannot save upload: %v", h.Entity(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Import %s: failed to remove %s: %v", h.Entity(), path, err)
		}
	}()

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	sink := importer.NewNDJSONSink(c.Writer)

	sheet, err := importer.ReadSheet(path)
	if err != nil {
		log.Printf("Import %s: unreadable file %q: %v", h.Entity(), file.Filename, err)
		sink.Fail(sheetError(err))
		return
	}

	p := importer.Pipeline{MaxErrorDetails: cfg.MaxErrorDetails}
	res, err := p.Run(context.WithoutCancel(c.Request.Context()), sheet, h, sink)
	if err != nil {
		log.Printf("Import %s rejected: %v", h.Entity(), err)
		return
	}
	if sink.Gone() {
		log.Printf("Import %s: client disconnected before the result, imported=%d errors=%d",
			h.Entity(), res.ImportedCount, res.ErrorCount)
	}
}

func sheetError(err error) string {
	if errors.Is(err, importer.ErrUnsupportedFormat) {
		return "Unsupported file type, upload .xlsx or .csv"
	}
	return "Could not read file: " + err.Error()
}
