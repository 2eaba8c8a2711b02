package routes

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/readingbooks/backend/internal/server/middleware"
	"github.com/readingbooks/backend/pkg/common"
	"github.com/readingbooks/backend/pkg/graph"
	"github.com/readingbooks/backend/pkg/loader"
	"github.com/readingbooks/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type uploadResponse struct {
	Filename      string                         `json:"filename"`
	Preview       string                         `json:"preview"`
	Entities      []string                       `json:"entities"`
	Relationships []common.CanonicalRelationship `json:"relationships"`
	TextLength    int                            `json:"text_length"`
	FailedChunks  int                            `json:"failed_chunks"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// UploadHandler accepts a document as multipart/form-data, runs the full
// extraction pipeline and returns the aggregated person graph.
func UploadHandler(c echo.Context) error {
	doc, err := readUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Message: "No file provided",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	result, err := app.GraphClient.Process(ctx, *doc)
	if err != nil {
		return uploadError(c, doc.Filename, err)
	}

	return c.JSON(http.StatusOK, uploadResult(doc.Filename, result))
}

func readUpload(c echo.Context) (*loader.Document, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	return &loader.Document{
		Data:      data,
		MediaType: uploadMediaType(file),
		Filename:  file.Filename,
	}, nil
}

func uploadMediaType(file *multipart.FileHeader) string {
	if ct := file.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	}
	return file.Header.Get("Content-Type")
}

func uploadResult(filename string, result *common.ExtractionResult) uploadResponse {
	return uploadResponse{
		Filename:      filename,
		Preview:       result.Preview,
		Entities:      result.Entities,
		Relationships: result.Relationships,
		TextLength:    result.TextLength,
		FailedChunks:  result.FailedChunks,
	}
}

func uploadError(c echo.Context, filename string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if graph.IsClientError(err) {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Message: uploadErrorMessage(err),
		})
	}
	logger.Error("[Upload] processing failed", "filename", filename, "err", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{
		Message: "Internal server error",
	})
}

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return "Unsupported file format"
	case errors.Is(err, loader.ErrCorruptDocument):
		return "Failed to extract text from PDF"
	default:
		return "Invalid request"
	}
}
