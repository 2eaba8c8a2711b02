package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/readingbooks/backend/internal/server/middleware"
	"github.com/readingbooks/backend/pkg/common"
	"github.com/readingbooks/backend/pkg/graph"
	"github.com/readingbooks/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type progressEvent struct {
	Status   string          `json:"status"`
	Progress int             `json:"progress"`
	Message  string          `json:"message,omitempty"`
	Result   *uploadResponse `json:"result,omitempty"`
}

// progressByState maps pipeline stages onto coarse percentages for the
// event stream.
var progressByState = map[graph.State]int{
	graph.StateReceived:    10,
	graph.StateExtracting:  20,
	graph.StateSegmenting:  40,
	graph.StateInferring:   50,
	graph.StateAggregating: 80,
	graph.StateCompleted:   100,
}

// UploadWithProgressHandler runs the same pipeline as UploadHandler but
// streams stage transitions as server-sent events before the final result.
func UploadWithProgressHandler(c echo.Context) error {
	doc, err := readUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Message: "No file provided",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	type outcome struct {
		result *common.ExtractionResult
		err    error
	}

	states := make(chan graph.State, 8)
	done := make(chan outcome, 1)
	go func() {
		result, err := app.GraphClient.ProcessWithProgress(ctx, *doc, func(s graph.State) {
			states <- s
		})
		close(states)
		done <- outcome{result: result, err: err}
	}()

	for s := range states {
		if s == graph.StateFailed || s == graph.StateCompleted {
			// terminal events carry the error or result below
			continue
		}
		if err := writeEvent(c, progressEvent{
			Status:   string(s),
			Progress: progressByState[s],
		}); err != nil {
			return err
		}
	}

	out := <-done
	if out.err != nil {
		if errors.Is(out.err, context.Canceled) {
			return nil
		}
		message := uploadErrorMessage(out.err)
		if !graph.IsClientError(out.err) {
			logger.Error("[Upload] processing failed", "filename", doc.Filename, "err", out.err)
			message = "Internal server error"
		}
		return writeEvent(c, progressEvent{
			Status:  "error",
			Message: message,
		})
	}

	result := uploadResult(doc.Filename, out.result)
	return writeEvent(c, progressEvent{
		Status:   string(graph.StateCompleted),
		Progress: progressByState[graph.StateCompleted],
		Result:   &result,
	})
}

func writeEvent(c echo.Context, event progressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", payload); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}
