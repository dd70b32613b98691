package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dividr/rendernode/internal/api/models"
	"github.com/dividr/rendernode/internal/engine"
)

// registerRenderRoutes registers the render control endpoints.
func (s *Server) registerRenderRoutes() {
	// Start a render
	huma.Register(s.api, huma.Operation{
		OperationID:   "start-render",
		Method:        http.MethodPost,
		Path:          "/api/render",
		Summary:       "Start Render",
		Description:   "Compile an edit job and start rendering it. Progress is delivered over the event stream.",
		Tags:          []string{"render"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 401, 409},
		Security:      withAuth(),
	}, func(_ context.Context, input *models.RenderRequest) (*models.RenderStartResponse, error) {
		jobID := input.Body.JobID
		if jobID == "" {
			jobID = newJobID()
		}

		command, err := s.engine.Start(jobID, &input.Body.Job)
		if err != nil {
			return nil, mapRenderError(err)
		}

		return &models.RenderStartResponse{
			Status: http.StatusAccepted,
			Body: models.RenderStartData{
				JobID:   jobID,
				Command: command,
				Message: "Render started",
			},
		}, nil
	})

	// Render status
	huma.Register(s.api, huma.Operation{
		OperationID: "get-render",
		Method:      http.MethodGet,
		Path:        "/api/render",
		Summary:     "Render Status",
		Description: "Get the active render, including the compiled command line.",
		Tags:        []string{"render"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.RenderStatusResponse, error) {
		return &models.RenderStatusResponse{Body: s.engine.Status()}, nil
	})

	// Cancel the active render
	huma.Register(s.api, huma.Operation{
		OperationID: "cancel-render",
		Method:      http.MethodDelete,
		Path:        "/api/render",
		Summary:     "Cancel Render",
		Description: "Stop the in-flight render. The process receives SIGINT, then SIGKILL after a grace period.",
		Tags:        []string{"render"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.RenderCancelResponse, error) {
		if !s.engine.Cancel() {
			return nil, huma.Error404NotFound("no render in progress")
		}
		return &models.RenderCancelResponse{
			Body: models.RenderCancelData{Message: "Cancellation requested"},
		}, nil
	})

	// Dry-run compile
	huma.Register(s.api, huma.Operation{
		OperationID: "compile-job",
		Method:      http.MethodPost,
		Path:        "/api/render/compile",
		Summary:     "Compile Job",
		Description: "Compile an edit job into its ffmpeg command line without running it.",
		Tags:        []string{"render"},
		Errors:      []int{400, 401},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.RenderRequest) (*models.CompileResponse, error) {
		command, err := s.engine.Compile(&input.Body.Job)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return &models.CompileResponse{
			Body: models.CompileData{
				Command:     command,
				CommandLine: strings.Join(command, " "),
			},
		}, nil
	})
}

// mapRenderError converts engine errors to Huma HTTP errors.
func mapRenderError(err error) error {
	switch {
	case errors.Is(err, engine.ErrBusy):
		return huma.Error409Conflict("a render is already in progress")
	default:
		return huma.Error400BadRequest(err.Error())
	}
}

func newJobID() string {
	return fmt.Sprintf("render-%d", time.Now().UnixMilli())
}
