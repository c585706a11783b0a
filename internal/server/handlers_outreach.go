package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pathfinder/internal/outreach"
	"github.com/jonathan/pathfinder/internal/server/middleware"
)

const maxUpdateBodyBytes = 1 << 20

// OutreachService is the outreach API the handlers call.
type OutreachService interface {
	Launch(ctx context.Context, req outreach.LaunchRequest) (*outreach.LaunchResult, error)
	Status(ctx context.Context, batchID uuid.UUID) (*outreach.StatusView, error)
	ApplyUpdate(ctx context.Context, batchID uuid.UUID, u outreach.Update) (*outreach.UpdateResult, error)
	VerifyCallback(token string, batchID uuid.UUID) error
}

var _ OutreachService = (*outreach.Launcher)(nil)

type launchRequest struct {
	JobID          string                 `json:"jobId" validate:"required,uuid"`
	StudentProfile *studentProfileRequest `json:"studentProfile" validate:"required"`
	MaxContacts    int                    `json:"maxContacts" validate:"omitempty,min=1,max=25"`
}

type studentProfileRequest struct {
	FirstName string   `json:"firstName" validate:"required"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email" validate:"required,email"`
	School    string   `json:"school"`
	Major     string   `json:"major"`
	Skills    []string `json:"skills" validate:"omitempty,dive,required"`
}

func (p *studentProfileRequest) toProfile() outreach.StudentProfile {
	return outreach.StudentProfile{
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Email:     strings.TrimSpace(p.Email),
		School:    strings.TrimSpace(p.School),
		Major:     strings.TrimSpace(p.Major),
		Skills:    p.Skills,
	}
}

// jsonFieldNames reports validation failures under their JSON names.
func jsonFieldNames(v *validator.Validate) *validator.Validate {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// First error only
		ve := validationErrors[0]
		return (&ErrValidation{Field: ve.Field(), Message: ve.Tag()}).Error()
	}
	return "validation error: invalid request"
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	var req launchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	result, err := s.outreach.Launch(r.Context(), outreach.LaunchRequest{
		JobID:       jobID,
		UserID:      userID,
		Profile:     req.StudentProfile.toProfile(),
		MaxContacts: req.MaxContacts,
	})
	if err != nil {
		s.launchError(w, jobID, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"batchId": result.BatchID,
		"status":  result.Status,
		"message": result.Message,
	})
}

func (s *Server) launchError(w http.ResponseWriter, jobID uuid.UUID, err error) {
	var exists *outreach.BatchExistsError
	if errors.As(err, &exists) {
		s.jsonResponse(w, http.StatusConflict, map[string]any{
			"error":           exists.Error(),
			"existingBatchId": exists.BatchID,
			"status":          exists.Status,
		})
		return
	}

	status := HTTPStatus(err)
	if status != http.StatusInternalServerError {
		s.errorResponse(w, status, err.Error())
		return
	}

	s.logger.Error("outreach launch failed", zap.String("job_id", jobID.String()), zap.Error(err))
	var webhookErr *outreach.WebhookError
	if errors.As(err, &webhookErr) {
		s.errorResponse(w, status, "Failed to trigger outreach workflow")
		return
	}
	s.errorResponse(w, status, "Failed to launch outreach")
}

// batchID parses the {batchId} path value, writing a 400 when it is not a UUID.
func (s *Server) batchID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("batchId"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid batch ID")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	batchID, ok := s.batchID(w, r)
	if !ok {
		return
	}

	view, err := s.outreach.Status(r.Context(), batchID)
	if err != nil {
		s.statusError(w, batchID, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) statusError(w http.ResponseWriter, batchID uuid.UUID, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("failed to load batch status", zap.String("batch_id", batchID.String()), zap.Error(err))
		s.errorResponse(w, status, "Failed to load outreach status")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// handleEvents streams the batch projection as server-sent events. A "status"
// event is sent whenever the projection changes and a final "complete" event
// once the batch is terminal.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	batchID, ok := s.batchID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	view, err := s.outreach.Status(ctx, batchID)
	if err != nil {
		s.statusError(w, batchID, err)
		return
	}

	// The stream runs until the batch finishes, past the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Warn("failed to clear write deadline", zap.String("batch_id", batchID.String()), zap.Error(err))
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	var last string
	send := func(view *outreach.StatusView) (done bool) {
		if sig := viewSignature(view); sig != last {
			last = sig
			if err := sse.WriteEvent("status", view); err != nil {
				return true
			}
		}
		if view.IsComplete {
			sse.WriteEvent("complete", map[string]any{ //nolint:errcheck
				"batchId": view.ID,
				"status":  view.Status,
			})
			return true
		}
		return false
	}

	if send(view) {
		return
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			view, err := s.outreach.Status(ctx, batchID)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("event stream status read failed", zap.String("batch_id", batchID.String()), zap.Error(err))
					sse.WriteError("Failed to load outreach status")
				}
				return
			}
			if send(view) {
				return
			}
		}
	}
}

func viewSignature(view *outreach.StatusView) string {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Sprintf("%s/%d/%s", view.Status, view.Progress, view.CurrentStep)
	}
	return string(data)
}

// handleUpdate applies a progress report from the external workflow. The
// caller must present the callback token issued for this batch.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	batchID, ok := s.batchID(w, r)
	if !ok {
		return
	}

	token, ok := middleware.BearerToken(r)
	if !ok {
		middleware.Unauthorized(w)
		return
	}
	if err := s.outreach.VerifyCallback(token, batchID); err != nil {
		s.logger.Warn("rejected workflow callback", zap.String("batch_id", batchID.String()), zap.Error(err))
		middleware.Unauthorized(w)
		return
	}

	var update outreach.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBodyBytes)).Decode(&update); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.outreach.ApplyUpdate(r.Context(), batchID, update)
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("failed to apply workflow update", zap.String("batch_id", batchID.String()), zap.Error(err))
			s.errorResponse(w, status, "Failed to apply update")
			return
		}
		s.errorResponse(w, status, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":          true,
		"batchId":          batchID,
		"contactsUpserted": result.ContactsUpserted,
		"emailsCreated":    result.EmailsCreated,
		"emailsUpdated":    result.EmailsUpdated,
		"emailsSkipped":    result.EmailsSkipped,
	})
}
