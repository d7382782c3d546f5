package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cptk8s/registro/internal/handler/dto"
	"github.com/cptk8s/registro/internal/middleware"
	"github.com/cptk8s/registro/internal/model"
)

// RecordService is the record management used by the handlers.
type RecordService interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	CreateUser(ctx context.Context, in model.NewUser) (*model.User, error)
	DeleteUser(ctx context.Context, id int64) error

	ListCommunications(ctx context.Context) ([]*model.Communication, error)
	CreateCommunication(ctx context.Context, in model.NewCommunication) (*model.Communication, error)
	DeleteCommunication(ctx context.Context, id int64) error
}

// RecordHandler handles HTTP requests for users and communications.
type RecordHandler struct {
	svc    RecordService
	logger *slog.Logger
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(svc RecordService, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		svc:    svc,
		logger: logger,
	}
}

// ListUsers handles GET /users.
func (h *RecordHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser handles POST /users.
func (h *RecordHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.CreateUser(r.Context(), req.ToNewUser())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_created",
		"user_id", user.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusCreated, user)
}

// DeleteUser handles DELETE /users/{id}.
func (h *RecordHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_deleted", "user_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// ListCommunications handles GET /comunicaciones.
func (h *RecordHandler) ListCommunications(w http.ResponseWriter, r *http.Request) {
	comms, err := h.svc.ListCommunications(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comms)
}

// CreateCommunication handles POST /comunicaciones.
func (h *RecordHandler) CreateCommunication(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCommunicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comm, err := h.svc.CreateCommunication(r.Context(), req.ToNewCommunication())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("communication_created",
		"communication_id", comm.ID,
		"user_id", comm.UserID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusCreated, comm)
}

// DeleteCommunication handles DELETE /comunicaciones/{id}.
func (h *RecordHandler) DeleteCommunication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteCommunication(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("communication_deleted", "communication_id", id)

	w.WriteHeader(http.StatusNoContent)
}
