package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	artifactModels "vetting/internal/artifact/models"
	artifactService "vetting/internal/artifact/service"
	driverModels "vetting/internal/driver/models"
	driverService "vetting/internal/driver/service"
	reviewService "vetting/internal/review/service"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/httputil"
	"vetting/pkg/requestcontext"
)

// Service is the review surface the handler drives.
type Service interface {
	ListQueue(ctx context.Context, statuses []driverModels.Status) ([]reviewService.QueueItem, error)
	ReviewDriver(ctx context.Context, driverID id.DriverID) (*reviewService.Review, error)
	Decide(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error)
	Reinstate(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error)
	Deactivate(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error)
	Reactivate(ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error)
	DecideArtifact(ctx context.Context, req artifactService.DecideRequest) (*artifactModels.Artifact, error)
	Register(ctx context.Context, req driverService.RegisterRequest) (*driverModels.Driver, error)
	RegisterArtifact(ctx context.Context, req artifactService.RegisterRequest) (*reviewService.ArtifactResult, error)
	UpdateCredentials(ctx context.Context, driverID id.DriverID, c driverModels.Credentials, expectedVersion int64) (*driverModels.Driver, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the administrator routes. The caller wraps r with the
// admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/queue", h.handleListQueue)
	r.Get("/admin/drivers/{id}", h.handleReviewDriver)
	r.Post("/admin/drivers/{id}/decision", h.handleDecide)
	r.Post("/admin/drivers/{id}/reinstate", h.handleLifecycle(Service.Reinstate))
	r.Post("/admin/drivers/{id}/deactivate", h.handleLifecycle(Service.Deactivate))
	r.Post("/admin/drivers/{id}/reactivate", h.handleLifecycle(Service.Reactivate))
	r.Post("/admin/artifacts/{id}/decision", h.handleDecideArtifact)
	// expiry dates drive needs_attention and risk signals, so only reviewers
	// who have seen the documents may record them
	r.Put("/admin/drivers/{id}/credentials", h.handleUpdateCredentials)
}

// RegisterApplicant mounts the routes used by the onboarding flow.
func (h *Handler) RegisterApplicant(r chi.Router) {
	r.Post("/drivers", h.handleRegisterDriver)
	r.Post("/drivers/{id}/artifacts", h.handleRegisterArtifact)
}

func (h *Handler) handleListQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	statuses, err := parseStatuses(r.URL.Query().Get("status"))
	if err != nil {
		h.fail(ctx, w, "invalid queue filter", err)
		return
	}
	items, err := h.service.ListQueue(ctx, statuses)
	if err != nil {
		h.fail(ctx, w, "failed to build review queue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toQueueResponse(items))
}

func (h *Handler) handleReviewDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID, ok := h.driverID(w, r)
	if !ok {
		return
	}
	review, err := h.service.ReviewDriver(ctx, driverID)
	if err != nil {
		h.fail(ctx, w, "failed to load driver review", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReviewResponse(review))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID, ok := h.driverID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[decisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.Decide(ctx, driverService.DecideRequest{
		DriverID:        driverID,
		Action:          driverModels.Action(req.Action),
		Notes:           req.Notes,
		ExpectedVersion: req.ExpectedVersion,
		Actor:           requestcontext.Actor(ctx),
	})
	if err != nil {
		h.fail(ctx, w, "driver decision failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDecisionResponse(res))
}

// lifecycleFunc is a Service method expression, resolved per request.
type lifecycleFunc func(svc Service, ctx context.Context, req driverService.DecideRequest) (*driverService.DecideResult, error)

func (h *Handler) handleLifecycle(apply lifecycleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		driverID, ok := h.driverID(w, r)
		if !ok {
			return
		}
		req, ok := httputil.DecodeAndPrepare[lifecycleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		res, err := apply(h.service, ctx, driverService.DecideRequest{
			DriverID:        driverID,
			Notes:           req.Notes,
			ExpectedVersion: req.ExpectedVersion,
			Actor:           requestcontext.Actor(ctx),
		})
		if err != nil {
			h.fail(ctx, w, "driver lifecycle change failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toDecisionResponse(res))
	}
}

func (h *Handler) handleDecideArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artifactID, err := id.ParseArtifactID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid artifact id", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[artifactDecisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	a, err := h.service.DecideArtifact(ctx, artifactService.DecideRequest{
		ArtifactID:      artifactID,
		Class:           artifactModels.Class(req.Class),
		Decision:        artifactModels.Decision(req.Decision),
		ExpectedVersion: req.ExpectedVersion,
		Actor:           requestcontext.Actor(ctx),
	})
	if err != nil {
		h.fail(ctx, w, "artifact decision failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toArtifactResponse(a))
}

func (h *Handler) handleRegisterDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[registerDriverRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := h.service.Register(ctx, driverService.RegisterRequest{
		Tier:            driverModels.Tier(req.Tier),
		FullName:        req.FullName,
		YearsExperience: req.YearsExperience,
		Credentials:     req.Credentials.toModel(),
	})
	if err != nil {
		h.fail(ctx, w, "driver registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDriverResponse(d))
}

func (h *Handler) handleRegisterArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID, ok := h.driverID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[registerArtifactRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.RegisterArtifact(ctx, artifactService.RegisterRequest{
		DriverID: driverID,
		Class:    artifactModels.Class(req.Class),
		Kind:     artifactModels.Kind(req.Kind),
	})
	if err != nil {
		h.fail(ctx, w, "artifact registration failed", err)
		return
	}
	resp := registerArtifactResponse{Artifact: toArtifactResponse(res.Artifact)}
	if res.Submitted != nil {
		submitted := toDecisionResponse(res.Submitted)
		resp.Submitted = &submitted
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleUpdateCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID, ok := h.driverID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateCredentialsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := h.service.UpdateCredentials(ctx, driverID, req.credentialsPayload.toModel(), req.ExpectedVersion)
	if err != nil {
		h.fail(ctx, w, "credential update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDriverResponse(d))
}

func (h *Handler) driverID(w http.ResponseWriter, r *http.Request) (id.DriverID, bool) {
	driverID, err := id.ParseDriverID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(r.Context(), w, "invalid driver id", err)
		return id.DriverID{}, false
	}
	return driverID, true
}

// fail logs at a level matching the error class and writes the envelope.
// Uncoded errors are treated as internal.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if _, ok := dErrors.As(err); !ok {
		err = dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		h.logger.ErrorContext(ctx, msg, attrs...)
	case dErrors.CodeNotFound, dErrors.CodeInvalidInput:
		h.logger.WarnContext(ctx, msg, attrs...)
	default:
		h.logger.InfoContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
