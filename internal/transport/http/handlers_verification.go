package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"veristay/internal/verification/models"
	dErrors "veristay/pkg/domain-errors"
	"veristay/pkg/platform/httputil"
)

// maxDocumentBytes caps the multipart document upload.
const maxDocumentBytes = 10 << 20

// VerificationService is the workflow surface the handler depends on.
type VerificationService interface {
	Start(ctx context.Context) (*models.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	SubmitDocument(ctx context.Context, id uuid.UUID, image []byte, documentRef string) (*models.Session, error)
	Confirm(ctx context.Context, id uuid.UUID, aadhaarNumber string) (*models.Session, error)
	VerifyCode(ctx context.Context, id uuid.UUID, code string) (*models.Session, error)
	Reset(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}

// UploadStore stores document images and returns their reference.
type UploadStore interface {
	Save(ctx context.Context, image []byte, filename string) (string, error)
}

// VerificationHandler wires the verification endpoints to the service.
type VerificationHandler struct {
	service VerificationService
	uploads UploadStore
	logger  *slog.Logger
}

// NewVerificationHandler constructs the handler.
func NewVerificationHandler(service VerificationService, uploads UploadStore, logger *slog.Logger) *VerificationHandler {
	return &VerificationHandler{service: service, uploads: uploads, logger: logger}
}

// Register mounts the verification endpoints.
func (h *VerificationHandler) Register(r chi.Router) {
	r.Route("/verification/sessions", func(r chi.Router) {
		r.Post("/", h.handleStart)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/document", h.handleSubmitDocument)
			r.Post("/confirm", h.handleConfirm)
			r.Post("/otp/verify", h.handleVerifyCode)
			r.Post("/reset", h.handleReset)
			r.Post("/cancel", h.handleCancel)
		})
	})
}

func sessionIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *VerificationHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Start(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (h *VerificationHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}
	session, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *VerificationHandler) handleSubmitDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected multipart form with a document file"))
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "document file is required"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read document file"))
		return
	}

	ref, err := h.uploads.Save(ctx, image, header.Filename)
	if err != nil {
		h.logger.ErrorContext(ctx, "document upload failed", "session_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.SubmitDocument(ctx, id, image, ref)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *VerificationHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[confirmRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.Confirm(r.Context(), id, req.AadhaarNumber)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *VerificationHandler) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[verifyCodeRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.VerifyCode(r.Context(), id, req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *VerificationHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}
	session, err := h.service.Reset(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *VerificationHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}
	if err := h.service.Cancel(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type confirmRequest struct {
	AadhaarNumber string `json:"aadhaar_number"`
}

func (r confirmRequest) Validate() error {
	if !govalidator.IsNumeric(r.AadhaarNumber) || !govalidator.StringLength(r.AadhaarNumber, "12", "12") {
		return dErrors.New(dErrors.CodeBadRequest, "aadhaar_number must be 12 digits")
	}
	return nil
}

type verifyCodeRequest struct {
	Code string `json:"code"`
}

func (r verifyCodeRequest) Validate() error {
	if !govalidator.IsNumeric(r.Code) || !govalidator.StringLength(r.Code, "4", "4") {
		return dErrors.New(dErrors.CodeBadRequest, "code must be 4 digits")
	}
	return nil
}
