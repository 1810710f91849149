package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adamscao/certstamp/internal/models"
	"github.com/adamscao/certstamp/internal/verifier"
)

// CertificateHandler serves verification pages
type CertificateHandler struct {
	verifier *verifier.Service
	logger   *slog.Logger
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(svc *verifier.Service, logger *slog.Logger) *CertificateHandler {
	return &CertificateHandler{
		verifier: svc,
		logger:   logger,
	}
}

// CertificateResponse is the JSON form of a verification
type CertificateResponse struct {
	HolderID   string           `json:"holder_id"`
	HolderName string           `json:"holder_name,omitempty"`
	Result     *verifier.Result `json:"verification"`
}

// InvalidIdentifierDetails echoes the rejected identifiers
type InvalidIdentifierDetails struct {
	HolderID      string `json:"holder_id"`
	CertificateID string `json:"certificate_id"`
	Reason        string `json:"reason"`
}

// ShowCertificate renders the verification page
// GET /certificate/:holderId/:certificateId
func (h *CertificateHandler) ShowCertificate(c *gin.Context) {
	holderID := c.Param("holderId")
	certID := c.Param("certificateId")

	res, err := h.verifier.Verify(c.Request.Context(), holderID, certID)
	if err != nil {
		status, code, message := h.classify(c, holderID, certID, err)
		c.HTML(status, "error.html", gin.H{
			"Status":  status,
			"Code":    code,
			"Message": message,
		})
		return
	}

	c.HTML(http.StatusOK, "certificate.html", gin.H{
		"Holder":      res.Holder,
		"Certificate": res.Certificate,
		"Signature":   res.Signature,
		"Reference":   res.Reference,
	})
}

// GetCertificate returns the verification as JSON
// GET /api/v1/certificate/:holderId/:certificateId
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	holderID := c.Param("holderId")
	certID := c.Param("certificateId")

	res, err := h.verifier.Verify(c.Request.Context(), holderID, certID)
	if err != nil {
		status, code, message := h.classify(c, holderID, certID, err)
		if errors.Is(err, models.ErrInvalidIdentifier) {
			RespondErrorWithDetails(c, status, code, message, InvalidIdentifierDetails{
				HolderID:      holderID,
				CertificateID: certID,
				Reason:        err.Error(),
			})
			return
		}
		RespondError(c, status, code, message)
		return
	}

	RespondSuccess(c, CertificateResponse{
		HolderID:   res.Holder.HolderID,
		HolderName: res.Holder.Name,
		Result:     res,
	})
}

// classify maps a verification error to a response and logs it
func (h *CertificateHandler) classify(c *gin.Context, holderID, certID string, err error) (int, string, string) {
	switch {
	case errors.Is(err, models.ErrInvalidIdentifier):
		return http.StatusBadRequest, "invalid_identifier", "Invalid holder or certificate identifier"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found", "Certificate not found"
	default:
		h.logger.Error("verification failed",
			"holder_id", holderID,
			"certificate_id", certID,
			"client_ip", GetClientIP(c),
			"error", err)
		return http.StatusInternalServerError, "internal_error", "Failed to verify certificate"
	}
}
