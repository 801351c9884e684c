package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promociones-residenciales/reservas/backend/model"
	"github.com/promociones-residenciales/reservas/backend/pkg/logger"
	"github.com/promociones-residenciales/reservas/backend/service"
)

// ContractHandler serves contract documents and accepts signatures.
type ContractHandler struct {
	contracts *service.ContractService
}

func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// MaxSignatureBody bounds the signature request body: a base64 data URL of the
// largest accepted image plus metadata.
const MaxSignatureBody = 768 << 10

// SignatureRequest is the body of POST /reservations/:id/signature.
type SignatureRequest struct {
	SignatureData json.RawMessage    `json:"signatureData"`
	SignatureType string             `json:"signatureType"`
	Metadata      *model.RequestMeta `json:"metadata"`
}

// Download renders the unsigned contract of a reservation
func (h *ContractHandler) Download(c *gin.Context) {
	id := c.Param("id")

	pdf, data, err := h.contracts.GenerateContract(c.Request.Context(), id)
	if err != nil {
		logger.Warn(c.Request.Context(), "contract not generated", "error", err)
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, data.Number))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// PublishTemplate stores the unsigned contract and returns where it lives
func (h *ContractHandler) PublishTemplate(c *gin.Context) {
	id := c.Param("id")

	url, err := h.contracts.PublishTemplate(c.Request.Context(), id)
	if err != nil {
		logger.Error(c.Request.Context(), "contract template not stored", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "url": url})
}

// Sign runs the signature pipeline
func (h *ContractHandler) Sign(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxSignatureBody)

	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "request body too large",
				Details: fmt.Sprintf("limit is %d bytes", tooLarge.Limit),
			})
			return
		}
		respondError(c, model.NewValidationError("request body must be a JSON object"))
		return
	}

	kind := model.SignatureKind(req.SignatureType)
	if kind == "" {
		kind = model.SignatureDigital
	}

	var meta model.RequestMeta
	if req.Metadata != nil {
		meta = *req.Metadata
	}
	if meta.IP == "" {
		meta.IP = c.ClientIP()
	}
	if meta.UserAgent == "" {
		meta.UserAgent = c.Request.UserAgent()
	}

	res := h.contracts.ProcessSignature(c.Request.Context(), service.SignRequest{
		ReservationID: c.Param("id"),
		Kind:          kind,
		Payload:       req.SignatureData,
		Meta:          meta,
	})
	c.JSON(statusFor(res.Err), res)
}
