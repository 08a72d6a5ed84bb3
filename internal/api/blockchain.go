// Package api exposes the relief record registry and its tamper-evidence
// workflow over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hamrosuraksha/reliefchain/internal/anchor"
	"go.uber.org/zap"
)

// BlockchainHandler exposes the anchoring and verification endpoints.
type BlockchainHandler struct {
	svc    *anchor.Service
	logger *zap.Logger
}

// NewBlockchainHandler creates a new BlockchainHandler.
func NewBlockchainHandler(svc *anchor.Service, logger *zap.Logger) *BlockchainHandler {
	return &BlockchainHandler{svc: svc, logger: logger}
}

// Register mounts the blockchain routes on the given router group.
func (h *BlockchainHandler) Register(rg *gin.RouterGroup) {
	b := rg.Group("/blockchain")
	{
		b.GET("/status", h.Status)
		b.GET("/stats", h.Stats)
		b.GET("/verify/:id", h.Verify)
		b.GET("/verify/:id/offline", h.VerifyOffline)
		b.POST("/anchor/:id", h.Anchor)
		b.POST("/anchor-all", h.AnchorAll)
	}
}

// Status handles GET /blockchain/status — reports network reachability and
// wallet balance. Always 200: an unreachable network is data, not an error.
func (h *BlockchainHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status(c.Request.Context()))
}

// Stats handles GET /blockchain/stats — anchoring coverage over the store.
func (h *BlockchainHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("anchoring stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Anchor handles POST /blockchain/anchor/:id — anchors a single record.
// Re-anchoring an anchored record is a 200 no-op carrying the existing
// receipt.
func (h *BlockchainHandler) Anchor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	receipt, err := h.svc.Anchor(c.Request.Context(), id)
	if err != nil {
		if anchor.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		h.logger.Warn("anchor failed", zap.String("record_id", id.String()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusCreated
	if receipt.AlreadyAnchored {
		status = http.StatusOK
	}
	c.JSON(status, receipt)
}

// AnchorAll handles POST /blockchain/anchor-all — anchors every unanchored
// record. Individual failures are reported in the summary, not as an HTTP
// error.
func (h *BlockchainHandler) AnchorAll(c *gin.Context) {
	summary, err := h.svc.AnchorAll(c.Request.Context())
	if err != nil {
		h.logger.Error("batch anchoring", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch anchoring failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Verify handles GET /blockchain/verify/:id — full on-chain verification with
// a tri-state verdict.
func (h *BlockchainHandler) Verify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	result, err := h.svc.Verify(c.Request.Context(), id)
	if err != nil {
		if anchor.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		h.logger.Error("verify record", zap.String("record_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// VerifyOffline handles GET /blockchain/verify/:id/offline — pure hash
// comparison, no ledger round-trip.
func (h *BlockchainHandler) VerifyOffline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	check, err := h.svc.VerifyOffline(c.Request.Context(), id)
	if err != nil {
		if anchor.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		h.logger.Error("offline verify", zap.String("record_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, check)
}
