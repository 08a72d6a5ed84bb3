package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hamrosuraksha/reliefchain/internal/anchor"
	"github.com/hamrosuraksha/reliefchain/internal/record"
	"go.uber.org/zap"
)

// RecordHandler handles HTTP requests for relief records. Newly created
// records are handed to the background worker for anchoring; the create
// response never waits on the ledger.
type RecordHandler struct {
	store  record.Store
	worker *anchor.Worker // nil = no background anchoring
	logger *zap.Logger
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(store record.Store, worker *anchor.Worker, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{store: store, worker: worker, logger: logger}
}

// Register mounts the record routes on the given router group.
func (h *RecordHandler) Register(rg *gin.RouterGroup) {
	r := rg.Group("/records")
	{
		r.POST("", h.CreateRecord)
		r.GET("", h.ListRecords)
		r.GET("/:id", h.GetRecord)
	}
}

type createRecordRequest struct {
	FullName      string `json:"full_name" binding:"required"`
	CitizenshipNo string `json:"citizenship_no" binding:"required"`
	ReliefAmount  int64  `json:"relief_amount" binding:"required,gt=0"`
	Province      string `json:"province" binding:"required"`
	District      string `json:"district" binding:"required"`
	DisasterType  string `json:"disaster_type" binding:"required"`
	OfficerName   string `json:"officer_name" binding:"required"`
	OfficerID     string `json:"officer_id" binding:"required"`
}

// CreateRecord handles POST /records — stores a new relief disbursement and
// queues it for background anchoring.
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec := &record.ReliefRecord{
		FullName:      req.FullName,
		CitizenshipNo: req.CitizenshipNo,
		ReliefAmount:  req.ReliefAmount,
		Province:      req.Province,
		District:      req.District,
		DisasterType:  req.DisasterType,
		OfficerName:   req.OfficerName,
		OfficerID:     req.OfficerID,
	}

	ctx := c.Request.Context()
	if err := h.store.Create(ctx, rec); err != nil {
		h.logger.Error("create record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create record"})
		return
	}

	queued := false
	if h.worker != nil {
		queued = h.worker.Enqueue(rec.ID)
	}

	c.JSON(http.StatusCreated, gin.H{
		"record":        rec,
		"anchor_queued": queued,
	})
}

// ListRecords handles GET /records — paginated listing, newest first.
// Optional ?province=, ?district=, and ?disaster_type= filters.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	filter := record.Filter{
		Province:     c.Query("province"),
		District:     c.Query("district"),
		DisasterType: c.Query("disaster_type"),
	}

	records, err := h.store.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.logger.Error("list records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list records"})
		return
	}
	if records == nil {
		records = []*record.ReliefRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// GetRecord handles GET /records/:id — retrieves a single record by UUID.
func (h *RecordHandler) GetRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	rec, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if anchor.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		h.logger.Error("get record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get record"})
		return
	}
	c.JSON(http.StatusOK, rec)
}
