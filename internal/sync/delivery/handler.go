package delivery

import (
	"errors"
	"io"
	"net/http"
	"time"

	syncdomain "feedbox-backend/internal/sync/domain"
	syncdto "feedbox-backend/internal/sync/dto"
	"feedbox-backend/internal/sync/repository"
	"feedbox-backend/internal/sync/usecase"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	syncUsecase usecase.SyncUsecase
	tokenRepo   repository.DeviceTokenRepository
}

func NewSyncHandler(syncUsecase usecase.SyncUsecase, tokenRepo repository.DeviceTokenRepository) *SyncHandler {
	return &SyncHandler{
		syncUsecase: syncUsecase,
		tokenRepo:   tokenRepo,
	}
}

// EnqueueChange handles POST /api/changes. It sits on the interactive path:
// a failure is surfaced immediately so the UI can show the action as
// unsaved rather than silently losing it.
func (h *SyncHandler) EnqueueChange(c *gin.Context) {
	var req syncdto.EnqueueChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action := syncdomain.ActionKind(req.ActionKind)
	if !action.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action_kind"})
		return
	}

	if err := h.syncUsecase.EnqueueChange(req.LocalArticleID, req.RemoteArticleID, action); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "change queued"})
}

// TriggerSync handles POST /api/sync/trigger
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	runID, started, err := h.syncUsecase.TriggerSync()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, syncdto.TriggerSyncResponse{RunID: runID, Started: started})
}

// GetRun handles GET /api/sync/runs/:id
func (h *SyncHandler) GetRun(c *gin.Context) {
	run, err := h.syncUsecase.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, syncdomain.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sync run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetQueue handles GET /api/sync/queue (operator visibility, stuck rows
// included)
func (h *SyncHandler) GetQueue(c *gin.Context) {
	changes, err := h.syncUsecase.ListQueue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stuck := 0
	for _, change := range changes {
		if change.Stuck {
			stuck++
		}
	}

	c.JSON(http.StatusOK, syncdto.QueueResponse{Changes: changes, Total: len(changes), Stuck: stuck})
}

// ResetStuck handles POST /api/sync/queue/reset (operator intervention)
func (h *SyncHandler) ResetStuck(c *gin.Context) {
	var req syncdto.ResetStuckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.syncUsecase.ResetStuck(req.IDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "stuck changes reset"})
}

// ApplySnapshots handles POST /api/articles/snapshots: the downlink job
// submits fetched snapshots and the conflict resolver decides which may
// overwrite local rows
func (h *SyncHandler) ApplySnapshots(c *gin.Context) {
	var req syncdto.SnapshotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applied, skipped, err := h.syncUsecase.ApplySnapshots(req.Snapshots)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, syncdto.SnapshotsResponse{Applied: applied, Skipped: skipped})
}

// DownlinkCompleted handles POST /api/sync/downlink-complete
func (h *SyncHandler) DownlinkCompleted(c *gin.Context) {
	var req syncdto.DownlinkCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An absent body means "boundary = now"; anything else malformed
		// is the caller's bug
		if !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var lastSyncUpdate time.Time
	if req.LastSyncUpdate != "" {
		parsed, err := time.Parse(time.RFC3339, req.LastSyncUpdate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "last_sync_update must be RFC3339"})
			return
		}
		lastSyncUpdate = parsed
	}

	uplinkRunID, err := h.syncUsecase.DownlinkCompleted(lastSyncUpdate, req.RunID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, syncdto.DownlinkCompletedResponse{UplinkRunID: uplinkRunID})
}

// RegisterDeviceToken handles POST /api/fcm/register
func (h *SyncHandler) RegisterDeviceToken(c *gin.Context) {
	var req syncdto.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tokenRepo.SaveToken(req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token registered"})
}

// UnregisterDeviceToken handles DELETE /api/fcm/:token
func (h *SyncHandler) UnregisterDeviceToken(c *gin.Context) {
	if err := h.tokenRepo.DeleteToken(c.Param("token")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token removed"})
}
