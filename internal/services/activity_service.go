package services

import (
	"context"
	"encoding/json"
	"fmt"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/metrics"
	"prompt-library-backend/internal/models"
	"prompt-library-backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestMeta is the request context stored alongside each activity entry.
type RequestMeta struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ActivityEntry struct {
	Action   models.ActivityAction
	PromptID string
	ReviewID *string
	UserID   *string // nil for anonymous callers
	Meta     RequestMeta
}

// ActivityService appends to the activity log. Record and RecordTx return
// errors; Track swallows them.
type ActivityService struct {
	store *database.Store
}

func NewActivityService(store *database.Store) *ActivityService {
	return &ActivityService{store: store}
}

// Record writes an entry on its own connection.
func (s *ActivityService) Record(ctx context.Context, entry ActivityEntry) error {
	db, err := s.store.DB(ctx)
	if err != nil {
		metrics.ActivityEvents.WithLabelValues(string(entry.Action), "error").Inc()
		return err
	}
	return s.RecordTx(db, entry)
}

// RecordTx writes an entry inside the caller's transaction, so the entry
// commits or rolls back together with the mutation it describes.
func (s *ActivityService) RecordTx(tx *gorm.DB, entry ActivityEntry) error {
	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}

	log := &models.ActivityLog{
		Action:   entry.Action,
		PromptID: entry.PromptID,
		ReviewID: entry.ReviewID,
		UserID:   entry.UserID,
		Metadata: datatypes.JSON(meta),
	}
	if err := tx.Create(log).Error; err != nil {
		metrics.ActivityEvents.WithLabelValues(string(entry.Action), "error").Inc()
		return fmt.Errorf("record %s activity: %w", entry.Action, err)
	}

	metrics.ActivityEvents.WithLabelValues(string(entry.Action), "ok").Inc()
	return nil
}

// Track is the best-effort variant used on read and usage paths: a failed
// write is logged at warn level and never reaches the caller.
func (s *ActivityService) Track(ctx context.Context, entry ActivityEntry) {
	if err := s.Record(ctx, entry); err != nil {
		logger.Log.Warn("Failed to log activity",
			zap.String("action", string(entry.Action)),
			zap.String("prompt_id", entry.PromptID),
			zap.Error(err),
		)
	}
}

// CountViews returns the number of recorded "view" events.
func (s *ActivityService) CountViews(ctx context.Context) (int64, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	err = db.Model(&models.ActivityLog{}).Where("action = ?", models.ActivityView).Count(&count).Error
	return count, err
}
