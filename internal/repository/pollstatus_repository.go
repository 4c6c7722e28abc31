package repository

import (
	"context"

	"gorm.io/gorm"

	"pollbox/internal/domain/poll"
)

type pollStatusRepository struct {
	db *gorm.DB
}

func newPollStatusRepository(db *gorm.DB) PollStatusRepository {
	return &pollStatusRepository{db: db}
}

func (r *pollStatusRepository) Get(ctx context.Context) (poll.PollStatus, error) {
	var status poll.PollStatus
	err := r.db.WithContext(ctx).Order("id ASC").First(&status).Error
	if err != nil {
		return poll.PollStatus{}, translateError(err)
	}
	return status, nil
}

func (r *pollStatusRepository) Upsert(ctx context.Context, status poll.PollStatus) (poll.PollStatus, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing poll.PollStatus
		err := tx.Order("id ASC").First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(&status).Error
		}
		if err != nil {
			return err
		}
		status.ID = existing.ID
		return tx.Model(&poll.PollStatus{ID: existing.ID}).
			Select("is_closed", "closed_at", "closed_by").
			Updates(map[string]interface{}{
				"is_closed": status.IsClosed,
				"closed_at": status.ClosedAt,
				"closed_by": status.ClosedBy,
			}).Error
	})
	if err != nil {
		return poll.PollStatus{}, translateError(err)
	}
	return status, nil
}
