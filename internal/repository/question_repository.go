package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pollbox/internal/domain/poll"
)

const hasChoicesExpr = "EXISTS (SELECT 1 FROM choices WHERE choices.question_id = questions.id)"

type questionRepository struct {
	db *gorm.DB
}

func newQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func preloadChoices(db *gorm.DB) *gorm.DB {
	return db.Order("choices.id ASC")
}

func (r *questionRepository) Create(ctx context.Context, q *poll.Question) error {
	return translateError(r.db.WithContext(ctx).Create(q).Error)
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (poll.Question, error) {
	var q poll.Question
	err := r.db.WithContext(ctx).Preload("Choices", preloadChoices).First(&q, id).Error
	if err != nil {
		return poll.Question{}, translateError(err)
	}
	return q, nil
}

func (r *questionRepository) GetPublished(ctx context.Context, id uint, now time.Time) (poll.Question, error) {
	var q poll.Question
	err := r.db.WithContext(ctx).
		Preload("Choices", preloadChoices).
		Where("pub_date <= ?", now).
		Where(hasChoicesExpr).
		First(&q, id).Error
	if err != nil {
		return poll.Question{}, translateError(err)
	}
	return q, nil
}

func (r *questionRepository) ListPublished(ctx context.Context, now time.Time, offset, limit int) ([]poll.Question, int64, error) {
	base := r.db.WithContext(ctx).Model(&poll.Question{}).
		Where("pub_date <= ?", now).
		Where(hasChoicesExpr)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	query := base.Preload("Choices", preloadChoices).Order("pub_date ASC, id ASC")
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit >= 0 {
		query = query.Limit(limit)
	}

	var questions []poll.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return questions, total, nil
}

func (r *questionRepository) ListAll(ctx context.Context, now time.Time, offset, limit int) ([]poll.Question, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&poll.Question{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	// Bucket order: published+choiceful, future+choiceful, published
	// choiceless, future choiceless; (pub_date, id) ascending within each.
	bucket := "CASE" +
		" WHEN pub_date <= ? AND " + hasChoicesExpr + " THEN 0" +
		" WHEN pub_date > ? AND " + hasChoicesExpr + " THEN 1" +
		" WHEN pub_date <= ? THEN 2" +
		" ELSE 3 END"
	query := r.db.WithContext(ctx).Model(&poll.Question{}).
		Preload("Choices", preloadChoices).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{
				SQL:                bucket + ", pub_date ASC, id ASC",
				Vars:               []interface{}{now, now, now},
				WithoutParentheses: true,
			},
		})
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit >= 0 {
		query = query.Limit(limit)
	}

	var questions []poll.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return questions, total, nil
}

func (r *questionRepository) Update(ctx context.Context, q poll.Question) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing poll.Question
		if err := tx.First(&existing, q.ID).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"question_text": q.QuestionText,
			"pub_date":      q.PubDate,
		}
		if err := tx.Model(&poll.Question{ID: q.ID}).Updates(updates).Error; err != nil {
			return err
		}

		keep := make([]uint, 0, len(q.Choices))
		for _, c := range q.Choices {
			if c.ID != 0 {
				keep = append(keep, c.ID)
			}
		}

		// Drop choices omitted from the new set, along with their votes.
		drop := tx.Model(&poll.Choice{}).Where("question_id = ?", q.ID)
		if len(keep) > 0 {
			drop = drop.Where("id NOT IN ?", keep)
		}
		var removed []poll.Choice
		if err := drop.Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) > 0 {
			removedIDs := make([]uint, 0, len(removed))
			for _, c := range removed {
				removedIDs = append(removedIDs, c.ID)
			}
			if err := tx.Where("choice_id IN ?", removedIDs).Delete(&poll.UserVote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", removedIDs).Delete(&poll.Choice{}).Error; err != nil {
				return err
			}
		}

		for _, c := range q.Choices {
			c.QuestionID = q.ID
			if c.ID == 0 {
				if err := tx.Create(&c).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Model(&poll.Choice{ID: c.ID}).Updates(map[string]interface{}{
				"choice_text": c.ChoiceText,
				"votes":       c.Votes,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateError(err)
}

func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q poll.Question
		if err := tx.First(&q, id).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&poll.UserVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&poll.Choice{}).Error; err != nil {
			return err
		}
		return tx.Delete(&poll.Question{}, id).Error
	})
	return translateError(err)
}

func (r *questionRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&poll.Question{}).Count(&total).Error
	return total, translateError(err)
}

func (r *questionRepository) CountHidden(ctx context.Context, now time.Time) (unpublished, choiceless, both int64, err error) {
	db := r.db.WithContext(ctx).Model(&poll.Question{})
	if err = db.Session(&gorm.Session{}).Where("pub_date > ?", now).Count(&unpublished).Error; err != nil {
		return 0, 0, 0, translateError(err)
	}
	if err = db.Session(&gorm.Session{}).Where("NOT " + hasChoicesExpr).Count(&choiceless).Error; err != nil {
		return 0, 0, 0, translateError(err)
	}
	if err = db.Session(&gorm.Session{}).Where("pub_date > ?", now).Where("NOT "+hasChoicesExpr).Count(&both).Error; err != nil {
		return 0, 0, 0, translateError(err)
	}
	return unpublished, choiceless, both, nil
}
