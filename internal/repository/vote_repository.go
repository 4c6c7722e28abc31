package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pollbox/internal/domain/poll"
	pollerrors "pollbox/pkg/errors"
)

type voteRepository struct {
	db *gorm.DB
}

func newVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

// ReplaceAll runs the whole replacement as one transaction: validate every
// selection, retract the user's existing votes, then apply the new set.
// Counter updates are in-database expressions and the chosen rows are locked,
// so concurrent submissions touching the same choice serialize at the row.
// Concurrent replacements by the same user collide on the (user, question)
// unique index instead, and the loser gets ErrConflict.
func (r *voteRepository) ReplaceAll(ctx context.Context, userID uuid.UUID, selections map[uint]uint) ([]uint, error) {
	touched := make(map[uint]struct{})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questionIDs := make([]uint, 0, len(selections))
		for qid := range selections {
			questionIDs = append(questionIDs, qid)
		}
		sort.Slice(questionIDs, func(i, j int) bool { return questionIDs[i] < questionIDs[j] })

		chosen := make(map[uint]poll.Choice)
		if len(selections) > 0 {
			choiceIDs := make([]uint, 0, len(selections))
			for _, cid := range selections {
				choiceIDs = append(choiceIDs, cid)
			}
			var rows []poll.Choice
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id IN ?", choiceIDs).Find(&rows).Error; err != nil {
				return err
			}
			for _, c := range rows {
				chosen[c.ID] = c
			}
		}

		// Validate every entry before any mutation and report the full set of
		// failures, not just the first.
		var missing, mismatched []string
		for _, qid := range questionIDs {
			cid := selections[qid]
			c, ok := chosen[cid]
			if !ok {
				missing = append(missing, fmt.Sprintf("choice %d (question %d)", cid, qid))
				continue
			}
			if c.QuestionID != qid {
				mismatched = append(mismatched, fmt.Sprintf("choice %d belongs to question %d, not %d", cid, c.QuestionID, qid))
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", pollerrors.ErrChoiceNotFound, strings.Join(missing, "; "))
		}
		if len(mismatched) > 0 {
			return fmt.Errorf("%w: %s", pollerrors.ErrChoiceQuestionMismatch, strings.Join(mismatched, "; "))
		}

		// Retract the user's existing votes and their counter contributions.
		var previous []poll.UserVote
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).Find(&previous).Error; err != nil {
			return err
		}
		for _, v := range previous {
			if err := tx.Model(&poll.Choice{}).Where("id = ?", v.ChoiceID).
				UpdateColumn("votes", gorm.Expr("votes - 1")).Error; err != nil {
				return err
			}
			touched[v.QuestionID] = struct{}{}
		}
		if len(previous) > 0 {
			if err := tx.Where("user_id = ?", userID).Delete(&poll.UserVote{}).Error; err != nil {
				return err
			}
		}

		// Apply the new set.
		now := time.Now()
		for _, qid := range questionIDs {
			vote := poll.UserVote{
				UserID:     userID,
				QuestionID: qid,
				ChoiceID:   selections[qid],
				CreatedAt:  now,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if err := tx.Model(&poll.Choice{}).Where("id = ?", selections[qid]).
				UpdateColumn("votes", gorm.Expr("votes + 1")).Error; err != nil {
				return err
			}
			touched[qid] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}

	affected := make([]uint, 0, len(touched))
	for qid := range touched {
		affected = append(affected, qid)
	}
	sort.Slice(affected, func(i, j int) bool { return affected[i] < affected[j] })
	return affected, nil
}

func (r *voteRepository) VotesByUser(ctx context.Context, userID uuid.UUID) ([]poll.UserVote, error) {
	var votes []poll.UserVote
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("question_id ASC").
		Find(&votes).Error
	if err != nil {
		return nil, translateError(err)
	}
	return votes, nil
}

func (r *voteRepository) HasVoted(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&poll.UserVote{}).
		Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *voteRepository) CountVotes(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&poll.UserVote{}).Count(&count).Error
	return count, translateError(err)
}

func (r *voteRepository) CountVoters(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&poll.UserVote{}).
		Distinct("user_id").Count(&count).Error
	return count, translateError(err)
}
