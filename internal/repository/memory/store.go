// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces. They back the service and handler tests and mirror
// the transactional semantics of the Postgres implementations: a failed vote
// replacement leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/user"
	"pollbox/internal/repository"
	pollerrors "pollbox/pkg/errors"
)

type Store struct {
	mu sync.RWMutex

	questions map[uint]poll.Question // without Choices; assembled on read
	choices   map[uint]poll.Choice
	votes     map[uint]poll.UserVote
	status    *poll.PollStatus
	users     map[uuid.UUID]user.User
	sessions  map[uuid.UUID]user.Session

	nextQuestionID uint
	nextChoiceID   uint
	nextVoteID     uint
	nextProfileID  uint
}

func NewStore() *Store {
	return &Store{
		questions: make(map[uint]poll.Question),
		choices:   make(map[uint]poll.Choice),
		votes:     make(map[uint]poll.UserVote),
		users:     make(map[uuid.UUID]user.User),
		sessions:  make(map[uuid.UUID]user.Session),
	}
}

func (s *Store) Questions() repository.QuestionRepository    { return (*questionStore)(s) }
func (s *Store) Votes() repository.VoteRepository            { return (*voteStore)(s) }
func (s *Store) PollStatus() repository.PollStatusRepository { return (*statusStore)(s) }
func (s *Store) Users() repository.UserRepository            { return (*userStore)(s) }

// assemble returns a copy of the question with its choices attached, sorted by
// choice id. Callers must hold at least the read lock.
func (s *Store) assemble(id uint) (poll.Question, bool) {
	q, ok := s.questions[id]
	if !ok {
		return poll.Question{}, false
	}
	for _, c := range s.choices {
		if c.QuestionID == id {
			q.Choices = append(q.Choices, c)
		}
	}
	sort.Slice(q.Choices, func(i, j int) bool { return q.Choices[i].ID < q.Choices[j].ID })
	return q, true
}

func (s *Store) assembleAll() []poll.Question {
	out := make([]poll.Question, 0, len(s.questions))
	for id := range s.questions {
		q, _ := s.assemble(id)
		out = append(out, q)
	}
	return out
}

func paginate(questions []poll.Question, offset, limit int) []poll.Question {
	if offset >= len(questions) {
		return nil
	}
	questions = questions[offset:]
	if limit >= 0 && limit < len(questions) {
		questions = questions[:limit]
	}
	return questions
}

// --- questions ---

type questionStore Store

func (s *questionStore) Create(_ context.Context, q *poll.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextQuestionID++
	q.ID = s.nextQuestionID
	stored := *q
	stored.Choices = nil
	s.questions[q.ID] = stored
	for i := range q.Choices {
		s.nextChoiceID++
		q.Choices[i].ID = s.nextChoiceID
		q.Choices[i].QuestionID = q.ID
		s.choices[q.Choices[i].ID] = q.Choices[i]
	}
	return nil
}

func (s *questionStore) GetByID(_ context.Context, id uint) (poll.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := (*Store)(s).assemble(id)
	if !ok {
		return poll.Question{}, pollerrors.ErrNotFound
	}
	return q, nil
}

func (s *questionStore) GetPublished(_ context.Context, id uint, now time.Time) (poll.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := (*Store)(s).assemble(id)
	if !ok || !q.IsPublished(now) || !q.HasChoices() {
		return poll.Question{}, pollerrors.ErrNotFound
	}
	return q, nil
}

func (s *questionStore) ListPublished(_ context.Context, now time.Time, offset, limit int) ([]poll.Question, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visible := poll.FilterPublic((*Store)(s).assembleAll(), now)
	total := int64(len(visible))
	return paginate(visible, offset, limit), total, nil
}

func (s *questionStore) ListAll(_ context.Context, now time.Time, offset, limit int) ([]poll.Question, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := (*Store)(s).assembleAll()
	poll.SortForAdmin(all, now)
	total := int64(len(all))
	return paginate(all, offset, limit), total, nil
}

func (s *questionStore) Update(_ context.Context, q poll.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.questions[q.ID]
	if !ok {
		return pollerrors.ErrNotFound
	}
	existing.QuestionText = q.QuestionText
	existing.PubDate = q.PubDate
	s.questions[q.ID] = existing

	keep := make(map[uint]bool)
	for _, c := range q.Choices {
		if c.ID != 0 {
			keep[c.ID] = true
		}
	}
	for id, c := range s.choices {
		if c.QuestionID == q.ID && !keep[id] {
			delete(s.choices, id)
			for vid, v := range s.votes {
				if v.ChoiceID == id {
					delete(s.votes, vid)
				}
			}
		}
	}
	for _, c := range q.Choices {
		c.QuestionID = q.ID
		if c.ID == 0 {
			s.nextChoiceID++
			c.ID = s.nextChoiceID
		}
		s.choices[c.ID] = c
	}
	return nil
}

func (s *questionStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return pollerrors.ErrNotFound
	}
	delete(s.questions, id)
	for cid, c := range s.choices {
		if c.QuestionID == id {
			delete(s.choices, cid)
		}
	}
	for vid, v := range s.votes {
		if v.QuestionID == id {
			delete(s.votes, vid)
		}
	}
	return nil
}

func (s *questionStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.questions)), nil
}

func (s *questionStore) CountHidden(_ context.Context, now time.Time) (unpublished, choiceless, both int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range (*Store)(s).assembleAll() {
		if !q.IsPublished(now) {
			unpublished++
		}
		if !q.HasChoices() {
			choiceless++
		}
		if !q.IsPublished(now) && !q.HasChoices() {
			both++
		}
	}
	return unpublished, choiceless, both, nil
}

// --- votes ---

type voteStore Store

func (s *voteStore) ReplaceAll(_ context.Context, userID uuid.UUID, selections map[uint]uint) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	questionIDs := make([]uint, 0, len(selections))
	for qid := range selections {
		questionIDs = append(questionIDs, qid)
	}
	sort.Slice(questionIDs, func(i, j int) bool { return questionIDs[i] < questionIDs[j] })

	// Validate everything up front; nothing below may fail.
	var missing, mismatched []string
	for _, qid := range questionIDs {
		cid := selections[qid]
		c, ok := s.choices[cid]
		if !ok {
			missing = append(missing, fmt.Sprintf("choice %d (question %d)", cid, qid))
			continue
		}
		if c.QuestionID != qid {
			mismatched = append(mismatched, fmt.Sprintf("choice %d belongs to question %d, not %d", cid, c.QuestionID, qid))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", pollerrors.ErrChoiceNotFound, strings.Join(missing, "; "))
	}
	if len(mismatched) > 0 {
		return nil, fmt.Errorf("%w: %s", pollerrors.ErrChoiceQuestionMismatch, strings.Join(mismatched, "; "))
	}

	touched := make(map[uint]struct{})
	for vid, v := range s.votes {
		if v.UserID != userID {
			continue
		}
		c := s.choices[v.ChoiceID]
		c.Votes--
		s.choices[v.ChoiceID] = c
		touched[v.QuestionID] = struct{}{}
		delete(s.votes, vid)
	}
	now := time.Now()
	for _, qid := range questionIDs {
		cid := selections[qid]
		s.nextVoteID++
		s.votes[s.nextVoteID] = poll.UserVote{
			ID:         s.nextVoteID,
			UserID:     userID,
			QuestionID: qid,
			ChoiceID:   cid,
			CreatedAt:  now,
		}
		c := s.choices[cid]
		c.Votes++
		s.choices[cid] = c
		touched[qid] = struct{}{}
	}

	affected := make([]uint, 0, len(touched))
	for qid := range touched {
		affected = append(affected, qid)
	}
	sort.Slice(affected, func(i, j int) bool { return affected[i] < affected[j] })
	return affected, nil
}

func (s *voteStore) VotesByUser(_ context.Context, userID uuid.UUID) ([]poll.UserVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var votes []poll.UserVote
	for _, v := range s.votes {
		if v.UserID == userID {
			votes = append(votes, v)
		}
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].QuestionID < votes[j].QuestionID })
	return votes, nil
}

func (s *voteStore) HasVoted(_ context.Context, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.votes {
		if v.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *voteStore) CountVotes(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.votes)), nil
}

func (s *voteStore) CountVoters(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voters := make(map[uuid.UUID]struct{})
	for _, v := range s.votes {
		voters[v.UserID] = struct{}{}
	}
	return int64(len(voters)), nil
}

// --- poll status ---

type statusStore Store

func (s *statusStore) Get(_ context.Context) (poll.PollStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.status == nil {
		return poll.PollStatus{}, pollerrors.ErrNotFound
	}
	return *s.status, nil
}

func (s *statusStore) Upsert(_ context.Context, status poll.PollStatus) (poll.PollStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == nil {
		status.ID = 1
	} else {
		status.ID = s.status.ID
	}
	copied := status
	s.status = &copied
	return status, nil
}

// --- users ---

type userStore Store

func (s *userStore) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return pollerrors.ErrAlreadyExists
		}
	}
	s.nextProfileID++
	u.Profile.ID = s.nextProfileID
	u.Profile.UserID = u.ID
	s.users[u.ID] = *u
	return nil
}

func (s *userStore) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, pollerrors.ErrNotFound
	}
	return u, nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, pollerrors.ErrNotFound
}

func (s *userStore) ListAdmins(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var admins []user.User
	for _, u := range s.users {
		if u.Profile.IsAdmin {
			admins = append(admins, u)
		}
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].Email < admins[j].Email })
	return admins, nil
}

func (s *userStore) UpdateProfile(_ context.Context, p user.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[p.UserID]
	if !ok {
		return pollerrors.ErrNotFound
	}
	u.Profile.IsAdmin = p.IsAdmin
	s.users[p.UserID] = u
	return nil
}

func (s *userStore) CreateSession(_ context.Context, sess *user.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = *sess
	return nil
}

func (s *userStore) GetSessionByID(_ context.Context, id uuid.UUID) (user.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return user.Session{}, pollerrors.ErrNotFound
	}
	return sess, nil
}

func (s *userStore) RevokeSession(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return pollerrors.ErrNotFound
	}
	sess.IsRevoked = true
	s.sessions[id] = sess
	return nil
}
