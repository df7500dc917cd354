package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// In-memory storage implementations. They honor the same conditional-write
// semantics as the DynamoDB storages (create-once, pending->settled CAS,
// boost claim) so engine tests can exercise the real race behavior without a
// running DynamoDB.

type MemoryContestantStorage struct {
	mu    sync.Mutex
	items map[string]*Contestant
}

func NewMemoryContestantStorage() *MemoryContestantStorage {
	return &MemoryContestantStorage{items: make(map[string]*Contestant)}
}

func (s *MemoryContestantStorage) Get(_ context.Context, id string) (*Contestant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *MemoryContestantStorage) GetAll(_ context.Context) ([]*Contestant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Contestant, 0, len(s.items))
	for _, c := range s.items {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryContestantStorage) Create(_ context.Context, contestant *Contestant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[contestant.ID]; ok {
		return ErrContestantAlreadyExists
	}
	copied := *contestant
	s.items[contestant.ID] = &copied
	return nil
}

func (s *MemoryContestantStorage) Approve(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	c.Approved = true
	return nil
}

func (s *MemoryContestantStorage) SetVotes(_ context.Context, id string, votes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	c.Votes = votes
	return nil
}

func (s *MemoryContestantStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *MemoryContestantStorage) addVotes(id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	c.Votes += delta
	return nil
}

type MemoryVoteTransactionStorage struct {
	mu          sync.Mutex
	items       map[string]*VoteTransaction
	Contestants *MemoryContestantStorage
}

func NewMemoryVoteTransactionStorage(contestants *MemoryContestantStorage) *MemoryVoteTransactionStorage {
	return &MemoryVoteTransactionStorage{
		items:       make(map[string]*VoteTransaction),
		Contestants: contestants,
	}
}

func (s *MemoryVoteTransactionStorage) Get(_ context.Context, reference string) (*VoteTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[reference]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *tx
	return &copied, nil
}

func (s *MemoryVoteTransactionStorage) GetAll(_ context.Context) ([]*VoteTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*VoteTransaction, 0, len(s.items))
	for _, tx := range s.items {
		copied := *tx
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

func (s *MemoryVoteTransactionStorage) Create(_ context.Context, tx *VoteTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[tx.Reference]; ok {
		return ErrTransactionAlreadyExists
	}
	copied := *tx
	s.items[tx.Reference] = &copied
	return nil
}

func (s *MemoryVoteTransactionStorage) Credit(_ context.Context, reference, contestantID string, votes int, amount int64) error {
	s.mu.Lock()
	tx, ok := s.items[reference]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if tx.Status != TxStatusPending {
		s.mu.Unlock()
		return ErrTransactionAlreadySettled
	}
	tx.Status = TxStatusCredited
	tx.Votes = votes
	tx.Amount = amount
	s.mu.Unlock()

	return s.Contestants.addVotes(contestantID, votes)
}

func (s *MemoryVoteTransactionStorage) MarkRejected(_ context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[reference]
	if !ok {
		return ErrNotFound
	}
	if tx.Status != TxStatusPending {
		return ErrTransactionAlreadySettled
	}
	tx.Status = TxStatusRejected
	return nil
}

func (s *MemoryVoteTransactionStorage) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*VoteTransaction)
	return nil
}

type MemoryContestSettingsStorage struct {
	mu    sync.Mutex
	items map[string]*ContestSetting
}

func NewMemoryContestSettingsStorage() *MemoryContestSettingsStorage {
	return &MemoryContestSettingsStorage{items: make(map[string]*ContestSetting)}
}

func (s *MemoryContestSettingsStorage) Get(_ context.Context, key string) (*ContestSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setting, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *setting
	return &copied, nil
}

func (s *MemoryContestSettingsStorage) GetAll(_ context.Context) ([]*ContestSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ContestSetting, 0, len(s.items))
	for _, setting := range s.items {
		copied := *setting
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryContestSettingsStorage) Put(_ context.Context, setting *ContestSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *setting
	if copied.UpdatedAt.IsZero() {
		copied.UpdatedAt = time.Now().UTC()
	}
	s.items[setting.Key] = &copied
	return nil
}

func (s *MemoryContestSettingsStorage) ClaimVoteBoost(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[VoteBoostAppliedKey]; ok && existing.Value == "true" {
		return ErrBoostAlreadyApplied
	}
	s.items[VoteBoostAppliedKey] = &ContestSetting{
		Key:       VoteBoostAppliedKey,
		Value:     "true",
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}
