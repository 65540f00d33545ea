// Package memory provides in-memory store implementations for testing and
// development. All methods copy data in and out so callers never share
// internal state.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
)

// =============================================================================
// BALANCE STORE
// =============================================================================

type BalanceStore struct {
	mu       sync.RWMutex
	balances map[ledger.Key]ledger.Balance
}

func NewBalanceStore() *BalanceStore {
	return &BalanceStore{balances: make(map[ledger.Key]ledger.Balance)}
}

func (s *BalanceStore) Get(_ context.Context, key ledger.Key) (*ledger.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[key]
	if !ok {
		return nil, leave.ErrNotFound
	}
	copied := b
	return &copied, nil
}

func (s *BalanceStore) Create(_ context.Context, balance *ledger.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.balances[balance.Key]; exists {
		return &leave.ValidationError{Field: "key", Message: "ledger row already exists"}
	}
	balance.Version = 1
	s.balances[balance.Key] = *balance
	return nil
}

func (s *BalanceStore) Save(_ context.Context, balance *ledger.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.balances[balance.Key]
	if !ok {
		return leave.ErrNotFound
	}
	if current.Version != balance.Version {
		return leave.ErrConcurrentModification
	}
	balance.Version++
	s.balances[balance.Key] = *balance
	return nil
}

// =============================================================================
// REQUEST STORE
// =============================================================================

type RequestStore struct {
	mu       sync.RWMutex
	requests map[string]leave.Request
	order    []string // insertion order, for stable pending listing
}

func NewRequestStore() *RequestStore {
	return &RequestStore{requests: make(map[string]leave.Request)}
}

func (s *RequestStore) Create(_ context.Context, req *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return &leave.ValidationError{Field: "id", Message: "request already exists"}
	}
	s.requests[req.ID] = *req
	s.order = append(s.order, req.ID)
	return nil
}

func (s *RequestStore) Get(_ context.Context, id string) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, leave.ErrNotFound
	}
	copied := req
	return &copied, nil
}

func (s *RequestStore) Update(_ context.Context, req *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.ID]; !ok {
		return leave.ErrNotFound
	}
	s.requests[req.ID] = *req
	return nil
}

func (s *RequestStore) ListByEmployee(_ context.Context, employeeID string) ([]*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Built in reverse insertion order; the stable sort keeps that order for
	// equal timestamps, so ties break toward the later submission.
	var result []*leave.Request
	for i := len(s.order) - 1; i >= 0; i-- {
		req := s.requests[s.order[i]]
		if req.EmployeeID == employeeID {
			copied := req
			result = append(result, &copied)
		}
	}
	// Newest first.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SubmittedAt.After(result[j].SubmittedAt)
	})
	return result, nil
}

func (s *RequestStore) ListPending(_ context.Context) ([]*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*leave.Request
	for _, id := range s.order {
		req := s.requests[id]
		if req.Status == leave.StatusPending {
			copied := req
			result = append(result, &copied)
		}
	}
	return result, nil
}

// =============================================================================
// REFERENCE DATA - Leave types and holidays
// =============================================================================

type CatalogStore struct {
	mu         sync.RWMutex
	leaveTypes map[string]leave.LeaveType
	codes      []string
	holidays   []leave.Holiday
}

func NewCatalogStore() *CatalogStore {
	return &CatalogStore{leaveTypes: make(map[string]leave.LeaveType)}
}

func (s *CatalogStore) PutLeaveType(_ context.Context, lt leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.leaveTypes[lt.Code]; !exists {
		s.codes = append(s.codes, lt.Code)
	}
	s.leaveTypes[lt.Code] = lt
	return nil
}

func (s *CatalogStore) GetLeaveType(_ context.Context, code string) (*leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lt, ok := s.leaveTypes[code]
	if !ok {
		return nil, leave.ErrNotFound
	}
	copied := lt
	return &copied, nil
}

func (s *CatalogStore) ListLeaveTypes(_ context.Context) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]leave.LeaveType, 0, len(s.codes))
	for _, code := range s.codes {
		result = append(result, s.leaveTypes[code])
	}
	return result, nil
}

func (s *CatalogStore) AddHoliday(_ context.Context, h leave.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays = append(s.holidays, h)
	return nil
}

func (s *CatalogStore) ListHolidays(_ context.Context, year int) ([]leave.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []leave.Holiday
	for _, h := range s.holidays {
		if year == 0 || h.Date.Year() == year {
			result = append(result, h)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}
