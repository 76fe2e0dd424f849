package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/linktrack/internal/models"
	"github.com/SergeiKhy/linktrack/internal/repository"
	"github.com/google/uuid"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu    sync.RWMutex
	links map[uuid.UUID]*models.Link

	// FailAll makes every call return FailErr, simulating storage outage
	FailAll bool
	FailErr error
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links: make(map[uuid.UUID]*models.Link),
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAll {
		return m.FailErr
	}

	for _, existing := range m.links {
		if existing.ShortCode == link.ShortCode {
			return repository.ErrCodeExists
		}
	}

	link.ID = uuid.New()
	link.CreatedAt = time.Now()
	stored := *link
	m.links[link.ID] = &stored
	return nil
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailAll {
		return nil, m.FailErr
	}

	for _, link := range m.links {
		if link.ShortCode == code {
			found := *link
			return &found, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailAll {
		return nil, m.FailErr
	}

	link, exists := m.links[id]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	found := *link
	return &found, nil
}

func (m *MockLinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailAll {
		return nil, m.FailErr
	}

	var links []models.Link
	for _, link := range m.links {
		if link.OwnerID == ownerID {
			links = append(links, *link)
		}
	}
	return links, nil
}

func (m *MockLinkRepository) Update(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAll {
		return m.FailErr
	}

	if _, exists := m.links[link.ID]; !exists {
		return repository.ErrLinkNotFound
	}
	for id, existing := range m.links {
		if id != link.ID && existing.ShortCode == link.ShortCode {
			return repository.ErrCodeExists
		}
	}
	stored := *link
	m.links[link.ID] = &stored
	return nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAll {
		return m.FailErr
	}

	if _, exists := m.links[id]; !exists {
		return repository.ErrLinkNotFound
	}
	delete(m.links, id)
	return nil
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, code string, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[code] = link
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, code)
	return nil
}

// MockClickRepository implements repository.ClickRepository for testing.
// Timestamps are assigned at insert, mirroring the server-assigned
// semantics of the real store; tests may override via SetClock.
type MockClickRepository struct {
	mu     sync.RWMutex
	clicks []models.Click
	now    func() time.Time

	FailAll bool
	FailErr error
}

func NewMockClickRepository() *MockClickRepository {
	return &MockClickRepository{now: time.Now}
}

// SetClock replaces the insert timestamp source
func (m *MockClickRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetFail toggles the failure mode; safe to call while workers run
func (m *MockClickRepository) SetFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailAll = err != nil
	m.FailErr = err
}

func (m *MockClickRepository) Insert(ctx context.Context, click *models.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAll {
		return m.FailErr
	}

	click.ID = uuid.New()
	click.ClickedAt = m.now()
	m.clicks = append(m.clicks, *click)
	return nil
}

func (m *MockClickRepository) ListByLinkIDs(ctx context.Context, linkIDs []uuid.UUID, from, to time.Time) ([]models.Click, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailAll {
		return nil, m.FailErr
	}

	wanted := make(map[uuid.UUID]bool, len(linkIDs))
	for _, id := range linkIDs {
		wanted[id] = true
	}

	result := []models.Click{}
	for _, click := range m.clicks {
		if !wanted[click.LinkID] {
			continue
		}
		if click.ClickedAt.Before(from) || !click.ClickedAt.Before(to) {
			continue
		}
		result = append(result, click)
	}
	return result, nil
}

func (m *MockClickRepository) GetLinkStats(ctx context.Context, linkID uuid.UUID) (*models.LinkStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailAll {
		return nil, m.FailErr
	}

	stats := &models.LinkStats{LinkID: linkID}
	uniqueIPs := make(map[string]bool)
	for _, click := range m.clicks {
		if click.LinkID != linkID {
			continue
		}
		stats.TotalClicks++
		if click.IPAddress != nil {
			uniqueIPs[*click.IPAddress] = true
		}
	}
	stats.UniqueClicks = int64(len(uniqueIPs))
	return stats, nil
}

// Clicks returns a copy of everything recorded so far
func (m *MockClickRepository) Clicks() []models.Click {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Click, len(m.clicks))
	copy(out, m.clicks)
	return out
}
