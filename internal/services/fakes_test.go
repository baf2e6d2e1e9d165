package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"kalyana/internal/authz"
	"kalyana/internal/models"
	"kalyana/internal/repositories"
)

// memDB is an in-memory stand-in for the postgres tables. The mutex plays the
// role of row locks: WithTx holds it for the whole callback.
type memDB struct {
	mu          sync.Mutex
	nextID      int
	users       map[int]*models.User
	surplus     map[int]*models.Surplus
	allocations map[int]*models.Allocation
	reviews     []models.Review
	complaints  map[int]*models.Complaint
	events      map[int]*models.Event
	otps        map[string]*models.OTPContext
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[int]*models.User{},
		surplus:     map[int]*models.Surplus{},
		allocations: map[int]*models.Allocation{},
		complaints:  map[int]*models.Complaint{},
		events:      map[int]*models.Event{},
		otps:        map[string]*models.OTPContext{},
	}
}

func (db *memDB) id() int {
	db.nextID++
	return db.nextID
}

func (db *memDB) addUser(name, role, phone string) *models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &models.User{ID: db.id(), FullName: name, Email: strings.ToLower(name) + "@example.com", Role: role, CreatedAt: time.Now()}
	if phone != "" {
		u.PhoneNumber = &phone
	}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addSurplus(s models.Surplus) *models.Surplus {
	db.mu.Lock()
	defer db.mu.Unlock()
	s.ID = db.id()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	db.surplus[s.ID] = &s
	cp := s
	return &cp
}

func (db *memDB) surplusStatus(id int) models.SurplusStatus {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.surplus[id].Status
}

func (db *memDB) allocationCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.allocations)
}

// ===== users =====

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, x := range r.db.users {
		if x.Email == u.Email || (u.PhoneNumber != nil && x.PhoneNumber != nil && *x.PhoneNumber == *u.PhoneNumber) {
			return repositories.ErrDuplicate
		}
	}
	u.ID = r.db.id()
	u.CreatedAt = time.Now()
	cp := *u
	r.db.users[u.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) find(match func(*models.User) bool) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == strings.ToLower(strings.TrimSpace(email)) })
}

func (r memUsers) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.PhoneNumber != nil && *u.PhoneNumber == phone })
}

func (r memUsers) ListByIDs(_ context.Context, ids []int) ([]models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res := []models.User{}
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			res = append(res, *u)
		}
	}
	return res, nil
}

func (r memUsers) List(_ context.Context, f models.UserFilter) ([]models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res := []models.User{}
	for _, u := range r.db.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(u.FullName+" "+u.Email), f.Search) {
			continue
		}
		res = append(res, *u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	return res, nil
}

func (r memUsers) CountByRole(_ context.Context) (map[string]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res := map[string]int{}
	for _, u := range r.db.users {
		res[u.Role]++
	}
	return res, nil
}

func (r memUsers) UpdatePassword(_ context.Context, id int, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

func (r memUsers) DeleteCascade(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return sql.ErrNoRows
	}
	for k, a := range r.db.allocations {
		if a.ProviderID == id || a.NGOID == id {
			delete(r.db.allocations, k)
		}
	}
	for k, s := range r.db.surplus {
		if s.ProviderID == id {
			delete(r.db.surplus, k)
		}
	}
	delete(r.db.users, id)
	return nil
}

// ===== surplus =====

type memSurplus struct{ db *memDB }

func (r memSurplus) CreateWithEvent(_ context.Context, s *models.Surplus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var eventID int
	for _, e := range r.db.events {
		if e.ProviderID == s.ProviderID && e.EventName == s.EventName {
			eventID = e.ID
		}
	}
	if eventID == 0 {
		eventID = r.db.id()
		r.db.events[eventID] = &models.Event{ID: eventID, ProviderID: s.ProviderID, EventName: s.EventName}
	}
	s.EventID = &eventID
	s.ID = r.db.id()
	s.CreatedAt = time.Now()
	cp := *s
	r.db.surplus[s.ID] = &cp
	return nil
}

func (r memSurplus) GetByID(_ context.Context, id int) (*models.Surplus, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.surplus[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (r memSurplus) list(match func(*models.Surplus) bool, limit int) []models.Surplus {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res := []models.Surplus{}
	for _, s := range r.db.surplus {
		if match(s) {
			res = append(res, *s)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

func (r memSurplus) ListByProvider(_ context.Context, providerID, limit int) ([]models.Surplus, error) {
	return r.list(func(s *models.Surplus) bool { return s.ProviderID == providerID }, limit), nil
}

func (r memSurplus) ListByStatus(_ context.Context, status models.SurplusStatus, limit int) ([]models.Surplus, error) {
	return r.list(func(s *models.Surplus) bool { return s.Status == status }, limit), nil
}

func (r memSurplus) CountByStatus(ctx context.Context, status models.SurplusStatus) (int, error) {
	list, _ := r.ListByStatus(ctx, status, 0)
	return len(list), nil
}

func (r memSurplus) TransitionStatus(_ context.Context, id int, from, to models.SurplusStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.surplus[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (r memSurplus) UpdatePhoto(_ context.Context, id int, path string, allowed ...models.SurplusStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.surplus[id]
	if !ok {
		return false, nil
	}
	for _, st := range allowed {
		if s.Status == st {
			s.PhotoPath = path
			return true, nil
		}
	}
	return false, nil
}

// ===== allocations =====

type memAllocations struct{ db *memDB }

func (r memAllocations) WithTx(_ context.Context, fn func(tx repositories.AllocationTx) error) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	// snapshot for rollback
	surplus := make(map[int]models.Surplus, len(r.db.surplus))
	for k, v := range r.db.surplus {
		surplus[k] = *v
	}
	allocs := make(map[int]models.Allocation, len(r.db.allocations))
	for k, v := range r.db.allocations {
		allocs[k] = *v
	}

	if err := fn(memTx{db: r.db}); err != nil {
		r.db.surplus = map[int]*models.Surplus{}
		for k, v := range surplus {
			v := v
			r.db.surplus[k] = &v
		}
		r.db.allocations = map[int]*models.Allocation{}
		for k, v := range allocs {
			v := v
			r.db.allocations[k] = &v
		}
		return err
	}
	return nil
}

func (r memAllocations) GetByID(_ context.Context, id int) (*models.Allocation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.allocations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r memAllocations) list(match func(*models.Allocation) bool, limit int) []models.Allocation {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res := []models.Allocation{}
	for _, a := range r.db.allocations {
		if match(a) {
			res = append(res, *a)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

func (r memAllocations) ListByProvider(_ context.Context, providerID, limit int) ([]models.Allocation, error) {
	return r.list(func(a *models.Allocation) bool { return a.ProviderID == providerID }, limit), nil
}

func (r memAllocations) ListByNGO(_ context.Context, ngoID int, status models.AllocationStatus) ([]models.Allocation, error) {
	return r.list(func(a *models.Allocation) bool {
		return a.NGOID == ngoID && (status == "" || a.Status == status)
	}, 0), nil
}

func (r memAllocations) ListRecent(_ context.Context, limit int) ([]models.Allocation, error) {
	return r.list(func(*models.Allocation) bool { return true }, limit), nil
}

func hasStatus(s models.AllocationStatus, statuses []models.AllocationStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, x := range statuses {
		if x == s {
			return true
		}
	}
	return false
}

func (r memAllocations) CountForProvider(_ context.Context, providerID int, statuses ...models.AllocationStatus) (int, error) {
	return len(r.list(func(a *models.Allocation) bool {
		return a.ProviderID == providerID && hasStatus(a.Status, statuses)
	}, 0)), nil
}

func (r memAllocations) CountForNGO(_ context.Context, ngoID int, statuses ...models.AllocationStatus) (int, error) {
	return len(r.list(func(a *models.Allocation) bool {
		return a.NGOID == ngoID && hasStatus(a.Status, statuses)
	}, 0)), nil
}

func (r memAllocations) ProviderIDsForNGO(_ context.Context, ngoID int) ([]int, error) {
	seen := map[int]bool{}
	ids := []int{}
	for _, a := range r.list(func(a *models.Allocation) bool { return a.NGOID == ngoID }, 0) {
		if !seen[a.ProviderID] {
			seen[a.ProviderID] = true
			ids = append(ids, a.ProviderID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// memTx runs with memDB.mu already held.
type memTx struct{ db *memDB }

func (t memTx) GetSurplusForUpdate(_ context.Context, id int) (*models.Surplus, error) {
	s, ok := t.db.surplus[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (t memTx) GetAllocationForUpdate(_ context.Context, id int) (*models.Allocation, error) {
	a, ok := t.db.allocations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (t memTx) ActiveCodeExists(_ context.Context, code string) (bool, error) {
	for _, a := range t.db.allocations {
		if a.PickupCode == code && a.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (t memTx) CreateAllocation(_ context.Context, a *models.Allocation) error {
	a.ID = t.db.id()
	a.CreatedAt = time.Now()
	cp := *a
	t.db.allocations[a.ID] = &cp
	return nil
}

func (t memTx) UpdateSurplusStatus(_ context.Context, id int, status models.SurplusStatus) error {
	s, ok := t.db.surplus[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Status = status
	return nil
}

func (t memTx) UpdateAllocationStatus(_ context.Context, id int, status models.AllocationStatus) error {
	a, ok := t.db.allocations[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = status
	return nil
}

// ===== reviews / complaints / events =====

type memReviews struct{ db *memDB }

func (r memReviews) Create(_ context.Context, rv *models.Review) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rv.ID = r.db.id()
	r.db.reviews = append(r.db.reviews, *rv)
	return nil
}

func (r memReviews) filter(match func(models.Review) bool) []models.Review {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res := []models.Review{}
	for _, rv := range r.db.reviews {
		if match(rv) {
			res = append(res, rv)
		}
	}
	return res
}

func avgRating(list []models.Review) float64 {
	if len(list) == 0 {
		return 0
	}
	sum := 0
	for _, rv := range list {
		sum += rv.Rating
	}
	return float64(sum) / float64(len(list))
}

func (r memReviews) ListByProvider(_ context.Context, id int) ([]models.Review, error) {
	return r.filter(func(rv models.Review) bool { return rv.ProviderID == id }), nil
}

func (r memReviews) ListByNGO(_ context.Context, id int) ([]models.Review, error) {
	return r.filter(func(rv models.Review) bool { return rv.NGOID == id }), nil
}

func (r memReviews) AverageForProvider(ctx context.Context, id int) (float64, error) {
	list, _ := r.ListByProvider(ctx, id)
	return avgRating(list), nil
}

func (r memReviews) AverageForNGO(ctx context.Context, id int) (float64, error) {
	list, _ := r.ListByNGO(ctx, id)
	return avgRating(list), nil
}

func (r memReviews) AveragesByProvider(_ context.Context) (map[int]float64, error) {
	by := map[int][]models.Review{}
	for _, rv := range r.filter(func(models.Review) bool { return true }) {
		by[rv.ProviderID] = append(by[rv.ProviderID], rv)
	}
	res := map[int]float64{}
	for id, list := range by {
		res[id] = avgRating(list)
	}
	return res, nil
}

type memComplaints struct{ db *memDB }

func (r memComplaints) Create(_ context.Context, c *models.Complaint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.ID = r.db.id()
	cp := *c
	r.db.complaints[c.ID] = &cp
	return nil
}

func (r memComplaints) list(match func(*models.Complaint) bool, limit int) []models.Complaint {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res := []models.Complaint{}
	for _, c := range r.db.complaints {
		if match(c) {
			res = append(res, *c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

func (r memComplaints) ListByProvider(_ context.Context, id int) ([]models.Complaint, error) {
	return r.list(func(c *models.Complaint) bool { return c.ProviderID != nil && *c.ProviderID == id }, 0), nil
}

func (r memComplaints) ListByNGO(_ context.Context, id, limit int) ([]models.Complaint, error) {
	return r.list(func(c *models.Complaint) bool { return c.NGOID == id }, limit), nil
}

func (r memComplaints) ListRecent(_ context.Context, limit int) ([]models.Complaint, error) {
	return r.list(func(*models.Complaint) bool { return true }, limit), nil
}

func (r memComplaints) UpdateStatus(_ context.Context, id int, status string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.complaints[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Status = status
	return nil
}

type memEvents struct{ db *memDB }

func (r memEvents) Create(_ context.Context, e *models.Event) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e.ID = r.db.id()
	cp := *e
	r.db.events[e.ID] = &cp
	return nil
}

func (r memEvents) ListByProvider(_ context.Context, providerID int) ([]models.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res := []models.Event{}
	for _, e := range r.db.events {
		if e.ProviderID == providerID {
			res = append(res, *e)
		}
	}
	return res, nil
}

func (r memEvents) ListRecent(_ context.Context, limit int) ([]models.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res := []models.Event{}
	for _, e := range r.db.events {
		cp := *e
		for _, s := range r.db.surplus {
			if s.EventID != nil && *s.EventID == e.ID {
				cp.SurplusCount++
			}
		}
		res = append(res, cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// ===== otp contexts =====

type memOTPs struct{ db *memDB }

func (r memOTPs) Create(_ context.Context, c *models.OTPContext) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.CreatedAt = time.Now()
	cp := *c
	r.db.otps[c.Token] = &cp
	return nil
}

func (r memOTPs) GetByToken(_ context.Context, token string) (*models.OTPContext, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.otps[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r memOTPs) IncrementAttempts(_ context.Context, token string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.otps[token]
	if !ok {
		return 0, sql.ErrNoRows
	}
	c.Attempts++
	return c.Attempts, nil
}

func (r memOTPs) ReplaceCode(_ context.Context, token, hash string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.otps[token]
	if !ok {
		return sql.ErrNoRows
	}
	c.CodeHash, c.ExpiresAt, c.Attempts = hash, expiresAt, 0
	return nil
}

func (r memOTPs) Delete(_ context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.otps, token)
	return nil
}

// ===== collaborators =====

type fakeGeocoder struct {
	mu     sync.Mutex
	places map[string]models.GeoPoint
	calls  int
}

func (g *fakeGeocoder) Resolve(_ context.Context, q string) (*models.GeoPoint, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	p, ok := g.places[q]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (g *fakeGeocoder) Suggest(context.Context, string, int) []string { return nil }

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(scope, action, actorRole string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, scope+"/"+action+"@"+actorRole)
}

func (n *recordingNotifier) list() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fakeMailer struct {
	mu    sync.Mutex
	fail  bool
	codes map[string][]string
}

func (m *fakeMailer) SendOTP(email, code string, _ models.OTPPurpose) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false
	}
	if m.codes == nil {
		m.codes = map[string][]string{}
	}
	m.codes[email] = append(m.codes[email], code)
	return true
}

func (m *fakeMailer) last(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.codes[email]
	if len(list) == 0 {
		return ""
	}
	return list[len(list)-1]
}

type fakePhotos struct {
	saved   []string
	removed []string
}

func (p *fakePhotos) Save(r io.Reader, filename string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	path := fmt.Sprintf("uploads/food_images/surplus_%d.jpg", len(p.saved)+1)
	p.saved = append(p.saved, path)
	return path, nil
}

func (p *fakePhotos) Remove(path string) error {
	p.removed = append(p.removed, path)
	return nil
}

type fakeSMS struct {
	mu    sync.Mutex
	codes map[int]string
	err   error
}

func (f *fakeSMS) SendPickupCode(_ context.Context, ngoID int, code string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.codes == nil {
		f.codes = map[int]string{}
	}
	f.codes[ngoID] = code
	return f.err
}

func newTestTokens() *authz.TokenManager {
	return authz.NewTokenManager("test-secret", time.Hour)
}

func ptr[T any](v T) *T { return &v }
