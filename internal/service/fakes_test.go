package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/realtime"
	"github.com/oishine/backoffice/internal/repository"
)

type fakeAdminRepo struct {
	mu        sync.Mutex
	admins    map[string]*domain.Admin
	nextID    int
	lookupErr error
	// afterGet runs once, after the next GetByID returns its snapshot.
	afterGet func()
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: make(map[string]*domain.Admin)}
}

func (r *fakeAdminRepo) Create(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admins {
		if existing.Email == admin.Email {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	admin.ID = fmt.Sprintf("adm-%d", r.nextID)
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = admin.CreatedAt
	cp := *admin
	r.admins[admin.ID] = &cp
	return nil
}

func (r *fakeAdminRepo) UpdateProfile(_ context.Context, id, name, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	for otherID, existing := range r.admins {
		if otherID != id && existing.Email == email {
			return nil, repository.ErrDuplicate
		}
	}
	a.Name, a.Email = name, email
	cp := *a
	return &cp, nil
}

func (r *fakeAdminRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.PasswordHash = hash
	return nil
}

func (r *fakeAdminRepo) SetActive(_ context.Context, id string, active bool) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	a.IsActive = active
	cp := *a
	return &cp, nil
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	r.mu.Lock()
	if r.lookupErr != nil {
		r.mu.Unlock()
		return nil, r.lookupErr
	}
	a, ok := r.admins[id]
	var cp domain.Admin
	if ok {
		cp = *a
	}
	hook := r.afterGet
	r.afterGet = nil
	r.mu.Unlock()

	if !ok {
		return nil, pgx.ErrNoRows
	}
	if hook != nil {
		hook()
	}
	return &cp, nil
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	for _, a := range r.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAdminRepo) List(_ context.Context) ([]domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Admin, 0, len(r.admins))
	for _, a := range r.admins {
		out = append(out, *a)
	}
	return out, nil
}

func (r *fakeAdminRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.LastLogin = &at
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	nextID int
	// afterGet runs once, after the next GetByID returns its snapshot.
	afterGet func()
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = fmt.Sprintf("%d", r.nextID)
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, deliveredAt *time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if o.Status != from {
		return nil, repository.ErrStale
	}
	o.Status = to
	if deliveredAt != nil {
		o.DeliveredAt = deliveredAt
	}
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) AssignDriver(_ context.Context, id, driverID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if o.Status.Terminal() {
		return nil, repository.ErrStale
	}
	o.DriverID = &driverID
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	o, ok := r.orders[id]
	var cp domain.Order
	if ok {
		cp = *o
	}
	hook := r.afterGet
	r.afterGet = nil
	r.mu.Unlock()

	if !ok {
		return nil, pgx.ErrNoRows
	}
	if hook != nil {
		hook()
	}
	return &cp, nil
}

func (r *fakeOrderRepo) List(_ context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func containsStatus(statuses []domain.OrderStatus, s domain.OrderStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

type fakeDriverRepo struct {
	mu      sync.Mutex
	drivers map[string]*domain.Driver
}

func newFakeDriverRepo(drivers ...*domain.Driver) *fakeDriverRepo {
	r := &fakeDriverRepo{drivers: make(map[string]*domain.Driver)}
	for _, d := range drivers {
		r.drivers[d.ID] = d
	}
	return r
}

func (r *fakeDriverRepo) UpdateState(_ context.Context, id string, status *domain.DriverStatus, loc *domain.Location) (*domain.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok || !d.IsActive {
		return nil, pgx.ErrNoRows
	}
	if status != nil {
		d.Status = *status
	}
	if loc != nil {
		cp := *loc
		d.Location = &cp
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDriverRepo) GetByID(_ context.Context, id string) (*domain.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDriverRepo) List(_ context.Context, activeOnly bool) ([]domain.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Driver
	for _, d := range r.drivers {
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

type recordingRevoker struct {
	mu      sync.Mutex
	revoked []string
}

func (r *recordingRevoker) RevokeAdmin(adminID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, adminID)
	return 1
}

type published struct {
	topic string
	event realtime.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(topic string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, event: payload.(realtime.Event)})
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}
