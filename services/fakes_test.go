package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"tahuri-backend/cache"
	"tahuri-backend/database"
	"tahuri-backend/models"
)

// memStore is an in-memory stand-in for the Postgres repositories. It
// applies the same business rules the repositories apply in their transactions.
type memStore struct {
	mu       sync.Mutex
	events   map[uuid.UUID]models.Event
	regs     map[uuid.UUID]models.Registration
	checkins map[uuid.UUID]models.CheckIn // by registration id

	// createErrs are returned by Create calls, in order, before any real insert.
	createErrs []error
}

func newMemStore() *memStore {
	return &memStore{
		events:   make(map[uuid.UUID]models.Event),
		regs:     make(map[uuid.UUID]models.Registration),
		checkins: make(map[uuid.UUID]models.CheckIn),
	}
}

func (m *memStore) addEvent(e models.Event) models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.events[e.ID] = e
	return e
}

func (m *memStore) activeCount(eventID uuid.UUID) int {
	n := 0
	for _, r := range m.regs {
		if r.EventID == eventID && r.IsActive() {
			n++
		}
	}
	return n
}

func (m *memStore) detail(e models.Event) models.EventDetail {
	checkins := 0
	for regID := range m.checkins {
		if m.regs[regID].EventID == e.ID {
			checkins++
		}
	}
	return models.NewEventDetail(e, m.activeCount(e.ID), checkins)
}

// EventStore

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (models.EventDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return models.EventDetail{}, database.ErrEventNotFound
	}
	return m.detail(e), nil
}

func (m *memStore) GetByCode(_ context.Context, code string) (models.EventDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.Code == code {
			return m.detail(e), nil
		}
	}
	return models.EventDetail{}, database.ErrEventNotFound
}

type memEvents struct{ *memStore }

func (m memEvents) Create(_ context.Context, e models.Event) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.events {
		if existing.Code == e.Code {
			return models.Event{}, database.ErrCodeExists
		}
	}
	m.events[e.ID] = e
	return e, nil
}

func (m memEvents) Update(_ context.Context, e models.Event) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.events[e.ID]
	if !ok {
		return models.Event{}, database.ErrEventNotFound
	}
	e.CreatedAt = current.CreatedAt
	m.events[e.ID] = e
	return e, nil
}

func (m memEvents) List(_ context.Context, status, _ string, page models.Page) ([]models.EventDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.EventDetail{}
	for _, e := range m.events {
		if status == "" || e.Status == status {
			out = append(out, m.detail(e))
		}
	}
	return out, len(out), nil
}

func (m memEvents) ListActive(ctx context.Context) ([]models.EventDetail, error) {
	out, _, err := m.List(ctx, models.EventStatusActive, "", models.Page{})
	return out, err
}

func (m memEvents) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return database.ErrEventNotFound
	}
	n := 0
	for _, r := range m.regs {
		if r.EventID == id {
			n++
		}
	}
	if err := models.CanDeleteEvent(n); err != nil {
		return err
	}
	delete(m.events, id)
	return nil
}

// RegistrationStore

type memRegistrations struct{ *memStore }

func (m memRegistrations) Create(_ context.Context, reg models.Registration) (models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		return models.Registration{}, err
	}
	e, ok := m.events[reg.EventID]
	if !ok {
		return models.Registration{}, database.ErrEventNotFound
	}
	if err := models.CanRegister(e, m.activeCount(e.ID)); err != nil {
		return models.Registration{}, err
	}
	for _, r := range m.regs {
		if r.EventID == reg.EventID && r.NIK == reg.NIK {
			return models.Registration{}, database.ErrNIKExists
		}
		if r.TicketNumber == reg.TicketNumber {
			return models.Registration{}, database.ErrTicketExists
		}
	}
	m.regs[reg.ID] = reg
	return reg, nil
}

func (m memRegistrations) registrationDetail(r models.Registration) models.RegistrationDetail {
	e := m.events[r.EventID]
	d := models.RegistrationDetail{
		Registration:  r,
		EventCode:     e.Code,
		EventTitle:    e.Title,
		EventLocation: e.Location,
		EventStartsAt: e.StartsAt,
	}
	if ci, ok := m.checkins[r.ID]; ok {
		d.CheckIn = &ci
	}
	return d
}

func (m memRegistrations) GetByID(_ context.Context, id uuid.UUID) (models.RegistrationDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[id]
	if !ok {
		return models.RegistrationDetail{}, database.ErrRegistrationNotFound
	}
	return m.registrationDetail(r), nil
}

func (m memRegistrations) GetByTicket(_ context.Context, ticket string) (models.RegistrationDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regs {
		if r.TicketNumber == ticket {
			return m.registrationDetail(r), nil
		}
	}
	return models.RegistrationDetail{}, database.ErrRegistrationNotFound
}

func (m memRegistrations) List(_ context.Context, f models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.RegistrationDetail{}
	for _, r := range m.regs {
		if f.EventID != nil && r.EventID != *f.EventID {
			continue
		}
		if f.Status != "" && r.Status != string(f.Status) {
			continue
		}
		_, checked := m.checkins[r.ID]
		if f.CheckIn == models.CheckInStateCheckedIn && !checked ||
			f.CheckIn == models.CheckInStateNotCheckedIn && checked {
			continue
		}
		out = append(out, m.registrationDetail(r))
	}
	return out, len(out), nil
}

func (m memRegistrations) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationDetail, error) {
	out, _, err := m.List(ctx, models.RegistrationFilter{EventID: &eventID})
	return out, err
}

func (m memRegistrations) Update(_ context.Context, reg models.Registration) (models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.regs[reg.ID]
	if !ok {
		return models.Registration{}, database.ErrRegistrationNotFound
	}
	if !current.IsActive() && reg.IsActive() {
		if err := models.CanRegister(m.events[current.EventID], m.activeCount(current.EventID)); err != nil {
			return models.Registration{}, err
		}
	}
	current.Name = reg.Name
	current.Phone = reg.Phone
	current.Email = reg.Email
	current.Institution = reg.Institution
	current.Status = reg.Status
	current.UpdatedAt = reg.UpdatedAt
	m.regs[reg.ID] = current
	return current, nil
}

func (m memRegistrations) Delete(_ context.Context, id uuid.UUID) (models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[id]
	if !ok {
		return models.Registration{}, database.ErrRegistrationNotFound
	}
	var existing *models.CheckIn
	if ci, ok := m.checkins[id]; ok {
		existing = &ci
	}
	if err := models.CanDeleteRegistration(existing); err != nil {
		return models.Registration{}, err
	}
	delete(m.regs, id)
	return r, nil
}

// CheckInStore

type memCheckIns struct {
	*memStore
	searches []models.CheckInSearch
}

func (m *memCheckIns) CheckIn(_ context.Context, regID, adminID uuid.UUID, at time.Time) (models.CheckInResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[regID]
	if !ok {
		return models.CheckInResult{}, database.ErrRegistrationNotFound
	}
	var existing *models.CheckIn
	if ci, ok := m.checkins[regID]; ok {
		existing = &ci
	}
	if err := models.CanCheckIn(r, existing); err != nil {
		return models.CheckInResult{}, err
	}
	ci := models.CheckIn{ID: uuid.New(), RegistrationID: regID, CheckedInAt: at, CheckedInBy: adminID}
	m.checkins[regID] = ci
	return models.CheckInResult{CheckIn: ci, Registration: r}, nil
}

func (m *memCheckIns) Undo(_ context.Context, regID uuid.UUID) (models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[regID]
	if !ok {
		return models.Registration{}, database.ErrRegistrationNotFound
	}
	var existing *models.CheckIn
	if ci, ok := m.checkins[regID]; ok {
		existing = &ci
	}
	if err := models.CanUndoCheckIn(existing); err != nil {
		return models.Registration{}, err
	}
	delete(m.checkins, regID)
	return r, nil
}

func (m *memCheckIns) Search(_ context.Context, s models.CheckInSearch) ([]models.CheckInSearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, s)
	return []models.CheckInSearchResult{}, nil
}

func (m *memCheckIns) ListByEvent(_ context.Context, eventID uuid.UUID) ([]models.EventCheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.EventCheckIn{}
	for regID, ci := range m.checkins {
		r := m.regs[regID]
		if r.EventID == eventID {
			out = append(out, models.EventCheckIn{CheckIn: ci, TicketNumber: r.TicketNumber, Name: r.Name, NIK: r.NIK})
		}
	}
	return out, nil
}

// recordingPublisher keeps every published message.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []models.DomainMessage
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg models.DomainMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Type
	}
	return out
}

// memCache is a SummaryCache in a variable.
type memCache struct {
	summary       *models.DashboardSummary
	invalidations int
	saveErr       error
}

func (c *memCache) Summary(context.Context) (models.DashboardSummary, error) {
	if c.summary == nil {
		return models.DashboardSummary{}, cache.ErrMiss
	}
	return *c.summary, nil
}

func (c *memCache) SaveSummary(_ context.Context, s models.DashboardSummary) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	c.summary = &s
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.invalidations++
	c.summary = nil
	return nil
}

var errBoom = errors.New("boom")
