package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/model"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/payment"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/repo"
)

// In-memory fakes for the store and the external collaborators. The
// registration fake mirrors the transactional semantics of the real store:
// the duplicate and capacity checks happen under one lock together with the
// insert.

type fakeUsers struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[int64]*model.User)}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events map[int64]*model.Event
	nextID int64
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(map[int64]*model.Event)}
}

func (f *fakeEvents) Create(_ context.Context, e *model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e.ID = f.nextID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id int64) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, repo.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEvents) GetDetail(_ context.Context, id int64) (*model.EventWithOrganizer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, repo.ErrEventNotFound
	}
	return &model.EventWithOrganizer{Event: *e}, nil
}

func (f *fakeEvents) List(_ context.Context, filter repo.EventFilter) ([]model.EventWithOrganizer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.EventWithOrganizer
	for _, e := range f.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, model.EventWithOrganizer{Event: *e})
	}
	return out, nil
}

func (f *fakeEvents) ListByOrganizer(_ context.Context, organizerID int64) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Event
	for _, e := range f.events {
		if e.OrganizerID == organizerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEvents) Update(_ context.Context, e *model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[e.ID]; !ok {
		return repo.ErrEventNotFound
	}
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEvents) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return repo.ErrEventNotFound
	}
	delete(f.events, id)
	return nil
}

type fakeRegistrations struct {
	mu     sync.Mutex
	regs   map[int64]*model.Registration
	events *fakeEvents
	nextID int64
}

func newFakeRegistrations(events *fakeEvents) *fakeRegistrations {
	return &fakeRegistrations{regs: make(map[int64]*model.Registration), events: events}
}

func (f *fakeRegistrations) RegisterTx(_ context.Context, reg *model.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events.mu.Lock()
	event, ok := f.events.events[reg.EventID]
	f.events.mu.Unlock()
	if !ok {
		return repo.ErrEventNotFound
	}
	if event.Status != model.EventStatusPublished {
		return repo.ErrEventNotPublished
	}

	active := 0
	for _, r := range f.regs {
		if r.EventID != reg.EventID {
			continue
		}
		if r.UserID == reg.UserID {
			return repo.ErrDuplicateRegistration
		}
		if r.Status != model.RegistrationStatusCancelled {
			active++
		}
	}
	if active >= event.Capacity {
		return repo.ErrEventFull
	}

	f.nextID++
	reg.ID = f.nextID
	reg.CreatedAt = time.Now()
	reg.UpdatedAt = reg.CreatedAt
	cp := *reg
	f.regs[reg.ID] = &cp
	return nil
}

func (f *fakeRegistrations) GetByID(_ context.Context, id int64) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRegistrations) GetByIDAndUser(_ context.Context, id, userID int64) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok || r.UserID != userID {
		return nil, repo.ErrRegistrationNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRegistrations) Confirm(_ context.Context, id int64, paymentIntentID string) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	r.Status = model.RegistrationStatusConfirmed
	r.IsPaid = true
	if paymentIntentID != "" {
		r.PaymentIntentID = paymentIntentID
	}
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (f *fakeRegistrations) Cancel(_ context.Context, id int64) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	r.Status = model.RegistrationStatusCancelled
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (f *fakeRegistrations) CancelIfPendingUnpaidTx(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok {
		return false, repo.ErrRegistrationNotFound
	}
	if r.Status != model.RegistrationStatusPending || r.IsPaid {
		return false, nil
	}
	r.Status = model.RegistrationStatusCancelled
	r.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeRegistrations) HasConfirmed(_ context.Context, userID, eventID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if r.UserID == userID && r.EventID == eventID && r.Status == model.RegistrationStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRegistrations) ListByUser(_ context.Context, userID int64) ([]model.RegistrationWithEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.RegistrationWithEvent
	for _, r := range f.regs {
		if r.UserID == userID {
			out = append(out, model.RegistrationWithEvent{Registration: *r})
		}
	}
	return out, nil
}

func (f *fakeRegistrations) ListByEvent(_ context.Context, eventID int64) ([]model.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Attendee
	for _, r := range f.regs {
		if r.EventID == eventID {
			out = append(out, model.Attendee{Registration: *r})
		}
	}
	return out, nil
}

type fakeComments struct {
	mu       sync.Mutex
	comments map[int64]*model.Comment
	nextID   int64
}

func newFakeComments() *fakeComments {
	return &fakeComments{comments: make(map[int64]*model.Comment)}
}

func (f *fakeComments) Create(_ context.Context, cm *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cm.ID = f.nextID
	cm.CreatedAt = time.Now()
	cm.UpdatedAt = cm.CreatedAt
	cp := *cm
	f.comments[cm.ID] = &cp
	return nil
}

func (f *fakeComments) GetByID(_ context.Context, id int64) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cm, ok := f.comments[id]
	if !ok {
		return nil, repo.ErrCommentNotFound
	}
	cp := *cm
	return &cp, nil
}

func (f *fakeComments) ExistsByUserAndEvent(_ context.Context, userID, eventID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cm := range f.comments {
		if cm.UserID == userID && cm.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeComments) ListByEvent(_ context.Context, eventID int64) ([]model.CommentWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CommentWithUser
	for _, cm := range f.comments {
		if cm.EventID == eventID {
			out = append(out, model.CommentWithUser{Comment: *cm})
		}
	}
	return out, nil
}

func (f *fakeComments) Update(_ context.Context, id int64, content string, rating int) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cm, ok := f.comments[id]
	if !ok {
		return nil, repo.ErrCommentNotFound
	}
	cm.Content = content
	cm.Rating = rating
	cm.UpdatedAt = time.Now()
	cp := *cm
	return &cp, nil
}

func (f *fakeComments) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return repo.ErrCommentNotFound
	}
	delete(f.comments, id)
	return nil
}

type fakeNotifications struct {
	mu     sync.Mutex
	items  map[int64]*model.Notification
	nextID int64
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{items: make(map[int64]*model.Notification)}
}

func (f *fakeNotifications) Create(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n.ID = f.nextID
	n.CreatedAt = time.Now()
	cp := *n
	f.items[n.ID] = &cp
	return nil
}

func (f *fakeNotifications) GetByID(_ context.Context, id int64) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.items[id]
	if !ok {
		return nil, repo.ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID int64, limit int) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.items {
		if n.UserID == userID {
			out = append(out, *n)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotifications) CountUnread(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.items[id]
	if !ok {
		return repo.ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifications) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repo.ErrNotificationNotFound
	}
	delete(f.items, id)
	return nil
}

// fakePayments counts intent creations and lets tests mark intents as
// succeeded.
type fakePayments struct {
	mu          sync.Mutex
	createCalls int
	succeeded   map[string]bool
}

func newFakePayments() *fakePayments {
	return &fakePayments{succeeded: make(map[string]bool)}
}

func (f *fakePayments) CreateIntent(_ context.Context, amountCents, eventID, userID int64) (*payment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	id := fmt.Sprintf("pi_test_%d", f.createCalls)
	return &payment.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (f *fakePayments) IntentSucceeded(_ context.Context, intentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.succeeded[intentID], nil
}

func (f *fakePayments) Refund(_ context.Context, intentID string) error {
	return nil
}

func (f *fakePayments) markSucceeded(intentID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.succeeded[intentID] = true
}

func (f *fakePayments) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

type sentMail struct {
	recipient string
	kind      string
}

type recordMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordMailer) SendRegistrationConfirmation(recipient, _ string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient: recipient, kind: "registration"})
	return nil
}

func (m *recordMailer) SendPaymentConfirmation(recipient, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient: recipient, kind: "payment"})
	return nil
}

func (m *recordMailer) SendRegistrationExpired(recipient, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient: recipient, kind: "expired"})
	return nil
}

type pushedEvent struct {
	userID int64
	event  string
}

type recordPush struct {
	mu     sync.Mutex
	pushed []pushedEvent
}

func (p *recordPush) EmitToUser(userID int64, event string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, pushedEvent{userID: userID, event: event})
}

func (p *recordPush) EmitToAll(event string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, pushedEvent{event: event})
}

type queuedMessage struct {
	body         []byte
	delaySeconds int
}

type recordQueue struct {
	mu        sync.Mutex
	published []queuedMessage
}

func (q *recordQueue) Publish(message []byte, delaySeconds int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, queuedMessage{body: message, delaySeconds: delaySeconds})
	return nil
}
