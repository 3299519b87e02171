package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/model"
	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/repo"
)

type regEnv struct {
	svc      *RegistrationService
	users    *fakeUsers
	events   *fakeEvents
	regs     *fakeRegistrations
	notifs   *fakeNotifications
	payments *fakePayments
	mail     *recordMailer
	push     *recordPush
	queue    *recordQueue
}

func newRegEnv(t *testing.T) *regEnv {
	t.Helper()
	users := newFakeUsers()
	events := newFakeEvents()
	regs := newFakeRegistrations(events)
	notifs := newFakeNotifications()
	payments := newFakePayments()
	mail := &recordMailer{}
	pushRec := &recordPush{}
	queue := &recordQueue{}

	log := zerolog.Nop()
	store := &repo.Store{
		Users:         users,
		Events:        events,
		Registrations: regs,
		Notifications: notifs,
		Comments:      newFakeComments(),
	}
	svc := NewRegistrationService(store, payments, mail, pushRec, queue, 15*time.Minute, &log)

	return &regEnv{
		svc: svc, users: users, events: events, regs: regs,
		notifs: notifs, payments: payments, mail: mail, push: pushRec, queue: queue,
	}
}

func (e *regEnv) addUser(t *testing.T, email string) int64 {
	t.Helper()
	u := &model.User{Email: email, Name: "Test User", AuthProvider: model.AuthProviderLocal}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func (e *regEnv) addEvent(t *testing.T, capacity int, premium bool, price string, status model.EventStatus) int64 {
	t.Helper()
	ev := &model.Event{
		Title:     "Concert",
		Capacity:  capacity,
		IsPremium: premium,
		Price:     price,
		Status:    status,
		StartTime: time.Now().Add(24 * time.Hour),
		EndTime:   time.Now().Add(26 * time.Hour),
	}
	if err := e.events.Create(context.Background(), ev); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return ev.ID
}

func TestRegister_FreeEventConfirmsImmediately(t *testing.T) {
	env := newRegEnv(t)
	userID := env.addUser(t, "free@example.com")
	eventID := env.addEvent(t, 10, false, "0", model.EventStatusPublished)

	resp, err := env.svc.Register(context.Background(), userID, eventID)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if resp.Registration.Status != model.RegistrationStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", resp.Registration.Status)
	}
	if !resp.Registration.IsPaid {
		t.Fatalf("expected is_paid=true on free path")
	}
	if resp.Registration.PaymentIntentID != "" {
		t.Fatalf("expected no payment intent, got %q", resp.Registration.PaymentIntentID)
	}
	if resp.ClientSecret != "" {
		t.Fatalf("expected no client secret, got %q", resp.ClientSecret)
	}
	if resp.Registration.TicketCode == "" {
		t.Fatalf("expected ticket code")
	}
	if env.payments.calls() != 0 {
		t.Fatalf("expected zero payment calls, got %d", env.payments.calls())
	}
	if len(env.queue.published) != 0 {
		t.Fatalf("expected no expiry message on free path")
	}
	if len(env.mail.sent) != 1 || env.mail.sent[0].kind != "registration" {
		t.Fatalf("expected one registration email, got %v", env.mail.sent)
	}
	if len(env.push.pushed) != 1 || env.push.pushed[0].event != "registration-confirmed" {
		t.Fatalf("expected registration-confirmed push, got %v", env.push.pushed)
	}
}

func TestRegister_PremiumEventGoesPending(t *testing.T) {
	env := newRegEnv(t)
	userID := env.addUser(t, "premium@example.com")
	eventID := env.addEvent(t, 10, true, "50.00", model.EventStatusPublished)

	resp, err := env.svc.Register(context.Background(), userID, eventID)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if resp.Registration.Status != model.RegistrationStatusPending {
		t.Fatalf("expected pending, got %s", resp.Registration.Status)
	}
	if resp.Registration.IsPaid {
		t.Fatalf("expected is_paid=false on premium path")
	}
	if resp.Registration.PaymentIntentID == "" {
		t.Fatalf("expected stored payment intent id")
	}
	if resp.ClientSecret == "" {
		t.Fatalf("expected client secret for pending payment")
	}
	if env.payments.calls() != 1 {
		t.Fatalf("expected exactly one intent creation, got %d", env.payments.calls())
	}
	if len(env.queue.published) != 1 {
		t.Fatalf("expected one delayed expiry message, got %d", len(env.queue.published))
	}
	if env.queue.published[0].delaySeconds != int((15 * time.Minute).Seconds()) {
		t.Fatalf("expected %d second delay, got %d", int((15*time.Minute).Seconds()), env.queue.published[0].delaySeconds)
	}
	// Side effects wait for payment confirmation.
	if len(env.mail.sent) != 0 {
		t.Fatalf("expected no email before payment, got %v", env.mail.sent)
	}
}

func TestRegister_NonPublishedEventRejected(t *testing.T) {
	env := newRegEnv(t)
	userID := env.addUser(t, "draft@example.com")
	eventID := env.addEvent(t, 10, false, "0", model.EventStatusDraft)

	if _, err := env.svc.Register(context.Background(), userID, eventID); err != repo.ErrEventNotPublished {
		t.Fatalf("expected ErrEventNotPublished, got %v", err)
	}
}

func TestRegister_DuplicateRejected(t *testing.T) {
	env := newRegEnv(t)
	userID := env.addUser(t, "dup@example.com")
	eventID := env.addEvent(t, 10, false, "0", model.EventStatusPublished)

	if _, err := env.svc.Register(context.Background(), userID, eventID); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := env.svc.Register(context.Background(), userID, eventID); err != repo.ErrDuplicateRegistration {
		t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
	}
}

func TestRegister_CapacityExceeded(t *testing.T) {
	env := newRegEnv(t)
	eventID := env.addEvent(t, 2, false, "0", model.EventStatusPublished)

	for i := 0; i < 2; i++ {
		uid := env.addUser(t, string(rune('a'+i))+"@example.com")
		if _, err := env.svc.Register(context.Background(), uid, eventID); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}

	late := env.addUser(t, "late@example.com")
	if _, err := env.svc.Register(context.Background(), late, eventID); err != repo.ErrEventFull {
		t.Fatalf("expected ErrEventFull, got %v", err)
	}
}

func TestRegister_CapacityOneRace(t *testing.T) {
	env := newRegEnv(t)
	eventID := env.addEvent(t, 1, false, "0", model.EventStatusPublished)
	u1 := env.addUser(t, "racer1@example.com")
	u2 := env.addUser(t, "racer2@example.com")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []int64{u1, u2} {
		wg.Add(1)
		go func(i int, uid int64) {
			defer wg.Done()
			_, errs[i] = env.svc.Register(context.Background(), uid, eventID)
		}(i, uid)
	}
	wg.Wait()

	ok, full := 0, 0
	for _, err := range errs {
		switch err {
		case nil:
			ok++
		case repo.ErrEventFull:
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || full != 1 {
		t.Fatalf("expected exactly one success and one ErrEventFull, got ok=%d full=%d", ok, full)
	}
}

func TestConfirmPayment_Succeeds(t *testing.T) {
	env := newRegEnv(t)
	userID := env.addUser(t, "payer@example.com")
	eventID := env.addEvent(t, 10, true, "25.50", model.EventStatusPublished)

	resp, err := env.svc.Register(context.Background(), userID, eventID)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	intentID := resp.Registration.PaymentIntentID
	env.payments.markSucceeded(intentID)

	reg, err := env.svc.ConfirmPayment(context.Background(), userID, resp.Registration.ID, intentID)
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if reg.Status != model.RegistrationStatusConfirmed || !reg.IsPaid {
		t.Fatalf("expected confirmed+paid, got status=%s paid=%v", reg.Status, reg.IsPaid)
	}
	if len(env.mail.sent) != 1 || env.mail.sent[0].kind != "payment" {
		t.Fatalf("expected payment email, got %v", env.mail.sent)
	}
	if len(env.push.pushed) != 1 || env.push.pushed[0].event != "payment-confirmed" {
		t.Fatalf("expected payment-confirmed push, got %v", env.push.pushed)
	}
}

func TestConfirmPayment_UnverifiedIntentRejected(t *testing.T) {
	env := newRegEnv(t)
	userID := env.addUser(t, "unverified@example.com")
	eventID := env.addEvent(t, 10, true, "25.50", model.EventStatusPublished)

	resp, err := env.svc.Register(context.Background(), userID, eventID)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Intent never marked as succeeded with the provider.
	_, err = env.svc.ConfirmPayment(context.Background(), userID, resp.Registration.ID, resp.Registration.PaymentIntentID)
	if err != ErrPaymentNotSucceeded {
		t.Fatalf("expected ErrPaymentNotSucceeded, got %v", err)
	}

	reg, err := env.regs.GetByID(context.Background(), resp.Registration.ID)
	if err != nil {
		t.Fatalf("reload registration: %v", err)
	}
	if reg.Status != model.RegistrationStatusPending || reg.IsPaid {
		t.Fatalf("expected state untouched, got status=%s paid=%v", reg.Status, reg.IsPaid)
	}
}

func TestConfirmPayment_CancelledRejected(t *testing.T) {
	env := newRegEnv(t)
	userID := env.addUser(t, "cancelled@example.com")
	eventID := env.addEvent(t, 10, true, "25.50", model.EventStatusPublished)

	resp, err := env.svc.Register(context.Background(), userID, eventID)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := env.svc.Cancel(context.Background(), userID, resp.Registration.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	env.payments.markSucceeded(resp.Registration.PaymentIntentID)
	_, err = env.svc.ConfirmPayment(context.Background(), userID, resp.Registration.ID, resp.Registration.PaymentIntentID)
	if err != ErrRegistrationCancelled {
		t.Fatalf("expected ErrRegistrationCancelled, got %v", err)
	}
}

func TestConfirmPayment_RepeatRejected(t *testing.T) {
	env := newRegEnv(t)
	userID := env.addUser(t, "repeat@example.com")
	eventID := env.addEvent(t, 10, true, "25.50", model.EventStatusPublished)

	resp, err := env.svc.Register(context.Background(), userID, eventID)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	env.payments.markSucceeded(resp.Registration.PaymentIntentID)

	if _, err := env.svc.ConfirmPayment(context.Background(), userID, resp.Registration.ID, resp.Registration.PaymentIntentID); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err = env.svc.ConfirmPayment(context.Background(), userID, resp.Registration.ID, resp.Registration.PaymentIntentID)
	if err != ErrAlreadyConfirmed {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}
}

func TestConfirmPayment_ForeignRegistrationHidden(t *testing.T) {
	env := newRegEnv(t)
	owner := env.addUser(t, "owner@example.com")
	other := env.addUser(t, "other@example.com")
	eventID := env.addEvent(t, 10, true, "25.50", model.EventStatusPublished)

	resp, err := env.svc.Register(context.Background(), owner, eventID)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	env.payments.markSucceeded(resp.Registration.PaymentIntentID)

	_, err = env.svc.ConfirmPayment(context.Background(), other, resp.Registration.ID, resp.Registration.PaymentIntentID)
	if err != repo.ErrRegistrationNotFound {
		t.Fatalf("expected ErrRegistrationNotFound for foreign registration, got %v", err)
	}
}

func TestCancel_IsIdempotent(t *testing.T) {
	env := newRegEnv(t)
	userID := env.addUser(t, "idem@example.com")
	eventID := env.addEvent(t, 10, false, "0", model.EventStatusPublished)

	resp, err := env.svc.Register(context.Background(), userID, eventID)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	first, err := env.svc.Cancel(context.Background(), userID, resp.Registration.ID)
	if err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if first.Status != model.RegistrationStatusCancelled {
		t.Fatalf("expected cancelled, got %s", first.Status)
	}

	second, err := env.svc.Cancel(context.Background(), userID, resp.Registration.ID)
	if err != nil {
		t.Fatalf("second cancel should be a no-op, got %v", err)
	}
	if second.Status != model.RegistrationStatusCancelled {
		t.Fatalf("expected cancelled after repeat, got %s", second.Status)
	}
}

func TestEventAttendees_OrganizerOnly(t *testing.T) {
	env := newRegEnv(t)
	organizer := env.addUser(t, "organizer@example.com")
	attendee := env.addUser(t, "attendee@example.com")

	ev := &model.Event{
		Title:       "Meetup",
		Capacity:    10,
		Status:      model.EventStatusPublished,
		OrganizerID: organizer,
		StartTime:   time.Now().Add(time.Hour),
		EndTime:     time.Now().Add(2 * time.Hour),
	}
	if err := env.events.Create(context.Background(), ev); err != nil {
		t.Fatalf("create event: %v", err)
	}
	if _, err := env.svc.Register(context.Background(), attendee, ev.ID); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := env.svc.EventAttendees(context.Background(), attendee, ev.ID); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for non-organizer, got %v", err)
	}

	list, err := env.svc.EventAttendees(context.Background(), organizer, ev.ID)
	if err != nil {
		t.Fatalf("attendees: %v", err)
	}
	if len(list) != 1 || list[0].UserID != attendee {
		t.Fatalf("expected one attendee %d, got %v", attendee, list)
	}
}
