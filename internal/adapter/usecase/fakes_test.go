package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"phishsim/internal/core/domain"
	"phishsim/internal/core/port"
)

var errSMTPRefused = errors.New("smtp: 550 mailbox unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCampaignStore is an in-memory port.CampaignStore for usecase tests.
type fakeCampaignStore struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]domain.Campaign
	targets   map[uuid.UUID]domain.Target
	templates map[uuid.UUID]domain.EmailTemplate
	pages     map[uuid.UUID]domain.LandingPage
	profiles  map[uuid.UUID]domain.SMTPProfile
	admins    map[uuid.UUID][]uuid.UUID

	listDueErr error
	adminsErr  error
}

func newFakeCampaignStore() *fakeCampaignStore {
	return &fakeCampaignStore{
		campaigns: make(map[uuid.UUID]domain.Campaign),
		targets:   make(map[uuid.UUID]domain.Target),
		templates: make(map[uuid.UUID]domain.EmailTemplate),
		pages:     make(map[uuid.UUID]domain.LandingPage),
		profiles:  make(map[uuid.UUID]domain.SMTPProfile),
		admins:    make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *fakeCampaignStore) GetCampaign(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.campaigns[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *fakeCampaignStore) ListDueCampaigns(_ context.Context, now time.Time) ([]domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listDueErr != nil {
		return nil, s.listDueErr
	}
	var due []domain.Campaign
	for _, c := range s.campaigns {
		if c.ScheduledAt == nil || c.ScheduledAt.After(now) {
			continue
		}
		if c.Status == domain.CampaignScheduled || c.Status == domain.CampaignDraft {
			due = append(due, c)
		}
	}
	return due, nil
}

func (s *fakeCampaignStore) ClaimCampaign(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok || (c.Status != domain.CampaignScheduled && c.Status != domain.CampaignDraft) {
		return false, nil
	}
	c.Status = domain.CampaignActive
	s.campaigns[id] = c
	return true, nil
}

func (s *fakeCampaignStore) SetCampaignStatus(_ context.Context, id uuid.UUID, status domain.CampaignStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil
	}
	c.Status = status
	s.campaigns[id] = c
	return nil
}

func (s *fakeCampaignStore) GetTemplate(_ context.Context, id uuid.UUID) (*domain.EmailTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.templates[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (s *fakeCampaignStore) GetLandingPage(_ context.Context, id uuid.UUID) (*domain.LandingPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pages[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *fakeCampaignStore) GetSMTPProfile(_ context.Context, id uuid.UUID) (*domain.SMTPProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *fakeCampaignStore) GetTarget(_ context.Context, id uuid.UUID) (*domain.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.targets[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (s *fakeCampaignStore) ListTargets(_ context.Context, groupID uuid.UUID) ([]domain.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Target
	for _, t := range s.targets {
		if t.GroupID == groupID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeCampaignStore) ListOrgAdmins(_ context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adminsErr != nil {
		return nil, s.adminsErr
	}
	return s.admins[orgID], nil
}

func (s *fakeCampaignStore) campaignStatus(id uuid.UUID) domain.CampaignStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.campaigns[id].Status
}

type resultKey struct {
	campaignID uuid.UUID
	targetID   uuid.UUID
}

// fakeResultStore mirrors the conditional-update semantics of the SQL
// store: monotonic status, sticky timestamps, first computed under lock.
type fakeResultStore struct {
	mu   sync.Mutex
	rows map[resultKey]*domain.CampaignResult

	recordErr error
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{rows: make(map[resultKey]*domain.CampaignResult)}
}

func (s *fakeResultStore) ensure(campaignID, targetID, orgID uuid.UUID, at time.Time) *domain.CampaignResult {
	k := resultKey{campaignID, targetID}
	if r, ok := s.rows[k]; ok {
		return r
	}
	r := &domain.CampaignResult{
		CampaignID:     campaignID,
		TargetID:       targetID,
		OrganizationID: orgID,
		Status:         domain.StatusPending,
		CreatedAt:      at,
	}
	s.rows[k] = r
	return r
}

func (s *fakeResultStore) RecordSent(_ context.Context, campaignID, targetID, orgID uuid.UUID, delivered bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	r := s.ensure(campaignID, targetID, orgID, at)
	if delivered && !r.Sent {
		r.Sent = true
		r.SentAt = &at
	}
	if delivered && r.Status == domain.StatusPending {
		r.Status = domain.StatusSent
	}
	return nil
}

func (s *fakeResultStore) RecordOpen(_ context.Context, campaignID, targetID, orgID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return false, s.recordErr
	}
	r := s.ensure(campaignID, targetID, orgID, at)
	first := !r.Opened
	if first {
		r.Opened = true
		r.OpenedAt = &at
	}
	if r.Status == domain.StatusPending || r.Status == domain.StatusSent {
		r.Status = domain.StatusOpened
	}
	return first, nil
}

func (s *fakeResultStore) RecordClick(_ context.Context, campaignID, targetID, orgID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return false, s.recordErr
	}
	r := s.ensure(campaignID, targetID, orgID, at)
	first := !r.Clicked
	if first {
		r.Clicked = true
		r.ClickedAt = &at
	}
	if r.Status != domain.StatusSubmitted {
		r.Status = domain.StatusClicked
	}
	return first, nil
}

func (s *fakeResultStore) RecordSubmission(_ context.Context, campaignID, targetID, orgID uuid.UUID, payload []byte, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return false, s.recordErr
	}
	r := s.ensure(campaignID, targetID, orgID, at)
	first := !r.Submitted
	r.Submitted = true
	if r.SubmittedAt == nil {
		r.SubmittedAt = &at
	}
	if r.SubmittedData == nil {
		r.SubmittedData = payload
	}
	r.Status = domain.StatusSubmitted
	return first, nil
}

func (s *fakeResultStore) GetResult(_ context.Context, campaignID, targetID uuid.UUID) (*domain.CampaignResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[resultKey{campaignID, targetID}]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

// fakeNotifier records every delivered notification.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, notification domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *fakeNotifier) countByType(typ domain.NotificationType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, sent := range n.sent {
		if sent.Type == typ {
			count++
		}
	}
	return count
}

func (n *fakeNotifier) lastOfType(typ domain.NotificationType) (domain.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Type == typ {
			return n.sent[i], true
		}
	}
	return domain.Notification{}, false
}

// fakeMailer records outgoing messages and fails for configured recipients.
type fakeMailer struct {
	mu        sync.Mutex
	sent      []port.OutgoingEmail
	failTo    map[string]bool
	verifyErr error
}

func (m *fakeMailer) Verify(context.Context) error { return m.verifyErr }

func (m *fakeMailer) Send(_ context.Context, msg port.OutgoingEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[msg.To] {
		return errSMTPRefused
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) factory() port.MailerFactory {
	return func(domain.SMTPProfile) port.Mailer { return m }
}
