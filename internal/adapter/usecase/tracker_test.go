package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"phishsim/internal/core/domain"
	"phishsim/internal/core/port"
	"phishsim/internal/core/rewrite"
)

// fixture wires a campaign with one target group into in-memory stores.
type fixture struct {
	store    *fakeCampaignStore
	results  *fakeResultStore
	notifier *fakeNotifier
	rewriter *rewrite.Rewriter

	org     uuid.UUID
	admin   uuid.UUID
	camp    domain.Campaign
	targets []domain.Target
	page    domain.LandingPage
	tmpl    domain.EmailTemplate
	profile domain.SMTPProfile
}

func newFixture(t *testing.T, targetCount int) *fixture {
	t.Helper()

	f := &fixture{
		store:    newFakeCampaignStore(),
		results:  newFakeResultStore(),
		notifier: &fakeNotifier{},
		rewriter: rewrite.New("https://phish.example.com"),
		org:      uuid.New(),
		admin:    uuid.New(),
	}
	f.store.admins[f.org] = []uuid.UUID{f.admin}

	groupID := uuid.New()
	for i := 0; i < targetCount; i++ {
		target := domain.Target{
			ID:             uuid.New(),
			OrganizationID: f.org,
			GroupID:        groupID,
			Email:          uuid.NewString()[:8] + "@corp.example",
			FirstName:      "Alex",
			LastName:       "Smith",
		}
		f.targets = append(f.targets, target)
		f.store.targets[target.ID] = target
	}

	f.tmpl = domain.EmailTemplate{
		ID:             uuid.New(),
		OrganizationID: f.org,
		Name:           "quarterly-review",
		Subject:        "Action required, {{FirstName}}",
		HTML:           `<html><body><p>Hi {{FirstName}},</p><a href="{{TrackingURL}}">Review now</a></body></html>`,
	}
	f.store.templates[f.tmpl.ID] = f.tmpl

	f.page = domain.LandingPage{
		ID:             uuid.New(),
		OrganizationID: f.org,
		Name:           "sso-clone",
		HTML: `<html><body><form action="/login" method="get">` +
			`<input name="email" /><input name="password" type="password" />` +
			`</form></body></html>`,
		CaptureData:      true,
		CapturePasswords: false,
		RedirectURL:      "https://intranet.corp.example/training",
	}
	f.store.pages[f.page.ID] = f.page

	f.profile = domain.SMTPProfile{
		ID:             uuid.New(),
		OrganizationID: f.org,
		Host:           "mail.corp.example",
		Port:           587,
		Username:       "relay",
		Password:       "relay-secret",
		FromName:       "IT Support",
		FromAddress:    "it-support@corp.example",
	}
	f.store.profiles[f.profile.ID] = f.profile

	f.camp = domain.Campaign{
		ID:             uuid.New(),
		OrganizationID: f.org,
		Name:           "Q3 awareness",
		GroupID:        groupID,
		SMTPProfileID:  f.profile.ID,
		TemplateID:     f.tmpl.ID,
		LandingPageID:  f.page.ID,
		Status:         domain.CampaignActive,
	}
	f.store.campaigns[f.camp.ID] = f.camp
	return f
}

func (f *fixture) tracker() *Tracker {
	return NewTracker(f.store, f.results, f.notifier, f.rewriter, discardLogger())
}

func (f *fixture) result(t *testing.T, targetID uuid.UUID) *domain.CampaignResult {
	t.Helper()
	r, err := f.results.GetResult(context.Background(), f.camp.ID, targetID)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r
}

func encodeDest(dest string) string {
	return base64.URLEncoding.EncodeToString([]byte(dest))
}

func TestTrackOpenFirstOccurrence(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()
	targetID := f.targets[0].ID

	require.NoError(t, tr.TrackOpen(context.Background(), f.camp.ID, targetID))

	r := f.result(t, targetID)
	require.True(t, r.Opened)
	require.NotNil(t, r.OpenedAt)
	require.Equal(t, domain.StatusOpened, r.Status)
	require.Equal(t, 1, f.notifier.countByType(domain.NotifyEmailOpened))

	n, ok := f.notifier.lastOfType(domain.NotifyEmailOpened)
	require.True(t, ok)
	require.Equal(t, f.admin, n.UserID)
	require.Equal(t, f.camp.ID.String(), n.Metadata["campaignId"])
}

func TestTrackOpenIsIdempotent(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()
	targetID := f.targets[0].ID

	require.NoError(t, tr.TrackOpen(context.Background(), f.camp.ID, targetID))
	firstAt := f.result(t, targetID).OpenedAt

	require.NoError(t, tr.TrackOpen(context.Background(), f.camp.ID, targetID))
	require.NoError(t, tr.TrackOpen(context.Background(), f.camp.ID, targetID))

	r := f.result(t, targetID)
	require.Equal(t, firstAt, r.OpenedAt)
	require.Equal(t, 1, f.notifier.countByType(domain.NotifyEmailOpened))
}

func TestTrackOpenConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()
	targetID := f.targets[0].ID

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tr.TrackOpen(context.Background(), f.camp.ID, targetID)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, f.notifier.countByType(domain.NotifyEmailOpened))
	require.True(t, f.result(t, targetID).Opened)
}

func TestTrackOpenUnknownPair(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()

	err := tr.TrackOpen(context.Background(), uuid.New(), f.targets[0].ID)
	require.ErrorIs(t, err, port.ErrNotFound)

	err = tr.TrackOpen(context.Background(), f.camp.ID, uuid.New())
	require.ErrorIs(t, err, port.ErrNotFound)
}

func TestTrackOpenCrossOrganizationTarget(t *testing.T) {
	f := newFixture(t, 1)
	stranger := domain.Target{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		GroupID:        uuid.New(),
		Email:          "other@elsewhere.example",
	}
	f.store.targets[stranger.ID] = stranger

	err := f.tracker().TrackOpen(context.Background(), f.camp.ID, stranger.ID)
	require.ErrorIs(t, err, port.ErrNotFound)

	r, err := f.results.GetResult(context.Background(), f.camp.ID, stranger.ID)
	require.NoError(t, err)
	require.Nil(t, r)
}

func TestTrackClickRedirects(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()
	targetID := f.targets[0].ID

	dest, err := tr.TrackClick(context.Background(), f.camp.ID, targetID, encodeDest("https://example.com/x"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com/x", dest)

	r := f.result(t, targetID)
	require.True(t, r.Clicked)
	require.Equal(t, domain.StatusClicked, r.Status)
	require.Equal(t, 1, f.notifier.countByType(domain.NotifyLinkClicked))
}

func TestTrackClickRejectsBadDestinations(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()
	targetID := f.targets[0].ID

	cases := map[string]string{
		"empty":          "",
		"not base64":     "%%%not-base64%%%",
		"bad scheme":     encodeDest("javascript:alert(1)"),
		"file scheme":    encodeDest("file:///etc/passwd"),
		"relative path":  encodeDest("/local/path"),
		"no scheme host": encodeDest("example.com/x"),
	}
	for name, encoded := range cases {
		_, err := tr.TrackClick(context.Background(), f.camp.ID, targetID, encoded)
		require.ErrorIs(t, err, port.ErrInvalidRedirectURL, "case %s", name)
	}

	// rejected clicks must not create engagement state
	r, err := f.results.GetResult(context.Background(), f.camp.ID, targetID)
	require.NoError(t, err)
	require.Nil(t, r)
	require.Empty(t, f.notifier.sent)
}

func TestTrackClickRedirectsDespiteStoreFailure(t *testing.T) {
	f := newFixture(t, 1)
	f.results.recordErr = errSMTPRefused
	tr := f.tracker()

	dest, err := tr.TrackClick(context.Background(), f.camp.ID, f.targets[0].ID, encodeDest("https://example.com/x"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com/x", dest)
	require.Empty(t, f.notifier.sent)
}

func TestEngagementSequence(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()
	targetID := f.targets[0].ID
	ctx := context.Background()

	require.NoError(t, f.results.RecordSent(ctx, f.camp.ID, targetID, f.org, true, time.Now().UTC()))
	require.NoError(t, tr.TrackOpen(ctx, f.camp.ID, targetID))
	_, err := tr.TrackClick(ctx, f.camp.ID, targetID, encodeDest("https://example.com/x"))
	require.NoError(t, err)
	_, err = tr.TrackSubmission(ctx, f.camp.ID, targetID, url.Values{"email": {"a@b.example"}})
	require.NoError(t, err)

	r := f.result(t, targetID)
	require.True(t, r.Sent)
	require.True(t, r.Opened)
	require.True(t, r.Clicked)
	require.True(t, r.Submitted)
	require.Equal(t, domain.StatusSubmitted, r.Status)
}

func TestSubmissionIsTerminal(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()
	targetID := f.targets[0].ID
	ctx := context.Background()

	_, err := tr.TrackSubmission(ctx, f.camp.ID, targetID, url.Values{"email": {"a@b.example"}})
	require.NoError(t, err)

	// later opens and clicks still set their flags but never demote the
	// terminal status
	require.NoError(t, tr.TrackOpen(ctx, f.camp.ID, targetID))
	_, err = tr.TrackClick(ctx, f.camp.ID, targetID, encodeDest("https://example.com/x"))
	require.NoError(t, err)

	r := f.result(t, targetID)
	require.Equal(t, domain.StatusSubmitted, r.Status)
	require.True(t, r.Opened)
	require.True(t, r.Clicked)
}

func TestRepeatSubmissionKeepsFirstPayload(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()
	targetID := f.targets[0].ID
	ctx := context.Background()

	_, err := tr.TrackSubmission(ctx, f.camp.ID, targetID, url.Values{"email": {"first@b.example"}})
	require.NoError(t, err)
	firstAt := f.result(t, targetID).SubmittedAt

	_, err = tr.TrackSubmission(ctx, f.camp.ID, targetID, url.Values{"email": {"second@b.example"}})
	require.NoError(t, err)

	r := f.result(t, targetID)
	require.Equal(t, firstAt, r.SubmittedAt)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(r.SubmittedData, &payload))
	require.Equal(t, "first@b.example", payload["email"])
	require.Equal(t, 1, f.notifier.countByType(domain.NotifyDataSubmitted))
}

func TestTrackSubmissionFiltersPasswordFields(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()
	targetID := f.targets[0].ID

	redirect, err := tr.TrackSubmission(context.Background(), f.camp.ID, targetID, url.Values{
		"email":         {"a@b.example"},
		"password":      {"hunter2"},
		"User_Passwd":   {"hunter3"},
		"client_secret": {"hunter4"},
	})
	require.NoError(t, err)
	require.Equal(t, f.page.RedirectURL, redirect)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(f.result(t, targetID).SubmittedData, &payload))
	require.Equal(t, map[string]string{"email": "a@b.example"}, payload)
}

func TestTrackSubmissionCapturesPasswordsWhenEnabled(t *testing.T) {
	f := newFixture(t, 1)
	page := f.page
	page.CapturePasswords = true
	f.store.pages[page.ID] = page
	tr := f.tracker()
	targetID := f.targets[0].ID

	_, err := tr.TrackSubmission(context.Background(), f.camp.ID, targetID, url.Values{
		"email":    {"a@b.example"},
		"password": {"hunter2"},
	})
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(f.result(t, targetID).SubmittedData, &payload))
	require.Equal(t, "hunter2", payload["password"])
}

func TestTrackSubmissionCaptureDisabled(t *testing.T) {
	f := newFixture(t, 1)
	page := f.page
	page.CaptureData = false
	f.store.pages[page.ID] = page
	tr := f.tracker()
	targetID := f.targets[0].ID

	_, err := tr.TrackSubmission(context.Background(), f.camp.ID, targetID, url.Values{
		"email":    {"a@b.example"},
		"password": {"hunter2"},
	})
	require.NoError(t, err)

	r := f.result(t, targetID)
	require.True(t, r.Submitted)
	require.Nil(t, r.SubmittedData)
	require.Equal(t, 1, f.notifier.countByType(domain.NotifyDataSubmitted))
}

func TestRenderLanding(t *testing.T) {
	f := newFixture(t, 1)
	tr := f.tracker()
	targetID := f.targets[0].ID

	html, err := tr.RenderLanding(context.Background(), f.camp.ID, targetID)
	require.NoError(t, err)
	require.Contains(t, html, "/l/submit?c="+f.camp.ID.String())
	require.Contains(t, html, `method="post"`)
	require.Contains(t, html, "/o/"+f.camp.ID.String()+"/"+targetID.String()+".gif")
	require.NotContains(t, html, `action="/login"`)
}

func TestRenderLandingUnknownCampaign(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.tracker().RenderLanding(context.Background(), uuid.New(), f.targets[0].ID)
	require.ErrorIs(t, err, port.ErrNotFound)
}

func TestNotificationFanOutToEveryAdmin(t *testing.T) {
	f := newFixture(t, 1)
	second := uuid.New()
	f.store.admins[f.org] = append(f.store.admins[f.org], second)
	tr := f.tracker()

	require.NoError(t, tr.TrackOpen(context.Background(), f.camp.ID, f.targets[0].ID))
	require.Equal(t, 2, f.notifier.countByType(domain.NotifyEmailOpened))

	seen := map[uuid.UUID]bool{}
	for _, n := range f.notifier.sent {
		seen[n.UserID] = true
	}
	require.True(t, seen[f.admin])
	require.True(t, seen[second])
}

func TestNotifierFailureDoesNotFailTracking(t *testing.T) {
	f := newFixture(t, 1)
	f.notifier.err = errSMTPRefused
	tr := f.tracker()

	require.NoError(t, tr.TrackOpen(context.Background(), f.camp.ID, f.targets[0].ID))
	require.True(t, f.result(t, f.targets[0].ID).Opened)
}
