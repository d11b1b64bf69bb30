package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed inserts a demo organization with an admin, a target group, an email
// template, a landing page, an SMTP profile and one campaign scheduled a
// minute out, so a local scheduler picks it up shortly after boot. All
// inserts are idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	orgID := uuid.MustParse("6f1c6e46-0000-4000-8000-000000000001")
	adminID := uuid.MustParse("6f1c6e46-0000-4000-8000-000000000002")
	groupID := uuid.MustParse("6f1c6e46-0000-4000-8000-000000000003")
	templateID := uuid.MustParse("6f1c6e46-0000-4000-8000-000000000004")
	pageID := uuid.MustParse("6f1c6e46-0000-4000-8000-000000000005")
	profileID := uuid.MustParse("6f1c6e46-0000-4000-8000-000000000006")
	campaignID := uuid.MustParse("6f1c6e46-0000-4000-8000-000000000007")

	_, err := pool.Exec(ctx, `INSERT INTO organizations (id, name)
        VALUES ($1, 'Demo Org') ON CONFLICT DO NOTHING`, orgID)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `INSERT INTO users (id, organization_id, email, role)
        VALUES ($1, $2, 'admin@demo.local', 'admin') ON CONFLICT DO NOTHING`, adminID, orgID)
	if err != nil {
		return err
	}

	for i := 1; i <= 5; i++ {
		_, err = pool.Exec(ctx, `INSERT INTO targets (id, organization_id, group_id, email, first_name, last_name)
            VALUES ($1, $2, $3, $4, $5, 'Demo') ON CONFLICT DO NOTHING`,
			uuid.New(), orgID, groupID, fmt.Sprintf("target%d@demo.local", i), fmt.Sprintf("Target%d", i))
		if err != nil {
			return err
		}
	}

	templateHTML := `<html><body>
<p>Hi {{FirstName}},</p>
<p>Your mailbox quota is almost full. <a href="{{TrackingURL}}">Review your account</a> to avoid interruption.</p>
<p><a href="https://support.demo.local/help">Help center</a></p>
</body></html>`
	_, err = pool.Exec(ctx, `INSERT INTO email_templates (id, organization_id, name, subject, html)
        VALUES ($1, $2, 'Quota warning', 'Action required, {{FirstName}}', $3) ON CONFLICT DO NOTHING`,
		templateID, orgID, templateHTML)
	if err != nil {
		return err
	}

	pageHTML := `<html><body>
<h1>Sign in</h1>
<form action="/login" method="get">
<input name="email" type="text" /><input name="password" type="password" />
<button type="submit">Sign in</button>
</form>
</body></html>`
	_, err = pool.Exec(ctx, `INSERT INTO landing_pages (id, organization_id, name, html, capture_data, capture_passwords, redirect_url)
        VALUES ($1, $2, 'Webmail login', $3, true, false, 'https://demo.local/awareness') ON CONFLICT DO NOTHING`,
		pageID, orgID, pageHTML)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `INSERT INTO smtp_profiles (id, organization_id, host, port, username, password, from_name, from_address)
        VALUES ($1, $2, 'localhost', 1025, '', '', 'IT Support', 'it-support@demo.local') ON CONFLICT DO NOTHING`,
		profileID, orgID)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `INSERT INTO campaigns
        (id, organization_id, name, group_id, smtp_profile_id, email_template_id, landing_page_id, scheduled_at, status)
        VALUES ($1, $2, 'Demo campaign', $3, $4, $5, $6, $7, 'Scheduled') ON CONFLICT DO NOTHING`,
		campaignID, orgID, groupID, profileID, templateID, pageID, time.Now().Add(time.Minute))
	return err
}
