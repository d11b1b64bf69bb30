package rewrite

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"phishsim/internal/core/domain"
)

// Rewriter transforms template and landing-page HTML into trackable
// variants: placeholder substitution, link rewriting through the click
// endpoint, open-pixel injection and form-action rewriting. All operations
// are pure string transforms; a malformed link degrades to being left
// unmodified rather than aborting the render.
type Rewriter struct {
	base string
}

// New creates a Rewriter generating URLs under the given public base URL,
// e.g. "https://phish.example.com". A trailing slash is stripped.
func New(baseURL string) *Rewriter {
	return &Rewriter{base: strings.TrimRight(baseURL, "/")}
}

// TrackingURL is the per-recipient landing page link substituted for the
// {{TrackingURL}} placeholder.
func (rw *Rewriter) TrackingURL(campaignID, targetID uuid.UUID) string {
	return fmt.Sprintf("%s/l/%s/%s", rw.base, campaignID, targetID)
}

// PixelURL is the open-tracking pixel location for a recipient.
func (rw *Rewriter) PixelURL(campaignID, targetID uuid.UUID) string {
	return fmt.Sprintf("%s/o/%s/%s.gif", rw.base, campaignID, targetID)
}

// ClickURL wraps an original destination in the click-redirect endpoint,
// carrying the destination as base64url in the u parameter.
func (rw *Rewriter) ClickURL(campaignID, targetID uuid.UUID, original string) string {
	encoded := base64.URLEncoding.EncodeToString([]byte(original))
	return fmt.Sprintf("%s/c/%s/%s?u=%s", rw.base, campaignID, targetID, encoded)
}

// SubmitURL is the form-capture endpoint for a recipient.
func (rw *Rewriter) SubmitURL(campaignID, targetID uuid.UUID) string {
	return fmt.Sprintf("%s/l/submit?c=%s&t=%s", rw.base, campaignID, targetID)
}

// Substitute replaces named placeholder tokens with per-target values.
// Unknown tokens are left verbatim.
func (rw *Rewriter) Substitute(html string, target domain.Target, campaignID uuid.UUID) string {
	r := strings.NewReplacer(
		"{{FirstName}}", target.FirstName,
		"{{LastName}}", target.LastName,
		"{{Email}}", target.Email,
		"{{TrackingURL}}", rw.TrackingURL(campaignID, target.ID),
	)
	return r.Replace(html)
}

// indexFold returns the index of the first case-insensitive match of sub
// in s, or -1. sub must be lowercase ASCII. Unlike searching a
// strings.ToLower copy, folding per byte never changes offsets: some
// characters (Turkish İ among them) lower to a different byte length,
// which would shift every position after them and corrupt the slicing.
func indexFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if matchFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

func matchFold(s, lower string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != lower[i] {
			return false
		}
	}
	return true
}

// RewriteLinks replaces every absolute http(s) href with a tracked click
// URL. Relative links, fragment anchors, mailto:/tel:/javascript: links and
// links already pointing at the tracking surface are left untouched, which
// makes the transform idempotent.
func (rw *Rewriter) RewriteLinks(html string, campaignID, targetID uuid.UUID) string {
	var b strings.Builder
	rest := html
	for {
		i := indexFold(rest, `href="`)
		if i == -1 {
			b.WriteString(rest)
			break
		}
		start := i + len(`href="`)
		end := strings.Index(rest[start:], `"`)
		if end == -1 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])
		b.WriteString(rw.rewriteHref(rest[start:start+end], campaignID, targetID))
		rest = rest[start+end:]
	}
	return b.String()
}

func (rw *Rewriter) rewriteHref(original string, campaignID, targetID uuid.UUID) string {
	lower := strings.ToLower(original)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		// relative, #anchor, mailto:, tel:, javascript: and friends
		return original
	}
	if strings.HasPrefix(original, rw.base+"/") {
		// already routed through the tracking surface
		return original
	}
	if _, err := url.Parse(original); err != nil {
		// a malformed URL must not break delivery of the rest of the email
		return original
	}
	return rw.ClickURL(campaignID, targetID, original)
}

// InjectPixel inserts an invisible 1x1 open-tracking image immediately
// before the closing body tag, or appends it when the document has none.
func (rw *Rewriter) InjectPixel(html string, campaignID, targetID uuid.UUID) string {
	pixel := fmt.Sprintf(`<img src=%q width="1" height="1" style="display:none" alt="" />`,
		rw.PixelURL(campaignID, targetID))
	if i := indexFold(html, "</body>"); i != -1 {
		return html[:i] + pixel + html[i:]
	}
	return html + pixel
}

var (
	formTagRe  = regexp.MustCompile(`(?is)<form\b[^>]*>`)
	formAttrRe = regexp.MustCompile(`(?is)\s(?:action|method)\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
)

// RewriteForms forces every form to POST to the capture endpoint, leaving
// the rest of the markup untouched so the cloned page keeps its design.
func (rw *Rewriter) RewriteForms(html string, campaignID, targetID uuid.UUID) string {
	return formTagRe.ReplaceAllStringFunc(html, func(tag string) string {
		attrs := strings.TrimSuffix(tag[len("<form"):], ">")
		attrs = formAttrRe.ReplaceAllString(attrs, "")
		return fmt.Sprintf(`<form%s method="post" action=%q>`,
			attrs, rw.SubmitURL(campaignID, targetID))
	})
}

// RenderEmail produces the trackable email body for one recipient.
func (rw *Rewriter) RenderEmail(html string, target domain.Target, campaignID uuid.UUID) string {
	out := rw.Substitute(html, target, campaignID)
	out = rw.RewriteLinks(out, campaignID, target.ID)
	return rw.InjectPixel(out, campaignID, target.ID)
}

// RenderLandingPage produces the servable landing page for one recipient,
// including rewritten forms for credential capture.
func (rw *Rewriter) RenderLandingPage(html string, target domain.Target, campaignID uuid.UUID) string {
	out := rw.Substitute(html, target, campaignID)
	out = rw.RewriteLinks(out, campaignID, target.ID)
	out = rw.RewriteForms(out, campaignID, target.ID)
	return rw.InjectPixel(out, campaignID, target.ID)
}
