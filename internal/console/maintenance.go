package console

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lovincyrus/vault-console/internal/gateway"
	"github.com/lovincyrus/vault-console/internal/view"
)

// Report fetches the vault summary with up to recent uploads listed.
// Failures flash in the status slot; nothing on the page is re-rendered.
func (c *Controller) Report(ctx context.Context, recent int) (*view.Report, bool) {
	res := c.gw.Call(ctx, fmt.Sprintf("/api/report?recent=%d", recent), gateway.Options{})
	if res.Failed() {
		if res != nil {
			c.logger.Warn("report returned error", "error", res.Err())
		}
		c.page.Status.Flash(res.ErrText(MsgReportFailed), true)
		return nil, false
	}
	var report view.Report
	if err := res.Decode(&report); err != nil {
		c.logger.Error("unexpected response shape", "path", "/api/report", "err", err)
		c.page.Status.Flash(MsgAPIError, true)
		return nil, false
	}
	return &report, true
}

// RotateSecrets re-encrypts every secret, or only those in category when it
// is set, and resyncs on success. It returns how many were rotated.
func (c *Controller) RotateSecrets(ctx context.Context, category string) (int, bool) {
	path := "/api/secrets/rotate"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	c.page.SecretFeedback.Set(MsgRotating)

	res := c.gw.Call(ctx, path, gateway.Options{Method: http.MethodPost})
	if res.Failed() {
		c.page.SecretFeedback.Set(res.ErrText(MsgRotateFailed))
		return 0, false
	}
	var body struct {
		Rotated int `json:"rotated"`
	}
	if err := res.Decode(&body); err != nil {
		c.logger.Error("unexpected response shape", "path", path, "err", err)
		c.page.SecretFeedback.Set(MsgRotateFailed)
		return 0, false
	}

	c.page.SecretFeedback.Set(rotatedMessage(body.Rotated))
	c.LoadAll(ctx)
	return body.Rotated, true
}

func rotatedMessage(n int) string {
	if n == 1 {
		return "🔁 Rotated 1 secret."
	}
	return fmt.Sprintf("🔁 Rotated %d secrets.", n)
}
