package console

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lovincyrus/vault-console/internal/gateway"
	"github.com/lovincyrus/vault-console/internal/view"
)

// Start runs the initial resync, the way the page does once it has loaded.
func (c *Controller) Start(ctx context.Context) bool {
	return c.LoadAll(ctx)
}

// LoadAll runs one full resync. The files fetch goes first and doubles as
// the session check: if it yields nothing the resync stops and every region
// keeps its last render. Secrets and audit are then fetched concurrently and
// each renders on its own success. Runs are serialized, so overlapping
// triggers render in the order they were issued.
//
// It reports whether the files fetch succeeded.
func (c *Controller) LoadAll(ctx context.Context) bool {
	if err := c.resync.Acquire(ctx, 1); err != nil {
		return false
	}
	defer c.resync.Release(1)

	var files []view.File
	if !c.fetch(ctx, "/api/files", &files) {
		return false
	}
	c.state.Unlock()
	c.page.ShowLogin(false)
	c.page.Replace(view.RegionFiles, view.RenderFiles(files))

	var g errgroup.Group
	g.Go(func() error {
		var secrets []view.Secret
		if c.fetch(ctx, "/api/secrets", &secrets) {
			c.page.Replace(view.RegionSecrets, view.RenderSecrets(secrets))
		}
		return nil
	})
	g.Go(func() error {
		var events []view.AuditEvent
		if c.fetch(ctx, fmt.Sprintf("/api/audit?limit=%d", c.auditLimit), &events) {
			c.page.Replace(view.RegionAudit, view.RenderAudit(events))
		}
		return nil
	})
	g.Wait()

	c.page.Status.Flash(MsgSynced, false)
	return true
}

// Refresh is the refresh button: the same full resync as after a mutation.
// Refresh presses that overlap share one run.
func (c *Controller) Refresh(ctx context.Context) bool {
	v, _, _ := c.refresh.Do("refresh", func() (any, error) {
		return c.LoadAll(ctx), nil
	})
	return v.(bool)
}

// fetch issues a GET and decodes a collection into out. A body that is not
// the expected shape is treated like any other unusable response.
func (c *Controller) fetch(ctx context.Context, path string, out any) bool {
	res := c.gw.Call(ctx, path, gateway.Options{})
	if res == nil {
		return false
	}
	if msg := res.Err(); msg != "" {
		c.logger.Warn("fetch returned error", "path", path, "error", msg)
		return false
	}
	if err := res.Decode(out); err != nil {
		c.logger.Error("unexpected response shape", "path", path, "err", err)
		c.page.Status.Flash(MsgAPIError, true)
		return false
	}
	return true
}
