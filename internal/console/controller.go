// Package console drives one vault page: it owns the gateway, the session
// state and the page, and implements the resync and the command handlers.
package console

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/lovincyrus/vault-console/internal/gateway"
	"github.com/lovincyrus/vault-console/internal/session"
	"github.com/lovincyrus/vault-console/internal/view"
)

// DefaultAuditLimit is the audit page size requested on every resync.
const DefaultAuditLimit = 50

// Messages shown by the controller.
const (
	MsgSynced         = "✅ Synced just now"
	MsgAPIError       = "API error — see console"
	MsgLocked         = "🔒 Locked — login to continue"
	MsgSessionNeeded  = "Session required. Enter master password."
	MsgVerifying      = "Verifying..."
	MsgUnlocked       = "Unlocked"
	MsgLoginFailed    = "Login failed"
	MsgUploading      = "Uploading..."
	MsgUploaded       = "✅ Upload complete"
	MsgUploadFailed   = "Upload failed"
	MsgSaving         = "Saving..."
	MsgStored         = "✅ Stored"
	MsgStoreFailed    = "Failed to store secret"
	MsgLoading        = "Loading..."
	MsgViewFailed     = "Failed to load secret"
	MsgDeleting       = "Deleting..."
	MsgDeleteFailed   = "Failed to delete secret"
	MsgRotating       = "Rotating..."
	MsgRotateFailed   = "Key rotation failed"
	MsgReportFailed   = "Report unavailable"
	MsgDownloadFailed = "Download failed"
)

// Clipboard copies text. Failures are ignored by the controller.
type Clipboard interface {
	Copy(text string) error
}

// Confirmer asks the user a yes/no question and blocks for the answer.
type Confirmer interface {
	Confirm(question string) bool
}

// Revealer shows a value to the user and blocks until acknowledged.
type Revealer interface {
	Reveal(message string)
}

// Navigator leaves the page for a URL, used for file downloads.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Options configures a Controller.
type Options struct {
	BaseURL       string
	HTTPClient    *http.Client
	Logger        *slog.Logger
	AuditLimit    int
	FeedbackDelay time.Duration

	Clipboard Clipboard
	Confirmer Confirmer
	Revealer  Revealer
	Navigator Navigator
}

// Controller is the per-page context threaded through every handler and
// renderer call. Create one per page.
type Controller struct {
	gw     *gateway.Gateway
	state  *session.State
	page   *view.Page
	logger *slog.Logger

	auditLimit int

	clipboard Clipboard
	confirmer Confirmer
	revealer  Revealer
	navigator Navigator

	// resync serializes LoadAll runs; refresh coalesces Refresh triggers.
	resync  *semaphore.Weighted
	refresh singleflight.Group
}

// New creates a controller with a fresh session state and page.
func New(opts Options) *Controller {
	c := &Controller{
		state:      session.New(),
		page:       view.NewPage(opts.FeedbackDelay),
		logger:     opts.Logger,
		auditLimit: opts.AuditLimit,
		clipboard:  opts.Clipboard,
		confirmer:  opts.Confirmer,
		revealer:   opts.Revealer,
		navigator:  opts.Navigator,
		resync:     semaphore.NewWeighted(1),
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.auditLimit <= 0 {
		c.auditLimit = DefaultAuditLimit
	}
	c.gw = gateway.New(gateway.Config{
		BaseURL:       opts.BaseURL,
		Client:        opts.HTTPClient,
		State:         c.state,
		Logger:        c.logger.With("component", "gateway"),
		OnSessionLost: c.handleAuthRequired,
		OnFailure:     c.handleAPIError,
	})
	return c
}

// Page returns the page the controller renders into.
func (c *Controller) Page() *view.Page {
	return c.page
}

// State returns the session state.
func (c *Controller) State() *session.State {
	return c.state
}

// Gateway returns the gateway every call goes through.
func (c *Controller) Gateway() *gateway.Gateway {
	return c.gw
}

// Close stops pending feedback timers.
func (c *Controller) Close() {
	c.page.Close()
}

func (c *Controller) handleAuthRequired() {
	c.page.ShowLogin(true)
	c.page.LoginFeedback.Set(MsgSessionNeeded)
	c.page.Status.Flash(MsgLocked, true)
}

func (c *Controller) handleAPIError(path string, err error) {
	c.page.Status.Flash(MsgAPIError, true)
}
