// ABOUTME: SMS transport backed by Google Messages for Web via chromedp
// ABOUTME: Persists the paired browser profile so QR pairing survives restarts
package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/chromedp/chromedp"

	"github.com/harperreed/nudge/models"
)

const messagesURL = "https://messages.google.com/web/conversations"

// ErrNotPaired is returned when the browser profile has no active
// Google Messages pairing. Run the pairing flow first.
var ErrNotPaired = errors.New("google messages not paired, run 'nudge pair' first")

// ErrNoPhone is returned when the contact has no phone number to send to.
var ErrNoPhone = errors.New("contact has no phone number")

// SMSTransport delivers drafts over Google Messages for Web. The phone
// does the actual sending; the browser is only the relay, so an Android
// phone paired via QR code must stay online.
type SMSTransport struct {
	profileDir string
	headless   bool
	timeout    time.Duration
}

type SMSOption func(*SMSTransport)

// WithHeadless controls whether the browser window is shown. Pairing
// requires a visible window; sending works either way.
func WithHeadless(headless bool) SMSOption {
	return func(t *SMSTransport) { t.headless = headless }
}

// WithProfileDir overrides the browser profile location.
func WithProfileDir(dir string) SMSOption {
	return func(t *SMSTransport) { t.profileDir = dir }
}

// NewSMSTransport builds the transport. The profile defaults to an
// app-owned directory under XDG data, shared between pairing and sends.
func NewSMSTransport(opts ...SMSOption) (*SMSTransport, error) {
	t := &SMSTransport{
		profileDir: filepath.Join(xdg.DataHome, "nudge", "browser-profile"),
		headless:   true,
		timeout:    2 * time.Minute,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := os.MkdirAll(t.profileDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create browser profile dir: %w", err)
	}
	return t, nil
}

// Send delivers one draft to the contact's primary phone number. A nil
// return means the message was observed in the conversation thread; any
// error means delivery must not be recorded as sent.
func (t *SMSTransport) Send(ctx context.Context, contact *models.Contact, draft *models.MessageDraft) error {
	phone := contact.PrimaryPhone()
	if phone == "" {
		return fmt.Errorf("%s: %w", contact.Name, ErrNoPhone)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	taskCtx, taskCancel, err := t.newBrowser(ctx)
	if err != nil {
		return err
	}
	defer taskCancel()

	if err := t.requirePaired(taskCtx); err != nil {
		return err
	}

	err = chromedp.Run(taskCtx,
		// Start a fresh conversation addressed by number. Addressing by
		// number instead of contact name sidesteps ambiguous search hits.
		chromedp.Click(`a[href*="/web/conversations/new"], [aria-label="Start chat"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`input[type="text"], input[data-e2e-contact-input]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[type="text"], input[data-e2e-contact-input]`, phone, chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		chromedp.SendKeys(`input[type="text"], input[data-e2e-contact-input]`, "\r", chromedp.ByQuery),
		chromedp.WaitVisible(`textarea[data-e2e-message-input-box], textarea`, chromedp.ByQuery),
		chromedp.SendKeys(`textarea[data-e2e-message-input-box], textarea`, draft.Body, chromedp.ByQuery),
		chromedp.Click(`button[aria-label="Send message"], [data-e2e-send-text-button]`, chromedp.ByQuery),
		// The message bubble appearing in the thread is the success signal.
		chromedp.WaitVisible(`mws-message-wrapper[is-outgoing], mws-text-message-part`, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", phone, err)
	}
	return nil
}

// Pair opens a visible browser on the QR pairing page and waits until
// the conversation list appears or the context is cancelled.
func (t *SMSTransport) Pair(ctx context.Context) error {
	headless := t.headless
	t.headless = false
	defer func() { t.headless = headless }()

	taskCtx, taskCancel, err := t.newBrowser(ctx)
	if err != nil {
		return err
	}
	defer taskCancel()

	err = chromedp.Run(taskCtx,
		chromedp.Navigate(messagesURL),
		chromedp.WaitVisible(`mws-conversations-list`, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("pairing did not complete: %w", err)
	}
	return nil
}

// Paired reports whether the stored profile has an active pairing.
func (t *SMSTransport) Paired(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	taskCtx, taskCancel, err := t.newBrowser(ctx)
	if err != nil {
		return false, err
	}
	defer taskCancel()

	err = t.requirePaired(taskCtx)
	if errors.Is(err, ErrNotPaired) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *SMSTransport) newBrowser(ctx context.Context) (context.Context, context.CancelFunc, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", t.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserDataDir(t.profileDir),
	)
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		taskCancel()
		allocCancel()
	}
	return taskCtx, cancel, nil
}

// requirePaired navigates to the conversation list and fails with
// ErrNotPaired when the QR pairing page shows up instead.
func (t *SMSTransport) requirePaired(taskCtx context.Context) error {
	var location string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(messagesURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&location),
	)
	if err != nil {
		return fmt.Errorf("failed to open google messages: %w", err)
	}
	if strings.Contains(location, "authentication") || strings.Contains(location, "welcome") {
		return ErrNotPaired
	}
	return nil
}
