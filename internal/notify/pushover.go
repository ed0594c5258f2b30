// Package notify sends completion notifications through Pushover.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const pushoverEndpoint = "https://api.pushover.net/1/messages.json"

// Pushover sends push notifications to a single user.
type Pushover struct {
	userKey  string
	appToken string
	http     *http.Client
}

// NewPushover returns a notifier, or nil when either credential is empty
// so callers can treat notifications as optional.
func NewPushover(userKey, appToken string) *Pushover {
	if userKey == "" || appToken == "" {
		return nil
	}
	return &Pushover{
		userKey:  userKey,
		appToken: appToken,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one notification. A nil receiver is a no-op.
func (p *Pushover) Send(ctx context.Context, title, message string) error {
	if p == nil {
		return nil
	}

	form := url.Values{
		"token":   {p.appToken},
		"user":    {p.userKey},
		"title":   {title},
		"message": {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		pushoverEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("pushover request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("pushover returned status %d: %s", resp.StatusCode, body)
	}
	return nil
}
