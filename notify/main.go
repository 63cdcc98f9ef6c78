package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"

	"github.com/moyoez/qrdrop/tool"
	"github.com/moyoez/qrdrop/transfer"
)

const (
	TypeTransferDone     = "transfer_done"
	TypeTransferRejected = "transfer_rejected"
)

// Notification represents a notification message structure
type Notification struct {
	Type    string                 `json:"type,omitempty"`    // e.g. "transfer_done", "transfer_rejected"
	Title   string                 `json:"title,omitempty"`   // Notification title
	Message string                 `json:"message,omitempty"` // Notification message/content
	Data    map[string]interface{} `json:"data,omitempty"`    // Additional data fields
}

// Options contains options for sending notifications
type Options struct {
	URL     string            // Target URL
	Method  string            // HTTP method, defaults to POST
	Headers map[string]string // Custom HTTP headers
}

// SendNotification sends a notification to the specified HTTP URL
// If notification is nil, an empty JSON object will be sent
func SendNotification(ctx context.Context, client *http.Client, notification *Notification, options Options) error {
	if options.URL == "" {
		return fmt.Errorf("notification URL cannot be empty")
	}
	if _, err := url.Parse(options.URL); err != nil {
		return fmt.Errorf("invalid URL format: %v", err)
	}

	method := options.Method
	if method == "" {
		method = http.MethodPost
	}

	var payload []byte
	var err error
	if notification != nil {
		payload, err = sonic.Marshal(notification)
		if err != nil {
			return fmt.Errorf("failed to serialize notification data: %v", err)
		}
	} else {
		payload = []byte("{}")
	}

	req, err := http.NewRequestWithContext(ctx, method, options.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range options.Headers {
		req.Header.Set(key, value)
	}

	if client == nil {
		client = tool.NewHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %v", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		tool.DefaultLogger.Debugf("[Notify] failed to read response body: %v", readErr)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification send failed, HTTP status code: %d, response: %s", resp.StatusCode, string(body))
	}

	if notification != nil {
		tool.DefaultLogger.Infof("[Notify] notification sent to %s: %s - %s", options.URL, notification.Type, notification.Title)
	} else {
		tool.DefaultLogger.Infof("[Notify] notification sent to %s", options.URL)
	}
	return nil
}

// Notifier posts transfer outcomes to a webhook. A nil Notifier does nothing.
type Notifier struct {
	url    string
	client *http.Client
}

// New returns nil when webhookURL is empty.
func New(webhookURL string) *Notifier {
	if webhookURL == "" {
		return nil
	}
	return &Notifier{url: webhookURL, client: tool.NewHTTPClient()}
}

// ResultNotification describes a receive outcome.
func ResultNotification(res transfer.Result) *Notification {
	n := &Notification{
		Message: res.Message(),
		Data: map[string]interface{}{
			"state": res.State.String(),
		},
	}
	switch res.State {
	case transfer.StateDone:
		n.Type = TypeTransferDone
		n.Title = "File Received"
		n.Data["category"] = res.Record.Category.String()
		n.Data["fileName"] = res.Record.Name
		n.Data["size"] = res.Record.SizeBytes
	default:
		n.Type = TypeTransferRejected
		n.Title = "File Rejected"
		n.Data["kind"] = res.Kind().String()
		if res.Err != nil {
			n.Data["error"] = res.Err.Error()
		}
	}
	return n
}

// NotifyResult sends the outcome synchronously.
func (n *Notifier) NotifyResult(ctx context.Context, res transfer.Result) error {
	if n == nil {
		return nil
	}
	return SendNotification(ctx, n.client, ResultNotification(res), Options{URL: n.url})
}

// Hook returns a transfer.Options.OnResult callback that notifies in the
// background so the receiver is never blocked on the webhook.
func (n *Notifier) Hook() func(transfer.Result) {
	if n == nil {
		return nil
	}
	return func(res transfer.Result) {
		go func() {
			if err := n.NotifyResult(context.Background(), res); err != nil {
				tool.DefaultLogger.Errorf("[Notify] Failed to send %s notification: %v", res.State, err)
			}
		}()
	}
}
