package agent

import (
	"encoding/json"
	"fmt"
	"log"
)

// Defaults used when a push payload is missing fields or cannot be parsed.
const (
	DefaultTitle = "EZYSTAFF"
	DefaultBody  = "new notification available"
	DefaultRoute = "/operator"
)

// PushPayload is the wire format of a push event. All fields are optional;
// unknown or missing fields fall back to the defaults above.
type PushPayload struct {
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Type       string  `json:"type"`
	BadgeCount *int    `json:"badgeCount"`
	EventID    *string `json:"eventId"`
	ShiftID    *string `json:"shiftId"`
}

// Notification is a rendered system notification with its deep link.
type Notification struct {
	Title string
	Body  string
	Route string
}

// Presenter displays a system notification.
type Presenter interface {
	Show(n Notification) error
}

// Badge sets or clears the OS app badge.
type Badge interface {
	Set(count int) error
	Clear() error
}

// Window is one open application window.
type Window interface {
	Origin() string
	Focus()
	// Navigate moves the window to the path directly. Windows that cannot
	// navigate return an error and receive a router message instead.
	Navigate(path string) error
	PostMessage(msg NavigateMessage)
}

// Windows lists open application windows and opens new ones.
type Windows interface {
	List() []Window
	Open(path string) error
}

// NavigateMessage asks the in-page router to move to a path.
type NavigateMessage struct {
	Action string `json:"action"`
	URL    string `json:"url"`
}

// BadgeMessage is a foreground request to force a badge value.
type BadgeMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// MessageUpdateBadge is the BadgeMessage.Type handled by the agent.
const MessageUpdateBadge = "UPDATE_BADGE"

// Agent is the background push responder. It holds no state of its own;
// everything it touches arrives in the event or lives behind an interface.
type Agent struct {
	presenter Presenter
	badge     Badge
	windows   Windows
	origin    string
}

// New creates an agent for the given application origin.
func New(presenter Presenter, badge Badge, windows Windows, origin string) *Agent {
	return &Agent{presenter: presenter, badge: badge, windows: windows, origin: origin}
}

// Route computes the deep-link path for a payload: the shift detail view
// when a shift id is present, otherwise the operator landing view.
func Route(shiftID *string) string {
	if shiftID != nil && *shiftID != "" {
		return fmt.Sprintf("/operator/shift/%s", *shiftID)
	}
	return DefaultRoute
}

// HandlePush parses a push event and always displays a notification; a
// malformed payload falls back to the default body rather than being
// dropped. The badge is updated eagerly when the payload carries a count.
func (a *Agent) HandlePush(data []byte) Notification {
	n := Notification{Title: DefaultTitle, Body: DefaultBody, Route: DefaultRoute}

	var payload PushPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("unparseable push payload, using defaults: %v", err)
	} else {
		if payload.Title != "" {
			n.Title = payload.Title
		}
		if payload.Body != "" {
			n.Body = payload.Body
		}
		n.Route = Route(payload.ShiftID)

		if payload.BadgeCount != nil && a.badge != nil {
			var err error
			if *payload.BadgeCount > 0 {
				err = a.badge.Set(*payload.BadgeCount)
			} else {
				err = a.badge.Clear()
			}
			if err != nil {
				log.Printf("eager badge update failed: %v", err)
			}
		}
	}

	if err := a.presenter.Show(n); err != nil {
		log.Printf("failed to display notification: %v", err)
	}
	return n
}

// HandleClick routes a notification click: focus an open window on the
// application origin and navigate it (posting a router message when direct
// navigation is unavailable), or open a new window at the target path.
func (a *Agent) HandleClick(n Notification) {
	for _, w := range a.windows.List() {
		if w.Origin() != a.origin {
			continue
		}
		w.Focus()
		if err := w.Navigate(n.Route); err != nil {
			w.PostMessage(NavigateMessage{Action: "navigate", URL: n.Route})
		}
		return
	}

	if err := a.windows.Open(n.Route); err != nil {
		log.Printf("failed to open window for %s: %v", n.Route, err)
	}
}

// HandleMessage applies a foreground badge request, independent of any
// change-stream logic.
func (a *Agent) HandleMessage(msg BadgeMessage) {
	if msg.Type != MessageUpdateBadge || a.badge == nil {
		return
	}
	var err error
	if msg.Count > 0 {
		err = a.badge.Set(msg.Count)
	} else {
		err = a.badge.Clear()
	}
	if err != nil {
		log.Printf("badge message handling failed: %v", err)
	}
}
