package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"issuebrowser/internal/browser"
)

const (
	// LocalsBrowser is the Locals key holding the visitor's *browser.Session.
	LocalsBrowser = "browser"

	sessionKey = "browser_id"
)

// BrowserMiddleware binds each visitor to a browser session through the
// cookie session.
type BrowserMiddleware struct {
	registry *browser.Registry
}

// NewBrowserMiddleware creates a new browser middleware instance.
func NewBrowserMiddleware(registry *browser.Registry) *BrowserMiddleware {
	return &BrowserMiddleware{registry: registry}
}

// Attach loads the visitor's browser session, creating one on the first
// visit or after the previous one was swept, and starts it.
func (m *BrowserMiddleware) Attach(c fiber.Ctx) error {
	b := m.attach(c)
	b.Start()
	return c.Next()
}

// AttachIdle is Attach without starting the session. Full page loads use it
// so that a visitor who never runs the page's scripts costs no search.
func (m *BrowserMiddleware) AttachIdle(c fiber.Ctx) error {
	m.attach(c)
	return c.Next()
}

func (m *BrowserMiddleware) attach(c fiber.Ctx) *browser.Session {
	sess := session.FromContext(c)

	var id string
	if sess != nil {
		if v, ok := sess.Get(sessionKey).(string); ok {
			id = v
		}
	}

	b, _ := m.registry.GetOrCreate(id)
	if sess != nil && id != b.ID() {
		sess.Set(sessionKey, b.ID())
	}

	c.Locals(LocalsBrowser, b)
	return b
}

// Browser returns the session attached by Attach, or nil.
func Browser(c fiber.Ctx) *browser.Session {
	b, _ := c.Locals(LocalsBrowser).(*browser.Session)
	return b
}
