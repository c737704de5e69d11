// Package browser wraps a synchronous remote-control Driver with the
// high-level operations the UI suites are written against: domain-relative
// navigation, multi-strategy lookup, readiness-gated waits, and a bounded
// retry loop for flaky interactions.
//
// The surface has two halves: the curated Session methods below, and the raw
// Driver() accessor for anything the wrapper does not cover.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"dev/bravebird/ui-harness-go/pkg/config"
)

const (
	// DefaultPassword is the password shared by seeded test accounts.
	DefaultPassword = "testing1"

	// DefaultWait bounds element lookups and predicate waits.
	DefaultWait = 10 * time.Second

	// ProbeWait is the shrunk timeout used by negative-existence probes.
	ProbeWait = 1 * time.Second

	pollInterval  = 100 * time.Millisecond
	retryInterval = 500 * time.Millisecond

	readyPolls        = 30
	readyPollInterval = 100 * time.Millisecond
)

// readyScript evaluates the page-global flag the application under test sets
// once its async initialization is done.
const readyScript = `() => window.app_ready === true`

// pendingScript reports whether async save requests are still in flight.
const pendingScript = `() => window.jQuery ? jQuery.active === 0 : true`

// Predicate is a poll condition evaluated against the session.
type Predicate func(*Session) (bool, error)

// Session owns one live connection to a controlled browser. It is a single
// mutable resource with no locking: one ordered run owns it exclusively for
// its duration.
type Session struct {
	// DomainName and Schema build domain-relative URLs for Go and Home.
	DomainName string
	Schema     string

	// Identity of the last logged-in actor, recorded by LoginAs.
	Username string
	Password string
	Email    string

	// Secondary marks explicitly constructed sessions that are never
	// tracked by a Manager.
	Secondary bool

	// ReadyCheck is the pluggable readiness predicate polled after every
	// in-domain navigation. Defaults to the page-global app_ready flag.
	ReadyCheck Predicate

	driver      Driver
	cfg         config.Settings
	defaultWait time.Duration
	manager     *Manager
}

// NewSession wraps an already-connected driver.
func NewSession(driver Driver, cfg config.Settings) *Session {
	s := &Session{
		DomainName:  cfg.DomainName,
		Schema:      cfg.Schema,
		driver:      driver,
		cfg:         cfg,
		defaultWait: DefaultWait,
	}
	driver.SetImplicitWait(s.defaultWait)
	return s
}

// Driver exposes the raw remote-control handle. Unrecognized operations go
// through here instead of being proxied implicitly.
func (s *Session) Driver() Driver { return s.driver }

// DefaultWait returns the current lookup/wait bound.
func (s *Session) DefaultWait() time.Duration { return s.defaultWait }

// SetDefaultWait changes the lookup/wait bound, propagating it to the
// driver's implicit wait.
func (s *Session) SetDefaultWait(wait time.Duration) {
	s.defaultWait = wait
	s.driver.SetImplicitWait(wait)
}

// ==================== Navigation ====================

// Go navigates to a domain-relative path, prefixing "/" when missing.
func (s *Session) Go(path string) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.driver.Navigate(s.Schema + "://" + s.DomainName + path)
}

// Home navigates to the domain root, optionally resizing the window first.
func (s *Session) Home(maximize bool) error {
	if maximize {
		if err := s.Maximize(); err != nil {
			return err
		}
	}
	return s.driver.Navigate(s.Schema + "://" + s.DomainName)
}

// Login logs a test user in with the shared test password.
func (s *Session) Login(username string) error {
	return s.LoginAs(username, DefaultPassword, "")
}

// LoginAs fills the login form and submits it, recording the identity on the
// session. Wrong credentials fail silently at the UI level; callers must
// assert on the resulting page state.
func (s *Session) LoginAs(username, password, cameFrom string) error {
	path := "/login"
	if cameFrom != "" {
		path += "?came_from=" + url.QueryEscape(cameFrom)
	}
	if err := s.Go(path); err != nil {
		return err
	}

	login, err := s.El("#login")
	if err != nil {
		return err
	}
	if err := login.SendKeys(username); err != nil {
		return err
	}

	pw, err := s.El("#password")
	if err != nil {
		return err
	}
	if err := pw.SendKeys(password); err != nil {
		return err
	}

	submit, err := s.El(`button[value="submit"]`)
	if err != nil {
		return err
	}
	if err := submit.Click(); err != nil {
		return err
	}

	s.Username = username
	s.Password = password
	s.Email = ""
	return nil
}

// Logout hits the logout endpoint and asserts the logged-out marker shows.
func (s *Session) Logout() error {
	if err := s.Go("/logout_handler"); err != nil {
		return err
	}
	if _, err := s.Contains("Please Log In", "h1"); err != nil {
		return Assertionf("logout: logged-out marker not present: %v", err)
	}
	return nil
}

// ==================== Lookup ====================

// Find resolves one element, defaulting to the CSS selector strategy. Every
// lookup funnels through the readiness gate first.
func (s *Session) Find(value string, strategy ...Strategy) (Element, error) {
	st := ByCSS
	if len(strategy) > 0 {
		st = strategy[0]
	}
	if err := s.WaitUntilReady(); err != nil {
		return nil, err
	}
	return s.driver.Find(st, value)
}

// FindAll resolves every element matching a CSS selector, without waiting.
func (s *Session) FindAll(selector string) ([]Element, error) {
	if err := s.WaitUntilReady(); err != nil {
		return nil, err
	}
	return s.driver.FindAll(ByCSS, selector)
}

// El blocks until an element matching the selector is both present and
// visually rendered, then returns it. Presence and rendering are decoupled
// in the target application (CSS transitions, async layout), so a single
// presence wait is not enough for safe interaction.
func (s *Session) El(selector string) (Element, error) {
	err := s.Wait(s.defaultWait, func(b *Session) (bool, error) {
		_, findErr := b.Find(selector)
		if findErr != nil {
			return false, findErr
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	err = s.Wait(s.defaultWait, func(b *Session) (bool, error) {
		el, findErr := b.Find(selector)
		if findErr != nil {
			return false, findErr
		}
		return el.Displayed()
	})
	if err != nil {
		return nil, err
	}

	return s.Find(selector)
}

// Contains finds an element whose text contains the given substring,
// optionally scoped to a tag (default "*"). When a specific tag has no
// direct match the descendant text nodes are searched before failing. The
// whole lookup runs in the bounded retry loop because DOM content can land
// after the query is issued.
func (s *Session) Contains(text string, tag ...string) (Element, error) {
	tg := "*"
	if len(tag) > 0 && tag[0] != "" {
		tg = tag[0]
	}

	var el Element
	err := s.Retry(2, func() error {
		query := fmt.Sprintf(`//%s[contains(text(),%s)]`, tg, xpathLiteral(text))
		found, findErr := s.Find(query, ByXPath)
		if findErr != nil {
			var notFound *NotFoundError
			if errors.As(findErr, &notFound) && tg != "*" {
				// maybe the text is in a child tag
				query = fmt.Sprintf(`//%s//*[contains(text(),%s)]`, tg, xpathLiteral(text))
				found, findErr = s.Find(query, ByXPath)
			}
			if findErr != nil {
				if errors.As(findErr, &notFound) {
					// mark retryable for the loop; the cause stays unwrappable
					return &DriverError{Op: "contains " + text, Err: findErr}
				}
				return findErr
			}
		}
		el = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// NotContains reports whether no element of the given tag displays the given
// text right now. This is a point-in-time negative check, not a guarantee
// the text never appears later.
func (s *Session) NotContains(text, tag string, wait time.Duration) bool {
	if tag == "" {
		tag = "*"
	}
	restore := s.shrinkWait(wait)
	defer restore()

	query := fmt.Sprintf(`//%s[text()[contains(.,%s)]]`, tag, xpathLiteral(text))
	el, err := s.driver.Find(ByXPath, query)
	if err != nil {
		return true
	}
	shown, err := el.Displayed()
	if err != nil {
		return true
	}
	return !shown
}

// NotFind reports whether the selector matches no displayed element right
// now, probing with a shrunk timeout and restoring the prior default wait in
// all cases.
func (s *Session) NotFind(selector string, wait time.Duration) bool {
	restore := s.shrinkWait(wait)
	defer restore()

	el, err := s.driver.Find(ByCSS, selector)
	if err != nil {
		return true
	}
	shown, err := el.Displayed()
	if err != nil {
		return true
	}
	return !shown
}

func (s *Session) shrinkWait(wait time.Duration) func() {
	if wait <= 0 {
		wait = ProbeWait
	}
	prev := s.defaultWait
	s.SetDefaultWait(wait)
	return func() { s.SetDefaultWait(prev) }
}

// ==================== Waiting and retrying ====================

// Wait polls until the predicate returns true or the timeout elapses.
// Predicate errors are swallowed while polling; the last one is attached to
// the timeout error.
func (s *Session) Wait(timeout time.Duration, until Predicate) error {
	if until == nil {
		return fmt.Errorf("wait: predicate is required")
	}
	if timeout <= 0 {
		timeout = s.defaultWait
	}

	deadline := time.Now().Add(timeout)
	var last error
	for {
		ok, err := until(s)
		if err == nil && ok {
			return nil
		}
		last = err
		if time.Now().After(deadline) {
			return &TimeoutError{Op: "wait", Timeout: timeout, Last: last}
		}
		time.Sleep(pollInterval)
	}
}

// Waiter returns a reusable waiter bound to the timeout.
func (s *Session) Waiter(timeout time.Duration) *Waiter {
	if timeout <= 0 {
		timeout = s.defaultWait
	}
	return &Waiter{session: s, timeout: timeout}
}

// Waiter re-runs predicates against one session with a fixed timeout.
type Waiter struct {
	session *Session
	timeout time.Duration
}

// Until blocks until the predicate holds or the waiter's timeout elapses.
func (w *Waiter) Until(until Predicate) error {
	return w.session.Wait(w.timeout, until)
}

// Retry invokes op up to attempts times, retrying only on transient failure
// kinds (driver error, timeout, stale reference, assertion failure) with a
// short sleep between attempts. The final attempt's outcome is always
// surfaced; op runs at least once.
func (s *Session) Retry(attempts int, op func() error) error {
	for ; attempts > 1; attempts-- {
		err := op()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		time.Sleep(retryInterval)
	}
	return op()
}

// WaitUntilReady polls the application readiness flag after navigations to
// in-domain, non-static-content paths. The application defers interactivity
// past the browser's load event; interacting earlier is flaky, so element
// lookups all pass through here.
func (s *Session) WaitUntilReady() error {
	raw, err := s.driver.CurrentURL()
	if err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	if !s.inDomain(u.Hostname()) || strings.HasPrefix(u.Path, "/content/") {
		return nil
	}

	check := s.ReadyCheck
	if check == nil {
		check = appReady
	}

	for i := 0; i < readyPolls; i++ {
		ok, checkErr := check(s)
		if checkErr == nil && ok {
			return nil
		}
		time.Sleep(readyPollInterval)
	}
	return Assertionf("page readiness flag never became true on %s", raw)
}

func appReady(s *Session) (bool, error) {
	val, err := s.driver.Eval(readyScript)
	if err != nil {
		return false, err
	}
	ready, _ := val.(bool)
	return ready, nil
}

func (s *Session) inDomain(host string) bool {
	if host == "" {
		return false
	}
	domain := s.DomainName
	if i := strings.IndexByte(domain, ':'); i >= 0 {
		domain = domain[:i]
	}
	return host == domain || host == "127.0.0.1" || strings.HasSuffix(host, "."+domain)
}

// ==================== Application helpers ====================

// AssertBannerText waits for the notification banner to contain text.
func (s *Session) AssertBannerText(text string) error {
	return s.Wait(s.defaultWait, func(b *Session) (bool, error) {
		banner, err := b.driver.Find(ByCSS, ".notification.banner")
		if err != nil {
			return false, err
		}
		got, err := banner.Text()
		if err != nil {
			return false, err
		}
		return strings.Contains(got, text), nil
	})
}

// WaitForSave sleeps out the settle delay, then polls until no async save
// requests are in flight.
func (s *Session) WaitForSave() error {
	time.Sleep(s.cfg.SaveDelay)
	return s.Wait(s.defaultWait, func(b *Session) (bool, error) {
		val, err := b.driver.Eval(pendingScript)
		if err != nil {
			return false, err
		}
		idle, _ := val.(bool)
		return idle, nil
	})
}

// ==================== Window geometry ====================

// Maximize sets a fixed large window size. True OS maximize is not used
// because the target environment cannot reliably report maximized
// dimensions.
func (s *Session) Maximize() error {
	if err := s.driver.SetWindowSize(1000, 800); err != nil {
		return err
	}
	return s.applyWindowPosition()
}

// Breakpoint resizes the window to a responsive-width breakpoint.
func (s *Session) Breakpoint(width int) error {
	if err := s.driver.SetWindowSize(width, 800); err != nil {
		return err
	}
	return s.applyWindowPosition()
}

func (s *Session) applyWindowPosition() error {
	if s.cfg.WindowX == 0 && s.cfg.WindowY == 0 {
		return nil
	}
	return s.driver.SetWindowPosition(s.cfg.WindowX, s.cfg.WindowY)
}

// ForceVisible overrides style attributes on the element and its ancestor
// chain. This deliberately bypasses the visible-wait contract for elements
// hidden by layout (off-screen menus) where visibility is a false negative.
func (s *Session) ForceVisible(el Element) error {
	_, err := el.Eval(`() => {
		const force = (node) => {
			node.style.visibility = 'visible';
			node.style.display = 'block';
		};
		let node = this;
		while (node && node.style) {
			force(node);
			node = node.parentElement;
		}
	}`)
	return err
}

// ==================== Gestures ====================

// Actions returns a compound gesture builder bound to the session. Steps
// are queued and executed sequentially by Perform.
func (s *Session) Actions() *Actions {
	return &Actions{session: s}
}

// Actions builds a compound pointer/keyboard gesture.
type Actions struct {
	session *Session
	ops     []func() error
}

// MoveTo queues a hover over the element.
func (a *Actions) MoveTo(el Element) *Actions {
	a.ops = append(a.ops, el.Hover)
	return a
}

// Click queues a click on the element.
func (a *Actions) Click(el Element) *Actions {
	a.ops = append(a.ops, el.Click)
	return a
}

// SendKeys queues typing into the element.
func (a *Actions) SendKeys(el Element, text string) *Actions {
	a.ops = append(a.ops, func() error { return el.SendKeys(text) })
	return a
}

// Pause queues a fixed delay between gesture steps.
func (a *Actions) Pause(d time.Duration) *Actions {
	a.ops = append(a.ops, func() error {
		time.Sleep(d)
		return nil
	})
	return a
}

// Perform runs the queued steps in order, stopping at the first failure.
func (a *Actions) Perform() error {
	for _, op := range a.ops {
		if err := op(); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Teardown ====================

// Quit tears down the browser connection. When this session is the shared
// one its manager slot is cleared first, so a later auto-managed step gets a
// fresh session.
func (s *Session) Quit() error {
	if s.manager != nil && !s.Secondary {
		s.manager.clear(s)
	}
	return s.driver.Quit()
}
