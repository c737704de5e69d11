package browser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"dev/bravebird/ui-harness-go/pkg/config"
)

// ==================== Fakes ====================

type fakeElement struct {
	text      string
	tag       string
	attrs     map[string]string
	displayed bool

	clicks  int
	typed   []string
	cleared int
	evaled  []string
}

func (e *fakeElement) Click() error { e.clicks++; return nil }
func (e *fakeElement) SendKeys(text string) error {
	e.typed = append(e.typed, text)
	return nil
}
func (e *fakeElement) Clear() error             { e.cleared++; return nil }
func (e *fakeElement) Text() (string, error)    { return e.text, nil }
func (e *fakeElement) Displayed() (bool, error) { return e.displayed, nil }
func (e *fakeElement) TagName() (string, error) { return e.tag, nil }
func (e *fakeElement) Hover() error             { return nil }
func (e *fakeElement) Eval(js string) (interface{}, error) {
	e.evaled = append(e.evaled, js)
	return nil, nil
}
func (e *fakeElement) Attribute(name string) (string, error) {
	return e.attrs[name], nil
}
func (e *fakeElement) Find(strategy Strategy, value string) (Element, error) {
	return nil, &NotFoundError{Strategy: strategy, Value: value}
}

type fakeDriver struct {
	url       string
	implicit  time.Duration
	navigated []string

	findFn func(Strategy, string) (Element, error)
	evalFn func(string, ...interface{}) (interface{}, error)

	width, height int
	x, y          int
	quitCalls     int
}

func (d *fakeDriver) Navigate(url string) error {
	d.navigated = append(d.navigated, url)
	d.url = url
	return nil
}
func (d *fakeDriver) CurrentURL() (string, error) { return d.url, nil }
func (d *fakeDriver) Find(strategy Strategy, value string) (Element, error) {
	if d.findFn != nil {
		return d.findFn(strategy, value)
	}
	return nil, &NotFoundError{Strategy: strategy, Value: value}
}
func (d *fakeDriver) FindAll(strategy Strategy, value string) ([]Element, error) {
	el, err := d.Find(strategy, value)
	if err != nil {
		return nil, nil
	}
	return []Element{el}, nil
}
func (d *fakeDriver) Eval(js string, args ...interface{}) (interface{}, error) {
	if d.evalFn != nil {
		return d.evalFn(js, args...)
	}
	return true, nil
}
func (d *fakeDriver) SetImplicitWait(wait time.Duration) { d.implicit = wait }
func (d *fakeDriver) ImplicitWait() time.Duration        { return d.implicit }
func (d *fakeDriver) SetWindowSize(w, h int) error {
	d.width, d.height = w, h
	return nil
}
func (d *fakeDriver) SetWindowPosition(x, y int) error {
	d.x, d.y = x, y
	return nil
}
func (d *fakeDriver) Screenshot() ([]byte, error) { return []byte("png"), nil }
func (d *fakeDriver) Quit() error                 { d.quitCalls++; return nil }

func newTestSession(driver *fakeDriver) *Session {
	cfg := config.Settings{
		DomainName: "about.me",
		Schema:     "http",
		SaveDelay:  0,
	}
	// Start outside the target domain so the readiness gate stays out of
	// the way unless a test navigates in.
	if driver.url == "" {
		driver.url = "http://elsewhere.example/"
	}
	return NewSession(driver, cfg)
}

// ==================== Navigation ====================

func TestGoBuildsDomainRelativeURL(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"with slash", "/login", "http://about.me/login"},
		{"without slash", "login", "http://about.me/login"},
		{"nested", "spotlight/edit", "http://about.me/spotlight/edit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := &fakeDriver{}
			s := newTestSession(driver)

			if err := s.Go(tt.path); err != nil {
				t.Fatalf("Go(%q) error: %v", tt.path, err)
			}
			got := driver.navigated[len(driver.navigated)-1]
			if got != tt.want {
				t.Errorf("Go(%q) navigated to %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// ==================== Readiness gate ====================

func TestWaitUntilReady(t *testing.T) {
	tests := []struct {
		name       string
		readyAfter int // poll count after which the flag flips
		wantErr    bool
	}{
		{"ready immediately", 0, false},
		{"ready mid-window", 5, false},
		{"ready on last poll", 29, false},
		{"never ready", 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			polls := 0
			driver := &fakeDriver{
				url: "http://about.me/profile",
				evalFn: func(js string, args ...interface{}) (interface{}, error) {
					polls++
					return polls > tt.readyAfter, nil
				},
			}
			s := newTestSession(driver)

			err := s.WaitUntilReady()
			if tt.wantErr {
				var assertion *AssertionError
				if !errors.As(err, &assertion) {
					t.Fatalf("WaitUntilReady() = %v, want AssertionError", err)
				}
				if polls != 30 {
					t.Errorf("polled %d times, want 30", polls)
				}
				return
			}
			if err != nil {
				t.Fatalf("WaitUntilReady() error: %v", err)
			}
		})
	}
}

func TestWaitUntilReadySkipsOutOfDomainAndStaticContent(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"other domain", "http://example.org/page"},
		{"static content", "http://about.me/content/terms.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := &fakeDriver{
				url: tt.url,
				evalFn: func(js string, args ...interface{}) (interface{}, error) {
					t.Error("readiness flag polled on exempt URL")
					return false, nil
				},
			}
			s := newTestSession(driver)

			if err := s.WaitUntilReady(); err != nil {
				t.Fatalf("WaitUntilReady() error: %v", err)
			}
		})
	}
}

func TestWaitUntilReadyUsesCustomCheck(t *testing.T) {
	driver := &fakeDriver{
		url: "http://about.me/profile",
		evalFn: func(js string, args ...interface{}) (interface{}, error) {
			t.Error("default readiness script evaluated despite custom check")
			return false, nil
		},
	}
	s := newTestSession(driver)
	called := false
	s.ReadyCheck = func(*Session) (bool, error) {
		called = true
		return true, nil
	}

	if err := s.WaitUntilReady(); err != nil {
		t.Fatalf("WaitUntilReady() error: %v", err)
	}
	if !called {
		t.Error("custom ReadyCheck never invoked")
	}
}

// ==================== Retry ====================

func TestRetry(t *testing.T) {
	transient := &DriverError{Op: "flaky", Err: errors.New("boom")}

	tests := []struct {
		name      string
		attempts  int
		failures  int // transient failures before success
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"first try succeeds", 3, 0, nil, 1, false},
		{"succeeds before budget", 3, 2, transient, 3, false},
		{"budget exhausted", 3, 5, transient, 3, true},
		{"single attempt", 1, 1, transient, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(&fakeDriver{})

			calls := 0
			err := s.Retry(tt.attempts, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})

			if calls != tt.wantCalls {
				t.Errorf("op called %d times, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("Retry() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryStopsOnNonTransientError(t *testing.T) {
	s := newTestSession(&fakeDriver{})
	permanent := &NotFoundError{Strategy: ByCSS, Value: ".gone"}

	calls := 0
	err := s.Retry(5, func() error {
		calls++
		return permanent
	})

	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Retry() error = %v, want NotFoundError", err)
	}
}

// ==================== Wait ====================

func TestWaitTimesOutWithLastError(t *testing.T) {
	s := newTestSession(&fakeDriver{})

	cause := errors.New("still loading")
	err := s.Wait(300*time.Millisecond, func(*Session) (bool, error) {
		return false, cause
	})

	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Wait() error = %v, want TimeoutError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("timeout does not wrap last predicate error: %v", err)
	}
}

func TestWaiterUntil(t *testing.T) {
	s := newTestSession(&fakeDriver{})

	calls := 0
	err := s.Waiter(2 * time.Second).Until(func(*Session) (bool, error) {
		calls++
		return calls >= 3, nil
	})
	if err != nil {
		t.Fatalf("Until() error: %v", err)
	}
	if calls != 3 {
		t.Errorf("predicate called %d times, want 3", calls)
	}
}

// ==================== Negative probes ====================

func TestNotFindRestoresDefaultWait(t *testing.T) {
	driver := &fakeDriver{}
	s := newTestSession(driver)
	s.SetDefaultWait(7 * time.Second)

	if !s.NotFind(".missing", 0) {
		t.Error("NotFind() = false for a selector with no match")
	}
	if s.DefaultWait() != 7*time.Second {
		t.Errorf("default wait = %s after probe, want 7s", s.DefaultWait())
	}
	if driver.implicit != 7*time.Second {
		t.Errorf("driver implicit wait = %s after probe, want 7s", driver.implicit)
	}
}

func TestNotFindSeesHiddenElementAsAbsent(t *testing.T) {
	driver := &fakeDriver{
		findFn: func(Strategy, string) (Element, error) {
			return &fakeElement{displayed: false}, nil
		},
	}
	s := newTestSession(driver)

	if !s.NotFind(".hidden", 0) {
		t.Error("NotFind() = false for a present but hidden element")
	}
}

func TestNotContains(t *testing.T) {
	tests := []struct {
		name string
		find func(Strategy, string) (Element, error)
		want bool
	}{
		{
			"text absent",
			nil, // default: not found
			true,
		},
		{
			"text hidden",
			func(Strategy, string) (Element, error) {
				return &fakeElement{displayed: false}, nil
			},
			true,
		},
		{
			"text displayed",
			func(Strategy, string) (Element, error) {
				return &fakeElement{displayed: true}, nil
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(&fakeDriver{findFn: tt.find})
			if got := s.NotContains("gone", "", 0); got != tt.want {
				t.Errorf("NotContains() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ==================== Lookup ====================

func TestElWaitsForVisibility(t *testing.T) {
	el := &fakeElement{displayed: false}
	var polls int
	driver := &fakeDriver{
		findFn: func(Strategy, string) (Element, error) {
			polls++
			if polls > 2 {
				el.displayed = true
			}
			return el, nil
		},
	}
	s := newTestSession(driver)

	got, err := s.El(".panel")
	if err != nil {
		t.Fatalf("El() error: %v", err)
	}
	if got != Element(el) {
		t.Error("El() returned a different element")
	}
	if shown, _ := got.Displayed(); !shown {
		t.Error("El() returned before the element was displayed")
	}
}

func TestFindDefaultsToCSS(t *testing.T) {
	var usedStrategy Strategy
	var usedValue string
	driver := &fakeDriver{
		findFn: func(st Strategy, value string) (Element, error) {
			usedStrategy, usedValue = st, value
			return &fakeElement{displayed: true}, nil
		},
	}
	s := newTestSession(driver)

	if _, err := s.Find(".button"); err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if usedStrategy != ByCSS || usedValue != ".button" {
		t.Errorf("Find() used %s %q, want css selector .button", usedStrategy, usedValue)
	}

	if _, err := s.Find("identifier", ByID); err != nil {
		t.Fatalf("Find(ByID) error: %v", err)
	}
	if usedStrategy != ByID {
		t.Errorf("Find(ByID) used strategy %s", usedStrategy)
	}
}

func TestContainsFallsBackToDescendants(t *testing.T) {
	var queries []string
	driver := &fakeDriver{
		findFn: func(st Strategy, value string) (Element, error) {
			queries = append(queries, value)
			// Direct text() match on the tag fails; descendant search hits.
			if len(queries) == 1 {
				return nil, &NotFoundError{Strategy: st, Value: value}
			}
			return &fakeElement{text: "Delete", displayed: true}, nil
		},
	}
	s := newTestSession(driver)

	el, err := s.Contains("Delete", "div")
	if err != nil {
		t.Fatalf("Contains() error: %v", err)
	}
	if el == nil {
		t.Fatal("Contains() returned nil element")
	}
	if len(queries) != 2 {
		t.Fatalf("driver queried %d times, want 2 (direct then descendant)", len(queries))
	}
	want := `//div//*[contains(text(),"Delete")]`
	if queries[1] != want {
		t.Errorf("fallback query = %q, want %q", queries[1], want)
	}
}

func TestContainsRetriesNotFound(t *testing.T) {
	calls := 0
	driver := &fakeDriver{
		findFn: func(st Strategy, value string) (Element, error) {
			calls++
			// First attempt misses entirely; second attempt finds it.
			if calls == 1 {
				return nil, &NotFoundError{Strategy: st, Value: value}
			}
			return &fakeElement{text: "Saved", displayed: true}, nil
		},
	}
	s := newTestSession(driver)

	if _, err := s.Contains("Saved"); err != nil {
		t.Fatalf("Contains() error: %v", err)
	}
	if calls != 2 {
		t.Errorf("driver queried %d times, want 2", calls)
	}
}

// ==================== Login ====================

func TestLoginAsFillsFormAndRecordsIdentity(t *testing.T) {
	els := map[string]*fakeElement{
		"#login":                 {displayed: true},
		"#password":              {displayed: true},
		`button[value="submit"]`: {displayed: true},
	}
	driver := &fakeDriver{
		findFn: func(st Strategy, value string) (Element, error) {
			if el, ok := els[value]; ok {
				return el, nil
			}
			return nil, &NotFoundError{Strategy: st, Value: value}
		},
	}
	s := newTestSession(driver)

	if err := s.Login("justa_tester"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if got := driver.navigated[0]; got != "http://about.me/login" {
		t.Errorf("navigated to %q, want the login page", got)
	}
	if got := els["#login"].typed; len(got) != 1 || got[0] != "justa_tester" {
		t.Errorf("username field received %v", got)
	}
	if got := els["#password"].typed; len(got) != 1 || got[0] != DefaultPassword {
		t.Errorf("password field received %v", got)
	}
	if els[`button[value="submit"]`].clicks != 1 {
		t.Error("submit button not clicked")
	}
	if s.Username != "justa_tester" || s.Password != DefaultPassword {
		t.Errorf("session identity = %q/%q", s.Username, s.Password)
	}
}

// ==================== Window geometry ====================

func TestWindowGeometry(t *testing.T) {
	driver := &fakeDriver{}
	s := newTestSession(driver)

	if err := s.Maximize(); err != nil {
		t.Fatalf("Maximize() error: %v", err)
	}
	if driver.width != 1000 || driver.height != 800 {
		t.Errorf("Maximize() set %dx%d, want 1000x800", driver.width, driver.height)
	}

	if err := s.Breakpoint(320); err != nil {
		t.Fatalf("Breakpoint() error: %v", err)
	}
	if driver.width != 320 || driver.height != 800 {
		t.Errorf("Breakpoint(320) set %dx%d, want 320x800", driver.width, driver.height)
	}
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name    string
		find    func(Strategy, string) (Element, error)
		wantErr bool
	}{
		{
			"logged-out marker shown",
			func(Strategy, string) (Element, error) {
				return &fakeElement{text: "Please Log In", displayed: true}, nil
			},
			false,
		},
		{
			"marker absent",
			nil, // default: not found
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := &fakeDriver{findFn: tt.find}
			s := newTestSession(driver)

			err := s.Logout()
			if got := driver.navigated[0]; got != "http://about.me/logout_handler" {
				t.Errorf("Logout() navigated to %q, want the logout handler", got)
			}
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Logout() error: %v", err)
				}
				return
			}
			var assertion *AssertionError
			if !errors.As(err, &assertion) {
				t.Fatalf("Logout() = %v, want AssertionError", err)
			}
		})
	}
}

// ==================== Application helpers ====================

func TestAssertBannerText(t *testing.T) {
	banner := &fakeElement{text: "Profile saved", displayed: true}
	driver := &fakeDriver{
		findFn: func(st Strategy, value string) (Element, error) {
			if value == ".notification.banner" {
				return banner, nil
			}
			return nil, &NotFoundError{Strategy: st, Value: value}
		},
	}
	s := newTestSession(driver)
	s.SetDefaultWait(300 * time.Millisecond)

	if err := s.AssertBannerText("saved"); err != nil {
		t.Fatalf("AssertBannerText() error: %v", err)
	}

	err := s.AssertBannerText("deleted")
	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("AssertBannerText() = %v, want TimeoutError for non-matching banner", err)
	}
}

func TestWaitForSave(t *testing.T) {
	polls := 0
	driver := &fakeDriver{
		evalFn: func(js string, args ...interface{}) (interface{}, error) {
			if js != pendingScript {
				t.Errorf("polled script %q, want the pending-requests probe", js)
			}
			polls++
			return polls >= 3, nil
		},
	}
	s := newTestSession(driver)

	if err := s.WaitForSave(); err != nil {
		t.Fatalf("WaitForSave() error: %v", err)
	}
	if polls != 3 {
		t.Errorf("pending-requests probe polled %d times, want 3", polls)
	}
}

func TestForceVisible(t *testing.T) {
	s := newTestSession(&fakeDriver{})
	el := &fakeElement{displayed: false}

	if err := s.ForceVisible(el); err != nil {
		t.Fatalf("ForceVisible() error: %v", err)
	}
	if len(el.evaled) != 1 {
		t.Fatalf("element evaluated %d scripts, want 1", len(el.evaled))
	}
	script := el.evaled[0]
	if !strings.Contains(script, "visibility") || !strings.Contains(script, "parentElement") {
		t.Errorf("style-override script missing ancestor walk: %q", script)
	}
}

func TestHomeNavigatesToDomainRoot(t *testing.T) {
	driver := &fakeDriver{}
	s := newTestSession(driver)

	if err := s.Home(true); err != nil {
		t.Fatalf("Home() error: %v", err)
	}
	if driver.width != 1000 || driver.height != 800 {
		t.Errorf("Home(true) did not apply standard geometry, got %dx%d", driver.width, driver.height)
	}
	if got := driver.navigated[0]; got != "http://about.me" {
		t.Errorf("Home() navigated to %q, want domain root", got)
	}
}

// ==================== Gestures ====================

func TestActionsPerformInOrder(t *testing.T) {
	s := newTestSession(&fakeDriver{})
	el := &fakeElement{displayed: true}

	err := s.Actions().
		MoveTo(el).
		Click(el).
		SendKeys(el, "hello").
		Perform()
	if err != nil {
		t.Fatalf("Perform() error: %v", err)
	}
	if el.clicks != 1 {
		t.Errorf("element clicked %d times, want 1", el.clicks)
	}
	if len(el.typed) != 1 || el.typed[0] != "hello" {
		t.Errorf("element received keys %v", el.typed)
	}
}

// ==================== XPath literals ====================

func TestXpathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{"it's", `"it's"`},
		{`say "hi"`, `'say "hi"'`},
		{`both ' and "`, `concat("both ' and ",'"',"")`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := xpathLiteral(tt.in); got != tt.want {
				t.Errorf("xpathLiteral(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
