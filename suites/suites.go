// Package suites holds the ordered UI test groups that run against the
// target application. Each suite registers numbered steps against a shared
// session; helpers here keep the step bodies close to the interactions they
// describe.
package suites

import (
	"sort"
	"time"

	"dev/bravebird/ui-harness-go/pkg/browser"
	"dev/bravebird/ui-harness-go/pkg/runner"
)

var registry = map[string]func() *runner.Group{
	"login":     Login,
	"spotlight": Spotlight,
}

// Names lists the registered suite names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get builds the named suite, or returns nil if it is not registered.
func Get(name string) *runner.Group {
	build, ok := registry[name]
	if !ok {
		return nil
	}
	return build()
}

// ==================== Step helpers ====================

// clickText clicks the first element containing the text.
func clickText(s *browser.Session, text string) error {
	el, err := s.Contains(text)
	if err != nil {
		return err
	}
	return el.Click()
}

// expectText asserts the page contains the text somewhere.
func expectText(s *browser.Session, text string) error {
	if _, err := s.Contains(text); err != nil {
		return browser.Assertionf("expected page to contain %q: %v", text, err)
	}
	return nil
}

// nth returns the idx-th element matching the selector.
func nth(s *browser.Session, selector string, idx int) (browser.Element, error) {
	els, err := s.FindAll(selector)
	if err != nil {
		return nil, err
	}
	if idx >= len(els) {
		return nil, browser.Assertionf("%s: wanted element %d, page has %d", selector, idx, len(els))
	}
	return els[idx], nil
}

// clickNth clicks the idx-th element matching the selector.
func clickNth(s *browser.Session, selector string, idx int) error {
	el, err := nth(s, selector, idx)
	if err != nil {
		return err
	}
	return el.Click()
}

// typeNth sends text to the idx-th element matching the selector.
func typeNth(s *browser.Session, selector string, idx int, text string) error {
	el, err := nth(s, selector, idx)
	if err != nil {
		return err
	}
	return el.SendKeys(text)
}

// clickEl clicks the element once it is present and visible.
func clickEl(s *browser.Session, selector string) error {
	el, err := s.El(selector)
	if err != nil {
		return err
	}
	return el.Click()
}

// typeInto sends text to the element once it is present and visible.
func typeInto(s *browser.Session, selector, text string) error {
	el, err := s.El(selector)
	if err != nil {
		return err
	}
	return el.SendKeys(text)
}

func pause(d time.Duration) {
	time.Sleep(d)
}
