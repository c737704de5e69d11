package browser

import "time"

// Strategy selects how a lookup value is interpreted.
type Strategy int

const (
	ByCSS Strategy = iota
	ByID
	ByName
	ByClassName
	ByTagName
	ByLinkText
	ByPartialLinkText
	ByXPath
)

func (s Strategy) String() string {
	switch s {
	case ByCSS:
		return "css selector"
	case ByID:
		return "id"
	case ByName:
		return "name"
	case ByClassName:
		return "class name"
	case ByTagName:
		return "tag name"
	case ByLinkText:
		return "link text"
	case ByPartialLinkText:
		return "partial link text"
	case ByXPath:
		return "xpath"
	default:
		return "unknown"
	}
}

// Driver is the synchronous remote-control boundary the session wrapper
// drives. Any backend implementing it is substitutable; the shipped backend
// is DevTools-protocol based (see rod.go).
//
// Every method blocks until the remote end responds or a timeout elapses.
type Driver interface {
	// Navigate performs a full navigation to an absolute URL.
	Navigate(url string) error

	// CurrentURL returns the URL of the page currently loaded.
	CurrentURL() (string, error)

	// Find resolves one element. It blocks up to the implicit wait and
	// returns a *NotFoundError if nothing matched in time.
	Find(strategy Strategy, value string) (Element, error)

	// FindAll resolves every matching element without waiting.
	FindAll(strategy Strategy, value string) ([]Element, error)

	// Eval runs a JavaScript function expression (e.g. "() => 1 + 1") in
	// the page and returns its value.
	Eval(js string, args ...interface{}) (interface{}, error)

	// SetImplicitWait bounds how long Find blocks for a match.
	SetImplicitWait(d time.Duration)

	// ImplicitWait returns the current Find bound.
	ImplicitWait() time.Duration

	SetWindowSize(width, height int) error
	SetWindowPosition(x, y int) error

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot() ([]byte, error)

	// Quit tears down the underlying browser connection.
	Quit() error
}

// Element is a handle to one DOM node in the currently loaded page. It is
// invalidated by navigation or DOM mutation; operations on a dead handle
// return a *StaleElementError.
type Element interface {
	Click() error
	SendKeys(text string) error
	Clear() error
	Text() (string, error)
	Attribute(name string) (string, error)
	Displayed() (bool, error)
	TagName() (string, error)

	// Find resolves a descendant of this element.
	Find(strategy Strategy, value string) (Element, error)

	// Eval runs a JavaScript function expression with this element bound
	// to `this`.
	Eval(js string) (interface{}, error)

	Hover() error
}
