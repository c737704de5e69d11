package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"dev/bravebird/ui-harness-go/pkg/config"
)

// Rod drives a browser over the DevTools protocol. It is the only shipped
// Driver backend; everything above it talks to the Driver interface.
type Rod struct {
	browser  *rod.Browser
	page     *rod.Page
	implicit time.Duration
}

// NewRod launches a browser and opens a blank page.
func NewRod(cfg config.Settings) (*Rod, error) {
	l := launcher.New()

	// Use CHROME_BIN if set (Docker environment)
	if cfg.ChromeBin != "" {
		l = l.Bin(cfg.ChromeBin)
	}

	l = l.Headless(cfg.Browser == "chrome-headless")

	// Chrome flags for Docker compatibility
	l = l.Set("no-sandbox")
	l = l.Set("disable-gpu")
	l = l.Set("disable-dev-shm-usage")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &Rod{browser: b, page: page}, nil
}

// Page exposes the raw rod page for operations the curated Driver surface
// does not cover.
func (d *Rod) Page() *rod.Page { return d.page }

func (d *Rod) Navigate(url string) error {
	if err := d.page.Navigate(url); err != nil {
		return &DriverError{Op: "navigate " + url, Err: err}
	}
	if err := d.page.WaitLoad(); err != nil {
		return &DriverError{Op: "wait load " + url, Err: err}
	}
	return nil
}

func (d *Rod) CurrentURL() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", &DriverError{Op: "page info", Err: err}
	}
	return info.URL, nil
}

func (d *Rod) Find(strategy Strategy, value string) (Element, error) {
	page := d.page
	if d.implicit > 0 {
		page = page.Timeout(d.implicit)
	}

	var el *rod.Element
	var err error
	switch strategy {
	case ByXPath:
		el, err = page.ElementX(value)
	case ByLinkText:
		el, err = page.ElementX(fmt.Sprintf(`//a[normalize-space(text())=%s]`, xpathLiteral(value)))
	case ByPartialLinkText:
		el, err = page.ElementX(fmt.Sprintf(`//a[contains(text(),%s)]`, xpathLiteral(value)))
	default:
		el, err = page.Element(cssFor(strategy, value))
	}
	if err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Strategy: strategy, Value: value}
		}
		return nil, &DriverError{Op: fmt.Sprintf("find %s %q", strategy, value), Err: err}
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

func (d *Rod) FindAll(strategy Strategy, value string) ([]Element, error) {
	var els rod.Elements
	var err error
	switch strategy {
	case ByXPath, ByLinkText, ByPartialLinkText:
		els, err = d.page.ElementsX(xpathFor(strategy, value))
	default:
		els, err = d.page.Elements(cssFor(strategy, value))
	}
	if err != nil {
		return nil, &DriverError{Op: fmt.Sprintf("find all %s %q", strategy, value), Err: err}
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (d *Rod) Eval(js string, args ...interface{}) (interface{}, error) {
	res, err := d.page.Eval(js, args...)
	if err != nil {
		return nil, &DriverError{Op: "eval", Err: err}
	}
	return res.Value.Val(), nil
}

func (d *Rod) SetImplicitWait(wait time.Duration) { d.implicit = wait }

func (d *Rod) ImplicitWait() time.Duration { return d.implicit }

func (d *Rod) SetWindowSize(width, height int) error {
	bounds := &proto.BrowserBounds{Width: &width, Height: &height}
	if err := d.page.SetWindow(bounds); err != nil {
		return &DriverError{Op: "set window size", Err: err}
	}
	return nil
}

func (d *Rod) SetWindowPosition(x, y int) error {
	bounds := &proto.BrowserBounds{Left: &x, Top: &y}
	if err := d.page.SetWindow(bounds); err != nil {
		return &DriverError{Op: "set window position", Err: err}
	}
	return nil
}

func (d *Rod) Screenshot() ([]byte, error) {
	data, err := d.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, &DriverError{Op: "screenshot", Err: err}
	}
	return data, nil
}

func (d *Rod) Quit() error {
	if err := d.browser.Close(); err != nil {
		return &DriverError{Op: "quit", Err: err}
	}
	return nil
}

// rodElement adapts *rod.Element to the Element interface, classifying the
// protocol's node errors into the harness taxonomy.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click() error {
	return classify("click", e.el.Click(proto.InputMouseButtonLeft, 1))
}

func (e *rodElement) SendKeys(text string) error {
	return classify("send keys", e.el.Input(text))
}

func (e *rodElement) Clear() error {
	if err := e.el.SelectAllText(); err != nil {
		return classify("clear", err)
	}
	return classify("clear", e.el.Type(input.Backspace))
}

func (e *rodElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", classify("text", err)
	}
	return text, nil
}

func (e *rodElement) Attribute(name string) (string, error) {
	val, err := e.el.Attribute(name)
	if err != nil {
		return "", classify("attribute "+name, err)
	}
	if val == nil {
		return "", nil
	}
	return *val, nil
}

func (e *rodElement) Displayed() (bool, error) {
	visible, err := e.el.Visible()
	if err != nil {
		return false, classify("displayed", err)
	}
	return visible, nil
}

func (e *rodElement) TagName() (string, error) {
	res, err := e.el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", classify("tag name", err)
	}
	return res.Value.Str(), nil
}

func (e *rodElement) Find(strategy Strategy, value string) (Element, error) {
	var el *rod.Element
	var err error
	switch strategy {
	case ByXPath, ByLinkText, ByPartialLinkText:
		el, err = e.el.ElementX(xpathFor(strategy, value))
	default:
		el, err = e.el.Element(cssFor(strategy, value))
	}
	if err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Strategy: strategy, Value: value}
		}
		return nil, classify(fmt.Sprintf("find %s %q", strategy, value), err)
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) Eval(js string) (interface{}, error) {
	res, err := e.el.Eval(js)
	if err != nil {
		return nil, classify("eval", err)
	}
	return res.Value.Val(), nil
}

func (e *rodElement) Hover() error {
	return classify("hover", e.el.Hover())
}

// cssFor renders non-xpath strategies down to a CSS selector.
func cssFor(strategy Strategy, value string) string {
	switch strategy {
	case ByID:
		return fmt.Sprintf("[id=%q]", value)
	case ByName:
		return fmt.Sprintf("[name=%q]", value)
	case ByClassName:
		return "." + value
	case ByTagName:
		return value
	default:
		return value
	}
}

func xpathFor(strategy Strategy, value string) string {
	switch strategy {
	case ByLinkText:
		return fmt.Sprintf(`//a[normalize-space(text())=%s]`, xpathLiteral(value))
	case ByPartialLinkText:
		return fmt.Sprintf(`//a[contains(text(),%s)]`, xpathLiteral(value))
	default:
		return value
	}
}

// xpathLiteral quotes a string for embedding in an XPath expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		quoted = append(quoted, `"`+part+`"`)
	}
	return "concat(" + strings.Join(quoted, ",") + ")"
}

func isNotFound(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var notFound *rod.ElementNotFoundError
	return errors.As(err, &notFound)
}

// classify maps protocol-level node errors onto the harness taxonomy so the
// retry loop can tell staleness apart from other driver failures.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op}
	}
	var cdpErr *cdp.Error
	if errors.As(err, &cdpErr) {
		msg := cdpErr.Message
		if strings.Contains(msg, "Could not find node") ||
			strings.Contains(msg, "Cannot find context") ||
			strings.Contains(msg, "Node with given id does not belong to the document") {
			return &StaleElementError{Op: op}
		}
	}
	return &DriverError{Op: op, Err: err}
}
