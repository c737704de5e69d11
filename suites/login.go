package suites

import (
	"time"

	"dev/bravebird/ui-harness-go/pkg/browser"
	"dev/bravebird/ui-harness-go/pkg/runner"
)

const badCredentialsBanner = "Your email or username doesn’t match your password."

// Login covers the login page: rejected credentials, the forgot-password
// flow, a successful login, and the secondary links.
func Login() *runner.Group {
	g := runner.NewGroup("login")

	g.Setup = func(b *browser.Session) error {
		return b.Go("/login")
	}

	g.MustStep("test_01_badlogin", func(b *browser.Session) error {
		// bad username
		if err := b.Login("justa_badusername"); err != nil {
			return err
		}
		if err := clickNth(b, "button.button-submit", 0); err != nil {
			return err
		}
		if err := expectText(b, badCredentialsBanner); err != nil {
			return err
		}

		// close-banner
		pause(2 * time.Second)
		if err := clickNth(b, "div.banner-close", 0); err != nil {
			return err
		}

		// second rejection behaves the same
		if err := b.Login("justa_badusername"); err != nil {
			return err
		}
		if err := clickNth(b, "button.button-submit", 0); err != nil {
			return err
		}
		if err := expectText(b, badCredentialsBanner); err != nil {
			return err
		}

		pause(2 * time.Second)
		return clickNth(b, "div.banner-close", 0)
	})

	g.MustStep("test_02_forgotpassword", func(b *browser.Session) error {
		if err := clickNth(b, "span.forgotpassword-link", 0); err != nil {
			return err
		}
		pause(2 * time.Second)

		identifier := func() (browser.Element, error) {
			return b.Find("identifier", browser.ByID)
		}
		submitAndExpect := func(text string) error {
			if err := clickNth(b, "button.submitbutton", 0); err != nil {
				return err
			}
			pause(2 * time.Second)
			return expectText(b, text)
		}

		// bad username
		el, err := identifier()
		if err != nil {
			return err
		}
		if err := el.SendKeys("bad$username$"); err != nil {
			return err
		}
		if err := submitAndExpect("That username does not exist. Please check your username, or enter your email address."); err != nil {
			return err
		}
		if err := el.Clear(); err != nil {
			return err
		}

		// empty username
		if err := submitAndExpect("This field is required."); err != nil {
			return err
		}

		// bad email
		if el, err = identifier(); err != nil {
			return err
		}
		if err := el.SendKeys("@bad.email"); err != nil {
			return err
		}
		if err := submitAndExpect("The username portion of the email address is invalid"); err != nil {
			return err
		}
		if err := el.Clear(); err != nil {
			return err
		}

		// good username
		if el, err = identifier(); err != nil {
			return err
		}
		if err := el.SendKeys("justa_tester"); err != nil {
			return err
		}
		return submitAndExpect("We have emailed you a link to change your password.")
	})

	g.MustStep("test_03_goodlogin", func(b *browser.Session) error {
		if err := b.Login("justa_tester"); err != nil {
			return err
		}
		name, err := nth(b, "span.viewer-display-name", 0)
		if err != nil {
			return err
		}
		got, err := name.Text()
		if err != nil {
			return err
		}
		if got != "Justa" {
			return browser.Assertionf("viewer display name: got %q, want %q", got, "Justa")
		}
		pause(2 * time.Second)
		return nil
	})

	g.MustStep("test_04_logout", func(b *browser.Session) error {
		// TODO: assert the remember-me cookie expiry once the seeded tester
		// account has a stable cookie configuration.
		return b.Logout()
	})

	g.MustStep("test_05_page_links", func(b *browser.Session) error {
		pause(2 * time.Second)
		if err := clickNth(b, "span.signuptoggle", 0); err != nil {
			return err
		}
		return expectText(b, "New?")
	})

	g.Teardown = func(b *browser.Session) error {
		return b.Quit()
	}

	return g
}
