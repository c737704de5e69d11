package suites

import (
	"strings"
	"time"

	"dev/bravebird/ui-harness-go/pkg/browser"
	"dev/bravebird/ui-harness-go/pkg/runner"
)

// Spotlight covers the hire-me spotlight lifecycle: create through the
// multi-section form, responsive banner display, the published view, and
// deletion. Ordinals 04-06 are reserved for edit-flow steps that have not
// been written yet.
func Spotlight() *runner.Group {
	g := runner.NewGroup("spotlight")

	g.Setup = func(b *browser.Session) error {
		return b.Login("justa_tester")
	}

	g.MustStep("test_01_create", func(b *browser.Session) error {
		if err := b.Go("/spotlight"); err != nil {
			return err
		}
		pause(time.Second)
		if err := clickText(b, "Hire me"); err != nil {
			return err
		}

		// locations
		pause(500 * time.Millisecond)
		if err := typeNth(b, "input.location", 0, "austin"); err != nil {
			return err
		}
		if err := clickText(b, "Texas"); err != nil {
			return err
		}
		if err := clickText(b, "Add location"); err != nil {
			return err
		}
		if err := typeNth(b, "input.location", 1, "anchorage"); err != nil {
			return err
		}
		if err := clickText(b, "Alaska"); err != nil {
			return err
		}
		if err := clickEl(b, ".locations .delete"); err != nil {
			return err
		}

		// skills
		if err := typeNth(b, "input.skills", 0, "deleted skill"); err != nil {
			return err
		}
		if err := typeNth(b, "input.skills", 1, "skill two"); err != nil {
			return err
		}
		if err := typeNth(b, "input.skills", 2, "skill three"); err != nil {
			return err
		}
		if err := clickText(b, "Add more skills"); err != nil {
			return err
		}
		if err := typeNth(b, "input.skills", 3, "skill four"); err != nil {
			return err
		}
		if err := clickEl(b, ".skills .delete"); err != nil {
			return err
		}

		// work history
		if err := typeNth(b, "input.workhistory", 0, "microsoft"); err != nil {
			return err
		}
		if err := clickText(b, "Microsoft"); err != nil {
			return err
		}
		if err := clickText(b, "Add more companies"); err != nil {
			return err
		}
		if err := typeNth(b, "input.workhistory", 1, "cisco"); err != nil {
			return err
		}
		if err := clickText(b, "Cisco"); err != nil {
			return err
		}

		// education
		if err := typeNth(b, "input.education", 0, "uni"); err != nil {
			return err
		}
		if err := clickText(b, "Southern California"); err != nil {
			return err
		}
		if err := clickText(b, "Add more education"); err != nil {
			return err
		}
		if err := typeNth(b, "input.education", 1, "devry"); err != nil {
			return err
		}
		if err := clickText(b, "Devry"); err != nil {
			return err
		}

		// links
		if err := clickText(b, "Add more links"); err != nil {
			return err
		}
		if err := typeNth(b, ".links input.link", 0, "error"); err != nil {
			return err
		}
		if err := typeNth(b, ".links input.link", 1, "google.com"); err != nil {
			return err
		}
		if err := typeNth(b, ".links input.link", 2, "yahoo.com"); err != nil {
			return err
		}

		// required-field and URL validation fire on Next
		if err := clickText(b, "Next"); err != nil {
			return err
		}
		if err := expectText(b, "This field is required"); err != nil {
			return err
		}
		if err := expectText(b, "Please enter a valid URL"); err != nil {
			return err
		}

		if err := clickEl(b, ".links .delete"); err != nil {
			return err
		}
		if err := typeInto(b, "input.role", "initial role"); err != nil {
			return err
		}
		if err := typeInto(b, "#headline", "initial headline"); err != nil {
			return err
		}
		if err := clickText(b, "Next"); err != nil {
			return err
		}

		btn, err := b.El("#btn")
		if err != nil {
			return err
		}
		if err := btn.Clear(); err != nil {
			return err
		}
		if err := btn.SendKeys("hiremenow"); err != nil {
			return err
		}
		if err := typeInto(b, "#msg", "cuz I said so"); err != nil {
			return err
		}

		// publish navigates away
		origURL, err := b.Driver().CurrentURL()
		if err != nil {
			return err
		}
		if err := clickText(b, "Publish"); err != nil {
			return err
		}
		return b.Wait(0, func(b *browser.Session) (bool, error) {
			current, err := b.Driver().CurrentURL()
			if err != nil {
				return false, err
			}
			return current != origURL, nil
		})
	})

	g.MustStep("test_02_bar_display", func(b *browser.Session) error {
		if err := b.Breakpoint(1000); err != nil {
			return err
		}
		banner, err := b.El(".spotlight-banner")
		if err != nil {
			return err
		}
		shown, err := banner.Displayed()
		if err != nil {
			return err
		}
		if !shown {
			return browser.Assertionf("spotlight banner hidden at desktop width")
		}

		if err := b.Breakpoint(320); err != nil {
			return err
		}
		if !b.NotFind(".spotlight-banner", 0) {
			return browser.Assertionf("spotlight banner still displayed at mobile width")
		}
		return b.Maximize()
	})

	g.MustStep("test_03_view", func(b *browser.Session) error {
		if err := clickText(b, "hiremenow"); err != nil {
			return err
		}

		for _, text := range []string{
			"initial role",
			"skill two",
			"skill three",
			"skill four",
			"Anchorage",
			"Microsoft",
			"Cisco",
			"University of Southern California",
			"Devry",
		} {
			if err := expectText(b, text); err != nil {
				return err
			}
		}

		if !b.NotContains("deleted", "", 0) {
			return browser.Assertionf("deleted skill still visible on spotlight view")
		}
		if !b.NotContains("Texas", "", 0) {
			return browser.Assertionf("removed location still visible on spotlight view")
		}

		for _, link := range []string{"http://google.com", "http://yahoo.com"} {
			el, err := b.Contains(link)
			if err != nil {
				return err
			}
			href, err := el.Attribute("href")
			if err != nil {
				return err
			}
			if !strings.Contains(href, link) {
				return browser.Assertionf("link href %q does not contain %q", href, link)
			}
		}
		return nil
	})

	g.MustStep("test_07_delete", func(b *browser.Session) error {
		if err := b.Go("/spotlight"); err != nil {
			return err
		}
		pause(time.Second)
		if err := clickText(b, "Delete this Spotlight"); err != nil {
			return err
		}

		// confirm in the dialog; navigates away
		origURL, err := b.Driver().CurrentURL()
		if err != nil {
			return err
		}
		dialog, err := b.El(".ui-dialog")
		if err != nil {
			return err
		}
		confirm, err := dialog.Find(browser.ByXPath, `.//*[contains(text(),'Delete')]`)
		if err != nil {
			return err
		}
		if err := confirm.Click(); err != nil {
			return err
		}
		if err := b.Wait(0, func(b *browser.Session) (bool, error) {
			current, err := b.Driver().CurrentURL()
			if err != nil {
				return false, err
			}
			return current != origURL, nil
		}); err != nil {
			return err
		}

		if !b.NotContains("hiremenow", "", 0) {
			return browser.Assertionf("deleted spotlight still referenced on page")
		}
		return nil
	})

	g.Teardown = func(b *browser.Session) error {
		return b.Quit()
	}

	return g
}
