package shop

import (
	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/pages"
)

var twoFactorTitle = ByDataAttribute("two-factor-verification-title")

// TwoFactorVerificationPage is shown after a login that requires a second factor.
type TwoFactorVerificationPage struct {
	*browser.PageContext
}

func newTwoFactorVerificationPage(pc *browser.PageContext) (pages.Object, error) {
	if pc == nil {
		return nil, errNilPageContext
	}
	return &TwoFactorVerificationPage{PageContext: pc}, nil
}

// ExpectDisplayed waits for the document and then for the page title.
// A slow document load is tolerated; a missing title is an error.
func (p *TwoFactorVerificationPage) ExpectDisplayed() error {
	_ = p.WaitContentLoaded()
	_, err := p.WaitFor(twoFactorTitle)
	return err
}
