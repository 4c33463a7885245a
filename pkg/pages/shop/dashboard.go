package shop

import (
	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/pages"
)

var (
	dashboardHeading = ByDataAttribute("bo-dashboard-title")
	dashboardLogout  = ByDataAttribute("bo-logout-button")
)

// BoDashboardPage is the back-office landing page.
type BoDashboardPage struct {
	*browser.PageContext
}

func newBoDashboardPage(pc *browser.PageContext) (pages.Object, error) {
	if pc == nil {
		return nil, errNilPageContext
	}
	return &BoDashboardPage{PageContext: pc}, nil
}

func (p *BoDashboardPage) Heading() (string, error) {
	return p.Text(dashboardHeading)
}

func (p *BoDashboardPage) Logout() error {
	return p.Click(dashboardLogout)
}
