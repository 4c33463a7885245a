// Package shop holds the page objects of the demo shop application.
package shop

import "github.com/entrhq/pagekit/pkg/pages"

// Page names as registered with a resolver
const (
	Login                 = "LoginPage"
	Feedback              = "FeedbackPage"
	TwoFactorVerification = "TwoFactorVerificationPage"
	BoDashboard           = "BoDashboardPage"
)

// Register adds every shop page to r.
func Register(r *pages.Resolver) error {
	registrations := []struct {
		name string
		d    pages.Descriptor
		ctor pages.Constructor
	}{
		{Login, pages.Path("/login"), newLoginPage},
		{Feedback, pages.Path("/feedback"), newFeedbackPage},
		{TwoFactorVerification, pages.Path("/two-factor-verification"), newTwoFactorVerificationPage},
		{BoDashboard, pages.Path("/dashboard"), newBoDashboardPage},
	}
	for _, reg := range registrations {
		if err := r.Register(reg.name, reg.d, reg.ctor); err != nil {
			return err
		}
	}
	return nil
}
