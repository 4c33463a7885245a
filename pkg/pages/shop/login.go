package shop

import (
	"errors"
	"fmt"

	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/pages"
)

var errNilPageContext = errors.New("page context is nil")

var (
	loginUsernameField = ByDataAttribute("customer-username-input")
	loginPasswordField = ByDataAttribute("customer-password-input")
	loginButton        = ByDataAttribute("customer-login-button")
	loginFormError     = "//section[@class='login']//div[contains(@class,'alert-danger')]"
)

// LoginPage is the customer login form.
type LoginPage struct {
	*browser.PageContext
}

func newLoginPage(pc *browser.PageContext) (pages.Object, error) {
	if pc == nil {
		return nil, errNilPageContext
	}
	return &LoginPage{PageContext: pc}, nil
}

func (p *LoginPage) FillUsername(value string) error {
	return p.Fill(loginUsernameField, value)
}

func (p *LoginPage) FillPassword(value string) error {
	return p.Fill(loginPasswordField, value)
}

func (p *LoginPage) ClickLogin() error {
	return p.Click(loginButton)
}

func (p *LoginPage) ClearUsername() error {
	return p.Clear(loginUsernameField)
}

func (p *LoginPage) ClearPassword() error {
	return p.Clear(loginPasswordField)
}

// Login fills both credentials and submits the form.
func (p *LoginPage) Login(username, password string) error {
	if err := p.FillUsername(username); err != nil {
		return err
	}
	if err := p.FillPassword(password); err != nil {
		return err
	}
	return p.ClickLogin()
}

func (p *LoginPage) Username() (string, error) {
	return p.InputValue(loginUsernameField)
}

func (p *LoginPage) Password() (string, error) {
	return p.InputValue(loginPasswordField)
}

// FormError returns the text of the login form alert.
func (p *LoginPage) FormError() (string, error) {
	return p.Text(loginFormError)
}

// ExpectFormError fails unless the login alert shows want.
func (p *LoginPage) ExpectFormError(want ValidationMessage) error {
	got, err := p.FormError()
	if err != nil {
		return err
	}
	if got != want.String() {
		return fmt.Errorf("login error message: expected %q, got %q", want, got)
	}
	return nil
}

// ExpectForm fails unless every login form control is present.
func (p *LoginPage) ExpectForm() error {
	var errs []error
	for _, sel := range []string{loginUsernameField, loginPasswordField, loginButton} {
		if _, err := p.WaitPresent(sel); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
