package shop

import (
	"fmt"

	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/pages"
)

var (
	feedbackNameField    = ByDataAttribute("feedback-name-input")
	feedbackEmailField   = ByDataAttribute("feedback-email-input")
	feedbackMessageField = ByDataAttribute("feedback-message-input")
	feedbackSendButton   = ByDataAttribute("feedback-send-button")
	feedbackConfirmation = ByDataAttribute("feedback-confirmation-message")
	feedbackNameError    = ByDataAttribute("feedback-name-error")
	feedbackEmailError   = ByDataAttribute("feedback-email-error")
	feedbackMessageError = ByDataAttribute("feedback-message-error")
)

// FeedbackField names one input of the feedback form.
type FeedbackField int

const (
	FieldName FeedbackField = iota
	FieldEmail
	FieldMessage
)

func (f FeedbackField) errorSelector() string {
	switch f {
	case FieldEmail:
		return feedbackEmailError
	case FieldMessage:
		return feedbackMessageError
	default:
		return feedbackNameError
	}
}

// FeedbackPage is the public contact form.
type FeedbackPage struct {
	*browser.PageContext
}

func newFeedbackPage(pc *browser.PageContext) (pages.Object, error) {
	if pc == nil {
		return nil, errNilPageContext
	}
	return &FeedbackPage{PageContext: pc}, nil
}

func (p *FeedbackPage) FillName(value string) error {
	return p.Fill(feedbackNameField, value)
}

func (p *FeedbackPage) FillEmail(value string) error {
	return p.Fill(feedbackEmailField, value)
}

func (p *FeedbackPage) FillMessage(value string) error {
	return p.Fill(feedbackMessageField, value)
}

func (p *FeedbackPage) ClickSend() error {
	return p.Click(feedbackSendButton)
}

// Submit fills the whole form and sends it. Empty values are left untouched.
func (p *FeedbackPage) Submit(name, email, message string) error {
	steps := []struct {
		value string
		fill  func(string) error
	}{
		{name, p.FillName},
		{email, p.FillEmail},
		{message, p.FillMessage},
	}
	for _, s := range steps {
		if s.value == "" {
			continue
		}
		if err := s.fill(s.value); err != nil {
			return err
		}
	}
	return p.ClickSend()
}

func (p *FeedbackPage) Confirmation() (string, error) {
	return p.Text(feedbackConfirmation)
}

// ExpectFieldError fails unless field shows the validation message want.
func (p *FeedbackPage) ExpectFieldError(field FeedbackField, want ValidationMessage) error {
	got, err := p.Text(field.errorSelector())
	if err != nil {
		return err
	}
	if got != want.String() {
		return fmt.Errorf("feedback field error: expected %q, got %q", want, got)
	}
	return nil
}
