package shop

import "fmt"

// ByDataAttribute returns the CSS selector for a data-ui-test attribute.
func ByDataAttribute(value string) string {
	return fmt.Sprintf("[data-ui-test='%s']", value)
}

// ValidationMessage is a user-facing form validation text.
type ValidationMessage string

const (
	NameRequired      ValidationMessage = "Name is required"
	EmailRequired     ValidationMessage = "Email is required"
	MessageRequired   ValidationMessage = "Message is required"
	InvalidLoginError ValidationMessage = "Invalid login/password. Please check the spelling and try again. You can also use recover password."
)

func (m ValidationMessage) String() string {
	return string(m)
}
