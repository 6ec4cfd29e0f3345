package bootstrap

import (
	"context"
	"fmt"
)

// FormType distinguishes the two auth forms.
type FormType string

const (
	FormLogin  FormType = "login"
	FormSignup FormType = "signup"
)

// FormData is what a front end reads from the form before submitting.
type FormData struct {
	Type            FormType
	Email           string
	Password        string
	ConfirmPassword string
}

// HandleSubmit dispatches a form submission. Front ends read fields into
// FormData and render the returned Outcome; all decisions happen here.
func (c *Client) HandleSubmit(ctx context.Context, form FormData) Outcome {
	switch form.Type {
	case FormLogin:
		return c.SubmitLogin(ctx, form.Email, form.Password)
	case FormSignup:
		return c.SubmitSignup(ctx, form.Email, form.Password, form.ConfirmPassword)
	default:
		return failure(fmt.Errorf("unknown form type %q", form.Type))
	}
}
