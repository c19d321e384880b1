package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dmitrijs2005/cryptnotes/internal/client/session"
	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/fatih/color"
)

func (a *App) printf(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) success(msg string) {
	a.printf("%s %s\n", color.GreenString("✓"), msg)
}

func (a *App) warn(msg string) {
	a.printf("%s %s\n", color.YellowString("!"), msg)
}

func (a *App) fail(err error) {
	a.printf("%s %s\n", color.RedString("✗"), describe(err))
}

// describe turns an error into the line shown to the user. Credential and
// decryption failures share one message.
func describe(err error) string {
	var fe *common.FieldError
	switch {
	case errors.Is(err, common.ErrAuthentication):
		return "Invalid credentials"
	case errors.Is(err, common.ErrSessionExpired), errors.Is(err, common.ErrInvalidToken):
		return "Session expired, please log in again"
	case errors.Is(err, session.ErrNotLoggedIn):
		return "Not logged in"
	case errors.Is(err, session.ErrBusy):
		return "Login already in progress"
	case errors.Is(err, common.ErrUnavailable):
		return "Server unavailable, try again later"
	case errors.Is(err, common.ErrNotFound):
		return "Note not found"
	case errors.As(err, &fe):
		return fmt.Sprintf("Invalid %s: %v", fe.Field, fe.Err)
	default:
		return err.Error()
	}
}

// withSpinner runs fn on its own goroutine while a spinner turns on the
// terminal.
func (a *App) withSpinner(msg string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.out))
	s.Suffix = " " + msg
	s.Start()

	done := make(chan error, 1)
	go func() { done <- fn() }()
	err := <-done

	s.Stop()
	return err
}
