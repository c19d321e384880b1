package cli

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/client/storage"
	"github.com/dmitrijs2005/cryptnotes/internal/common"
)

// getSimpleText and getPassword are indirections swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for username, email and a confirmed password, then
// creates the account. Key generation happens behind a spinner.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		a.warn("Passwords do not match")
		return nil
	}

	err = a.withSpinner("Generating keys...", func() error {
		_, err := a.vault.Register(ctx, userName, email, password)
		return err
	})
	if err != nil {
		a.fail(err)
		return err
	}

	a.success("Account created, you can log in now")
	return nil
}

// Login prompts for credentials and unwraps the account keys.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		a.warn("Already logged in, log out first")
		return nil
	}

	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.withSpinner("Unlocking...", func() error {
		return a.vault.Login(ctx, userName, password)
	})
	if err != nil {
		a.logger.Debug(ctx, "login failed", "username", userName, "error", err)
		a.fail(err)
		return err
	}

	a.mu.Lock()
	a.userName = userName
	a.mu.Unlock()

	a.success("Logged in as " + userName)
	return nil
}

// Logout wipes the keys and ends the server session.
func (a *App) Logout(ctx context.Context) error {
	err := a.vault.Logout(ctx)

	a.mu.Lock()
	a.userName = ""
	a.mu.Unlock()

	if err != nil {
		a.fail(err)
		return err
	}
	a.success("Logged out")
	return nil
}

// SessionStatus prints when the server session ends. The server slides the
// session on every authenticated call, so the local idle clock follows.
func (a *App) SessionStatus(ctx context.Context) error {
	info, err := a.server.SessionInfo(ctx)
	if err != nil {
		a.vaultExpired(err)
		a.fail(err)
		return err
	}
	a.session.Touch()
	a.printSession(info)
	return nil
}

// Refresh extends the server session and the local idle clock by one idle
// window.
func (a *App) Refresh(ctx context.Context) error {
	info, err := a.server.RefreshSession(ctx)
	if err != nil {
		a.vaultExpired(err)
		a.fail(err)
		return err
	}
	a.session.Touch()
	a.printSession(info)
	return nil
}

func (a *App) printSession(info *storage.LoginResult) {
	a.printf("Session active until %s (idle timeout %s)\n",
		info.ExpiresAt.Local().Format(timeLayout), info.IdleTimeout.Round(time.Second))
}

// vaultExpired drops local keys when the server reports the session gone.
func (a *App) vaultExpired(err error) {
	if errors.Is(err, common.ErrSessionExpired) || errors.Is(err, common.ErrInvalidToken) {
		_ = a.vault.Logout(context.Background())
		a.mu.Lock()
		a.userName = ""
		a.mu.Unlock()
	}
}
