// Package email construye y despacha los emails del ciclo de vida de cuentas.
// Los kinds con link (activation, password_reset, username_reset) extienden el
// contexto con uid, token firmado y la URL del cliente externo ya formateada.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/metrics"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
	"github.com/dropDatabas3/accountd/internal/security/linktoken"
)

// Dispatcher arma el contexto por kind y postea al transporte configurado.
type Dispatcher struct {
	Sender Sender
	Codec  *linktoken.Codec

	Domain   string
	SiteName string
	Protocol string

	// URL templates del operador, con placeholders {uid} y {token}.
	ActivationURL           string
	PasswordResetConfirmURL string
	UsernameResetConfirmURL string

	LoginField string
}

// SendActivation envía el link de activación.
func (d *Dispatcher) SendActivation(ctx context.Context, u *repository.User) error {
	return d.sendLink(ctx, KindActivation, u, linktoken.PurposeActivation, d.ActivationURL)
}

// SendConfirmation envía el email de bienvenida.
func (d *Dispatcher) SendConfirmation(ctx context.Context, u *repository.User) error {
	return d.send(ctx, KindConfirmation, u, d.baseContext(u))
}

// SendPasswordReset envía el link de reset de password.
func (d *Dispatcher) SendPasswordReset(ctx context.Context, u *repository.User) error {
	return d.sendLink(ctx, KindPasswordReset, u, linktoken.PurposePasswordReset, d.PasswordResetConfirmURL)
}

// SendPasswordChangedConfirmation notifica un cambio de password.
func (d *Dispatcher) SendPasswordChangedConfirmation(ctx context.Context, u *repository.User) error {
	return d.send(ctx, KindPasswordChangedConfirmation, u, d.baseContext(u))
}

// SendUsernameReset envía el link de reset de username.
func (d *Dispatcher) SendUsernameReset(ctx context.Context, u *repository.User) error {
	return d.sendLink(ctx, KindUsernameReset, u, linktoken.PurposeUsernameReset, d.UsernameResetConfirmURL)
}

// SendUsernameChangedConfirmation notifica un cambio de username.
func (d *Dispatcher) SendUsernameChangedConfirmation(ctx context.Context, u *repository.User) error {
	return d.send(ctx, KindUsernameChangedConfirmation, u, d.baseContext(u))
}

// SendPasswordlessRequest envía el par de challenge tokens.
func (d *Dispatcher) SendPasswordlessRequest(ctx context.Context, u *repository.User, long, short string) error {
	c := d.baseContext(u)
	c.Token = long
	c.ShortToken = short
	return d.send(ctx, KindPasswordlessRequest, u, c)
}

func (d *Dispatcher) baseContext(u *repository.User) linkContext {
	return linkContext{
		Login:    u.LoginValue(d.LoginField),
		Email:    u.Email,
		Domain:   d.Domain,
		SiteName: d.SiteName,
		Protocol: d.Protocol,
	}
}

func (d *Dispatcher) sendLink(ctx context.Context, kind Kind, u *repository.User, p linktoken.Purpose, urlTemplate string) error {
	c := d.baseContext(u)
	c.UID = linktoken.EncodeUID(u.ID)
	c.Token = d.Codec.Make(u, p)
	c.URL = strings.NewReplacer("{uid}", c.UID, "{token}", c.Token).Replace(urlTemplate)
	return d.send(ctx, kind, u, c)
}

func (d *Dispatcher) send(ctx context.Context, kind Kind, u *repository.User, c linkContext) error {
	if u.Email == "" {
		return fmt.Errorf("email: user %s has no email address", u.ID)
	}
	subject, text, html, err := render(kind, c)
	if err != nil {
		return fmt.Errorf("email: render %s: %w", kind, err)
	}
	msg := Message{To: u.Email, Subject: subject, TextBody: text, HTMLBody: html}
	if err := d.Sender.Send(msg); err != nil {
		return err
	}
	metrics.EmailsSentTotal.WithLabelValues(string(kind)).Inc()
	logger.From(ctx).Debug("email dispatched",
		logger.EmailKind(string(kind)),
		logger.UserID(u.ID),
	)
	return nil
}
