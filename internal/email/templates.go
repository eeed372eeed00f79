package email

import (
	htemplate "html/template"
	"strings"
	ttemplate "text/template"
)

// Templates por defecto. El operador puede reemplazarlos por archivo en una
// versión futura; por ahora son los únicos y cubren todos los kinds.

var subjects = map[Kind]string{
	KindActivation:                  "Account activation on {{.SiteName}}",
	KindConfirmation:                "{{.SiteName}} - Your account has been successfully created and activated!",
	KindPasswordReset:               "Password reset on {{.SiteName}}",
	KindPasswordChangedConfirmation: "{{.SiteName}} - Your password has been successfully changed!",
	KindUsernameReset:               "Username reset on {{.SiteName}}",
	KindUsernameChangedConfirmation: "{{.SiteName}} - Your username has been successfully changed!",
	KindPasswordlessRequest:         "Your sign-in code for {{.SiteName}}",
}

var textBodies = map[Kind]string{
	KindActivation: `You're receiving this email because you need to finish the activation process on {{.SiteName}}.

Please go to the following page to activate your account:
{{.Protocol}}://{{.Domain}}/{{.URL}}

Thanks for using our site!

The {{.SiteName}} team`,

	KindConfirmation: `Your account has been created and is ready to use!

Thanks for using our site!

The {{.SiteName}} team`,

	KindPasswordReset: `You're receiving this email because you requested a password reset for your user account at {{.SiteName}}.

Please go to the following page and choose a new password:
{{.Protocol}}://{{.Domain}}/{{.URL}}

Your username, in case you've forgotten: {{.Login}}

Thanks for using our site!

The {{.SiteName}} team`,

	KindPasswordChangedConfirmation: `You're receiving this email because your password has been changed at {{.SiteName}}.

If you did not make this change, reset your password immediately.

The {{.SiteName}} team`,

	KindUsernameReset: `You're receiving this email because you requested a username reset for your user account at {{.SiteName}}.

Please go to the following page and choose a new username:
{{.Protocol}}://{{.Domain}}/{{.URL}}

Thanks for using our site!

The {{.SiteName}} team`,

	KindUsernameChangedConfirmation: `You're receiving this email because your username has been changed at {{.SiteName}}.

Your new username is: {{.Login}}

The {{.SiteName}} team`,

	KindPasswordlessRequest: `You're receiving this email because you requested to sign in to {{.SiteName}}.

Your sign-in code is: {{.ShortToken}}

Or use this link to sign in directly:
{{.Protocol}}://{{.Domain}}/passwordless/{{.Token}}

If you did not request this, you can safely ignore this email.

The {{.SiteName}} team`,
}

// Solo los kinds con link llevan cuerpo HTML.
var htmlBodies = map[Kind]string{
	KindActivation: `<p>You're receiving this email because you need to finish the activation process on {{.SiteName}}.</p>
<p>Please go to the following page to activate your account:</p>
<p><a href="{{.Protocol}}://{{.Domain}}/{{.URL}}">{{.Protocol}}://{{.Domain}}/{{.URL}}</a></p>
<p>Thanks for using our site!</p>
<p>The {{.SiteName}} team</p>`,

	KindPasswordReset: `<p>You're receiving this email because you requested a password reset for your user account at {{.SiteName}}.</p>
<p>Please go to the following page and choose a new password:</p>
<p><a href="{{.Protocol}}://{{.Domain}}/{{.URL}}">{{.Protocol}}://{{.Domain}}/{{.URL}}</a></p>
<p>Your username, in case you've forgotten: {{.Login}}</p>
<p>Thanks for using our site!</p>
<p>The {{.SiteName}} team</p>`,

	KindUsernameReset: `<p>You're receiving this email because you requested a username reset for your user account at {{.SiteName}}.</p>
<p>Please go to the following page and choose a new username:</p>
<p><a href="{{.Protocol}}://{{.Domain}}/{{.URL}}">{{.Protocol}}://{{.Domain}}/{{.URL}}</a></p>
<p>Thanks for using our site!</p>
<p>The {{.SiteName}} team</p>`,
}

var (
	subjectTmpls = map[Kind]*ttemplate.Template{}
	textTmpls    = map[Kind]*ttemplate.Template{}
	htmlTmpls    = map[Kind]*htemplate.Template{}
)

func init() {
	for k, s := range subjects {
		subjectTmpls[k] = ttemplate.Must(ttemplate.New(string(k) + ".subject").Parse(s))
	}
	for k, s := range textBodies {
		textTmpls[k] = ttemplate.Must(ttemplate.New(string(k) + ".txt").Parse(s))
	}
	for k, s := range htmlBodies {
		htmlTmpls[k] = htemplate.Must(htemplate.New(string(k) + ".html").Parse(s))
	}
}

func render(kind Kind, ctx linkContext) (subject, text, html string, err error) {
	var sb strings.Builder
	if err = subjectTmpls[kind].Execute(&sb, ctx); err != nil {
		return
	}
	// Los subjects no pueden tener saltos de línea.
	subject = strings.Join(strings.Fields(sb.String()), " ")

	sb.Reset()
	if err = textTmpls[kind].Execute(&sb, ctx); err != nil {
		return
	}
	text = sb.String()

	if t, ok := htmlTmpls[kind]; ok {
		sb.Reset()
		if err = t.Execute(&sb, ctx); err != nil {
			return
		}
		html = sb.String()
	}
	return
}
