// Package templates renders the transactional email bodies. The token is
// embedded in the link path; the plaintext never appears anywhere else.
package templates

import (
	"bytes"
	htmpl "html/template"
	"strconv"
	"time"
)

var verifyTmpl = htmpl.Must(htmpl.New("verify_email").Parse(`<h1>Email Verification</h1>
<p>Hi {{.Name}},</p>
<p>Please click the link below to verify your email address. The link expires in {{.ExpiresIn}}.</p>
<p><a href="{{.Link}}" clicktracking="off">Verification Link</a></p>
`))

var resetTmpl = htmpl.Must(htmpl.New("reset_password").Parse(`<h1>Password Reset Request</h1>
<p>Hi {{.Name}},</p>
<p>Please click the link below to reset your password. The link expires in {{.ExpiresIn}}.</p>
<p><a href="{{.Link}}" clicktracking="off">Reset Password</a></p>
<p>If you did not request a password reset, please ignore this email.</p>
`))

type linkData struct {
	Name      string
	Link      string
	ExpiresIn string
}

// VerifyEmail renders the verification message. Returns subject and HTML body.
func VerifyEmail(name, link string, ttl time.Duration) (string, string, error) {
	var buf bytes.Buffer
	err := verifyTmpl.Execute(&buf, linkData{Name: name, Link: link, ExpiresIn: humanDuration(ttl)})
	return "Email Verification", buf.String(), err
}

// ResetPassword renders the password reset message.
func ResetPassword(name, link string, ttl time.Duration) (string, string, error) {
	var buf bytes.Buffer
	err := resetTmpl.Execute(&buf, linkData{Name: name, Link: link, ExpiresIn: humanDuration(ttl)})
	return "Password Reset", buf.String(), err
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return strconv.Itoa(h) + " hours"
	}
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return strconv.Itoa(m) + " minutes"
}
