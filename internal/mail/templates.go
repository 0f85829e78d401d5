// templates.go holds the HTML bodies for the transactional emails. Templates
// are parsed once at init; rendering only fills in the per-message fields.
package mail

import (
	"fmt"
	"html/template"
	"strings"
)

var (
	emailConfirmationTmpl = template.Must(template.New("email_confirmation").Parse(`<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1f2430;">
  <h2>Confirm your email address</h2>
  <p>Welcome to Fest! Enter this code in the app to confirm your email address:</p>
  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>
  <p>Or confirm with one click:</p>
  <p><a href="{{.Link}}" style="display: inline-block; padding: 10px 24px; background: #5145cd; color: #ffffff; text-decoration: none; border-radius: 6px;">Confirm email</a></p>
  <p style="color: #6b7280; font-size: 13px;">The code expires in one hour; the link stays valid for a day. If you did not create a Fest account you can safely ignore this email.</p>
</body>
</html>`))

	organizationInvitationTmpl = template.Must(template.New("organization_invitation").Parse(`<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1f2430;">
  <h2>You have been invited to {{.OrganizationName}}</h2>
  <p>{{.InviterEmail}} invited you to join <strong>{{.OrganizationName}}</strong> on Fest.</p>
  <p><a href="{{.Link}}" style="display: inline-block; padding: 10px 24px; background: #5145cd; color: #ffffff; text-decoration: none; border-radius: 6px;">Accept invitation</a></p>
  <p style="color: #6b7280; font-size: 13px;">This invitation link expires in 30 days. If you were not expecting it you can safely ignore this email.</p>
</body>
</html>`))

	inviteAcceptedTmpl = template.Must(template.New("invite_accepted").Parse(`<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1f2430;">
  <h2>Your invitation was accepted</h2>
  <p><strong>{{.MemberEmail}}</strong> accepted your invitation and joined <strong>{{.OrganizationName}}</strong> on Fest.</p>
</body>
</html>`))
)

func renderEmailConfirmation(code, link string) (*Message, error) {
	var body strings.Builder
	err := emailConfirmationTmpl.Execute(&body, struct {
		Code string
		Link string
	}{Code: code, Link: link})
	if err != nil {
		return nil, fmt.Errorf("failed to render email confirmation template: %w", err)
	}

	return &Message{
		Subject:  "Confirm your Fest email address",
		HTMLBody: body.String(),
		TextBody: fmt.Sprintf("Your Fest email confirmation code is %s. You can also confirm via %s", code, link),
	}, nil
}

func renderOrganizationInvitation(inviterEmail, organizationName, link string) (*Message, error) {
	var body strings.Builder
	err := organizationInvitationTmpl.Execute(&body, struct {
		InviterEmail     string
		OrganizationName string
		Link             string
	}{InviterEmail: inviterEmail, OrganizationName: organizationName, Link: link})
	if err != nil {
		return nil, fmt.Errorf("failed to render invitation template: %w", err)
	}

	return &Message{
		Subject:  fmt.Sprintf("You have been invited to %s on Fest", organizationName),
		HTMLBody: body.String(),
		TextBody: fmt.Sprintf("%s invited you to join %s on Fest. Accept here: %s", inviterEmail, organizationName, link),
	}, nil
}

func renderInviteAccepted(memberEmail, organizationName string) (*Message, error) {
	var body strings.Builder
	err := inviteAcceptedTmpl.Execute(&body, struct {
		MemberEmail      string
		OrganizationName string
	}{MemberEmail: memberEmail, OrganizationName: organizationName})
	if err != nil {
		return nil, fmt.Errorf("failed to render invite accepted template: %w", err)
	}

	return &Message{
		Subject:  fmt.Sprintf("%s joined %s on Fest", memberEmail, organizationName),
		HTMLBody: body.String(),
		TextBody: fmt.Sprintf("%s accepted your invitation and joined %s on Fest.", memberEmail, organizationName),
	}, nil
}
