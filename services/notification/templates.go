package notification

import (
	"fmt"
	"regexp"
)

// EmailTemplate is a rendered subject/html/text triple.
type EmailTemplate struct {
	Subject string
	HTML    string
	Text    string
}

// Template names understood by Render.
const (
	TemplateInvoiceSent            = "invoice_sent"
	TemplatePaymentReminderOverdue = "payment_reminder_overdue"
	TemplateSubscriptionCreated    = "subscription_created"
	TemplatePaymentSuccessful      = "payment_successful"
)

// Danish-localized billing mail. Placeholders use {{name}} substitution;
// an unknown placeholder is left intact so a missing variable is visible in
// the output rather than silently blanked.
var templates = map[string]EmailTemplate{
	TemplateInvoiceSent: {
		Subject: "Din faktura fra Lejio",
		HTML: `<html dir="ltr" lang="da">
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #1f2937;">Din faktura er klar</h1>
    <p>Hej {{renter_name}},</p>
    <p>Vi har genereret en faktura for dit biler leje hos Lejio.</p>
    <div style="background-color: #f3f4f6; padding: 20px; margin: 20px 0; border-radius: 8px;">
      <p><strong>Faktura nr.:</strong> {{invoice_number}}</p>
      <p><strong>Beløb:</strong> {{amount}} DKK</p>
      <p><strong>Forfaldsdato:</strong> {{due_date}}</p>
      <p><strong>Status:</strong> {{status}}</p>
    </div>
    <a href="{{invoice_link}}" style="background-color: #3b82f6; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; display: inline-block;">Se faktura</a>
    <p style="color: #666; font-size: 12px; margin-top: 30px;">Spørgsmål? Kontakt os på support@lejio.dk</p>
  </div>
</body>
</html>`,
		Text: `Din faktura fra Lejio

Hej {{renter_name}},

Vi har genereret en faktura for dit biler leje hos Lejio.

Faktura nr.: {{invoice_number}}
Beløb: {{amount}} DKK
Forfaldsdato: {{due_date}}
Status: {{status}}

Se faktura: {{invoice_link}}

Spørgsmål? Kontakt os på support@lejio.dk`,
	},
	TemplatePaymentReminderOverdue: {
		Subject: "Rykkerskrivelse: Betaling forfalden",
		HTML: `<html dir="ltr" lang="da">
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #dc2626;">Betaling er forfalden</h1>
    <p>Hej {{renter_name}},</p>
    <p>Din faktura fra Lejio er {{days_overdue}} dage forfalden.</p>
    <div style="background-color: #fee2e2; padding: 20px; margin: 20px 0; border-radius: 8px; border-left: 4px solid #dc2626;">
      <p><strong>Faktura nr.:</strong> {{invoice_number}}</p>
      <p><strong>Forfaldsdato:</strong> {{due_date}}</p>
      <p><strong>Restbeløb:</strong> {{amount_due}} DKK</p>
    </div>
    <p>Venligst betaler så snart som muligt for at undgå yderligere renter og gebyrer.</p>
    <a href="{{payment_link}}" style="background-color: #dc2626; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; display: inline-block;">Betal nu</a>
    <p style="color: #666; font-size: 12px; margin-top: 30px;">Spørgsmål? Kontakt os på support@lejio.dk</p>
  </div>
</body>
</html>`,
		Text: `Rykkerskrivelse: Betaling forfalden

Hej {{renter_name}},

Din faktura fra Lejio er {{days_overdue}} dage forfalden.

Faktura nr.: {{invoice_number}}
Forfaldsdato: {{due_date}}
Restbeløb: {{amount_due}} DKK

Venligst betaler så snart som muligt for at undgå yderligere renter og gebyrer.

Betal nu: {{payment_link}}

Spørgsmål? Kontakt os på support@lejio.dk`,
	},
	TemplateSubscriptionCreated: {
		Subject: "Dit abonnement hos Lejio er oprettet",
		HTML: `<html dir="ltr" lang="da">
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #1f2937;">Abonnement oprettet</h1>
    <p>Hej {{renter_name}},</p>
    <p>Dit abonnement hos Lejio er nu oprettet!</p>
    <div style="background-color: #f3f4f6; padding: 20px; margin: 20px 0; border-radius: 8px;">
      <p><strong>Køretøj:</strong> {{vehicle_name}}</p>
      <p><strong>Daglig pris:</strong> {{daily_rate}} DKK</p>
      <p><strong>Næste fakturering:</strong> {{next_billing_date}}</p>
    </div>
    <a href="{{subscription_link}}" style="background-color: #3b82f6; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; display: inline-block;">Se abonnement</a>
    <p style="color: #666; font-size: 12px; margin-top: 30px;">Spørgsmål? Kontakt os på support@lejio.dk</p>
  </div>
</body>
</html>`,
		Text: `Dit abonnement hos Lejio er oprettet

Hej {{renter_name}},

Dit abonnement hos Lejio er nu oprettet!

Køretøj: {{vehicle_name}}
Daglig pris: {{daily_rate}} DKK
Næste fakturering: {{next_billing_date}}

Se abonnement: {{subscription_link}}

Spørgsmål? Kontakt os på support@lejio.dk`,
	},
	TemplatePaymentSuccessful: {
		Subject: "Betaling modtaget - tak",
		HTML: `<html dir="ltr" lang="da">
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #059669;">Betaling modtaget</h1>
    <p>Hej {{payer_name}},</p>
    <p>Vi har modtaget din betaling. Tak!</p>
    <div style="background-color: #ecfdf5; padding: 20px; margin: 20px 0; border-radius: 8px;">
      <p><strong>Beløb betalt:</strong> {{amount}} DKK</p>
      <p><strong>Betalingsdato:</strong> {{payment_date}}</p>
      <p><strong>Transaktions-ID:</strong> {{transaction_id}}</p>
    </div>
    <p>Din faktura er nu mærket som betalt.</p>
    <p style="color: #666; font-size: 12px; margin-top: 30px;">Spørgsmål? Kontakt os på support@lejio.dk</p>
  </div>
</body>
</html>`,
		Text: `Betaling modtaget - tak

Hej {{payer_name}},

Vi har modtaget din betaling. Tak!

Beløb betalt: {{amount}} DKK
Betalingsdato: {{payment_date}}
Transaktions-ID: {{transaction_id}}

Din faktura er nu mærket som betalt.

Spørgsmål? Kontakt os på support@lejio.dk`,
	},
}

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes {{name}} placeholders into the named template.
func Render(templateName string, variables map[string]string) (EmailTemplate, error) {
	tpl, ok := templates[templateName]
	if !ok {
		return EmailTemplate{}, fmt.Errorf("template not found: %s", templateName)
	}

	replace := func(text string) string {
		return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
			key := placeholderPattern.FindStringSubmatch(match)[1]
			if value, ok := variables[key]; ok {
				return value
			}
			return match
		})
	}

	return EmailTemplate{
		Subject: replace(tpl.Subject),
		HTML:    replace(tpl.HTML),
		Text:    replace(tpl.Text),
	}, nil
}
