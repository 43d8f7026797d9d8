package email

import (
	"bytes"
	"html/template"
	"log"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	DeliveredTmpl *template.Template
	FailedTmpl    *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	deliveredTmpl, err := template.New("delivered").Parse(orderDeliveredTemplate)
	if err != nil {
		return nil, err
	}

	failedTmpl, err := template.New("deliveryFailed").Parse(deliveryFailedTemplate)
	if err != nil {
		return nil, err
	}

	log.Println("Email templates parsed successfully.")
	return &TemplateManager{
		DeliveredTmpl: deliveredTmpl,
		FailedTmpl:    failedTmpl,
	}, nil
}

// TemplateData holds the dynamic data for an email template.
type TemplateData struct {
	OrderID     string
	RouteID     string
	DeliveredAt string
	Notes       string
}

// GenerateOrderDeliveredEmailHTML executes the delivered template with the provided data.
func (tm *TemplateManager) GenerateOrderDeliveredEmailHTML(data TemplateData) (string, error) {
	var body bytes.Buffer
	if err := tm.DeliveredTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// GenerateDeliveryFailedEmailHTML executes the failed-delivery template.
func (tm *TemplateManager) GenerateDeliveryFailedEmailHTML(data TemplateData) (string, error) {
	var body bytes.Buffer
	if err := tm.FailedTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// --- HTML Template Definitions ---

const orderDeliveredTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Your Order Was Delivered</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Order {{.OrderID}} delivered</h2>
	<p>Your order was delivered at {{.DeliveredAt}}.</p>
	{{if .Notes}}<p>Driver notes: {{.Notes}}</p>{{end}}
	<p>Thank you for shipping with us.</p>
</body>
</html>
`

const deliveryFailedTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Delivery Attempt Failed</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>We could not deliver order {{.OrderID}}</h2>
	<p>A delivery attempt on route {{.RouteID}} did not succeed.</p>
	{{if .Notes}}<p>Driver notes: {{.Notes}}</p>{{end}}
	<p>We will contact you to arrange another attempt.</p>
</body>
</html>
`
