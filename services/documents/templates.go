package documents

import "html/template"

var funcs = template.FuncMap{
	"money": func(v float64) string { return formatMoney(v) },
	"date":  func(t interface{}) string { return formatDate(t) },
}

var invoiceTemplate = template.Must(template.New("invoice").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Invoice {{.Invoice.Number}}</title></head>
<body>
<h1>Invoice {{.Invoice.Number}}</h1>
<p>Status: {{.Invoice.Status}}</p>
<p>Booking: {{.Booking.ID}} ({{date .Booking.StartDate}} to {{date .Booking.EndDate}})</p>
<table>
  <tr><td>Rental total</td><td>{{money .Invoice.Amount}} {{.Invoice.Currency}}</td></tr>
  <tr><td>Platform fee</td><td>{{money .Invoice.PlatformFee}}</td></tr>
  <tr><td>Owner amount</td><td>{{money .Invoice.OwnerAmount}}</td></tr>
</table>
{{if .Invoice.PaymentID}}<p>Payment reference: {{.Invoice.PaymentID}}</p>{{end}}
</body></html>`))

var agreementTemplate = template.Must(template.New("agreement").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Rental agreement {{.ID}}</title></head>
<body>
<h1>Rental agreement</h1>
<p>Product {{.ProductID}} is rented by {{.RenterClerkID}} from {{.OwnerClerkID}}
from {{date .StartDate}} until {{date .EndDate}} for {{money .TotalPrice}}.</p>
<p>Late returns are charged per started day after the end date.</p>
<p>Pickup and return are confirmed by both parties with a one-time code.</p>
</body></html>`))

var receiptTemplate = template.Must(template.New("receipt").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Return receipt {{.ID}}</title></head>
<body>
<h1>Return receipt</h1>
<p>Booking {{.ID}} returned on {{date .ReturnDate}}{{if .DropLocation}} at {{.DropLocation}}{{end}}.</p>
<p>Return status: {{.ReturnStatus}}</p>
{{if gt .LateFee 0.0}}<p>Late fee: {{money .LateFee}}</p>{{end}}
</body></html>`))
