package export

import (
	"fmt"
	"html/template"
	"strings"
)

// tableStyle selects the header palette. Browser downloads get the
// dark header; print output keeps a white background so the PDF stays
// legible on paper.
type tableStyle int

const (
	styleDisplay tableStyle = iota
	stylePrint
)

const footerTimeLayout = "02 Jan, 2006 03:04:05 PM"

func (s tableStyle) headerCSS() string {
	if s == stylePrint {
		return "th { background-color: #ffffff; color: #333333; font-weight: bold; }"
	}
	return "th { background-color: #2c3e50; color: #ffffff; font-weight: bold; }"
}

// renderHTML builds the export page. Every stored value passes through
// HTML escaping before it reaches the markup.
func renderHTML(snap *Snapshot, style tableStyle) string {
	var b strings.Builder

	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\n")
	}
	esc := template.HTMLEscapeString

	line("<html>")
	line("<head>")
	line("<style>")
	line("table { border-collapse: collapse; width: 100%; border: 2px solid #333; margin-bottom: 40px; }")
	line("th, td { border: 1px solid #333; text-align: left; padding: 8px; }")
	line(style.headerCSS())
	line(".container { max-width: 800px; margin: 0 auto; padding: 20px; }")
	line(".header { font-size: 24px; margin-bottom: 30px; }")
	line(".sub-header { font-size: 18px; margin-bottom: 15px; }")
	line(".footer { font-size: 14px; text-align: right; }")
	line("</style>")
	line("</head>")
	line("<body>")

	line(`<div class="container">`)
	line(`<h1 class="header">Spendit Data</h1>`)

	line(`<h2 class="sub-header">User Data</h2>`)
	line("<table>")
	line("<tr><th>Property</th><th>Value</th></tr>")
	for _, attr := range snap.Attributes {
		line(fmt.Sprintf("<tr><td>%s</td><td>%s</td></tr>", esc(attr.Name), esc(attr.Value)))
	}
	for _, l := range snap.ExternalLogins {
		line(fmt.Sprintf("<tr><td>%s external login provider key</td><td>%s</td></tr>",
			esc(l.Provider), esc(l.ProviderKey)))
	}
	line(fmt.Sprintf("<tr><td>Authenticator Key</td><td>%s</td></tr>", esc(authenticatorKey(snap))))
	line("</table>")

	line(`<h2 class="sub-header">Category Data</h2>`)
	line("<table>")
	line("<tr><th>Category ID</th><th>Title</th><th>Icon</th><th>Type</th></tr>")
	for _, c := range snap.Categories {
		line(fmt.Sprintf("<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			c.ID, esc(c.Title), esc(c.Icon), esc(c.Type)))
	}
	line("</table>")

	line(`<h2 class="sub-header">Transaction Data</h2>`)
	line("<table>")
	line("<tr><th>Transaction ID</th><th>Category</th><th>Amount</th><th>Date</th><th>Note</th></tr>")
	for _, t := range snap.Transactions {
		line(fmt.Sprintf("<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			t.ID,
			esc(t.Category.TitleWithIcon()),
			esc(t.Amount.Format()),
			t.Date.Format(transactionDateLayout),
			esc(noteOrPlaceholder(t.Note))))
	}
	line("</table>")

	line(fmt.Sprintf(`<p class="footer">%s</p>`, esc(footerText(snap))))

	line("</div>")
	line("</body>")
	line("</html>")

	return b.String()
}

// transactionDateLayout renders dates like "March 01, 2024".
const transactionDateLayout = "January 02, 2006"

func noteOrPlaceholder(note string) string {
	if note == "" {
		return "No note provided"
	}
	return note
}

func authenticatorKey(snap *Snapshot) string {
	if snap.AuthenticatorKey == "" {
		return "None"
	}
	return snap.AuthenticatorKey
}

func footerText(snap *Snapshot) string {
	zone, _ := snap.GeneratedAt.Zone()
	return fmt.Sprintf("*Generated by Spendit on %s %s time",
		snap.GeneratedAt.Format(footerTimeLayout), zone)
}
