package export

import (
	"fmt"
	"strings"
)

// renderCSV writes the export as sectioned CSV. Sections are separated
// by a blank line and announced with a header line whose first cell is
// empty. Only free-text fields are quoted; ids, icons and types are
// machine values and stay bare.
func renderCSV(snap *Snapshot) string {
	var b strings.Builder

	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\n")
	}

	line(",User Data")
	line("Property,Value")
	for _, attr := range snap.Attributes {
		line(fmt.Sprintf("%s,%s", attr.Name, attr.Value))
	}
	for _, l := range snap.ExternalLogins {
		line(fmt.Sprintf("%s external login provider key,%s", l.Provider, l.ProviderKey))
	}
	line(fmt.Sprintf("Authenticator Key,%s", authenticatorKey(snap)))

	line("")
	line(",Category Data")
	line("Category ID,Title,Icon,Type")
	for _, c := range snap.Categories {
		line(fmt.Sprintf("%d,%s,%s,%s", c.ID, quote(c.Title), c.Icon, c.Type))
	}

	line("")
	line(",Transaction Data")
	line("Transaction ID,Category,Amount,Date,Note")
	for _, t := range snap.Transactions {
		note := t.Note
		if note == "" {
			note = "No note provided"
		} else {
			note = quote(note)
		}
		line(fmt.Sprintf("%d,%s,%s,%s,%s",
			t.ID,
			quote(t.Category.TitleWithIcon()),
			quote(t.Amount.Format()),
			quote(t.Date.Format(transactionDateLayout)),
			note))
	}

	return b.String()
}

// quote wraps a field in double quotes, doubling any embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
