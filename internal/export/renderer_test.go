package export

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SadLabib/Spendit/internal/core"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Attributes: []Attribute{
			{Name: "Id", Value: "1"},
			{Name: "UserName", Value: "alice"},
			{Name: "Email", Value: "alice@example.com"},
			{Name: "EmailConfirmed", Value: "false"},
			{Name: "PhoneNumber", Value: "null"},
			{Name: "PhoneNumberConfirmed", Value: "false"},
			{Name: "TwoFactorEnabled", Value: "false"},
		},
		ExternalLogins: []ExternalLogin{
			{Provider: "Google", ProviderKey: "g-123"},
		},
		Categories: []core.Category{
			{ID: 3, UserID: 1, Title: "Food", Icon: "🍔", Type: "Expense"},
		},
		Transactions: []core.Transaction{
			{
				ID:         7,
				CategoryID: 3,
				Amount:     core.Money{Cents: 1250},
				Date:       time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
				Category:   &core.Category{ID: 3, Title: "Food", Icon: "🍔", Type: "Expense"},
			},
		},
		GeneratedAt: time.Date(2024, time.March, 2, 15, 4, 5, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "pdf", want: FormatPDF},
		{input: "PDF", want: FormatPDF},
		{input: "Csv", want: FormatCSV},
		{input: " html ", want: FormatHTML},
		{input: "xml", wantErr: true},
		{input: "", wantErr: true},
		{input: "pd f", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, core.ErrUnsupportedFormat) {
					t.Fatalf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderCSV(t *testing.T) {
	out := renderCSV(testSnapshot())

	for _, want := range []string{
		",User Data\n",
		",Category Data\n",
		",Transaction Data\n",
		"Id,1\n",
		"Google external login provider key,g-123\n",
		"Authenticator Key,None\n",
		"3,\"Food\",🍔,Expense\n",
		`7,"🍔 Food","$12.50","March 01, 2024",No note provided` + "\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("csv output missing %q\n%s", want, out)
		}
	}
}

func TestRenderCSVQuoting(t *testing.T) {
	snap := testSnapshot()
	snap.Transactions[0].Note = `say "cheese"`

	out := renderCSV(snap)
	if !strings.Contains(out, `"say ""cheese"""`) {
		t.Fatalf("embedded quotes not doubled:\n%s", out)
	}

	// The transaction section must survive a strict CSV parse.
	section := out[strings.Index(out, "Transaction ID,"):]
	records, err := csv.NewReader(strings.NewReader(section)).ReadAll()
	if err != nil {
		t.Fatalf("transaction section is not valid csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want header + 1 row", len(records))
	}
	row := records[1]
	want := []string{"7", "🍔 Food", "$12.50", "March 01, 2024", `say "cheese"`}
	for i, f := range want {
		if row[i] != f {
			t.Errorf("field %d = %q, want %q", i, row[i], f)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	snap := testSnapshot()
	snap.AuthenticatorKey = "ABCDEF"

	display := renderHTML(snap, styleDisplay)
	print := renderHTML(snap, stylePrint)

	if !strings.Contains(display, "background-color: #2c3e50") {
		t.Error("display variant missing dark table header")
	}
	if !strings.Contains(print, "background-color: #ffffff") {
		t.Error("print variant missing white table header")
	}

	for _, want := range []string{
		"<h1 class=\"header\">Spendit Data</h1>",
		"<tr><td>UserName</td><td>alice</td></tr>",
		"<tr><td>Google external login provider key</td><td>g-123</td></tr>",
		"<tr><td>Authenticator Key</td><td>ABCDEF</td></tr>",
		"<tr><td>3</td><td>Food</td><td>🍔</td><td>Expense</td></tr>",
		"<td>🍔 Food</td><td>$12.50</td><td>March 01, 2024</td><td>No note provided</td>",
		"*Generated by Spendit on 02 Mar, 2024 03:04:05 PM UTC time",
	} {
		if !strings.Contains(display, want) {
			t.Errorf("html output missing %q", want)
		}
	}
}

func TestRenderHTMLEscapesValues(t *testing.T) {
	snap := testSnapshot()
	snap.Transactions[0].Note = `<script>alert("x")</script>`

	out := renderHTML(snap, styleDisplay)
	if strings.Contains(out, "<script>") {
		t.Fatal("note rendered without escaping")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatal("escaped note not found in output")
	}
}

type stubEngine struct {
	pdf  []byte
	err  error
	html string
}

func (e *stubEngine) RenderPDF(_ context.Context, html string) ([]byte, error) {
	e.html = html
	return e.pdf, e.err
}

func TestRendererRender(t *testing.T) {
	engine := &stubEngine{pdf: []byte("%PDF-1.4")}
	r := NewRenderer(engine)
	snap := testSnapshot()

	tests := []struct {
		format      Format
		contentType string
		filename    string
	}{
		{FormatHTML, "text/html", "PersonalData.html"},
		{FormatCSV, "text/csv", "PersonalData.csv"},
		{FormatPDF, "application/pdf", "PersonalData.pdf"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			doc, err := r.Render(context.Background(), snap, tt.format)
			if err != nil {
				t.Fatalf("Render(%s): %v", tt.format, err)
			}
			if doc.ContentType != tt.contentType {
				t.Errorf("content type = %q, want %q", doc.ContentType, tt.contentType)
			}
			if doc.Filename != tt.filename {
				t.Errorf("filename = %q, want %q", doc.Filename, tt.filename)
			}
			if len(doc.Data) == 0 {
				t.Error("empty document data")
			}
		})
	}

	// The PDF path must feed the engine the print style.
	if !strings.Contains(engine.html, "background-color: #ffffff") {
		t.Error("pdf engine did not receive the print-styled html")
	}
}

func TestRenderEmptySnapshot(t *testing.T) {
	snap := &Snapshot{GeneratedAt: time.Date(2024, time.March, 2, 15, 4, 5, 0, time.UTC)}

	html := renderHTML(snap, styleDisplay)
	for _, want := range []string{
		"User Data", "Category Data", "Transaction Data",
		"<th>Category ID</th>", "<th>Transaction ID</th>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("empty html export missing %q", want)
		}
	}
	// No authenticator enrolled still renders the row with its fallback.
	if !strings.Contains(html, "None") {
		t.Error("empty html export missing authenticator fallback row")
	}

	csv := renderCSV(snap)
	for _, want := range []string{
		",User Data", ",Category Data", ",Transaction Data",
		"Category ID,Title,Icon,Type",
		"Transaction ID,Category,Amount,Date,Note",
	} {
		if !strings.Contains(csv, want) {
			t.Errorf("empty csv export missing %q", want)
		}
	}
}

func TestRendererEngineFailure(t *testing.T) {
	engineErr := errors.New("browser crashed")
	r := NewRenderer(&stubEngine{err: engineErr})

	_, err := r.Render(context.Background(), testSnapshot(), FormatPDF)
	if !errors.Is(err, engineErr) {
		t.Fatalf("error = %v, want wrapped engine failure", err)
	}
}
