package core

import (
	"strings"
	"testing"
	"time"
)

func TestCategoryValidate(t *testing.T) {
	valid := Category{UserID: 1, Title: "Food", Icon: "🍔", Type: TypeExpense}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid category rejected: %v", err)
	}

	cases := []struct {
		name string
		cat  Category
		want error
	}{
		{"empty title", Category{Title: "  "}, ErrEmptyTitle},
		{"title too long", Category{Title: strings.Repeat("a", 51)}, ErrTitleTooLong},
		{"icon too long", Category{Title: "ok", Icon: "🍔🍔🍔🍔🍔🍔"}, ErrIconTooLong},
		{"type too long", Category{Title: "ok", Type: strings.Repeat("x", 16)}, ErrTypeTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cat.Validate(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCategoryNormalizeDefaultsType(t *testing.T) {
	c := Category{Title: " Food ", Icon: " 🍔 "}
	c.Normalize()
	if c.Type != TypeExpense {
		t.Fatalf("expected default type %q, got %q", TypeExpense, c.Type)
	}
	if c.Title != "Food" || c.Icon != "🍔" {
		t.Fatalf("expected trimmed fields, got %+v", c)
	}
}

func TestCategoryTitleWithIcon(t *testing.T) {
	c := Category{Title: "Food", Icon: "🍔"}
	if got := c.TitleWithIcon(); got != "🍔 Food" {
		t.Fatalf("TitleWithIcon = %q", got)
	}
}

func TestTransactionValidate(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ok := Transaction{CategoryID: 1, Amount: Money{Cents: 1250}, Date: date}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	if err := (Transaction{CategoryID: 0, Amount: Money{Cents: 1}, Date: date}).Validate(); err != ErrNoCategory {
		t.Fatalf("placeholder category should be rejected, got %v", err)
	}
	if err := (Transaction{CategoryID: 1, Date: date}).Validate(); err != ErrInvalidAmount {
		t.Fatalf("zero amount should be rejected, got %v", err)
	}
	if err := (Transaction{CategoryID: 1, Amount: Money{Cents: 1}}).Validate(); err != ErrZeroDate {
		t.Fatalf("zero date should be rejected, got %v", err)
	}
}

func TestPickerOptions(t *testing.T) {
	cats := []Category{{ID: 1, Title: "Food", Icon: "🍔"}}
	opts := PickerOptions(cats)
	if len(opts) != 2 {
		t.Fatalf("expected 2 options, got %d", len(opts))
	}
	if !opts[0].Unselected || opts[0].Category.ID != 0 {
		t.Fatalf("first option must be the zero-id placeholder: %+v", opts[0])
	}
	if opts[0].Label() != UnselectedCategoryTitle {
		t.Fatalf("placeholder label = %q", opts[0].Label())
	}
	if opts[1].Label() != "🍔 Food" {
		t.Fatalf("category label = %q", opts[1].Label())
	}
}
