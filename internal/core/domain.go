package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// TypeExpense is the default category type.
	TypeExpense = "Expense"
	// TypeIncome marks categories that collect income transactions.
	TypeIncome = "Income"

	// UnselectedCategoryTitle is the label of the synthetic picker
	// placeholder. It is never persisted and never a valid submit value.
	UnselectedCategoryTitle = "Choose a Category"
)

type (
	// Category groups transactions and belongs to exactly one user.
	Category struct {
		ID     int64
		UserID int64
		Title  string // max 50 chars
		Icon   string // max 5 chars, optional glyph
		Type   string // max 15 chars, defaults to "Expense"
	}

	// Transaction is a single spending/income record against a category.
	// Version supports optimistic concurrency on updates.
	Transaction struct {
		ID         int64
		CategoryID int64
		Amount     Money
		Note       string // optional
		Date       time.Time
		Version    int64

		// Category is populated when the transaction is loaded joined
		// with its owning category.
		Category *Category
	}

	// CategoryOption is a picker entry: either a real category or the
	// synthetic "unselected" placeholder at the head of the list.
	CategoryOption struct {
		Category   Category
		Unselected bool
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyTitle        = errors.New("empty category title")
	ErrTitleTooLong      = errors.New("category title too long (max 50 characters)")
	ErrIconTooLong       = errors.New("category icon too long (max 5 characters)")
	ErrTypeTooLong       = errors.New("category type too long (max 15 characters)")
	ErrNoCategory        = errors.New("transaction requires a category")
	ErrZeroDate          = errors.New("transaction date cannot be zero")
	ErrNotFound          = errors.New("record not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrIDMismatch        = errors.New("payload id does not match path id")
	ErrConcurrency       = errors.New("record was modified concurrently")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// TitleWithIcon returns the display string combining the icon glyph and title.
func (c Category) TitleWithIcon() string {
	return c.Icon + " " + c.Title
}

// Normalize trims input and applies model defaults.
func (c *Category) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	c.Icon = strings.TrimSpace(c.Icon)
	c.Type = strings.TrimSpace(c.Type)
	if c.Type == "" {
		c.Type = TypeExpense
	}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(c.Title) > 50 {
		return ErrTitleTooLong
	}
	if utf8.RuneCountInString(c.Icon) > 5 {
		return ErrIconTooLong
	}
	if utf8.RuneCountInString(c.Type) > 15 {
		return ErrTypeTooLong
	}
	return nil
}

// FormattedAmount returns the transaction amount as a currency string.
func (t Transaction) FormattedAmount() string {
	return t.Amount.Format()
}

func (t Transaction) Validate() error {
	if t.CategoryID <= 0 {
		return ErrNoCategory
	}
	if t.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// PickerOptions builds the category picker list with the synthetic
// zero-id placeholder prepended.
func PickerOptions(categories []Category) []CategoryOption {
	options := make([]CategoryOption, 0, len(categories)+1)
	options = append(options, CategoryOption{
		Category:   Category{ID: 0, Title: UnselectedCategoryTitle, Type: ""},
		Unselected: true,
	})
	for _, c := range categories {
		options = append(options, CategoryOption{Category: c})
	}
	return options
}

// Label returns the display text for a picker entry.
func (o CategoryOption) Label() string {
	if o.Unselected {
		return o.Category.Title
	}
	return o.Category.TitleWithIcon()
}
