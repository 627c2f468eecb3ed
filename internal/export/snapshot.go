// Package export assembles a user's personal data and renders it into
// downloadable report documents.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/SadLabib/Spendit/internal/core"
	"github.com/SadLabib/Spendit/internal/log"
)

// Attribute is one personal-data name/value pair.
type Attribute struct {
	Name  string
	Value string
}

// ExternalLogin identifies an external identity provider binding.
type ExternalLogin struct {
	Provider    string
	ProviderKey string
}

// Snapshot is everything an export document is built from.
type Snapshot struct {
	Attributes       []Attribute
	ExternalLogins   []ExternalLogin
	AuthenticatorKey string
	Categories       []core.Category
	Transactions     []core.Transaction
	GeneratedAt      time.Time
}

// DataSource supplies the stored data a snapshot aggregates.
type DataSource interface {
	PersonalData(ctx context.Context, userID int64) ([]Attribute, error)
	ExternalLogins(ctx context.Context, userID int64) ([]ExternalLogin, error)
	AuthenticatorKey(ctx context.Context, userID int64) (string, error)
	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
}

// AuditPublisher records that a user's data was exported. Publishing
// must not block the export itself.
type AuditPublisher interface {
	PublishAudit(ctx context.Context, userID int64, action string) error
}

// Aggregator builds personal-data snapshots.
type Aggregator struct {
	source DataSource
	audit  AuditPublisher
	logger *log.Logger
}

func NewAggregator(source DataSource, audit AuditPublisher, logger *log.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		audit:  audit,
		logger: logger.WithComponent(log.ComponentExport),
	}
}

// Snapshot collects the user's personal data. It fails with
// core.ErrUserNotFound when the user does not exist; a user with no
// categories or transactions still gets a snapshot.
func (a *Aggregator) Snapshot(ctx context.Context, userID int64) (*Snapshot, error) {
	attrs, err := a.source.PersonalData(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load personal data: %w", err)
	}
	logins, err := a.source.ExternalLogins(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load external logins: %w", err)
	}
	key, err := a.source.AuthenticatorKey(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load authenticator key: %w", err)
	}
	categories, err := a.source.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	transactions, err := a.source.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	if a.audit != nil {
		if err := a.audit.PublishAudit(ctx, userID, "personal_data_export"); err != nil {
			a.logger.Warn("Failed to publish export audit event",
				log.FieldUserID, userID,
				log.FieldError, err)
		}
	}

	return &Snapshot{
		Attributes:       attrs,
		ExternalLogins:   logins,
		AuthenticatorKey: key,
		Categories:       categories,
		Transactions:     transactions,
		GeneratedAt:      time.Now(),
	}, nil
}
