package export

import (
	"context"
	"errors"
	"testing"

	"github.com/SadLabib/Spendit/internal/core"
	"github.com/SadLabib/Spendit/internal/log"
)

type stubSource struct {
	attrs  []Attribute
	logins []ExternalLogin
	key    string
	cats   []core.Category
	txs    []core.Transaction
	err    error
}

func (s *stubSource) PersonalData(context.Context, int64) ([]Attribute, error) {
	return s.attrs, s.err
}
func (s *stubSource) ExternalLogins(context.Context, int64) ([]ExternalLogin, error) {
	return s.logins, nil
}
func (s *stubSource) AuthenticatorKey(context.Context, int64) (string, error) {
	return s.key, nil
}
func (s *stubSource) ListCategories(context.Context, int64) ([]core.Category, error) {
	return s.cats, nil
}
func (s *stubSource) ListTransactions(context.Context, int64) ([]core.Transaction, error) {
	return s.txs, nil
}

type stubAudit struct {
	userID int64
	action string
	calls  int
	err    error
}

func (a *stubAudit) PublishAudit(_ context.Context, userID int64, action string) error {
	a.calls++
	a.userID = userID
	a.action = action
	return a.err
}

func TestAggregatorSnapshot(t *testing.T) {
	source := &stubSource{
		attrs: []Attribute{{Name: "Id", Value: "42"}},
		cats:  []core.Category{{ID: 1, Title: "Food"}},
	}
	audit := &stubAudit{}
	agg := NewAggregator(source, audit, log.New(log.DefaultConfig()))

	snap, err := agg.Snapshot(context.Background(), 42)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Attributes) != 1 || snap.Attributes[0].Value != "42" {
		t.Errorf("unexpected attributes: %+v", snap.Attributes)
	}
	if snap.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
	if audit.calls != 1 || audit.userID != 42 || audit.action != "personal_data_export" {
		t.Errorf("audit publish = %+v, want one personal_data_export for user 42", audit)
	}
}

func TestAggregatorUnknownUser(t *testing.T) {
	source := &stubSource{err: core.ErrUserNotFound}
	agg := NewAggregator(source, nil, log.New(log.DefaultConfig()))

	_, err := agg.Snapshot(context.Background(), 99)
	if !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
}

func TestAggregatorAuditFailureIsNotFatal(t *testing.T) {
	source := &stubSource{}
	audit := &stubAudit{err: errors.New("broker down")}
	agg := NewAggregator(source, audit, log.New(log.DefaultConfig()))

	snap, err := agg.Snapshot(context.Background(), 1)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("nil snapshot")
	}
}
