package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadLabib/Spendit/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createTestUser(t *testing.T, repo *Repository, name string) *User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), name, name+"@example.com", "hash")
	require.NoError(t, err)
	return u
}

func createTestCategory(t *testing.T, repo *Repository, userID int64, title string) *core.Category {
	t.Helper()
	c := &core.Category{UserID: userID, Title: title, Icon: "🍔", Type: core.TypeExpense}
	require.NoError(t, repo.CreateCategory(context.Background(), c))
	require.NotZero(t, c.ID)
	return c
}

func TestCreateAndGetUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "alice")
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, "alice@example.com", u.Email)

	byName, err := repo.GetUserByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, "hash", byName.PasswordHash)

	_, err = repo.GetUserByUserName(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	_, err = repo.GetUserByID(ctx, 9999)
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestPersonalDataAttributes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "alice")

	attrs, err := repo.PersonalData(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, attrs, 7)

	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	assert.Equal(t, []string{
		"Id", "UserName", "Email", "EmailConfirmed",
		"PhoneNumber", "PhoneNumberConfirmed", "TwoFactorEnabled",
	}, names)

	assert.Equal(t, "alice", attrs[1].Value)
	assert.Equal(t, "false", attrs[3].Value)
	// Unset phone numbers render as "null"
	assert.Equal(t, "null", attrs[4].Value)

	_, err = repo.PersonalData(ctx, 9999)
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestExternalLoginsOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "alice")

	logins, err := repo.ExternalLogins(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, logins)

	require.NoError(t, repo.AddExternalLogin(ctx, u.ID, "Google", "g-key"))
	require.NoError(t, repo.AddExternalLogin(ctx, u.ID, "GitHub", "gh-key"))

	logins, err = repo.ExternalLogins(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, logins, 2)
	assert.Equal(t, "Google", logins[0].Provider)
	assert.Equal(t, "GitHub", logins[1].Provider)
}

func TestAuthenticatorKeyNotEnrolled(t *testing.T) {
	repo := newTestRepo(t)

	u := createTestUser(t, repo, "alice")

	key, err := repo.AuthenticatorKey(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestSessionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "alice")

	token := "session-token"
	require.NoError(t, repo.CreateSession(ctx, token, u.ID, time.Now().Add(time.Hour)))

	info, err := repo.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, info.User.ID)
	assert.Equal(t, "alice", info.User.UserName)

	_, err = repo.ValidateSession(ctx, "unknown-token")
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	newExpiry := time.Now().Add(48 * time.Hour)
	require.NoError(t, repo.RenewSession(ctx, token, newExpiry))
	info, err = repo.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.WithinDuration(t, newExpiry, info.ExpiresAt, time.Second)

	require.NoError(t, repo.DeleteSession(ctx, token))
	_, err = repo.ValidateSession(ctx, token)
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestExpiredSessionsAreInvalidAndCleaned(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "alice")

	require.NoError(t, repo.CreateSession(ctx, "stale", u.ID, time.Now().Add(-time.Minute)))
	require.NoError(t, repo.CreateSession(ctx, "fresh", u.ID, time.Now().Add(time.Hour)))

	_, err := repo.ValidateSession(ctx, "stale")
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	n, err := repo.CleanExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.ValidateSession(ctx, "fresh")
	require.NoError(t, err)
}

func TestCategoryCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice := createTestUser(t, repo, "alice")
	bob := createTestUser(t, repo, "bob")

	food := createTestCategory(t, repo, alice.ID, "Food")

	got, err := repo.GetCategory(ctx, alice.ID, food.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Title)
	assert.Equal(t, "🍔", got.Icon)

	// Other users cannot see it
	_, err = repo.GetCategory(ctx, bob.ID, food.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	food.Title = "Groceries"
	require.NoError(t, repo.UpdateCategory(ctx, food))
	got, err = repo.GetCategory(ctx, alice.ID, food.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Title)

	missing := &core.Category{ID: 9999, UserID: alice.ID, Title: "Ghost"}
	assert.ErrorIs(t, repo.UpdateCategory(ctx, missing), core.ErrNotFound)
}

func TestListCategoriesIsOwnerScoped(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice := createTestUser(t, repo, "alice")
	bob := createTestUser(t, repo, "bob")

	createTestCategory(t, repo, alice.ID, "Food")
	createTestCategory(t, repo, alice.ID, "Rent")
	createTestCategory(t, repo, bob.ID, "Travel")

	cats, err := repo.ListCategories(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Food", cats[0].Title)
	assert.Equal(t, "Rent", cats[1].Title)
}

func TestDeleteCategoryRemovesItsTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice := createTestUser(t, repo, "alice")
	food := createTestCategory(t, repo, alice.ID, "Food")
	rent := createTestCategory(t, repo, alice.ID, "Rent")

	tx := newTestTransaction(food.ID)
	require.NoError(t, repo.CreateTransaction(ctx, alice.ID, tx))
	keep := newTestTransaction(rent.ID)
	require.NoError(t, repo.CreateTransaction(ctx, alice.ID, keep))

	require.NoError(t, repo.DeleteCategory(ctx, alice.ID, food.ID))

	_, err := repo.GetCategory(ctx, alice.ID, food.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := repo.ListTransactions(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	// Deleting again is a no-op
	require.NoError(t, repo.DeleteCategory(ctx, alice.ID, food.ID))
}

func newTestTransaction(categoryID int64) *core.Transaction {
	return &core.Transaction{
		CategoryID: categoryID,
		Amount:     core.Money{Cents: 1250},
		Note:       "lunch",
		Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateAndGetTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice := createTestUser(t, repo, "alice")
	bob := createTestUser(t, repo, "bob")
	food := createTestCategory(t, repo, alice.ID, "Food")

	tx := newTestTransaction(food.ID)
	require.NoError(t, repo.CreateTransaction(ctx, alice.ID, tx))
	assert.NotZero(t, tx.ID)
	assert.Equal(t, int64(1), tx.Version)

	got, err := repo.GetTransaction(ctx, alice.ID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), got.Amount.Cents)
	assert.Equal(t, "lunch", got.Note)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Food", got.Category.Title)

	_, err = repo.GetTransaction(ctx, bob.ID, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateTransactionRejectsForeignCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice := createTestUser(t, repo, "alice")
	bob := createTestUser(t, repo, "bob")
	bobsCategory := createTestCategory(t, repo, bob.ID, "Travel")

	tx := newTestTransaction(bobsCategory.ID)
	assert.ErrorIs(t, repo.CreateTransaction(ctx, alice.ID, tx), core.ErrNotFound)
}

func TestListTransactionsIsOwnerScoped(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice := createTestUser(t, repo, "alice")
	bob := createTestUser(t, repo, "bob")
	food := createTestCategory(t, repo, alice.ID, "Food")
	travel := createTestCategory(t, repo, bob.ID, "Travel")

	first := newTestTransaction(food.ID)
	require.NoError(t, repo.CreateTransaction(ctx, alice.ID, first))
	second := newTestTransaction(food.ID)
	require.NoError(t, repo.CreateTransaction(ctx, alice.ID, second))
	require.NoError(t, repo.CreateTransaction(ctx, bob.ID, newTestTransaction(travel.ID)))

	list, err := repo.ListTransactions(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	require.NotNil(t, list[0].Category)
	assert.Equal(t, "Food", list[0].Category.Title)
}

func TestUpdateTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice := createTestUser(t, repo, "alice")
	food := createTestCategory(t, repo, alice.ID, "Food")

	tx := newTestTransaction(food.ID)
	require.NoError(t, repo.CreateTransaction(ctx, alice.ID, tx))

	tx.Amount = core.Money{Cents: 2000}
	tx.Note = "dinner"
	require.NoError(t, repo.UpdateTransaction(ctx, alice.ID, tx))
	assert.Equal(t, int64(2), tx.Version)

	got, err := repo.GetTransaction(ctx, alice.ID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.Amount.Cents)
	assert.Equal(t, "dinner", got.Note)
	assert.Equal(t, int64(2), got.Version)
}

func TestUpdateTransactionStaleVersion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice := createTestUser(t, repo, "alice")
	food := createTestCategory(t, repo, alice.ID, "Food")

	tx := newTestTransaction(food.ID)
	require.NoError(t, repo.CreateTransaction(ctx, alice.ID, tx))

	stale := *tx
	require.NoError(t, repo.UpdateTransaction(ctx, alice.ID, tx))

	stale.Note = "late edit"
	assert.ErrorIs(t, repo.UpdateTransaction(ctx, alice.ID, &stale), core.ErrConcurrency)
}

func TestUpdateTransactionVanished(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice := createTestUser(t, repo, "alice")
	food := createTestCategory(t, repo, alice.ID, "Food")

	tx := newTestTransaction(food.ID)
	require.NoError(t, repo.CreateTransaction(ctx, alice.ID, tx))
	require.NoError(t, repo.DeleteTransaction(ctx, alice.ID, tx.ID))

	assert.ErrorIs(t, repo.UpdateTransaction(ctx, alice.ID, tx), core.ErrNotFound)
}

func TestDeleteTransactionIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice := createTestUser(t, repo, "alice")
	bob := createTestUser(t, repo, "bob")
	food := createTestCategory(t, repo, alice.ID, "Food")

	tx := newTestTransaction(food.ID)
	require.NoError(t, repo.CreateTransaction(ctx, alice.ID, tx))

	// Other users cannot delete it
	require.NoError(t, repo.DeleteTransaction(ctx, bob.ID, tx.ID))
	_, err := repo.GetTransaction(ctx, alice.ID, tx.ID)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTransaction(ctx, alice.ID, tx.ID))
	_, err = repo.GetTransaction(ctx, alice.ID, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.DeleteTransaction(ctx, alice.ID, tx.ID))
}

func TestInsertAuditLog(t *testing.T) {
	repo := newTestRepo(t)

	u := createTestUser(t, repo, "alice")
	err := repo.InsertAuditLog(context.Background(), u.ID, "personal_data_export", time.Now())
	require.NoError(t, err)
}
