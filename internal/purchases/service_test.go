package purchases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-shop/internal/purchases"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
	_ "github.com/odyssey-erp/odyssey-shop/testing"
)

var (
	ana   = shared.Principal{UserID: "user-1"}
	admin = shared.Principal{UserID: "admin-1", IsAdmin: true}
)

func TestCreateRecordsOneEntryPerProduct(t *testing.T) {
	f := newFixture()
	date := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	records, err := f.service.Create(context.Background(), ana, purchases.CreateInput{ProductIDs: []string{"p1", "p2"}, Date: date})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "user-1", r.UserID)
		assert.Equal(t, date, r.Date)
		assert.NotEmpty(t, r.ID)
	}

	sent := f.receipts.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ana@x.io", sent[0].Email)
	assert.Equal(t, 42.5, sent[0].Total)
	assert.Len(t, sent[0].Items, 2)
}

func TestCreateWithMissingProductWritesNothing(t *testing.T) {
	f := newFixture()

	_, err := f.service.Create(context.Background(), ana, purchases.CreateInput{ProductIDs: []string{"p1", "ghost"}})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Product with ID ghost not found", shared.PublicMessage(err, ""))
	assert.Zero(t, f.ledger.count())
	assert.Empty(t, f.receipts.sent())
}

func TestCreateForUnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.service.Create(context.Background(), admin, purchases.CreateInput{UserID: "nobody", ProductIDs: []string{"p1"}})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "User not found", shared.PublicMessage(err, ""))
}

func TestCreateForAnotherUserRequiresAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.service.Create(ctx, ana, purchases.CreateInput{UserID: "user-2", ProductIDs: []string{"p1"}})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	records, err := f.service.Create(ctx, admin, purchases.CreateInput{UserID: "user-2", ProductIDs: []string{"p1"}})
	require.NoError(t, err)
	assert.Equal(t, "user-2", records[0].UserID)
}

func TestCreateRequiresProducts(t *testing.T) {
	f := newFixture()
	_, err := f.service.Create(context.Background(), ana, purchases.CreateInput{})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestEnqueueFailureDoesNotFailPurchase(t *testing.T) {
	f := newFixture()
	f.receipts.err = errQueueDown

	_, err := f.service.Create(context.Background(), ana, purchases.CreateInput{ProductIDs: []string{"p1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, f.ledger.count())
}

func TestStoreFailureIsReturned(t *testing.T) {
	f := newFixture()
	failure := errors.New("tx aborted")
	f.ledger.failNext = failure

	_, err := f.service.Create(context.Background(), ana, purchases.CreateInput{ProductIDs: []string{"p1"}})
	assert.ErrorIs(t, err, failure)
	assert.Empty(t, f.receipts.sent())
}

func TestListAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	records, err := f.service.Create(ctx, ana, purchases.CreateInput{ProductIDs: []string{"p1"}})
	require.NoError(t, err)

	entries, err := f.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ana@x.io", entries[0].UserEmail)
	assert.Equal(t, "Dune", entries[0].Title)
	require.NotNil(t, entries[0].Price)
	assert.Equal(t, 12.5, *entries[0].Price)

	require.NoError(t, f.service.Delete(ctx, records[0].ID))
	err = f.service.Delete(ctx, records[0].ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Buying record not found", shared.PublicMessage(err, ""))
}

func TestListRendersMissingJoins(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.service.Create(ctx, ana, purchases.CreateInput{ProductIDs: []string{"p1"}})
	require.NoError(t, err)
	delete(f.ledger.products, "p1")
	delete(f.ledger.users.byID, "user-1")

	entries, err := f.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, purchases.Missing, entries[0].UserEmail)
	assert.Equal(t, purchases.Missing, entries[0].Title)
	assert.Nil(t, entries[0].Price)
}

func TestIdempotencyKeyRejectsReplay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := purchases.CreateInput{ProductIDs: []string{"p1"}, IdempotencyKey: "order-42"}

	_, err := f.service.Create(ctx, ana, in)
	require.NoError(t, err)
	_, err = f.service.Create(ctx, ana, in)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, 1, f.ledger.count())
	assert.Len(t, f.receipts.sent(), 1)
}

func TestPruneIdempotencyKeys(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.service.Create(ctx, ana, purchases.CreateInput{ProductIDs: []string{"p1"}, IdempotencyKey: "k1"})
	require.NoError(t, err)
	f.ledger.keys["k1"] = time.Now().Add(-48 * time.Hour)

	n, err := f.service.PruneIdempotencyKeys(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.service.Create(ctx, ana, purchases.CreateInput{ProductIDs: []string{"p1"}, IdempotencyKey: "k1"})
	assert.NoError(t, err)
}
