package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/crucial707/hci-catalog/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadingUntilFirstLoad(t *testing.T) {
	srv, _ := catalogServer(t)
	s := NewStore(NewAPI(srv.URL, nil), nil, nil)
	defer s.Close()

	assert.True(t, s.Loading())
	require.NoError(t, s.Load(context.Background()))
	assert.False(t, s.Loading())
	assert.Empty(t, s.Products())
	assert.Empty(t, s.AuditRecords())
}

func TestStore_WidgetSession(t *testing.T) {
	srv, _ := catalogServer(t)
	notes := &recorder{}
	s := NewStore(NewAPI(srv.URL, nil), notes, nil)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	p, err := s.AddProduct(ctx, widget())
	require.NoError(t, err)
	assert.Len(t, s.Products(), 1)
	require.Len(t, s.AuditRecords(), 1)
	assert.Equal(t, models.ActionAdded, s.AuditRecords()[0].ActionType)

	_, err = s.UpdateProduct(ctx, p.ID, models.ProductFields{Name: strPtr("Gadget")})
	require.NoError(t, err)
	got, ok := s.Product(p.ID)
	require.True(t, ok)
	assert.Equal(t, "Gadget", got.Name)
	assert.Len(t, s.AuditRecords(), 2)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	_, ok = s.Product(p.ID)
	assert.False(t, ok)
	assert.Empty(t, s.Products())

	recs := s.AuditRecords()
	require.Len(t, recs, 3)
	assert.Equal(t, models.ActionDeleted, recs[0].ActionType)
	assert.Equal(t, "Gadget", recs[0].EntityName)
	assert.Equal(t, models.ActionAdded, recs[2].ActionType)

	assert.Equal(t, []string{
		`Product "Widget" added successfully`,
		`Product "Gadget" updated successfully`,
		`Product "Gadget" deleted successfully`,
	}, notes.successes)
	assert.Empty(t, notes.failures)
	assert.False(t, s.Loading())
}

func TestStore_AuditMirrorMatchesServer(t *testing.T) {
	srv, audit := catalogServer(t)
	s := NewStore(NewAPI(srv.URL, nil), nil, nil)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	_, err := s.AddProduct(ctx, widget())
	require.NoError(t, err)

	server, err := audit.List(ctx)
	require.NoError(t, err)
	mirror := s.AuditRecords()
	require.Len(t, mirror, len(server))
	for i := range server {
		assert.Equal(t, server[i].ID, mirror[i].ID)
		assert.True(t, server[i].Timestamp.Equal(mirror[i].Timestamp))
	}
}

func TestStore_FailedMutationLeavesMirrors(t *testing.T) {
	srv, _ := catalogServer(t)
	backend := &stubBackend{Backend: NewAPI(srv.URL, nil)}
	notes := &recorder{}
	s := NewStore(backend, notes, nil)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	p, err := s.AddProduct(ctx, widget())
	require.NoError(t, err)
	before := backend.calls()

	_, err = s.UpdateProduct(ctx, p.ID, models.ProductFields{Name: strPtr("")})
	_, isValidation := apperr.IsValidation(err)
	assert.True(t, isValidation)

	err = s.DeleteProduct(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, _ := s.Product(p.ID)
	assert.Equal(t, "Widget", got.Name)
	assert.Len(t, s.AuditRecords(), 1)
	assert.Equal(t, before, backend.calls(), "audit must not be re-fetched on failure")
	assert.Equal(t, []string{"Failed to update product", "Failed to delete product"}, notes.failures)
	assert.False(t, s.Loading())
}

func TestStore_NetworkFailureOnAdd(t *testing.T) {
	srv, _ := catalogServer(t)
	backend := &stubBackend{Backend: NewAPI(srv.URL, nil), failAdd: errors.New("connection reset")}
	notes := &recorder{}
	s := NewStore(backend, notes, nil)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	_, err := s.AddProduct(ctx, widget())
	assert.Error(t, err)
	assert.Empty(t, s.Products())
	assert.Equal(t, []string{"Failed to add product"}, notes.failures)
}

func TestStore_ServerAuditFailureIsReportedAsFailure(t *testing.T) {
	srv := catalogServerWithAudit(t, unwritableAudit{repo.NewMemoryAuditRepo(nil)})
	notes := &recorder{}
	s := NewStore(NewAPI(srv.URL, nil), notes, nil)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	_, err := s.AddProduct(ctx, widget())
	var se *apperr.StorageError
	require.ErrorAs(t, err, &se)
	assert.Empty(t, s.Products())
	assert.Empty(t, notes.successes)
	assert.Equal(t, []string{"Failed to add product"}, notes.failures)

	// The server kept the product; the next load picks it up.
	require.NoError(t, s.Load(ctx))
	require.Len(t, s.Products(), 1)
	assert.Equal(t, "Widget", s.Products()[0].Name)
}

func TestStore_AuditRefreshFailureKeepsProduct(t *testing.T) {
	srv, _ := catalogServer(t)
	backend := &stubBackend{Backend: NewAPI(srv.URL, nil)}
	notes := &recorder{}
	s := NewStore(backend, notes, nil)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	backend.mu.Lock()
	backend.failAuditList = apperr.Storage("list audit records", errors.New("timeout"))
	backend.mu.Unlock()

	p, err := s.AddProduct(ctx, widget())
	assert.ErrorIs(t, err, ErrAuditStale)
	assert.True(t, apperr.IsStorage(err))
	assert.NotEmpty(t, p.ID)

	_, ok := s.Product(p.ID)
	assert.True(t, ok, "confirmed product stays in the mirror")
	assert.Empty(t, s.AuditRecords())
	assert.Equal(t, []string{"Failed to refresh audit log"}, notes.failures)
	assert.Empty(t, notes.successes)
	assert.False(t, s.Loading())
}

func TestStore_LoadFailureLeavesMirrors(t *testing.T) {
	srv, _ := catalogServer(t)
	backend := &stubBackend{Backend: NewAPI(srv.URL, nil)}
	notes := &recorder{}
	s := NewStore(backend, notes, nil)
	defer s.Close()
	ctx := context.Background()

	_, err := backend.Backend.AddProduct(ctx, widget())
	require.NoError(t, err)

	backend.failAuditList = errors.New("down")
	assert.Error(t, s.Load(ctx))
	assert.Empty(t, s.Products())
	assert.Equal(t, []string{"Failed to fetch data"}, notes.failures)
	assert.False(t, s.Loading())

	backend.failAuditList = nil
	require.NoError(t, s.Load(ctx))
	assert.Len(t, s.Products(), 1)
	assert.Len(t, s.AuditRecords(), 1)
}

func TestStore_ConcurrentAdds(t *testing.T) {
	srv, _ := catalogServer(t)
	s := NewStore(NewAPI(srv.URL, nil), nil, nil)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddProduct(ctx, widget())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, s.Products(), n)
	assert.Len(t, s.AuditRecords(), n)
	assert.False(t, s.Loading())
}

func TestStore_CopiesAreIndependent(t *testing.T) {
	srv, _ := catalogServer(t)
	s := NewStore(NewAPI(srv.URL, nil), nil, nil)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))
	_, err := s.AddProduct(ctx, widget())
	require.NoError(t, err)

	products := s.Products()
	products[0].Name = "changed"
	assert.Equal(t, "Widget", s.Products()[0].Name)
}

func TestStore_Closed(t *testing.T) {
	srv, _ := catalogServer(t)
	s := NewStore(NewAPI(srv.URL, nil), nil, nil)
	s.Close()

	assert.ErrorIs(t, s.Load(context.Background()), ErrClosed)
	_, err := s.AddProduct(context.Background(), widget())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.DeleteProduct(context.Background(), "x"), ErrClosed)
	assert.Empty(t, s.Products())
}
