//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"florist/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "florist"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = container.Terminate(cctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/florist?sslmode=disable", host, port.Port())
}

func openWithRetry(t *testing.T, dsn string) *DB {
	t.Helper()
	var lastErr error
	for range 20 {
		db, err := Open(dsn)
		if err == nil {
			return db
		}
		lastErr = err
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("open postgres: %v", lastErr)
	return nil
}

func TestPostgresRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := openWithRetry(t, startPostgres(ctx, t))
	defer func() { _ = db.Close() }()

	u, err := db.Create(ctx, "ann@example.com", "hash")
	require.NoError(t, err)
	_, err = db.Create(ctx, "ANN@example.com", "hash")
	require.ErrorIs(t, err, domain.ErrDuplicateUser)
	found, err := db.GetByEmail(ctx, "Ann@Example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, found.ID)

	lines := []domain.CartLine{
		{ProductID: "romance-garden", Name: "Romance Garden", Price: decimal.NewFromInt(65), Quantity: 2},
		{ProductID: "sunshine-bliss", Name: "Sunshine Bliss", Price: decimal.NewFromInt(75), Quantity: 1},
	}
	require.NoError(t, db.SaveCart(ctx, "sid-1", lines))
	got, err := db.LoadCart(ctx, "sid-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "romance-garden", got[0].ProductID)
	require.NoError(t, db.DeleteCart(ctx, "sid-1"))
	got, err = db.LoadCart(ctx, "sid-1")
	require.NoError(t, err)
	require.Empty(t, got)

	now := time.Now().UTC().Truncate(time.Second)
	order := &domain.Order{
		Number:            "ORD-TEST",
		UserID:            u.ID,
		Email:             u.Email,
		Lines:             lines,
		Totals:            domain.ComputeTotalsForLines(lines),
		ShipTo:            domain.ShippingAddress{FullName: "Ann", Address: "1 Main St", City: "Springfield", ZipCode: "12345"},
		CardLast4:         "4242",
		ConfirmedAt:       now,
		EstimatedDelivery: domain.DeliveryDate(now),
	}
	require.NoError(t, db.CreateOrder(ctx, order))

	orders, err := db.ListOrdersByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Lines, 2)
	require.True(t, orders[0].Totals.Total.Equal(decimal.NewFromInt(164)))
}
