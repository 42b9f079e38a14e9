package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
)

func TestIdentityService_Resolve_CreatesOnFirstContact(t *testing.T) {
	repo := newMemCustomerRepo()
	service := NewIdentityService(repo)
	ctx := context.Background()

	customer, err := service.Resolve(ctx, "+9613080203")
	require.NoError(t, err)
	assert.Equal(t, "03080203", customer.Phone)

	count, _ := repo.Count(ctx, shared.Filter{})
	assert.Equal(t, int64(1), count)
}

func TestIdentityService_Resolve_SameCustomerAcrossFormats(t *testing.T) {
	repo := newMemCustomerRepo()
	service := NewIdentityService(repo)
	ctx := context.Background()

	first, err := service.Resolve(ctx, "+9613080203")
	require.NoError(t, err)

	// Same number without the country prefix resolves to the same record.
	second, err := service.Resolve(ctx, "03080203")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, _ := repo.Count(ctx, shared.Filter{})
	assert.Equal(t, int64(1), count)
}

func TestIdentityService_Resolve_SuffixMatch(t *testing.T) {
	repo := newMemCustomerRepo()
	service := NewIdentityService(repo)
	ctx := context.Background()

	// Seed a record whose stored phone kept an unparseable international
	// format, as a Brains import can produce.
	seeded, err := partner.NewCustomer("0096176123456")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, seeded))

	resolved, err := service.Resolve(ctx, "+96176123456")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, resolved.ID, "digit tail bridges format drift")

	count, _ := repo.Count(ctx, shared.Filter{})
	assert.Equal(t, int64(1), count)
}

func TestIdentityService_Resolve_InsertRaceFallsBackToReRead(t *testing.T) {
	repo := newMemCustomerRepo()
	service := NewIdentityService(repo)
	ctx := context.Background()

	// A concurrent webhook inserts the same customer between our lookup and
	// our create. The losing insert must converge on the winner's row.
	var winner *partner.Customer
	repo.beforeCreate = func(r *memCustomerRepo) {
		winner, _ = partner.NewCustomer("03080203")
		copied := *winner
		r.customers[winner.ID] = &copied
	}

	resolved, err := service.Resolve(ctx, "+9613080203")
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, winner.ID, resolved.ID)

	count, _ := repo.Count(ctx, shared.Filter{})
	assert.Equal(t, int64(1), count)
}

func TestIdentityService_Resolve_EmptyPhone(t *testing.T) {
	service := NewIdentityService(newMemCustomerRepo())

	_, err := service.Resolve(context.Background(), "")
	assert.Error(t, err)
}
