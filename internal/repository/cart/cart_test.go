package cart

import (
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"

	"sneakerstore/internal/domain"
	"sneakerstore/internal/pgtest"
)

type cartRepositorySuite struct {
	suite.Suite

	db   *pgtest.Database
	repo Repository
}

func TestCartRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	defer goleak.VerifyNone(t)

	suite.Run(t, new(cartRepositorySuite))
}

func (s *cartRepositorySuite) SetupSuite() {
	var err error
	s.db, err = pgtest.Start(s.T().Context())
	s.Require().NoError(err)
	s.repo = NewPostgres(s.db.Pool, zerolog.Nop())
}

func (s *cartRepositorySuite) TearDownSuite() {
	if s.db != nil {
		s.NoError(s.db.Close(s.T().Context()))
	}
}

func (s *cartRepositorySuite) SetupTest() {
	s.Require().NoError(s.db.Reset(s.T().Context()))
}

func (s *cartRepositorySuite) newUser() string {
	id, err := s.db.CreateUser(s.T().Context(), gofakeit.Email(), false)
	s.Require().NoError(err)
	return id
}

func fakeLineItem(size domain.SizeSpec) domain.CartLineItem {
	return domain.CartLineItem{
		ProductID:    gofakeit.UUID(),
		Size:         size,
		Color:        gofakeit.SafeColor(),
		ProductPrice: decimal.NewFromInt(int64(gofakeit.IntRange(50, 250))),
	}
}

func (s *cartRepositorySuite) TestGetByUser_NotFound() {
	_, err := s.repo.GetByUser(s.T().Context(), s.newUser())
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.repo.GetByUser(s.T().Context(), "nope")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *cartRepositorySuite) TestAppendCreatesThenExtends() {
	t := s.T()
	ctx := t.Context()
	userID := s.newUser()

	first := fakeLineItem(domain.RegularSizes(8, 9))
	cart, err := s.repo.AppendLineItem(ctx, userID, first)
	require.NoError(t, err)
	require.Len(t, cart.LineItems, 1)
	assert.NotEmpty(t, cart.LineItems[0].ID)
	assert.Equal(t, []float64{8, 9}, cart.LineItems[0].Size.Regular())

	second := fakeLineItem(domain.CustomMeasurement(26, 26.5))
	cart, err = s.repo.AppendLineItem(ctx, userID, second)
	require.NoError(t, err)
	require.Len(t, cart.LineItems, 2)
	assert.True(t, cart.LineItems[1].IsCustomSize())

	got, err := s.repo.GetByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, first.ProductID, got.LineItems[0].ProductID)
	assert.True(t, first.ProductPrice.Equal(got.LineItems[0].ProductPrice))
}

func (s *cartRepositorySuite) TestConcurrentAppendsKeepEveryLine() {
	t := s.T()
	ctx := t.Context()
	userID := s.newUser()

	const writers = 8
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.repo.AppendLineItem(ctx, userID, fakeLineItem(domain.RegularSizes(float64(6+i))))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := s.repo.GetByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, cart.LineItems, writers)
}

func (s *cartRepositorySuite) TestRemoveLineItem() {
	t := s.T()
	ctx := t.Context()
	userID := s.newUser()

	for _, size := range []float64{7, 8, 9} {
		_, err := s.repo.AppendLineItem(ctx, userID, fakeLineItem(domain.RegularSizes(size)))
		require.NoError(t, err)
	}
	cart, err := s.repo.GetByUser(ctx, userID)
	require.NoError(t, err)
	target := cart.LineItems[1].ID

	cart, err = s.repo.RemoveLineItem(ctx, userID, target)
	require.NoError(t, err)
	ids := lo.Map(cart.LineItems, func(item domain.CartLineItem, _ int) string { return item.ID })
	assert.NotContains(t, ids, target)
	assert.Equal(t, []float64{7}, cart.LineItems[0].Size.Regular())
	assert.Equal(t, []float64{9}, cart.LineItems[1].Size.Regular())

	// absent id leaves the cart unchanged
	cart, err = s.repo.RemoveLineItem(ctx, userID, target)
	require.NoError(t, err)
	assert.Len(t, cart.LineItems, 2)

	_, err = s.repo.RemoveLineItem(ctx, s.newUser(), target)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func (s *cartRepositorySuite) TestRemoveLastLineLeavesEmptyArray() {
	t := s.T()
	ctx := t.Context()
	userID := s.newUser()

	cart, err := s.repo.AppendLineItem(ctx, userID, fakeLineItem(domain.RegularSizes(10)))
	require.NoError(t, err)

	cart, err = s.repo.RemoveLineItem(ctx, userID, cart.LineItems[0].ID)
	require.NoError(t, err)
	assert.NotNil(t, cart.LineItems)
	assert.Empty(t, cart.LineItems)
}

func (s *cartRepositorySuite) TestClearLineItems() {
	t := s.T()
	ctx := t.Context()
	userID := s.newUser()

	_, err := s.repo.AppendLineItem(ctx, userID, fakeLineItem(domain.RegularSizes(10)))
	require.NoError(t, err)

	require.NoError(t, s.repo.ClearLineItems(ctx, userID))
	cart, err := s.repo.GetByUser(ctx, userID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	assert.ErrorIs(t, s.repo.ClearLineItems(ctx, s.newUser()), domain.ErrNotFound)
}
