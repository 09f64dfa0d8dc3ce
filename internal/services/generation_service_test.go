package services

import (
	"context"
	"errors"
	"testing"

	"github.com/baharkarakas/copywriter-backend/internal/generator"
	"github.com/baharkarakas/copywriter-backend/internal/models"
	"github.com/baharkarakas/copywriter-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	gen   *MockGenerator
	repos memory.Repositories
	svc   *GenerationService
}

func newFixture(t *testing.T, minBalance int64) fixture {
	t.Helper()
	repos := memory.NewRepositories(0)
	gen := &MockGenerator{}
	ledger := NewBalanceService(repos.Balances, repos.AuditLogs, nil)
	svc := NewGenerationService(GenerationDeps{
		Generator:  gen,
		Ledger:     ledger,
		Store:      repos.Generations,
		AuditLogs:  repos.AuditLogs,
		Cache:      NewStatsCache(0),
		MinBalance: minBalance,
	})
	return fixture{gen: gen, repos: repos, svc: svc}
}

const tagline = "Write a tagline for a coffee shop"

func TestGenerateDebitsAndRecords(t *testing.T) {
	f := newFixture(t, 0)
	f.repos.Balances.Set("u1", 50, "")
	f.gen.On("Generate", mock.Anything, models.AdCopy, tagline, "").
		Return(generator.Result{Text: "Brewed for you.", TokensUsed: 12, Model: "gemini-2.5-flash"}, nil).Once()

	res, err := f.svc.Generate(context.Background(), "u1", models.AdCopy, tagline, "")
	require.NoError(t, err)

	assert.Equal(t, int64(38), res.TokensRemaining)
	assert.Equal(t, int64(12), res.Generation.TokensUsed)
	assert.Equal(t, "u1", res.Generation.UserID)
	assert.Equal(t, models.AdCopy, res.Generation.ContentType)
	assert.Equal(t, tagline, res.Generation.Prompt)
	assert.Equal(t, "Brewed for you.", res.Generation.Output)
	assert.Equal(t, "gemini-2.5-flash", res.Generation.Model)
	assert.NotEmpty(t, res.Generation.ID)
	assert.False(t, res.Generation.CreatedAt.IsZero())

	b, _ := f.repos.Balances.Get(context.Background(), "u1")
	assert.Equal(t, res.TokensRemaining, b.TokensRemaining)

	stored, err := f.repos.Generations.GetByID(context.Background(), res.Generation.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Generation, stored)
	f.gen.AssertExpectations(t)
}

func TestGenerateInsufficientBalancePersistsNothing(t *testing.T) {
	f := newFixture(t, 0)
	f.repos.Balances.Set("u1", 5, "")
	f.gen.On("Generate", mock.Anything, models.AdCopy, tagline, "").
		Return(generator.Result{Text: "Brewed for you.", TokensUsed: 12, Model: "m"}, nil)

	_, err := f.svc.Generate(context.Background(), "u1", models.AdCopy, tagline, "")

	var ib *InsufficientBalanceError
	require.True(t, errors.As(err, &ib))
	assert.Equal(t, int64(5), ib.Remaining)
	assert.Equal(t, int64(12), ib.Required)

	n, _ := f.repos.Generations.CountByOwner(context.Background(), "u1")
	assert.Zero(t, n)
	b, _ := f.repos.Balances.Get(context.Background(), "u1")
	assert.Equal(t, int64(5), b.TokensRemaining)
}

func TestGenerateMissingPrompt(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.Generate(context.Background(), "u1", models.BlogPost, "", "")
	assert.ErrorIs(t, err, ErrMissingPrompt)
	assert.True(t, IsValidation(err))
	f.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateWhitespacePromptIsNotMissing(t *testing.T) {
	f := newFixture(t, 0)
	f.repos.Balances.Set("u1", 50, "")
	f.gen.On("Generate", mock.Anything, models.BlogPost, "   ", "").Return(generatorResult(3), nil).Once()

	res, err := f.svc.Generate(context.Background(), "u1", models.BlogPost, "   ", "")
	require.NoError(t, err)
	assert.Equal(t, "   ", res.Generation.Prompt)
	assert.Equal(t, int64(47), res.TokensRemaining)
	f.gen.AssertExpectations(t)
}

func TestGenerateUnknownContentType(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.Generate(context.Background(), "u1", models.ContentType("poem"), "x", "")
	assert.ErrorIs(t, err, ErrInvalidContentType)
}

func TestGenerateBackendFailureDoesNotDebit(t *testing.T) {
	f := newFixture(t, 0)
	f.repos.Balances.Set("u1", 50, "")
	cause := errors.New("upstream 500")
	f.gen.On("Generate", mock.Anything, models.BlogPost, "p", "").
		Return(generator.Result{}, errors.Join(generator.ErrBackend, cause))

	_, err := f.svc.Generate(context.Background(), "u1", models.BlogPost, "p", "")

	var ge *GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, models.BlogPost, ge.ContentType)
	assert.ErrorIs(t, err, generator.ErrBackend)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, generator.ErrRateLimited)

	b, _ := f.repos.Balances.Get(context.Background(), "u1")
	assert.Equal(t, int64(50), b.TokensRemaining)
}

func TestGenerateRateLimitedIsDistinct(t *testing.T) {
	f := newFixture(t, 0)
	f.gen.On("Generate", mock.Anything, models.SocialMedia, "p", "").
		Return(generator.Result{}, generator.ErrRateLimited)

	_, err := f.svc.Generate(context.Background(), "u1", models.SocialMedia, "p", "")
	assert.ErrorIs(t, err, generator.ErrRateLimited)
}

func TestGeneratePreflightMinimumBalance(t *testing.T) {
	f := newFixture(t, 100)
	f.repos.Balances.Set("u1", 40, "")

	_, err := f.svc.Generate(context.Background(), "u1", models.BlogPost, "p", "")

	var ib *InsufficientBalanceError
	require.True(t, errors.As(err, &ib))
	assert.Equal(t, int64(40), ib.Remaining)
	assert.Equal(t, int64(100), ib.Required)
	f.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func seed(t *testing.T, f fixture, owner string) models.Generation {
	t.Helper()
	g, err := f.repos.Generations.Create(context.Background(), models.Generation{
		UserID: owner, ContentType: models.BlogPost, Prompt: "p", Output: "o", TokensUsed: 3, Model: "m",
	})
	require.NoError(t, err)
	return g
}

func TestGetOwnership(t *testing.T) {
	f := newFixture(t, 0)
	g := seed(t, f, "owner")

	got, err := f.svc.Get(context.Background(), "owner", g.ID)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	got, err = f.svc.Get(context.Background(), "intruder", g.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, got.ID)

	_, err = f.svc.Get(context.Background(), "owner", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByNonOwnerIsForbidden(t *testing.T) {
	f := newFixture(t, 0)
	g := seed(t, f, "userB")

	err := f.svc.Delete(context.Background(), "userA", g.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.repos.Generations.GetByID(context.Background(), g.ID)
	assert.NoError(t, err)
}

func TestDeleteByOwnerKeepsBalance(t *testing.T) {
	f := newFixture(t, 0)
	f.repos.Balances.Set("owner", 9, "")
	g := seed(t, f, "owner")

	require.NoError(t, f.svc.Delete(context.Background(), "owner", g.ID))

	_, err := f.repos.Generations.GetByID(context.Background(), g.ID)
	assert.Error(t, err)
	b, _ := f.repos.Balances.Get(context.Background(), "owner")
	assert.Equal(t, int64(9), b.TokensRemaining)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), "owner", g.ID), ErrNotFound)
}
