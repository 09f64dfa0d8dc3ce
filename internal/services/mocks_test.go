package services

import (
	"context"

	"github.com/baharkarakas/copywriter-backend/internal/generator"
	"github.com/baharkarakas/copywriter-backend/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, ct models.ContentType, prompt, model string) (generator.Result, error) {
	args := m.Called(ctx, ct, prompt, model)
	return args.Get(0).(generator.Result), args.Error(1)
}

func generatorResult(tokens int64) generator.Result {
	return generator.Result{Text: "out", TokensUsed: tokens, Model: "m"}
}
