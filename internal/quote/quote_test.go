package quote

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bankim/loan-engine/internal/cache"
	"github.com/bankim/loan-engine/internal/wizard"
	"github.com/bankim/loan-engine/pkg/amortization"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testRates = Rates{Mortgage: 5, MortgageRefinance: 5, Credit: 8.5, CreditRefinance: 5}

func TestDeriveMortgage(t *testing.T) {
	q, err := Derive(wizard.MortgageCalculation, wizard.Values{
		wizard.FieldPriceOfEstate:  "1,000,000",
		wizard.FieldInitialFee:     "200,000",
		wizard.FieldPeriod:         "10",
		wizard.FieldMonthlyPayment: 5000,
	}, testRates)
	require.NoError(t, err)

	require.NotNil(t, q.MonthlyPayment)
	assert.Equal(t, amortization.Computable, q.MonthlyPayment.Outcome)
	assert.Equal(t, 8485.0, q.MonthlyPayment.Value)
	require.NotNil(t, q.TermYears)
	assert.Equal(t, 22.0, q.TermYears.Value)
	require.NotNil(t, q.MinimumDownPayment)
	assert.Equal(t, 250000.0, *q.MinimumDownPayment)
	assert.Nil(t, q.RemainingAmount)
	assert.Equal(t, 5.0, q.AnnualRatePercent)
}

func TestDeriveMortgagePending(t *testing.T) {
	q, err := Derive(wizard.MortgageCalculation, wizard.Values{wizard.FieldPriceOfEstate: 1000000}, testRates)
	require.NoError(t, err)
	assert.Equal(t, amortization.Pending, q.MonthlyPayment.Outcome)
	assert.Nil(t, q.TermYears)

	q, err = Derive(wizard.MortgageCalculation, wizard.Values{wizard.FieldPriceOfEstate: 1000000, wizard.FieldPeriod: 20}, testRates)
	require.NoError(t, err)
	assert.Equal(t, amortization.Pending, q.MonthlyPayment.Outcome, "missing initial fee")
}

func TestDeriveMortgageImpossibleTerm(t *testing.T) {
	q, err := Derive(wizard.MortgageCalculation, wizard.Values{
		wizard.FieldPriceOfEstate:  500000,
		wizard.FieldInitialFee:     0,
		wizard.FieldMonthlyPayment: 1000,
	}, testRates)
	require.NoError(t, err)
	assert.Equal(t, amortization.Impossible, q.TermYears.Outcome)
}

func TestDeriveMortgageRefinance(t *testing.T) {
	q, err := Derive(wizard.MortgageRefinance, wizard.Values{
		wizard.FieldMortgageBalance: 500000,
		wizard.FieldPeriod:          10,
	}, testRates)
	require.NoError(t, err)
	assert.Equal(t, 5303.0, q.MonthlyPayment.Value)
	assert.Equal(t, 750000.0, q.RemainingAmount.Value)
}

func TestDeriveCredit(t *testing.T) {
	q, err := Derive(wizard.CreditCalculation, wizard.Values{
		wizard.FieldLoanAmount: "100000",
		wizard.FieldPeriod:     5,
	}, testRates)
	require.NoError(t, err)
	assert.Equal(t, 2052.0, q.MonthlyPayment.Value)
	assert.Equal(t, 8.5, q.AnnualRatePercent)
}

func TestDeriveCreditRefinance(t *testing.T) {
	q, err := Derive(wizard.CreditRefinance, wizard.Values{
		wizard.FieldLoanAmount:     500000,
		wizard.FieldMonthlyPayment: 3500,
	}, testRates)
	require.NoError(t, err)
	assert.Equal(t, 18.0, q.TermYears.Value)
	assert.Equal(t, amortization.Pending, q.MonthlyPayment.Outcome)
}

func TestRateUnavailable(t *testing.T) {
	_, err := Derive(wizard.CreditCalculation, wizard.Values{}, Rates{Mortgage: 5})
	assert.ErrorIs(t, err, ErrRateUnavailable)

	_, err = Rates{}.For(wizard.Flow("leasing"))
	assert.ErrorIs(t, err, wizard.ErrUnknownFlow)
}

func TestServiceCachesQuotes(t *testing.T) {
	memory := cache.NewMemoryCache(time.Minute)
	service := NewService(testRates, memory, zap.NewNop())
	ctx := context.Background()
	values := wizard.Values{wizard.FieldLoanAmount: "100,000", wizard.FieldPeriod: "5"}

	first, err := service.Quote(ctx, wizard.CreditCalculation, values)
	require.NoError(t, err)
	assert.Equal(t, 1, memory.Len())

	// Same numbers in a different notation hit the same entry.
	second, err := service.Quote(ctx, wizard.CreditCalculation, wizard.Values{wizard.FieldLoanAmount: 100000, wizard.FieldPeriod: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, memory.Len())
	assert.Equal(t, first, second)

	_, err = service.Quote(ctx, wizard.CreditCalculation, wizard.Values{wizard.FieldLoanAmount: 100000, wizard.FieldPeriod: 6})
	require.NoError(t, err)
	assert.Equal(t, 2, memory.Len())
}

func TestServiceWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	service := NewService(testRates, cache.NewRedisCache(client, "loan:", time.Minute), zap.NewNop())
	ctx := context.Background()
	values := wizard.Values{wizard.FieldPriceOfEstate: 500000, wizard.FieldInitialFee: 0, wizard.FieldMonthlyPayment: 1000}

	first, err := service.Quote(ctx, wizard.MortgageCalculation, values)
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 1)

	second, err := service.Quote(ctx, wizard.MortgageCalculation, values)
	require.NoError(t, err)
	assert.Equal(t, amortization.Impossible, second.TermYears.Outcome)
	assert.Equal(t, first.MonthlyPayment, second.MonthlyPayment)
}

func TestServiceLogsCacheFailures(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	core, logs := observer.New(zap.WarnLevel)
	service := NewService(testRates, cache.NewRedisCache(client, "loan:", time.Minute), zap.New(core))

	q, err := service.Quote(context.Background(), wizard.CreditCalculation, wizard.Values{wizard.FieldLoanAmount: 100000, wizard.FieldPeriod: 5})
	require.NoError(t, err)
	assert.Equal(t, 2052.0, q.MonthlyPayment.Value)
	assert.Equal(t, 1, logs.FilterMessage("quote cache lookup failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to cache quote").Len())
}

func TestServiceWithoutCache(t *testing.T) {
	service := NewService(testRates, nil, nil)
	q, err := service.Quote(context.Background(), wizard.CreditCalculation, wizard.Values{wizard.FieldLoanAmount: 100000, wizard.FieldPeriod: 5})
	require.NoError(t, err)
	assert.Equal(t, 2052.0, q.MonthlyPayment.Value)
	assert.Equal(t, testRates, service.Rates())
}
