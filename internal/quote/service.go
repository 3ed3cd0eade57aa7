package quote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bankim/loan-engine/internal/cache"
	"github.com/bankim/loan-engine/internal/metrics"
	"github.com/bankim/loan-engine/internal/wizard"
	"go.uber.org/zap"
)

// quoteInputs are the fields that can change a quote.
var quoteInputs = []string{
	wizard.FieldPriceOfEstate,
	wizard.FieldInitialFee,
	wizard.FieldPeriod,
	wizard.FieldMonthlyPayment,
	wizard.FieldPropertyOwnership,
	wizard.FieldMortgageBalance,
	wizard.FieldLoanAmount,
}

// Service derives quotes and caches them by input.
type Service struct {
	rates  Rates
	cache  cache.Cache
	logger *zap.Logger
}

// NewService creates a quote service. A nil cache disables caching.
func NewService(rates Rates, c cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{rates: rates, cache: c, logger: logger}
}

// Rates returns the configured rates.
func (s *Service) Rates() Rates {
	return s.rates
}

// Quote derives the quote for values, serving repeated inputs from the cache.
func (s *Service) Quote(ctx context.Context, flow wizard.Flow, values wizard.Values) (Quote, error) {
	if s.cache == nil {
		return Derive(flow, values, s.rates)
	}

	key, err := s.cacheKey(flow, values)
	if err != nil {
		return Quote{}, err
	}
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("quote cache lookup failed",
			zap.String("op", "quote.Quote"),
			zap.String("key", key),
			zap.Error(err),
		)
		metrics.QuoteCacheLookups.WithLabelValues("error").Inc()
	}
	if ok {
		var q Quote
		if err := json.Unmarshal([]byte(cached), &q); err == nil {
			metrics.QuoteCacheLookups.WithLabelValues("hit").Inc()
			return q, nil
		}
		s.logger.Warn("discarding unreadable cached quote",
			zap.String("op", "quote.Quote"),
			zap.String("key", key),
		)
	}
	metrics.QuoteCacheLookups.WithLabelValues("miss").Inc()

	q, err := Derive(flow, values, s.rates)
	if err != nil {
		return Quote{}, err
	}
	data, err := json.Marshal(q)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to encode quote: %w", err)
	}
	if err := s.cache.Set(ctx, key, string(data)); err != nil {
		s.logger.Warn("failed to cache quote",
			zap.String("op", "quote.Quote"),
			zap.Error(err),
		)
	}
	return q, nil
}

func (s *Service) cacheKey(flow wizard.Flow, values wizard.Values) (string, error) {
	rate, err := s.rates.For(flow)
	if err != nil {
		return "", err
	}
	inputs := make(map[string]string, len(quoteInputs))
	for _, field := range quoteInputs {
		if f, ok := values.Float(field); ok {
			inputs[field] = fmt.Sprintf("%g", f)
		} else if values.Has(field) {
			inputs[field] = values.String(field)
		}
	}
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%g", flow, rate)
	for _, k := range keys {
		fmt.Fprintf(h, "|%s=%s", k, inputs[k])
	}
	return "quote:" + hex.EncodeToString(h.Sum(nil)), nil
}
