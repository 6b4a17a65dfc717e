package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargoquote-backend/internal/models"
	"cargoquote-backend/internal/tariff"
)

func ratingFacts() tariff.Facts {
	return tariff.Facts{
		CargoClassID:  "CARGO003",
		SumInsuredRub: decimal.NewFromInt(5_000_000),
		Condition:     "NEW",
		FranchiseRub:  20000,
		IsReefer:      false,
		RouteZone:     "РФ",
	}
}

func TestEngineRating(t *testing.T) {
	cfg, err := tariff.ParseConfig([]byte(testTariffDoc))
	require.NoError(t, err)
	engine := NewEngineRating(cfg)

	t.Run("auto ok", func(t *testing.T) {
		outcome, err := engine.Rate(context.Background(), ratingFacts())
		require.NoError(t, err)
		assert.Equal(t, tariff.DecisionAutoOK, outcome.Decision)
		require.NotNil(t, outcome.PremiumRub)
		assert.Equal(t, int64(7500), *outcome.PremiumRub)
		assert.Equal(t, "test-1", outcome.TariffVersion)
		assert.Equal(t, []string{}, outcome.Reasons)
	})

	t.Run("refer carries reasons and no premium", func(t *testing.T) {
		facts := ratingFacts()
		facts.FranchiseRub = 30000

		outcome, err := engine.Rate(context.Background(), facts)
		require.NoError(t, err)
		assert.Equal(t, tariff.DecisionRefer, outcome.Decision)
		assert.Nil(t, outcome.PremiumRub)
		assert.Equal(t, []string{tariff.ReasonFranchiseNotSupported}, outcome.Reasons)
	})

	t.Run("decline", func(t *testing.T) {
		facts := ratingFacts()
		facts.CargoClassID = "CARGO999"

		outcome, err := engine.Rate(context.Background(), facts)
		require.NoError(t, err)
		assert.Equal(t, tariff.DecisionDecline, outcome.Decision)
		assert.Equal(t, []string{tariff.ReasonCargoNotEligible}, outcome.Reasons)
	})
}

func TestHTTPRating(t *testing.T) {
	premium := int64(7500)
	minApplied := false

	var gotAuth string
	var gotReq models.QuoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(models.QuoteResponse{
			Decision:          string(tariff.DecisionAutoOK),
			PremiumRub:        &premium,
			MinPremiumApplied: &minApplied,
			TariffVersion:     "remote-1",
		})
	}))
	defer srv.Close()

	client := NewHTTPRating(srv.URL, "sekret")
	outcome, err := client.Rate(context.Background(), ratingFacts())
	require.NoError(t, err)

	assert.Equal(t, "Bearer sekret", gotAuth)
	assert.Equal(t, "CARGO003", gotReq.CargoClassID)
	require.NotNil(t, gotReq.IsReefer)
	assert.False(t, *gotReq.IsReefer)

	assert.Equal(t, tariff.DecisionAutoOK, outcome.Decision)
	require.NotNil(t, outcome.PremiumRub)
	assert.Equal(t, premium, *outcome.PremiumRub)
	assert.Equal(t, "remote-1", outcome.TariffVersion)
	assert.Equal(t, []string{}, outcome.Reasons, "absent reasons normalize to an empty slice")
}

func TestHTTPRatingErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewHTTPRating(srv.URL, "")
	_, err := client.Rate(context.Background(), ratingFacts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
