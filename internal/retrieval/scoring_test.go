package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ndgo/studybot/internal/model"
)

func TestRecencyWeight_Buckets(t *testing.T) {
	tests := []struct {
		name  string
		age   time.Duration
		vague bool
		want  float64
	}{
		{"under 2m plain", time.Minute, false, 3.0},
		{"under 2m vague", time.Minute, true, 5.0},
		{"under 5m plain", 3 * time.Minute, false, 2.5},
		{"under 5m vague", 3 * time.Minute, true, 4.0},
		{"under 15m plain", 10 * time.Minute, false, 2.0},
		{"under 15m vague", 10 * time.Minute, true, 3.0},
		{"under 1h", 30 * time.Minute, false, 1.5},
		{"under 1h vague same", 30 * time.Minute, true, 1.5},
		{"under 24h", 5 * time.Hour, false, 1.2},
		{"start of decay", 24 * time.Hour, false, 1.2},
		{"end of decay", 7 * 24 * time.Hour, false, 0.5},
		{"beyond a week", 30 * 24 * time.Hour, false, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, recencyWeight(tt.age, tt.vague), 1e-9)
		})
	}
}

func TestRecencyWeight_DecayIsMonotonic(t *testing.T) {
	prev := recencyWeight(time.Second, false)
	for age := 2 * time.Minute; age <= 8*24*time.Hour; age += time.Hour {
		w := recencyWeight(age, false)
		require.LessOrEqual(t, w, prev, "weight increased at age %v", age)
		prev = w
	}
}

func TestRecencyWeight_DecayMidpoint(t *testing.T) {
	// halfway through days 1..7 the weight sits halfway between 1.2 and 0.5
	mid := 24*time.Hour + 3*24*time.Hour
	require.InDelta(t, 0.85, recencyWeight(mid, false), 1e-9)
}

func TestOriginWeight(t *testing.T) {
	require.Equal(t, 1.2, originWeight(model.OriginTemporary))
	require.Equal(t, 1.0, originWeight(model.OriginPermanent))
	require.Equal(t, 1.0, originWeight(model.OriginTranscript))
}

func TestVideoWeight(t *testing.T) {
	require.Equal(t, 1.35, videoWeight(model.OriginTranscript, true))
	require.Equal(t, 1.0, videoWeight(model.OriginTranscript, false))
	require.Equal(t, 1.0, videoWeight(model.OriginPermanent, true))
}

func TestAcceptThreshold(t *testing.T) {
	tests := []struct {
		name   string
		origin model.Origin
		age    time.Duration
		vague  bool
		want   float64
	}{
		{"permanent", model.OriginPermanent, time.Hour, false, 0.35},
		{"transcript", model.OriginTranscript, time.Minute, false, 0.35},
		{"fresh temporary", model.OriginTemporary, time.Minute, false, 0.02},
		{"fresh temporary vague", model.OriginTemporary, time.Minute, true, 0.01},
		{"aged temporary", model.OriginTemporary, 10 * time.Minute, false, 0.50},
		{"aged temporary vague", model.OriginTemporary, 10 * time.Minute, true, 0.50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, acceptThreshold(tt.origin, tt.age, tt.vague), 1e-9)
		})
	}
}

func TestWeightedSimilarity_FreshVagueTemporaryClearsBar(t *testing.T) {
	// a barely-relevant chunk uploaded seconds ago must survive the filter
	raw := 0.05
	age := 30 * time.Second
	weighted := weightedSimilarity(raw, model.OriginTemporary, age, true, false)
	require.Greater(t, weighted, acceptThreshold(model.OriginTemporary, age, true))
}

func TestWeightedSimilarity_StaleWeakChunkIsRejected(t *testing.T) {
	raw := 0.30
	age := 10 * 24 * time.Hour
	weighted := weightedSimilarity(raw, model.OriginPermanent, age, false, false)
	require.Less(t, weighted, acceptThreshold(model.OriginPermanent, age, false))
}
