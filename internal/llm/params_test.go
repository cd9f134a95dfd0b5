package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamSetFilterDropsUnsupported(t *testing.T) {
	accepted := newParamSet(ParamTemperature, ParamMaxTokens)
	in := Options{
		Model:            "override",
		Temperature:      Float(0.2),
		MaxTokens:        300,
		TopK:             Int(40),
		FrequencyPenalty: Float(0.5),
		Stop:             []string{"###"},
	}

	out, dropped := accepted.filter(in)

	assert.Equal(t, "override", out.Model)
	assert.Equal(t, 0.2, *out.Temperature)
	assert.Equal(t, 300, out.MaxTokens)
	assert.Nil(t, out.TopK)
	assert.Nil(t, out.FrequencyPenalty)
	assert.Empty(t, out.Stop)
	assert.ElementsMatch(t, []Param{ParamTopK, ParamFrequencyPenalty, ParamStop}, dropped)
}

func TestParamSetFilterNothingSet(t *testing.T) {
	out, dropped := openAICompatibleParams.filter(Options{})
	assert.Equal(t, Options{}, out)
	assert.Empty(t, dropped)
}

func TestModelResolutionOrder(t *testing.T) {
	tests := []struct {
		name     string
		override string
		env      string
		fallback string
		want     string
	}{
		{"override wins", "per-call", "from-env", "fallback", "per-call"},
		{"env beats fallback", "", "from-env", "fallback", "from-env"},
		{"fallback last", "", "", "fallback", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveModel(tt.override, defaultModel(tt.env, tt.fallback))
			assert.Equal(t, tt.want, got)
		})
	}
}
