package llm

import (
	"github.com/abhisek/studyplan/internal/logger"
)

// Param names a generation parameter in Options.
type Param string

const (
	ParamTemperature      Param = "temperature"
	ParamMaxTokens        Param = "max_tokens"
	ParamTopP             Param = "top_p"
	ParamTopK             Param = "top_k"
	ParamFrequencyPenalty Param = "frequency_penalty"
	ParamPresencePenalty  Param = "presence_penalty"
	ParamStop             Param = "stop"
)

// paramSet is the set of parameters an endpoint accepts.
type paramSet map[Param]bool

func newParamSet(ps ...Param) paramSet {
	s := make(paramSet, len(ps))
	for _, p := range ps {
		s[p] = true
	}
	return s
}

// openAICompatibleParams is what OpenAI-style chat completion endpoints take.
var openAICompatibleParams = newParamSet(
	ParamTemperature, ParamMaxTokens, ParamTopP,
	ParamFrequencyPenalty, ParamPresencePenalty, ParamStop,
)

// filter returns a copy of o with every parameter outside accepted cleared,
// along with the names of the parameters it dropped.
func (accepted paramSet) filter(o Options) (Options, []Param) {
	var dropped []Param
	out := Options{Model: o.Model}

	if o.Temperature != nil {
		if accepted[ParamTemperature] {
			out.Temperature = o.Temperature
		} else {
			dropped = append(dropped, ParamTemperature)
		}
	}
	if o.MaxTokens > 0 {
		if accepted[ParamMaxTokens] {
			out.MaxTokens = o.MaxTokens
		} else {
			dropped = append(dropped, ParamMaxTokens)
		}
	}
	if o.TopP != nil {
		if accepted[ParamTopP] {
			out.TopP = o.TopP
		} else {
			dropped = append(dropped, ParamTopP)
		}
	}
	if o.TopK != nil {
		if accepted[ParamTopK] {
			out.TopK = o.TopK
		} else {
			dropped = append(dropped, ParamTopK)
		}
	}
	if o.FrequencyPenalty != nil {
		if accepted[ParamFrequencyPenalty] {
			out.FrequencyPenalty = o.FrequencyPenalty
		} else {
			dropped = append(dropped, ParamFrequencyPenalty)
		}
	}
	if o.PresencePenalty != nil {
		if accepted[ParamPresencePenalty] {
			out.PresencePenalty = o.PresencePenalty
		} else {
			dropped = append(dropped, ParamPresencePenalty)
		}
	}
	if len(o.Stop) > 0 {
		if accepted[ParamStop] {
			out.Stop = o.Stop
		} else {
			dropped = append(dropped, ParamStop)
		}
	}

	return out, dropped
}

// resolveModel picks the model for a call: per-call override first, then the
// provider's configured default.
func resolveModel(override, configured string) string {
	if override != "" {
		return override
	}
	return configured
}

// defaultModel picks the provider's configured default: environment value
// first, then the hardcoded fallback.
func defaultModel(fromEnv, fallback string) string {
	if fromEnv != "" {
		return fromEnv
	}
	return fallback
}

// logDropped debug-logs the parameters an adapter removed from a request.
func logDropped(log *logger.Logger, provider string, dropped []Param) {
	if log == nil || len(dropped) == 0 {
		return
	}
	names := make([]string, len(dropped))
	for i, p := range dropped {
		names[i] = string(p)
	}
	log.Debug("dropped unsupported parameters", "provider", provider, "params", names)
}
