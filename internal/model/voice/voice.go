package voice

// Voices is the PlayAI catalog accepted by the synthesis provider, keyed by
// voice id with a short description for UI consumers.
var Voices = map[string]string{
	"Arista-PlayAI":   "Sweet and cute",
	"Celeste-PlayAI":  "Elegant and warm",
	"Aaliyah-PlayAI":  "Friendly and cheerful",
	"Ruby-PlayAI":     "Soft and gentle",
	"Jennifer-PlayAI": "Clear and expressive",
	"Nia-PlayAI":      "Warm and soothing",
	"Quinn-PlayAI":    "Lively and bright",
	"Adelaide-PlayAI": "Sweet and melodic",
}

// Synthesis bounds. Out-of-range values are coerced to defaults rather than
// rejected; the provider treats them as hints, not contracts.
const (
	DefaultVoice      = "Arista-PlayAI"
	MinSpeed          = 0.5
	MaxSpeed          = 2.0
	DefaultSpeed      = 1.05
	DefaultSampleRate = 48000
)

// SampleRates lists the discrete rates the synthesis provider accepts.
var SampleRates = []int{8000, 16000, 22050, 24000, 32000, 44100, 48000}

// TTSRequest describes one synthesis call before normalization.
type TTSRequest struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice,omitempty"`
	Speed      float64 `json:"speed,omitempty"`
	SampleRate int     `json:"sampleRate,omitempty"`
}

// Normalize coerces the request into provider-accepted bounds: unknown voice
// to the default voice, speed clamped to [MinSpeed, MaxSpeed], sample rate
// snapped to DefaultSampleRate unless it is in the allowed set. Returns the
// normalized copy; the input is untouched.
func (r TTSRequest) Normalize() TTSRequest {
	if _, ok := Voices[r.Voice]; !ok {
		r.Voice = DefaultVoice
	}
	if r.Speed == 0 {
		r.Speed = DefaultSpeed
	} else if r.Speed < MinSpeed {
		r.Speed = MinSpeed
	} else if r.Speed > MaxSpeed {
		r.Speed = MaxSpeed
	}
	if !allowedSampleRate(r.SampleRate) {
		r.SampleRate = DefaultSampleRate
	}
	return r
}

func allowedSampleRate(rate int) bool {
	for _, allowed := range SampleRates {
		if rate == allowed {
			return true
		}
	}
	return false
}

// Config is the synthesis catalog surfaced to UI/API consumers.
type Config struct {
	Voices            map[string]string `json:"voices"`
	DefaultVoice      string            `json:"defaultVoice"`
	SpeedMin          float64           `json:"speedMin"`
	SpeedMax          float64           `json:"speedMax"`
	DefaultSpeed      float64           `json:"defaultSpeed"`
	SampleRates       []int             `json:"sampleRates"`
	DefaultSampleRate int               `json:"defaultSampleRate"`
}

// CatalogConfig returns the static synthesis configuration.
func CatalogConfig() Config {
	return Config{
		Voices:            Voices,
		DefaultVoice:      DefaultVoice,
		SpeedMin:          MinSpeed,
		SpeedMax:          MaxSpeed,
		DefaultSpeed:      DefaultSpeed,
		SampleRates:       SampleRates,
		DefaultSampleRate: DefaultSampleRate,
	}
}
