package google

// SynthesizeRequest represents the Cloud Text-to-Speech REST request
type SynthesizeRequest struct {
	Input       SynthesisInput `json:"input"`
	Voice       VoiceSelection `json:"voice"`
	AudioConfig AudioConfig    `json:"audioConfig"`
}

// SynthesisInput carries the text to synthesize
type SynthesisInput struct {
	Text string `json:"text"`
}

// VoiceSelection selects the voice by language and name
type VoiceSelection struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

// AudioConfig configures the output audio
type AudioConfig struct {
	AudioEncoding   string  `json:"audioEncoding"`
	SpeakingRate    float64 `json:"speakingRate"`
	Pitch           float64 `json:"pitch"`
	VolumeGainDb    float64 `json:"volumeGainDb"`
	SampleRateHertz int     `json:"sampleRateHertz,omitempty"`
}

// SynthesizeResponse represents the response from the synthesize call
type SynthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// ErrorResponse represents an error from the Cloud TTS API
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
