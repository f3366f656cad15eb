// Package voice wraps the speech providers: PlayAI synthesis and Whisper
// transcription over Groq's OpenAI-compatible API.
package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/iroha-ai/backend/internal/config"
	voicemodel "github.com/iroha-ai/backend/internal/model/voice"
)

// speechAPI is the slice of the OpenAI client the service needs, extracted
// so tests can substitute a fake provider.
type speechAPI interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// streamChunkSize is the slice size used when yielding synthesized audio.
const streamChunkSize = 4096

// Service provides text-to-speech and speech-to-text.
type Service struct {
	api      speechAPI
	ttsModel string
	sttModel string
	language string
	log      zerolog.Logger
}

// NewService builds the voice service against Groq using the completion
// provider's credential.
func NewService(ai config.AIConfig, cfg config.VoiceConfig, log zerolog.Logger) *Service {
	clientCfg := openai.DefaultConfig(ai.APIKey)
	clientCfg.BaseURL = ai.BaseURL
	return &Service{
		api:      openai.NewClientWithConfig(clientCfg),
		ttsModel: cfg.TTSModel,
		sttModel: cfg.STTModel,
		language: cfg.STTLanguage,
		log:      log,
	}
}

// Synthesize converts text to WAV bytes. The request is normalized first:
// unknown voices, out-of-range speeds and sample rates are silently coerced
// to defaults, never rejected. Returns the normalized request alongside the
// audio so callers can record what was actually used.
func (s *Service) Synthesize(ctx context.Context, req voicemodel.TTSRequest) ([]byte, voicemodel.TTSRequest, error) {
	normalized := req.Normalize()
	if normalized != req {
		s.log.Debug().
			Str("voice", normalized.Voice).
			Float64("speed", normalized.Speed).
			Int("sample_rate", normalized.SampleRate).
			Msg("tts request coerced to defaults")
	}

	resp, err := s.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.ttsModel),
		Input:          normalized.Text,
		Voice:          openai.SpeechVoice(normalized.Voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          normalized.Speed,
	})
	if err != nil {
		return nil, normalized, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, normalized, fmt.Errorf("read synthesized audio: %w", err)
	}
	return audio, normalized, nil
}

// Stream synthesizes the full audio, then yields it in fixed-size chunks.
// The channels close after the last chunk or the first error.
func (s *Service) Stream(ctx context.Context, req voicemodel.TTSRequest) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		audio, _, err := s.Synthesize(ctx, req)
		if err != nil {
			errs <- err
			return
		}
		for start := 0; start < len(audio); start += streamChunkSize {
			end := start + streamChunkSize
			if end > len(audio) {
				end = len(audio)
			}
			select {
			case chunks <- audio[start:end]:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return chunks, errs
}

// Transcribe converts audio to text. A provider answer with no usable
// speech returns ("", false, nil): a miss, not an error.
func (s *Service) Transcribe(ctx context.Context, audio []byte, language string) (string, bool, error) {
	if language == "" {
		language = s.language
	}

	resp, err := s.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.sttModel,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(audio),
		Language: primarySubtag(language),
	})
	if err != nil {
		return "", false, fmt.Errorf("transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// Config returns the synthesis catalog for UI consumers.
func (s *Service) Config() voicemodel.Config {
	return voicemodel.CatalogConfig()
}

// primarySubtag reduces a BCP 47 tag like "ja-JP" to the bare language code
// Whisper expects.
func primarySubtag(tag string) string {
	if i := strings.IndexByte(tag, '-'); i > 0 {
		return strings.ToLower(tag[:i])
	}
	return strings.ToLower(tag)
}
