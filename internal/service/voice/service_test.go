package voice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	voicemodel "github.com/iroha-ai/backend/internal/model/voice"
)

type fakeAPI struct {
	speechReq  openai.CreateSpeechRequest
	speechOut  []byte
	speechErr  error
	transcript string
	transErr   error
}

func (f *fakeAPI) CreateSpeech(_ context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
	f.speechReq = req
	if f.speechErr != nil {
		return openai.RawResponse{}, f.speechErr
	}
	return openai.RawResponse{ReadCloser: io.NopCloser(bytes.NewReader(f.speechOut))}, nil
}

func (f *fakeAPI) CreateTranscription(_ context.Context, _ openai.AudioRequest) (openai.AudioResponse, error) {
	if f.transErr != nil {
		return openai.AudioResponse{}, f.transErr
	}
	return openai.AudioResponse{Text: f.transcript}, nil
}

func newTestService(api *fakeAPI) *Service {
	return &Service{
		api:      api,
		ttsModel: "playai-tts",
		sttModel: "whisper-large-v3",
		language: "ja-JP",
		log:      zerolog.Nop(),
	}
}

func TestSynthesizeCoercesUnknownVoice(t *testing.T) {
	api := &fakeAPI{speechOut: []byte("RIFFdata")}
	svc := newTestService(api)

	audio, used, err := svc.Synthesize(context.Background(), voicemodel.TTSRequest{
		Text:  "Senpai~",
		Voice: "Totally-Fake-Voice",
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if used.Voice != voicemodel.DefaultVoice {
		t.Fatalf("unknown voice should coerce to default, got %q", used.Voice)
	}
	if string(api.speechReq.Voice) != voicemodel.DefaultVoice {
		t.Fatalf("provider saw voice %q", api.speechReq.Voice)
	}
	if !bytes.Equal(audio, []byte("RIFFdata")) {
		t.Fatalf("audio bytes lost")
	}
}

func TestSynthesizeClampsSpeed(t *testing.T) {
	api := &fakeAPI{speechOut: []byte("x")}
	svc := newTestService(api)

	_, used, err := svc.Synthesize(context.Background(), voicemodel.TTSRequest{Text: "a", Voice: voicemodel.DefaultVoice, Speed: 9.0})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if used.Speed != voicemodel.MaxSpeed {
		t.Fatalf("speed should clamp to %v, got %v", voicemodel.MaxSpeed, used.Speed)
	}

	_, used, _ = svc.Synthesize(context.Background(), voicemodel.TTSRequest{Text: "a", Voice: voicemodel.DefaultVoice, Speed: 0.1})
	if used.Speed != voicemodel.MinSpeed {
		t.Fatalf("speed should clamp to %v, got %v", voicemodel.MinSpeed, used.Speed)
	}
}

func TestSynthesizeCoercesSampleRate(t *testing.T) {
	api := &fakeAPI{speechOut: []byte("x")}
	svc := newTestService(api)

	_, used, err := svc.Synthesize(context.Background(), voicemodel.TTSRequest{Text: "a", Voice: voicemodel.DefaultVoice, SampleRate: 12345})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if used.SampleRate != voicemodel.DefaultSampleRate {
		t.Fatalf("invalid sample rate should coerce to %d, got %d", voicemodel.DefaultSampleRate, used.SampleRate)
	}

	_, used, _ = svc.Synthesize(context.Background(), voicemodel.TTSRequest{Text: "a", Voice: voicemodel.DefaultVoice, SampleRate: 22050})
	if used.SampleRate != 22050 {
		t.Fatalf("allowed sample rate should pass through, got %d", used.SampleRate)
	}
}

func TestSynthesizeProviderFailure(t *testing.T) {
	api := &fakeAPI{speechErr: errors.New("quota exceeded")}
	svc := newTestService(api)

	if _, _, err := svc.Synthesize(context.Background(), voicemodel.TTSRequest{Text: "a"}); err == nil {
		t.Fatalf("expected provider error")
	}
}

func TestStreamYieldsAllBytesInChunks(t *testing.T) {
	payload := bytes.Repeat([]byte("abcd"), 3000) // 12000 bytes, three chunks
	api := &fakeAPI{speechOut: payload}
	svc := newTestService(api)

	chunks, errs := svc.Stream(context.Background(), voicemodel.TTSRequest{Text: "a"})

	var got []byte
	count := 0
	for chunk := range chunks {
		got = append(got, chunk...)
		count++
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("streamed bytes differ from synthesized audio")
	}
	if count != 3 {
		t.Fatalf("expected 3 chunks, got %d", count)
	}
}

func TestTranscribeSuccess(t *testing.T) {
	api := &fakeAPI{transcript: "konnichiwa senpai"}
	svc := newTestService(api)

	text, ok, err := svc.Transcribe(context.Background(), []byte("wav"), "")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if !ok || text != "konnichiwa senpai" {
		t.Fatalf("unexpected result: %q, %v", text, ok)
	}
}

func TestTranscribeMissIsNotAnError(t *testing.T) {
	api := &fakeAPI{transcript: "   "}
	svc := newTestService(api)

	text, ok, err := svc.Transcribe(context.Background(), []byte("wav"), "en-US")
	if err != nil {
		t.Fatalf("a miss must not be an error: %v", err)
	}
	if ok || text != "" {
		t.Fatalf("expected a miss, got %q", text)
	}
}

func TestPrimarySubtag(t *testing.T) {
	if got := primarySubtag("ja-JP"); got != "ja" {
		t.Fatalf("expected ja, got %q", got)
	}
	if got := primarySubtag("en"); got != "en" {
		t.Fatalf("expected en, got %q", got)
	}
}
