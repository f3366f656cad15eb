package voice

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	voicemodel "github.com/iroha-ai/backend/internal/model/voice"
	voiceservice "github.com/iroha-ai/backend/internal/service/voice"
	"github.com/iroha-ai/backend/pkg/utils"
)

// maxAudioUpload bounds speech-to-text uploads.
const maxAudioUpload = 25 << 20

// Handler serves text-to-speech and speech-to-text endpoints.
type Handler struct {
	voiceSvc *voiceservice.Service
}

// New creates the voice handler.
func New(voiceSvc *voiceservice.Service) *Handler {
	return &Handler{voiceSvc: voiceSvc}
}

// RegisterRoutes mounts the voice routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/voice", func(r chi.Router) {
		r.Get("/config", h.handleConfig)
		r.Post("/tts", h.handleSynthesize)
		r.Post("/stt", h.handleTranscribe)
	})
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.voiceSvc.Config())
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var payload voicemodel.TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	audio, used, err := h.voiceSvc.Synthesize(r.Context(), payload)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "voice synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("X-Voice-Used", used.Voice)
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	audio, language, err := readAudio(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(audio) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "audio is required")
		return
	}

	text, ok, err := h.voiceSvc.Transcribe(r.Context(), audio, language)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	if !ok {
		// No usable speech is a result, not an error.
		utils.RespondJSON(w, http.StatusOK, map[string]any{"noSpeech": true})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"text": text})
}

// readAudio accepts either a multipart form with an "audio" file (plus an
// optional "language" field) or a raw audio body with a "language" query
// parameter.
func readAudio(r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
			return nil, "", err
		}
		file, _, err := r.FormFile("audio")
		if err != nil {
			return nil, "", err
		}
		defer file.Close()

		audio, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
		if err != nil {
			return nil, "", err
		}
		return audio, r.FormValue("language"), nil
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioUpload))
	if err != nil {
		return nil, "", err
	}
	return audio, r.URL.Query().Get("language"), nil
}
