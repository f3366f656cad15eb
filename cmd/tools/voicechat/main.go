// Command voicechat is an interactive console chat with Iroha: replies are
// printed and, unless text-only mode is on, synthesized and played through
// the OS audio player.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iroha-ai/backend/internal/config"
	"github.com/iroha-ai/backend/internal/history"
	"github.com/iroha-ai/backend/internal/logging"
	"github.com/iroha-ai/backend/internal/model/chat"
	"github.com/iroha-ai/backend/internal/model/persona"
	voicemodel "github.com/iroha-ai/backend/internal/model/voice"
	"github.com/iroha-ai/backend/internal/service/ai"
	voiceservice "github.com/iroha-ai/backend/internal/service/voice"
	"github.com/iroha-ai/backend/internal/token"
)

type chatState struct {
	history  []chat.Turn
	voice    string
	speed    float64
	textOnly bool
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New("warn", true)
	personas := persona.NewRegistry(persona.Seed())

	counter, err := token.NewTiktokenCounter(cfg.AI.TokenEncoding)
	var builder *history.Builder
	if err != nil {
		builder = history.NewBuilder(token.EstimateCounter{}, cfg.AI.MaxContextTokens)
	} else {
		builder = history.NewBuilder(counter, cfg.AI.MaxContextTokens)
	}

	aiSvc := ai.NewService(personas, nil, builder, ai.NewGroqClient(cfg.AI), log)
	voiceSvc := voiceservice.NewService(cfg.AI, cfg.Voice, log)

	state := &chatState{voice: cfg.Voice.TTSVoice, speed: cfg.Voice.TTSSpeed}

	printBanner()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nSenpai> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			fmt.Println("Mata ne, Senpai~")
			return
		}
		if strings.HasPrefix(line, "/") {
			if handleCommand(line, state) {
				return
			}
			continue
		}

		exchange(aiSvc, voiceSvc, state, line)
	}
}

func exchange(aiSvc *ai.Service, voiceSvc *voiceservice.Service, state *chatState, message string) {
	ctx := context.Background()

	fmt.Println("\nIroha is thinking...")
	reply, err := aiSvc.Respond(ctx, ai.RespondRequest{
		Message:    message,
		PersonaKey: persona.DefaultKey,
		History:    state.history,
	})
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if !reply.OK {
		fmt.Printf("\n%s\n", reply.Text)
		return
	}

	state.history = append(state.history,
		chat.Turn{Role: chat.RoleUser, Content: message, CreatedAt: time.Now()},
		chat.Turn{Role: chat.RoleAssistant, Content: reply.Text, CreatedAt: time.Now()},
	)

	fmt.Printf("\n%s %s:\n%s\n", reply.Persona.Avatar, reply.Persona.Name, reply.Text)
	fmt.Printf("(%.2fs)\n", reply.ElapsedSeconds)

	if state.textOnly {
		return
	}

	fmt.Printf("Generating voice... (voice: %s, speed: %.2f)\n", state.voice, state.speed)
	audio, _, err := voiceSvc.Synthesize(ctx, voicemodel.TTSRequest{
		Text:  reply.Text,
		Voice: state.voice,
		Speed: state.speed,
	})
	if err != nil {
		fmt.Printf("voice generation failed: %v\n", err)
		return
	}
	if err := playAudio(audio); err != nil {
		fmt.Printf("could not play audio: %v\n", err)
	}
}

// handleCommand processes a slash command; returns true when the loop
// should exit.
func handleCommand(line string, state *chatState) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		printBanner()
	case "/voice":
		if len(fields) < 2 {
			fmt.Println("usage: /voice <name>")
			return false
		}
		state.voice = fields[1]
		fmt.Printf("voice set to %s\n", state.voice)
	case "/speed":
		if len(fields) < 2 {
			fmt.Println("usage: /speed <0.5-2.0>")
			return false
		}
		speed, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			fmt.Println("invalid speed")
			return false
		}
		state.speed = speed
		fmt.Printf("speed set to %.2f\n", speed)
	case "/textonly":
		state.textOnly = !state.textOnly
		fmt.Printf("text-only mode: %v\n", state.textOnly)
	case "/history":
		for _, turn := range state.history {
			fmt.Printf("[%s] %s\n", turn.Role, turn.Content)
		}
	case "/clear":
		state.history = nil
		fmt.Println("history cleared")
	case "/export":
		if err := exportHistory(state.history); err != nil {
			fmt.Printf("export failed: %v\n", err)
		}
	default:
		fmt.Println("unknown command, try /help")
	}
	return false
}

func exportHistory(turns []chat.Turn) error {
	if len(turns) == 0 {
		fmt.Println("nothing to export")
		return nil
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("iroha_chat_%d.txt", time.Now().Unix()))
	var sb strings.Builder
	for _, turn := range turns {
		sb.WriteString(fmt.Sprintf("[%s] %s\n\n", turn.Role, turn.Content))
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return err
	}
	fmt.Printf("history exported to %s\n", path)
	return nil
}

func playAudio(audio []byte) error {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("iroha_voice_%d.wav", os.Getpid()))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return err
	}
	defer os.Remove(path)

	cmd := exec.Command("aplay", path)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run()
}

func printBanner() {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("  IROHA VOICE CHAT - interactive mode")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Commands:")
	fmt.Println("  /voice <name>   select TTS voice")
	fmt.Println("  /speed <0.5-2>  set speech speed")
	fmt.Println("  /textonly       toggle voice output")
	fmt.Println("  /history        show history   /clear  clear history")
	fmt.Println("  /export         save history to a .txt file")
	fmt.Println("  /help           this help      quit    exit")
}
