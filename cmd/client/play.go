package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/neelparekh9/dialogue-gateway/internal/client"
	"github.com/neelparekh9/dialogue-gateway/internal/config"
	"github.com/neelparekh9/dialogue-gateway/internal/observability"
	"github.com/neelparekh9/dialogue-gateway/internal/player"
	"github.com/neelparekh9/dialogue-gateway/internal/stream"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Walk the dialogue script from a starting node",
	Long: `Play requests the starting node and keeps following the script: each
line streams in sentence by sentence, audio and text together, and the
END frame's options decide where the dialogue goes next.`,
	RunE: runPlay,
}

var (
	startNode int
	mute      bool
	once      bool
)

func init() {
	playCmd.Flags().IntVarP(&startNode, "node", "n", 1, "script node to start from")
	playCmd.Flags().BoolVar(&mute, "mute", false, "skip audio playback, text only")
	playCmd.Flags().BoolVar(&once, "once", false, "play a single node and exit")

	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink player.Queue
	if mute {
		sink = player.NewNullQueue()
	} else {
		sink = player.NewSpeakerQueue(logger)
	}
	defer sink.Close()

	interval := revealInterval()
	stdin := bufio.NewScanner(os.Stdin)

	node := startNode
	userInput := ""
	for {
		next, input, err := playNode(ctx, node, userInput, sink, interval, stdin, logger)
		if err != nil {
			return err
		}
		if once || next == 0 {
			return nil
		}
		node, userInput = next, input
	}
}

// playNode requests one script node, renders its stream, and prompts for
// the branch to take. It returns the next node (0 to stop) and the user
// input to send with the next request.
func playNode(ctx context.Context, node int, userInput string, sink player.Queue,
	interval time.Duration, stdin *bufio.Scanner, logger zerolog.Logger) (int, string, error) {

	resp, err := requestNode(ctx, node, userInput)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, "", decodeServerError(resp)
	}

	out := os.Stdout
	reveal := client.NewReveal(interval, newRenderer(out))
	session := client.NewSession(sink, reveal, logger)

	switch resp.Header.Get(stream.ResponseModeHeader) {
	case stream.ModePrerecorded:
		err = consumePrerecorded(resp.Body, session)
	default:
		err = client.Consume(ctx, resp.Body, session.Dispatch)
	}
	if err != nil {
		return 0, "", fmt.Errorf("node %d: %w", node, err)
	}
	fmt.Fprintln(out)

	if !session.Ended() {
		logger.Warn().Int("node_id", node).Msg("Stream ended without an END frame")
		return 0, "", nil
	}
	return promptNext(session, stdin, out)
}

func requestNode(ctx context.Context, node int, userInput string) (*http.Response, error) {
	payload, err := json.Marshal(map[string]string{"userInput": userInput})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/interaction/%d", strings.TrimRight(serverURL, "/"), node)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-ID", observability.NewCorrelationID())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request node %d: %w", node, err)
	}
	return resp, nil
}

func decodeServerError(resp *http.Response) error {
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body["error"] != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body["error"])
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}

// consumePrerecorded handles the single-payload response shape: the whole
// line arrives as one frame, played in one piece
func consumePrerecorded(body io.Reader, session *client.Session) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read prerecorded body: %w", err)
	}

	var f stream.Frame
	if err := json.Unmarshal(bytes.TrimSpace(raw), &f); err != nil {
		return fmt.Errorf("decode prerecorded payload: %w", err)
	}

	if err := session.Dispatch(f); err != nil {
		return err
	}
	// A prerecorded payload carries the END frame's context itself
	return session.Dispatch(stream.Frame{
		NodeID:        f.NodeID,
		Dialogue:      f.WholeDialogue,
		Input:         f.Input,
		Options:       f.Options,
		Type:          stream.TypeEnd,
		WholeDialogue: f.WholeDialogue,
	})
}

// promptNext shows the scripted branches and reads the user's choice: an
// option number takes that branch, free text follows the input affordance,
// a blank line also follows it, and "q" stops.
func promptNext(session *client.Session, stdin *bufio.Scanner, out io.Writer) (int, string, error) {
	options := session.Options()
	for i, opt := range options {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, opt.OptionText)
	}
	if session.NextNode() == 0 && len(options) == 0 {
		return 0, "", nil
	}

	fmt.Fprint(out, "> ")
	if !stdin.Scan() {
		return 0, "", nil
	}
	line := strings.TrimSpace(stdin.Text())

	if line == "q" || line == "quit" {
		return 0, "", nil
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
		return options[n-1].NextNode, options[n-1].OptionText, nil
	}
	return session.NextNode(), line, nil
}

// newRenderer rewrites the current line in place as a sentence types out,
// moving to a fresh line whenever a new sentence starts
func newRenderer(w io.Writer) func(string) {
	last := ""
	return func(text string) {
		if last != "" && !strings.HasPrefix(text, last) {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "\r%s", text)
		last = text
	}
}

func revealInterval() time.Duration {
	ms, err := strconv.Atoi(config.GetEnv("REVEAL_INTERVAL_MS", "20"))
	if err != nil || ms <= 0 {
		ms = 20
	}
	return time.Duration(ms) * time.Millisecond
}
