package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
	"pdf-rag/internal/server"
)

const previewRunes = 200

var (
	askURL     string
	askSession string
	askTimeout time.Duration
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	answerStyle   = lipgloss.NewStyle().PaddingLeft(2)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	sourceStyle   = lipgloss.NewStyle().Faint(true).PaddingLeft(4)
	pageStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a running server a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
		defer cancel()

		resp, session, err := postQuestion(ctx, askURL, askSession, question)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, questionStyle.Render("Q: "+question))
		fmt.Fprintln(os.Stdout, answerStyle.Render(resp.Answer))
		if len(resp.Sources) > 0 {
			fmt.Fprintln(os.Stdout, headerStyle.Render("Sources"))
			for i, src := range resp.Sources {
				page := "page unknown"
				if src.Page != nil {
					page = fmt.Sprintf("page %d", *src.Page)
				}
				fmt.Fprintf(os.Stdout, "  %d. %s\n", i+1, pageStyle.Render(page))
				fmt.Fprintln(os.Stdout, sourceStyle.Render(helper.Truncate(src.Text, previewRunes)))
			}
		}
		if askSession == "" && session != "" {
			fmt.Fprintf(os.Stderr, "session: %s (pass --session to continue the conversation)\n", session)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askURL, "url", "http://localhost:8000", "base URL of the server")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id for follow-up questions")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 90*time.Second, "request timeout")
}

// postQuestion sends question to the chat endpoint and returns the response and the session id used.
func postQuestion(ctx context.Context, baseURL, session, question string) (models.ChatResponse, string, error) {
	var out models.ChatResponse
	body, err := json.Marshal(models.ChatRequest{Question: question})
	if err != nil {
		return out, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/chat", bytes.NewReader(body))
	if err != nil {
		return out, "", fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(server.SessionHeader, session)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return out, "", fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return out, "", fmt.Errorf("%w: request failed: %d, %s", models.ErrTransport, res.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return out, "", fmt.Errorf("%w: decode response: %v", models.ErrTransport, err)
	}
	return out, res.Header.Get(server.SessionHeader), nil
}
