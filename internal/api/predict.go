package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"arena-ladder/internal/config"
	"arena-ladder/internal/domain"

	"github.com/valyala/fasthttp"
)

// PredictClient forwards a templated prompt about a player to an external
// text-generation API and returns its narrative JSON verbatim. There is no
// ranking logic here; the collaborator is purely cosmetic.
type PredictClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *fasthttp.Client
}

func NewPredictClient(cfg *config.Config) *PredictClient {
	return &PredictClient{
		baseURL: strings.TrimSuffix(cfg.PredictAPIURL, "/"),
		apiKey:  cfg.PredictAPIKey,
		model:   cfg.PredictModel,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// Enabled reports whether a prediction backend is configured.
func (c *PredictClient) Enabled() bool {
	return c.baseURL != ""
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You are a hype commentator for a competitive gaming ladder. " +
	"Given a player's stats, reply with a JSON object containing the keys " +
	"\"headline\", \"analysis\" and \"outlook\", each a short string."

// Predict builds a prompt from the player snapshot and recent history and
// returns the model's JSON narrative.
func (c *PredictClient) Predict(ctx context.Context, player *domain.Player, history []domain.RankHistory) (json.RawMessage, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Player %q is ranked #%d with %d points (peak %d). ",
		player.Name, player.Rank, player.Points, player.PeakPoints)
	fmt.Fprintf(&sb, "Record: %d wins, %d losses, win streak %d, %d kills. ",
		player.Wins, player.Losses, player.WinStreak, player.Kills)
	fmt.Fprintf(&sb, "Recent form (oldest first): %s. ", player.RecentMatches)
	if len(history) > 0 {
		fmt.Fprintf(&sb, "Last recorded result: %s for %+d points. ",
			history[0].Outcome, history[0].PointsChange)
	}
	sb.WriteString("Write the prediction JSON now.")

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: sb.String()},
		},
	}
	body.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/v1/chat/completions")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.SetBody(payload)

	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("prediction API error: %d", resp.StatusCode())
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse prediction response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("prediction API returned no choices")
	}

	narrative := json.RawMessage(parsed.Choices[0].Message.Content)
	if !json.Valid(narrative) {
		return nil, fmt.Errorf("prediction API returned invalid JSON narrative")
	}
	return narrative, nil
}
