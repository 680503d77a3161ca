package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/minutes/internal/extractor"
	"github.com/MikeSquared-Agency/minutes/internal/processor"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostOutcome posts a summary of the analysis and threads the full result
// envelope under it. Returns the header message ts.
func (p *Poster) PostOutcome(ctx context.Context, o *processor.Outcome, source string) (string, error) {
	text := formatOutcomeMessage(o, source)

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "analysis " + o.ID.String(),
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	p.logger.Info("posted analysis to slack", "ts", ts, "analysis_id", o.ID.String())

	body, err := processor.EncodeIndent(o)
	if err != nil {
		return ts, err
	}
	if err := p.PostThread(ctx, ts, "```\n"+string(body)+"\n```"); err != nil {
		p.logger.Warn("failed to post result thread", "ts", ts, "error", err)
	}
	return ts, nil
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatOutcomeMessage(o *processor.Outcome, source string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Transcript:* %s\n", source)

	if !o.Succeeded() {
		fmt.Fprintf(&sb, "*Analysis failed:* %s\n", o.Details)
		return sb.String()
	}

	fmt.Fprintf(&sb, "*Meeting type:* %s\n\n", o.Category.Label())

	if o.Extraction.Failed() {
		fmt.Fprintf(&sb, "_%s_ (raw response in thread)", extractor.ParseFailureTag)
		return sb.String()
	}

	rec, ok := o.Extraction.Record.(map[string]any)
	if !ok {
		sb.WriteString("_Extraction was not a JSON object._")
		return sb.String()
	}

	switch o.Category {
	case extractor.SalesMeeting:
		writeList(&sb, "このミーティングの後やるべきこと", rec["このミーティングの後やるべきこと"])
		if closing, ok := rec["クロージング（契約締結）"].(map[string]any); ok {
			writeScalar(&sb, "最終的契約内容の確認", closing["最終的契約内容の確認"])
		}
	default:
		writeList(&sb, "会議の論点", rec["会議の論点"])
		writeScalar(&sb, "結論", rec["結論"])
		writeList(&sb, "次やるTodo", rec["次やるTodo"])
	}

	return sb.String()
}

func writeScalar(sb *strings.Builder, label string, v any) {
	fmt.Fprintf(sb, "*%s:* %s\n", label, display(v))
}

func writeList(sb *strings.Builder, label string, v any) {
	items, ok := v.([]any)
	if !ok {
		writeScalar(sb, label, v)
		return
	}
	fmt.Fprintf(sb, "*%s:*\n", label)
	for _, it := range items {
		fmt.Fprintf(sb, "• %s\n", display(it))
	}
}

// display renders null as a dash so absent items stay visible.
func display(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
