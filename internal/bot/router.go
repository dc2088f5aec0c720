package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"heartbot/internal/chart"
	"heartbot/internal/knowledge"
	"heartbot/internal/llm"
	"heartbot/internal/metrics"
	"heartbot/internal/models"
	"heartbot/internal/session"
)

// Reply texts.
const (
	TextDenied       = "您沒有權限使用此功能。"
	TextEnded        = "對話已結束。"
	TextNotFound     = "數據未找到或無法處理請求。"
	TextInvalidField = "無效的 field 識別符。請使用 'field1', 'field2', 'field3', 'field4', 或 'field5'。"
	TextChartFailed  = "處理圖表請求時出現問題: "
	TextFormat       = TextChartFailed + "輸入格式錯誤。請使用正確格式，例如: '圖表:2466473,GROLYCVTU08JWN8Q,field1'"
	TextResize       = TextChartFailed + "圖片尺寸調整失敗"
)

// Message is an inbound chat message.
// BaseURL is the public origin under which /static is served.
type Message struct {
	UserID  string
	Text    string
	BaseURL string
}

// Replier sends the reply to one message.
type Replier interface {
	ReplyText(ctx context.Context, text string) error
	ReplyImage(ctx context.Context, imageURL string) error
}

// ChartRenderer is the chart pipeline as seen by the router.
type ChartRenderer interface {
	RenderField(ctx context.Context, channelID, readKey, field string) (*models.ChartArtifact, error)
}

// Responder answers a conversation transcript. It must not fail.
type Responder interface {
	Reply(ctx context.Context, transcript string) string
}

// Access holds the static allow-lists.
type Access struct {
	Chart map[string]struct{}
	AI    map[string]struct{}
}

func (a Access) canChart(user string) bool {
	_, ok := a.Chart[user]
	return ok
}

func (a Access) canAI(user string) bool {
	_, ok := a.AI[user]
	return ok
}

// Router dispatches messages to the chart pipeline, the assistant or the session store.
type Router struct {
	charts    ChartRenderer
	sessions  session.Store
	assistant Responder
	access    Access
}

// NewRouter creates a router over its collaborators.
func NewRouter(charts ChartRenderer, sessions session.Store, assistant Responder, access Access) *Router {
	return &Router{charts: charts, sessions: sessions, assistant: assistant, access: access}
}

// Handle processes one message and sends at most one reply. It never panics.
func (r *Router) Handle(ctx context.Context, msg Message, rep Replier) {
	once := &onceReplier{next: rep}
	cmd := Command{Kind: KindUnknown}
	defer func() {
		if p := recover(); p != nil {
			log.Printf("router: panic handling %s from %s: %v", cmd.Kind, msg.UserID, p)
			metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), "panic").Inc()
			_ = once.ReplyText(ctx, llm.Fallback)
		}
	}()

	if !r.access.canChart(msg.UserID) && !r.access.canAI(msg.UserID) {
		r.deny(ctx, once, cmd.Kind)
		return
	}

	cmd = Parse(msg.Text)
	switch cmd.Kind {
	case KindChart:
		if !r.access.canChart(msg.UserID) {
			r.deny(ctx, once, cmd.Kind)
			return
		}
		r.handleChart(ctx, msg, cmd, once)
	case KindAI:
		if !r.access.canAI(msg.UserID) {
			r.deny(ctx, once, cmd.Kind)
			return
		}
		r.handleAI(ctx, msg, cmd, once)
	case KindEnd:
		if !r.access.canAI(msg.UserID) {
			r.deny(ctx, once, cmd.Kind)
			return
		}
		r.handleEnd(ctx, msg, once)
	default:
		metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), "ignored").Inc()
	}
}

func (r *Router) deny(ctx context.Context, rep Replier, kind Kind) {
	metrics.CommandsTotal.WithLabelValues(kind.String(), "denied").Inc()
	send(ctx, rep, TextDenied)
}

func (r *Router) handleChart(ctx context.Context, msg Message, cmd Command, rep Replier) {
	if cmd.Err != nil {
		metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), "invalid").Inc()
		send(ctx, rep, chartErrorText(cmd.Err))
		return
	}

	req := cmd.Chart
	log.Printf("chart request: user=%s channel=%s field=%s", msg.UserID, req.ChannelID, req.Field)
	art, err := r.charts.RenderField(ctx, req.ChannelID, req.ReadKey, req.Field)
	if err != nil {
		log.Printf("chart request failed: user=%s channel=%s: %v", msg.UserID, req.ChannelID, err)
		metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), "error").Inc()
		send(ctx, rep, chartErrorText(err))
		return
	}

	imageURL := StaticURL(msg.BaseURL, art.Name)
	if err := rep.ReplyImage(ctx, imageURL); err != nil {
		log.Printf("reply image: %v", err)
	}
	metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), "success").Inc()
}

func chartErrorText(err error) string {
	switch {
	case errors.Is(err, ErrFormat):
		return TextFormat
	case errors.Is(err, chart.ErrInvalidField):
		return TextInvalidField
	case errors.Is(err, chart.ErrNotFound):
		return TextNotFound
	case errors.Is(err, chart.ErrResize):
		return TextResize
	default:
		return TextChartFailed + err.Error()
	}
}

func (r *Router) handleAI(ctx context.Context, msg Message, cmd Command, rep Replier) {
	transcript, err := r.sessions.Append(ctx, msg.UserID, cmd.Text+" ")
	if err != nil {
		log.Printf("session append: user=%s: %v", msg.UserID, err)
		metrics.SessionOperations.WithLabelValues("append", "error").Inc()
		metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), "error").Inc()
		send(ctx, rep, llm.Fallback)
		return
	}
	metrics.SessionOperations.WithLabelValues("append", "success").Inc()

	var answer string
	if knowledge.Matches(cmd.Text) {
		answer = knowledge.Answer(cmd.Text)
	} else {
		answer = r.assistant.Reply(ctx, transcript)
	}

	if _, err := r.sessions.Append(ctx, msg.UserID, answer+" "); err != nil {
		log.Printf("session append: user=%s: %v", msg.UserID, err)
		metrics.SessionOperations.WithLabelValues("append", "error").Inc()
	}

	send(ctx, rep, answer)
	metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), "success").Inc()
}

func (r *Router) handleEnd(ctx context.Context, msg Message, rep Replier) {
	if err := r.sessions.Delete(ctx, msg.UserID); err != nil {
		log.Printf("session delete: user=%s: %v", msg.UserID, err)
		metrics.SessionOperations.WithLabelValues("delete", "error").Inc()
	} else {
		metrics.SessionOperations.WithLabelValues("delete", "success").Inc()
	}

	send(ctx, rep, TextEnded)
	metrics.CommandsTotal.WithLabelValues(KindEnd.String(), "success").Inc()
}

// StaticURL builds the public URL of a file in the chart directory.
func StaticURL(baseURL, name string) string {
	return fmt.Sprintf("%s/static/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(name))
}

func send(ctx context.Context, rep Replier, text string) {
	if err := rep.ReplyText(ctx, text); err != nil {
		log.Printf("reply text: %v", err)
	}
}

// onceReplier drops every reply after the first.
type onceReplier struct {
	next Replier
	sent bool
}

func (o *onceReplier) ReplyText(ctx context.Context, text string) error {
	if o.sent {
		return nil
	}
	o.sent = true
	return o.next.ReplyText(ctx, text)
}

func (o *onceReplier) ReplyImage(ctx context.Context, imageURL string) error {
	if o.sent {
		return nil
	}
	o.sent = true
	return o.next.ReplyImage(ctx, imageURL)
}
