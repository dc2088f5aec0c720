package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"heartbot/internal/bot"
)

// Messenger is the subset of the LINE Messaging API the bot uses.
type Messenger interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
	GetGroupMemberProfile(groupID, userID string) (*messaging_api.GroupUserProfileResponse, error)
}

// lineReplier answers one event through its reply token.
type lineReplier struct {
	api   Messenger
	token string
}

func (l *lineReplier) ReplyText(_ context.Context, text string) error {
	return l.reply(messaging_api.TextMessage{Text: text})
}

func (l *lineReplier) ReplyImage(_ context.Context, imageURL string) error {
	return l.reply(messaging_api.ImageMessage{
		OriginalContentUrl: imageURL,
		PreviewImageUrl:    imageURL,
	})
}

func (l *lineReplier) reply(msg messaging_api.MessageInterface) error {
	_, err := l.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: l.token,
		Messages:   []messaging_api.MessageInterface{msg},
	})
	if err != nil {
		return fmt.Errorf("line reply: %w", err)
	}
	return nil
}

// Callback handles POST /callback.
// Every correctly signed delivery is answered with 200 OK whatever happens while handling it.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	cb, err := webhook.ParseRequest(h.channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			log.Printf("webhook: invalid signature from %s", r.RemoteAddr)
		} else {
			log.Printf("webhook: parse request: %v", err)
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	baseURL := h.baseURL(r)
	for _, event := range cb.Events {
		h.dispatch(r.Context(), event, baseURL)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) dispatch(ctx context.Context, event webhook.EventInterface, baseURL string) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		text, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			return
		}
		msg := bot.Message{UserID: sourceUserID(e.Source), Text: text.Text, BaseURL: baseURL}
		h.router.Handle(ctx, msg, &lineReplier{api: h.messenger, token: e.ReplyToken})
	case webhook.PostbackEvent:
		if e.Postback != nil {
			log.Printf("webhook: postback data=%s", e.Postback.Data)
		}
	case webhook.MemberJoinedEvent:
		h.welcome(e)
	}
}

// welcome greets the first member of a join event by display name.
func (h *Handler) welcome(e webhook.MemberJoinedEvent) {
	group, ok := e.Source.(webhook.GroupSource)
	if !ok || e.Joined == nil || len(e.Joined.Members) == 0 {
		return
	}
	uid := e.Joined.Members[0].UserId
	profile, err := h.messenger.GetGroupMemberProfile(group.GroupId, uid)
	if err != nil {
		log.Printf("webhook: member profile %s: %v", uid, err)
		return
	}
	rep := &lineReplier{api: h.messenger, token: e.ReplyToken}
	if err := rep.ReplyText(context.Background(), profile.DisplayName+" 歡迎加入"); err != nil {
		log.Printf("webhook: welcome: %v", err)
	}
}

func sourceUserID(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	default:
		return ""
	}
}

func (h *Handler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	return "https://" + r.Host
}
