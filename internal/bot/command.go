package bot

import (
	"errors"
	"strings"

	"heartbot/internal/chart"
	"heartbot/internal/models"
)

// ErrFormat marks a chart command whose payload is not channel,key,field.
var ErrFormat = errors.New("bot: malformed chart command")

// Kind identifies a parsed command.
type Kind int

const (
	// KindUnknown is any text without a recognised prefix.
	KindUnknown Kind = iota
	// KindChart is a "圖表:" chart request.
	KindChart
	// KindAI is an "ai:" conversation turn.
	KindAI
	// KindEnd ends the conversation.
	KindEnd
)

// String returns the metric label of the kind.
func (k Kind) String() string {
	switch k {
	case KindChart:
		return "chart"
	case KindAI:
		return "ai"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

const (
	prefixChart = "圖表:"
	prefixAI    = "ai:"
	prefixEnd   = "end"
	prefixLen   = 3
)

// ChartRequest is the payload of a chart command.
type ChartRequest struct {
	ChannelID string
	ReadKey   string
	Field     string
}

// Command is one inbound message after prefix dispatch.
// Err is set for chart commands that failed validation.
type Command struct {
	Kind  Kind
	Text  string
	Chart ChartRequest
	Err   error
}

// Parse splits text into a three-character, case-insensitive prefix and a trimmed payload.
func Parse(text string) Command {
	r := []rune(text)
	n := min(prefixLen, len(r))
	prefix := strings.ToLower(string(r[:n]))
	payload := strings.TrimSpace(string(r[n:]))

	switch prefix {
	case prefixChart:
		return parseChart(payload)
	case prefixAI:
		return Command{Kind: KindAI, Text: payload}
	case prefixEnd:
		return Command{Kind: KindEnd, Text: payload}
	default:
		return Command{Kind: KindUnknown, Text: text}
	}
}

func parseChart(payload string) Command {
	cmd := Command{Kind: KindChart, Text: payload}
	parts := strings.Split(payload, ",")
	if len(parts) != 3 {
		cmd.Err = ErrFormat
		return cmd
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	cmd.Chart = ChartRequest{ChannelID: parts[0], ReadKey: parts[1], Field: parts[2]}
	if _, ok := models.LookupField(cmd.Chart.Field); !ok {
		cmd.Err = chart.ErrInvalidField
	}
	return cmd
}
