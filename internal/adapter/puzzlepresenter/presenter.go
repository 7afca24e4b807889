package puzzlepresenter

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/park285/Cheese-MoveGuess-bot/pkg/puzzledto"
)

// Sender is the outbound half of the chat transport.
type Sender interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

// Presenter delivers formatted messages and board images without coupling to the command layer.
type Presenter struct {
	sender Sender
}

func NewPresenter(sender Sender) *Presenter {
	return &Presenter{sender: sender}
}

func (p *Presenter) Text(ctx context.Context, room, message string) error {
	if p == nil || p.sender == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sender.SendText(ctx, room, message)
}

// Board sends message first and then the board image, if the state carries one.
func (p *Presenter) Board(ctx context.Context, room, message string, state *puzzledto.SessionState) error {
	if p == nil || p.sender == nil {
		return nil
	}
	if err := p.Text(ctx, room, message); err != nil {
		return err
	}
	if state != nil && len(state.BoardImage) > 0 {
		encoded := base64.StdEncoding.EncodeToString(state.BoardImage)
		if err := p.sender.SendImage(ctx, room, encoded); err != nil {
			return err
		}
	}
	return nil
}
