package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/Cheese-MoveGuess-bot/internal/adapter/puzzlepresenter"
	"github.com/park285/Cheese-MoveGuess-bot/internal/domain"
	"github.com/park285/Cheese-MoveGuess-bot/internal/irisfast"
	svc "github.com/park285/Cheese-MoveGuess-bot/internal/service/puzzle"
	"github.com/park285/Cheese-MoveGuess-bot/pkg/puzzledto"
	"go.uber.org/zap"
)

const commandTimeout = 15 * time.Second

type puzzleService interface {
	Start(ctx context.Context, meta svc.SessionMeta) (*svc.SessionState, error)
	Status(ctx context.Context, meta svc.SessionMeta) (*svc.SessionState, error)
	Guess(ctx context.Context, meta svc.SessionMeta, input string) (*svc.GuessSummary, error)
	GiveUp(ctx context.Context, meta svc.SessionMeta) (*svc.SessionState, error)
	History(ctx context.Context, meta svc.SessionMeta, limit int) ([]*domain.PuzzleGame, error)
	Record(ctx context.Context, meta svc.SessionMeta, id int64) (*domain.PuzzleGame, error)
	Profile(ctx context.Context, meta svc.SessionMeta) (*domain.PuzzleProfile, error)
}

type handler struct {
	prefix    string
	service   puzzleService
	presenter *puzzlepresenter.Presenter
	formatter *puzzlepresenter.Formatter
	logger    *zap.Logger
}

// commandWords are the first tokens after the prefix that address the puzzle bot.
var commandWords = map[string]bool{"guess": true, "g": true, "퍼즐": true, "맞추기": true}

func (h *handler) handle(ctx context.Context, msg *irisfast.Message) {
	if msg == nil {
		return
	}
	text := strings.TrimSpace(msg.Msg)
	if !strings.HasPrefix(text, h.prefix) {
		return
	}
	raw := strings.TrimSpace(strings.TrimPrefix(text, h.prefix))
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		h.reply(ctx, msg.Room, h.formatter.Help())
		return
	}
	cmd := strings.ToLower(parts[0])
	switch {
	case cmd == "help" || cmd == "도움말":
		h.reply(ctx, msg.Room, h.formatter.Help())
	case commandWords[cmd]:
		h.handlePuzzle(ctx, msg, parts[1:])
	default:
		// Other prefixed commands belong to other bots in the room.
	}
}

func (h *handler) handlePuzzle(ctx context.Context, msg *irisfast.Message, args []string) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	meta := puzzlepresenter.ToMeta(puzzledto.RequestMeta{
		SessionID: sessionIDFor(msg),
		Room:      msg.Room,
		Sender:    senderName(msg),
	})
	if len(args) == 0 {
		h.reply(ctx, msg.Room, h.formatter.Help())
		return
	}
	sub := strings.ToLower(args[0])

	switch sub {
	case "start", "new", "시작":
		state, err := h.service.Start(ctx, meta)
		resumed := errors.Is(err, svc.ErrSessionInProgress)
		if err != nil && !resumed {
			h.fail(ctx, msg.Room, "start", err)
			return
		}
		dto := puzzlepresenter.ToDTOState(state)
		h.board(ctx, msg.Room, h.formatter.Start(dto, resumed), dto)
	case "status", "현황":
		state, err := h.service.Status(ctx, meta)
		if err != nil {
			h.fail(ctx, msg.Room, "status", err)
			return
		}
		dto := puzzlepresenter.ToDTOState(state)
		h.board(ctx, msg.Room, h.formatter.Status(dto), dto)
	case "giveup", "resign", "포기":
		state, err := h.service.GiveUp(ctx, meta)
		if err != nil {
			h.fail(ctx, msg.Room, "giveup", err)
			return
		}
		dto := puzzlepresenter.ToDTOState(state)
		h.board(ctx, msg.Room, h.formatter.GiveUp(dto), dto)
	case "history", "기록":
		limit := 0
		if len(args) >= 2 {
			if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
				limit = n
			}
		}
		games, err := h.service.History(ctx, meta, limit)
		if err != nil {
			h.fail(ctx, msg.Room, "history", err)
			return
		}
		h.reply(ctx, msg.Room, h.formatter.History(puzzlepresenter.ToDTOGames(games)))
	case "record", "기보":
		if len(args) < 2 {
			h.reply(ctx, msg.Room, fmt.Sprintf("Usage: %sguess record <ID>", h.prefix))
			return
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(args[1], "#"), 10, 64)
		if err != nil {
			h.reply(ctx, msg.Room, fmt.Sprintf("Usage: %sguess record <ID>", h.prefix))
			return
		}
		game, err := h.service.Record(ctx, meta, id)
		if err != nil {
			h.fail(ctx, msg.Room, "record", err)
			return
		}
		h.reply(ctx, msg.Room, h.formatter.Record(puzzlepresenter.ToDTOGame(game)))
	case "profile", "프로필":
		profile, err := h.service.Profile(ctx, meta)
		if err != nil {
			h.fail(ctx, msg.Room, "profile", err)
			return
		}
		h.reply(ctx, msg.Room, h.formatter.Profile(puzzlepresenter.ToDTOProfile(profile)))
	case "help":
		h.reply(ctx, msg.Room, h.formatter.Help())
	default:
		summary, err := h.service.Guess(ctx, meta, strings.Join(args, " "))
		if err != nil {
			h.fail(ctx, msg.Room, "guess", err)
			return
		}
		dto := puzzlepresenter.ToDTOSummary(summary)
		var board *puzzledto.SessionState
		// Invalid guesses leave the board unchanged; skip the image.
		if !dto.Invalid || dto.State.TimedOut > 0 || dto.State.Finished {
			board = dto.State
		}
		h.board(ctx, msg.Room, h.formatter.Guess(dto), board)
	}
}

func (h *handler) fail(ctx context.Context, room, op string, err error) {
	de := puzzlepresenter.ToDomainError(err)
	if de.Code == puzzledto.CodeInternal {
		h.logger.Error("puzzle_command_failed", zap.String("op", op), zap.Error(err))
	} else {
		h.logger.Debug("puzzle_command_rejected", zap.String("op", op), zap.String("code", de.Code))
	}
	h.reply(ctx, room, h.formatter.Error(de))
}

func (h *handler) reply(ctx context.Context, room, text string) {
	if err := h.presenter.Text(ctx, room, text); err != nil {
		h.logger.Warn("reply_failed", zap.String("room", room), zap.Error(err))
	}
}

func (h *handler) board(ctx context.Context, room, text string, state *puzzledto.SessionState) {
	if err := h.presenter.Board(ctx, room, text, state); err != nil {
		h.logger.Warn("reply_failed", zap.String("room", room), zap.Error(err))
	}
}

func sessionIDFor(msg *irisfast.Message) string {
	uid := senderName(msg)
	return fmt.Sprintf("%s:%s", strings.TrimSpace(msg.Room), uid)
}

func senderName(msg *irisfast.Message) string {
	if name := strings.TrimSpace(msg.SenderName()); name != "" {
		return name
	}
	return "player"
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }
