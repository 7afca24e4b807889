package main

import (
	"context"
	"encoding/base64"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/Cheese-MoveGuess-bot/internal/chess"
	"github.com/park285/Cheese-MoveGuess-bot/internal/irisfast"
	"github.com/park285/Cheese-MoveGuess-bot/internal/obslog"
	"github.com/park285/Cheese-MoveGuess-bot/internal/service/puzzle"
	"go.uber.org/zap"
)

// irischeck probes the Iris bridge: GET /config, a short websocket watch and,
// when IRISCHECK_ROOM is set, one sample puzzle board sent through the egress.
func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	baseURL := strings.TrimSpace(os.Getenv("IRIS_BASE_URL"))
	wsURL := strings.TrimSpace(os.Getenv("IRIS_WS_URL"))
	room := strings.TrimSpace(os.Getenv("IRISCHECK_ROOM"))
	mode := strings.TrimSpace(os.Getenv("EGRESS_MODE"))
	if mode == "" {
		mode = "http"
	}
	if baseURL == "" {
		logger.Fatal("IRIS_BASE_URL is required")
	}

	headers := func() map[string]string {
		m := map[string]string{}
		for env, header := range map[string]string{
			"X_USER_ID":    "X-User-Id",
			"X_USER_EMAIL": "X-User-Email",
			"X_SESSION_ID": "X-Session-Id",
		} {
			if v := strings.TrimSpace(os.Getenv(env)); v != "" {
				m[header] = v
			}
		}
		return m
	}

	client := irisfast.NewClient(baseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	cfg, err := client.GetConfig(ctx)
	cancel()
	if err != nil {
		logger.Error("config_check_failed", zap.Error(err))
	} else {
		logger.Info("config_check_ok",
			zap.String("bot", cfg.BotName),
			zap.Int("port", cfg.Port),
			zap.Int("polling", cfg.PollingSpeed),
			zap.Int("rate", cfg.MessageRate),
			zap.String("endpoint", cfg.WebserverEndpoint),
		)
	}

	var ws *irisfast.WebSocket
	if wsURL == "" {
		logger.Info("ws_check_skipped", zap.String("reason", "IRIS_WS_URL not set"))
	} else {
		ws = irisfast.NewWebSocket(wsURL, 5, time.Second)
		ws.SetHeaderProvider(headers)
		ws.SetLogger(logger.Named("ws"))
		ws.OnStateChange(func(state irisfast.WebSocketState) {
			logger.Info("ws_state", zap.Stringer("state", state))
		})
		ws.OnMessage(func(msg *irisfast.Message) {
			logger.Info("ws_message", zap.String("room", msg.Room), zap.String("from", msg.SenderName()), zap.String("text", msg.Msg))
		})

		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := ws.Connect(cctx)
		ccancel()
		if err != nil {
			logger.Error("ws_connect_failed", zap.Error(err))
			ws = nil
		}
	}

	if room != "" {
		if err := sendSample(client, ws, mode, room, logger); err != nil {
			logger.Error("sample_send_failed", zap.Error(err))
		}
	}

	if ws != nil {
		// Observe for a short window.
		time.Sleep(10 * time.Second)
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = ws.Close(closeCtx)
	}
}

func sendSample(client *irisfast.Client, ws *irisfast.WebSocket, mode, room string, logger *zap.Logger) error {
	pz, err := chess.NewGenerator().NewPuzzle()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	png, err := puzzle.NewSVGBoardRenderer().RenderPNG(ctx, chess.ReferenceBoard(pz.Board), puzzle.RenderOptions{
		HUDHeader: "irischeck",
		HUDStatus: pz.Board.FEN(chess.White),
	})
	if err != nil {
		return err
	}
	egress := irisfast.NewEgress(mode, false, client, ws, logger.Named("egress"))
	if err := egress.SendText(ctx, room, "irischeck: sample puzzle board"); err != nil {
		return err
	}
	if err := egress.SendImage(ctx, room, base64.StdEncoding.EncodeToString(png)); err != nil {
		return err
	}
	logger.Info("sample_sent", zap.String("room", room), zap.Int("bytes", len(png)))
	return nil
}
