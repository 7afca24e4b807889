package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/Cheese-MoveGuess-bot/internal/adapter/puzzlepresenter"
	appcfg "github.com/park285/Cheese-MoveGuess-bot/internal/config"
	"github.com/park285/Cheese-MoveGuess-bot/internal/irisfast"
	"github.com/park285/Cheese-MoveGuess-bot/internal/obslog"
	"github.com/park285/Cheese-MoveGuess-bot/internal/puzzlebuilder"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	headers := func() map[string]string {
		h := map[string]string{}
		if cfg.XUserID != "" {
			h["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			h["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			h["X-Session-Id"] = cfg.XSessionID
		}
		return h
	}

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
	ws.SetHeaderProvider(headers)
	ws.SetLogger(logger.Named("ws"))
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.Stringer("state", state))
	})

	deps, err := puzzlebuilder.New(cfg, logger.Named("puzzle"))
	if err != nil {
		logger.Fatal("puzzle_init_error", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	egress := irisfast.NewEgress(cfg.EgressMode, false, client, ws, logger.Named("egress"))
	h := &handler{
		prefix:    cfg.BotPrefix,
		service:   deps.Service,
		presenter: puzzlepresenter.NewPresenter(egress),
		formatter: puzzlepresenter.NewFormatter(prefixProvider{prefix: cfg.BotPrefix}, deps.Catalog),
		logger:    logger,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws.OnMessage(func(msg *irisfast.Message) {
		if msg == nil || msg.Msg == "" {
			return
		}
		// Keep the read loop free.
		go h.handle(rootCtx, msg)
	})

	cctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	err = ws.Connect(cctx)
	cancel()
	if err != nil {
		logger.Fatal("ws_connect_error", zap.Error(err))
	}
	logger.Info("guess_bot_started",
		zap.String("prefix", cfg.BotPrefix),
		zap.String("egress", cfg.EgressMode),
		zap.Int("allowed_rooms", len(cfg.AllowedRooms)),
	)

	<-rootCtx.Done()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	_ = ws.Close(closeCtx)
	logger.Info("guess_bot_stopped")
}
