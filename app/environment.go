package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/trufnetwork/rootcred/internal/config"
	"github.com/trufnetwork/rootcred/internal/eas"
	"github.com/trufnetwork/rootcred/internal/metrics"
	"github.com/trufnetwork/rootcred/internal/wallet"
)

// environment holds what a command needs once the configuration is loaded.
// Nothing here touches the network until an operation runs.
type environment struct {
	configPath string
	dial       eas.DialFunc

	cfg     *config.Config
	logger  *zap.Logger
	metrics metrics.Recorder
	dialer  *eas.Dialer
	session *wallet.Session
	client  *eas.Client
}

func (e *environment) setup() error {
	if e.client != nil {
		return nil
	}

	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := zap.L()
	if cfg.Logger.Development {
		logger = zap.Must(zap.NewDevelopment())
		zap.ReplaceGlobals(logger)
	}
	if r := cfg.Readiness(); len(r.Missing) > 0 {
		logger.Debug("configuration incomplete",
			zap.Bool("reads", r.Reads),
			zap.Bool("writes", r.Writes),
			zap.Strings("missing", r.Missing))
	}

	e.cfg = cfg
	e.logger = logger
	e.metrics = metrics.NewRecorder(logger)
	e.dialer = eas.NewDialer(cfg.RPCURL, e.dial)
	e.session = wallet.NewSession(logger, wallet.ConnectorsFromConfig(cfg.Wallet)...)
	e.client = eas.NewClient(cfg, e.dialer,
		eas.WithWallet(e.session),
		eas.WithLogger(logger),
		eas.WithMetrics(e.metrics))
	return nil
}

// close drops the wallet key and the RPC connection.
func (e *environment) close() {
	if e.session != nil {
		_ = e.session.Disconnect(context.Background())
	}
	if e.dialer != nil {
		e.dialer.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}
