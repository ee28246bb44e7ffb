// Package main is the entrypoint of boltzd, the Swap Nursery daemon: it
// loads storage, wires the nursery's collaborators, and serves the JSON-RPC
// surface described by package rpc.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log"
	"github.com/urfave/cli/v2"

	"github.com/djkazic/boltz-backend/cliutil"
	"github.com/djkazic/boltz-backend/currency"
	"github.com/djkazic/boltz-backend/deferredclaim"
	"github.com/djkazic/boltz-backend/evm"
	"github.com/djkazic/boltz-backend/lightning"
	"github.com/djkazic/boltz-backend/notification"
	"github.com/djkazic/boltz-backend/nursery"
	"github.com/djkazic/boltz-backend/refundwatcher"
	"github.com/djkazic/boltz-backend/rpc"
	"github.com/djkazic/boltz-backend/storage/boltrepo"
)

const (
	flagDataDir    = "datadir"
	flagRPCAddress = "rpc-address"
	flagLogLevel   = "log-level"
)

var log = logging.Logger("boltzd")

func main() {
	if err := cliApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cliApp() *cli.App {
	return &cli.App{
		Name:    "boltzd",
		Usage:   "Swap Nursery daemon",
		Version: cliutil.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagDataDir,
				Value:   "./data",
				EnvVars: []string{"BOLTZD_DATADIR"},
				Usage:   "directory holding the swap database",
			},
			&cli.StringFlag{
				Name:    flagRPCAddress,
				Value:   "127.0.0.1:9001",
				EnvVars: []string{"BOLTZD_RPC_ADDRESS"},
				Usage:   "address the JSON-RPC/websocket server listens on",
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Value:   "info",
				EnvVars: []string{"BOLTZD_LOG_LEVEL"},
				Usage:   "log level (debug, info, warn, error)",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if err := logging.SetLogLevel("*", c.String(flagLogLevel)); err != nil {
		return fmt.Errorf("boltzd: set log level: %w", err)
	}

	db, err := boltrepo.Open(c.String(flagDataDir))
	if err != nil {
		return fmt.Errorf("boltzd: open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	swaps := boltrepo.NewSwapRepository(db)
	reverseSwaps := boltrepo.NewReverseSwapRepository(db)
	chainSwaps := boltrepo.NewChainSwapRepository(db)
	wrapped := boltrepo.NewWrappedRepository(swaps, reverseSwaps, chainSwaps)
	refundTxs := boltrepo.NewRefundTransactionRepository(db)
	channels := boltrepo.NewChannelCreationRepository(db)
	labels := boltrepo.NewTransactionLabelRepository()

	// loadCollaborators constructs the live chain/wallet/Lightning-node
	// clients a deployment actually talks to (bitcoind/elementsd RPC,
	// lnd/cln gRPC, an Ethereum RPC endpoint). Those concrete clients are
	// deployment-specific and live outside this module, per the
	// ChainClient/Wallet/lightning.Client doc comments; an unconfigured
	// daemon runs with empty registries and simply watches nothing.
	currencies, evmRegistry, nodeSwitch, channelNursery := loadCollaborators(c)

	paymentHandler := lightning.NewPaymentHandler(nodeSwitch, channelNursery, 30*time.Second, 2*time.Minute)

	n := nursery.New(nursery.Config{
		Currencies:           currencies,
		EVM:                  evmRegistry,
		Swaps:                swaps,
		ReverseSwaps:         reverseSwaps,
		ChainSwaps:           chainSwaps,
		Wrapped:              wrapped,
		RefundTxs:            refundTxs,
		Channels:             channels,
		Labels:               labels,
		PaymentHandler:       paymentHandler,
		DeferredClaimer:      deferredclaim.NeverDefer{},
		Notifier:             notification.LogNotifier{},
		LightningCallTimeout: 30 * time.Second,
		RetryInterval:        time.Minute,
	})

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	refunds := refundwatcher.New(refundTxs, currencies, 30*time.Second, 1)
	n.Subscribe(refunds.Events())

	server, err := rpc.NewServer(&rpc.Config{
		Ctx:          ctx,
		Address:      c.String(flagRPCAddress),
		Swaps:        swaps,
		ReverseSwaps: reverseSwaps,
		ChainSwaps:   chainSwaps,
	})
	if err != nil {
		return fmt.Errorf("boltzd: start RPC server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	errCh := make(chan error, 2)
	go func() { errCh <- n.Run(ctx) }()
	go func() { errCh <- server.Start() }()
	go refunds.Run(ctx)

	err = <-errCh
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// loadCollaborators is the seam where a deployment plugs in its actual
// chain clients, wallets and Lightning nodes. boltzd itself ships with
// none configured, since those are reached over RPC/gRPC endpoints that
// differ per operator and are out of this module's scope (spec.md §1).
func loadCollaborators(_ *cli.Context) (
	*currency.Registry,
	*evm.Registry,
	lightning.NodeSwitch,
	lightning.ChannelNursery,
) {
	return currency.NewRegistry(nil), evm.NewRegistry(nil, nil, nil), lightning.NewDefaultNodeSwitch(), noChannelNursery{}
}

// noChannelNursery is the default ChannelNursery: it fails any request to
// open a channel, since no just-in-time-channel operator is configured.
type noChannelNursery struct{}

func (noChannelNursery) EnsureChannel(context.Context, *lightning.ChannelCreationRequest) error {
	return fmt.Errorf("boltzd: no channel nursery configured")
}
