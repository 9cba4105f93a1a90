// quarcd serves the simulation engine to the circuit editor over JSON HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	quarc "github.com/quarclab/quarc"
	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/server"
)

// -------------------------------------------------------------------------------------------------
// flags
var (
	fAddr      = flag.String("addr", ":8090", "listen address")
	fMaxQubits = flag.Int("max-qubits", circuit.DefaultMaxQubits, "dense simulation qubit ceiling")
	fMemoSize  = flag.Int("memo", 0, "memoize up to n simulate responses (0 disables)")
)

// -------------------------------------------------------------------------------------------------
// logger
var (
	logger *zap.Logger
	log    *zap.SugaredLogger
)

func init() {
	var err error
	logger, err = newZapConfig().Build()
	if err != nil {
		fmt.Println("unable to create logger")
		os.Exit(1)
	}
	log = logger.Sugar()
}

func main() {
	log.Infow("starting quarcd", "version", quarc.Version.String())
	defer log.Warn("stopping quarcd")
	defer logger.Sync() // flushes buffer, if any

	flag.Parse()

	opts := []server.Option{server.WithMaxQubits(*fMaxQubits)}
	if *fMemoSize > 0 {
		opts = append(opts, server.WithMemoCache(*fMemoSize))
	}
	quarcServer, err := server.NewServer(log, opts...)
	if err != nil {
		log.Fatalw("couldn't init quarcd", "err", err)
	}

	httpServer := &http.Server{
		Addr:              *fAddr,
		Handler:           quarcServer,
		ReadHeaderTimeout: 5 * time.Second,
	}

	chErr := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", *fAddr, "maxQubits", *fMaxQubits)
		chErr <- httpServer.ListenAndServe()
	}()

	chSig := make(chan os.Signal, 1)
	signal.Notify(chSig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-chErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("failed to start server", "err", err)
		}
	case sig := <-chSig:
		log.Infow("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Errorw("shutdown", "err", err)
		}
	}
}

func newZapConfig() zap.Config {
	return zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          "console",
		EncoderConfig:     zap.NewDevelopmentEncoderConfig(),
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}
