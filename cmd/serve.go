/*
Copyright © 2024 sunerpy <nkuzhangshn@gmail.com>
Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:
The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.
THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/qdispatch/qdispatch/arrclient"
	"github.com/qdispatch/qdispatch/config"
	"github.com/qdispatch/qdispatch/core"
	"github.com/qdispatch/qdispatch/dispatcher"
	"github.com/qdispatch/qdispatch/evaluator"
	"github.com/qdispatch/qdispatch/global"
	"github.com/qdispatch/qdispatch/internal/events"
	"github.com/qdispatch/qdispatch/metrics"
	"github.com/qdispatch/qdispatch/models"
	"github.com/qdispatch/qdispatch/nodeclient"
	"github.com/qdispatch/qdispatch/notify"
	"github.com/qdispatch/qdispatch/scheduler"
	"github.com/qdispatch/qdispatch/tracker"
	"github.com/qdispatch/qdispatch/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const arrCheckInterval = 1 * time.Minute

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the dispatcher's HTTP listener and background loops",
	Example: `  qdispatch serve`,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// fleet is the set of per-node wiring derived from one config generation:
// the Evaluator's probe list and the Dispatcher's submit clients. It is
// rebuilt wholesale on every ConfigChanged event and swapped atomically so
// an admission in flight always sees one consistent generation, mirroring
// the Config Plane's own atomic.Pointer swap.
type fleet struct {
	eval    *evaluator.Evaluator
	clients map[string]dispatcher.NodeSubmitter
}

func buildFleet(descs []models.NodeDescriptor) (*fleet, error) {
	nodes := make([]evaluator.Node, 0, len(descs))
	clients := make(map[string]dispatcher.NodeSubmitter, len(descs))
	for _, desc := range descs {
		client, err := nodeclient.New(desc)
		if err != nil {
			return nil, fmt.Errorf("build node client %s: %w", desc.Name, err)
		}
		nodes = append(nodes, evaluator.Node{Descriptor: desc, Client: client})
		clients[desc.Name] = client
	}
	return &fleet{eval: evaluator.New(nodes), clients: clients}, nil
}

// liveFleet adapts an atomically-swapped *fleet to both
// dispatcher.RoundEvaluator and dispatcher.NodeClients, so a config reload
// that adds, removes, or re-points nodes takes effect without restarting
// the process.
type liveFleet struct {
	current atomic.Pointer[fleet]
}

func (f *liveFleet) Round(ctx context.Context, policy models.ScoringPolicy, sizeGB float64) []models.NodeSnapshot {
	return f.current.Load().eval.Round(ctx, policy, sizeGB)
}

func (f *liveFleet) Get(name string) (dispatcher.NodeSubmitter, bool) {
	client, ok := f.current.Load().clients[name]
	return client, ok
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	logger := global.GetLogger()

	plane, err := core.Load(configPath, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loggingCfg := plane.Current().Logging
	if logLevel != "" {
		loggingCfg.Level = logLevel
	}
	if rebuilt, err := config.BuildLogger(loggingCfg); err == nil {
		global.InitLogger(rebuilt)
		logger = rebuilt
	}

	fl := &liveFleet{}
	initial, err := buildFleet(plane.Current().Nodes)
	if err != nil {
		return err
	}
	fl.current.Store(initial)

	trk := tracker.New()
	arrChecker := arrclient.New()
	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, sub, unsubscribe := events.Subscribe(4)
	defer unsubscribe()
	go func() {
		for range sub {
			rebuilt, err := buildFleet(plane.Current().Nodes)
			if err != nil {
				logger.Warn("fleet rebuild after config reload failed", zap.Error(err))
				continue
			}
			fl.current.Store(rebuilt)
			logger.Info("fleet rebuilt after config reload", zap.Int("nodes", len(rebuilt.clients)))
		}
	}()

	disp := dispatcher.New(plane, fl, trk, fl, notify.FromConfig(plane.Current().NotifySinks), nil, logger)

	cleanup := scheduler.NewCleanupMonitor(trk, 1*time.Hour, tracker.DefaultMaxAge, logger)
	cleanup.Start(ctx)
	defer cleanup.Stop()

	stopWatch, err := plane.WatchFile()
	if err != nil {
		logger.Warn("config file watch disabled", zap.Error(err))
	} else {
		defer stopWatch()
	}

	go runArrStatusLoop(ctx, plane, arrChecker, logger)

	listenAddr := plane.Current().ListenAddr
	if addrFlag != "" {
		listenAddr = addrFlag
	}

	srv := web.NewServer(disp, plane, arrChecker, logger)
	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Warn("received shutdown signal")
	case err := <-serveErr:
		color.Red("listener failed: %v", err)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	color.Green("qdispatch exited cleanly")
	return nil
}

func runArrStatusLoop(ctx context.Context, plane *core.Plane, checker *arrclient.Checker, logger *zap.Logger) {
	ticker := time.NewTicker(arrCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, instance := range plane.Current().ArrInstances {
				status := checker.Check(ctx, instance)
				metrics.ObserveArrStatus(instance, status.Reachable)
				if !status.Reachable {
					logger.Debug("arr instance unreachable", zap.String("name", instance.Name), zap.String("error", status.Err))
				}
			}
		}
	}
}
