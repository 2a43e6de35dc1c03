package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"filesig/api/grpcserver"
	"filesig/infra/kafka"
	entrywal "filesig/infra/wal/entry"
	exitwal "filesig/infra/wal/exit"
	"filesig/jobs/broadcaster"
	"filesig/pkg/logger"
	"filesig/service"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "filesig-server",
		Usage:   "file signature catalog over gRPC",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "gRPC listen address",
				Value:   ":50051",
				EnvVars: []string{"FILESIG_LISTEN"},
			},
			&cli.StringFlag{
				Name:    "metrics-listen",
				Usage:   "address for /metrics; empty disables it",
				Value:   ":9090",
				EnvVars: []string{"FILESIG_METRICS_LISTEN"},
			},
			&cli.StringFlag{
				Name:    "signature-file",
				Usage:   "seed catalog used when no snapshot exists",
				Value:   "FileSignature.txt",
				EnvVars: []string{"FILESIG_SIGNATURE_FILE"},
			},
			&cli.StringFlag{
				Name:    "check-root",
				Usage:   "directory CheckFile is confined to; empty trusts clients with any path",
				EnvVars: []string{"FILESIG_CHECK_ROOT"},
			},
			&cli.StringFlag{
				Name:    "wal-dir",
				Value:   "./data/wal_entry",
				EnvVars: []string{"FILESIG_WAL_DIR"},
			},
			&cli.Int64Flag{
				Name:    "wal-segment-size",
				Value:   2 * 1024 * 1024,
				EnvVars: []string{"FILESIG_WAL_SEGMENT_SIZE"},
			},
			&cli.BoolFlag{
				Name:    "wal-sync",
				Usage:   "fsync the entry WAL on every append",
				EnvVars: []string{"FILESIG_WAL_SYNC"},
			},
			&cli.StringFlag{
				Name:    "outbox-dir",
				Value:   "./data/wal_exit",
				EnvVars: []string{"FILESIG_OUTBOX_DIR"},
			},
			&cli.StringFlag{
				Name:    "snapshot-dir",
				Value:   "./data/snapshots",
				EnvVars: []string{"FILESIG_SNAPSHOT_DIR"},
			},
			&cli.DurationFlag{
				Name:    "snapshot-interval",
				Value:   time.Minute,
				EnvVars: []string{"FILESIG_SNAPSHOT_INTERVAL"},
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "brokers for check events; empty keeps events in the outbox",
				EnvVars: []string{"FILESIG_KAFKA_BROKERS"},
			},
			&cli.StringFlag{
				Name:    "kafka-topic",
				Value:   "filesig.checks",
				EnvVars: []string{"FILESIG_KAFKA_TOPIC"},
			},
			&cli.StringFlag{
				Name:    "kafka-driver",
				Usage:   "sarama or kafka-go",
				Value:   "sarama",
				EnvVars: []string{"FILESIG_KAFKA_DRIVER"},
			},
			&cli.Float64Flag{
				Name:    "publish-rate",
				Usage:   "max events published per second; 0 is unlimited",
				EnvVars: []string{"FILESIG_PUBLISH_RATE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"FILESIG_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "json",
				EnvVars: []string{"FILESIG_LOG_FORMAT"},
			},
		},
		Action: runServer,
	}
	return app.Run(args)
}

func runServer(cctx *cli.Context) error {
	log, err := logger.New(logger.Config{
		Level:  cctx.String("log-level"),
		Format: cctx.String("log-format"),
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- Entry WAL ----------------

	entryWAL, err := entrywal.Open(entrywal.Config{
		Dir:             cctx.String("wal-dir"),
		SegmentSize:     cctx.Int64("wal-segment-size"),
		SyncEveryAppend: cctx.Bool("wal-sync"),
	})
	if err != nil {
		return fmt.Errorf("entry WAL init failed: %w", err)
	}
	defer entryWAL.Close()

	// ---------------- Exit WAL ----------------

	exitWAL, err := exitwal.Open(cctx.String("outbox-dir"))
	if err != nil {
		return fmt.Errorf("exit WAL init failed: %w", err)
	}
	defer exitWAL.Close()

	// ---------------- Service ----------------

	svc, err := service.NewCatalogService(service.Config{
		SignatureFile:    cctx.String("signature-file"),
		SnapshotDir:      cctx.String("snapshot-dir"),
		SnapshotInterval: cctx.Duration("snapshot-interval"),
	}, entryWAL, exitWAL, log)
	if err != nil {
		return err
	}
	if err := svc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	// ---------------- Background Jobs ----------------

	snapDone := svc.StartSnapshotJob(ctx, 0)

	bcDone := make(chan struct{})
	if brokers := cctx.StringSlice("kafka-brokers"); len(brokers) > 0 {
		pub, err := newPublisher(cctx.String("kafka-driver"), brokers, cctx.String("kafka-topic"))
		if err != nil {
			return err
		}
		bc := broadcaster.New(exitWAL, pub, broadcaster.Config{
			RatePerSec: cctx.Float64("publish-rate"),
		}, log)
		go func() {
			defer close(bcDone)
			bc.Run(ctx)
		}()
		defer bc.Close()
	} else {
		log.Warn("no kafka brokers configured, check events stay in the outbox")
		close(bcDone)
	}

	// ---------------- Metrics ----------------

	var metricsSrv *http.Server
	if addr := cctx.String("metrics-listen"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server exited", zap.Error(err))
			}
		}()
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cctx.String("listen"))
	if err != nil {
		return fmt.Errorf("listen failed: %w", err)
	}

	var opts []grpcserver.Option
	if root := cctx.String("check-root"); root != "" {
		opts = append(opts, grpcserver.WithCheckRoot(root))
	} else {
		log.Warn("no check root configured, CheckFile reads any server path")
	}

	grpcSrv := grpc.NewServer()
	grpcserver.RegisterSignatureServiceServer(grpcSrv, grpcserver.NewServer(svc, log, opts...))

	serveErr := make(chan error, 1)
	go func() { serveErr <- grpcSrv.Serve(lis) }()

	log.Info("filesig server running",
		zap.String("addr", lis.Addr().String()),
		zap.String("version", versioninfo.Short()),
		zap.Int("extensions", svc.Len()),
	)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		stop()
		if err != nil {
			log.Error("gRPC server exited", zap.Error(err))
		}
	}

	grpcSrv.GracefulStop()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	<-snapDone
	<-bcDone

	if _, err := svc.TakeSnapshot(); err != nil {
		log.Error("final snapshot failed", zap.Error(err))
	}
	return nil
}

func newPublisher(driver string, brokers []string, topic string) (broadcaster.Publisher, error) {
	switch driver {
	case "sarama":
		return broadcaster.NewSaramaPublisher(brokers, topic)
	case "kafka-go":
		return kafka.NewProducer(brokers, topic), nil
	default:
		return nil, fmt.Errorf("unknown kafka driver %q", driver)
	}
}
