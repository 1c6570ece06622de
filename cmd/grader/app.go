package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/programme-lv/grader/internal/environment"
	"github.com/programme-lv/grader/internal/execute"
	"github.com/programme-lv/grader/internal/gatherer/natsgath"
	"github.com/programme-lv/grader/internal/grading"
	"github.com/programme-lv/grader/internal/logging"
	"github.com/programme-lv/grader/internal/questions"
	"github.com/programme-lv/grader/internal/sqsworker"
	"github.com/urfave/cli/v3"
)

type app struct {
	cfg      *environment.Config
	logger   *slog.Logger
	registry *execute.Registry
	engine   *execute.Engine
	grader   *grading.Grader

	awsCfg *aws.Config
}

func newApp(cmd *cli.Command) (*app, error) {
	if err := environment.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := environment.ReadConfig()
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("language") {
		cfg.Language = cmd.String("language")
	}
	if cmd.IsSet("time-limit") {
		cfg.TimeLimit = cmd.Duration("time-limit")
	}
	if cmd.IsSet("question") {
		cfg.QuestionPath = cmd.String("question")
	}
	if cmd.IsSet("tests") {
		cfg.TestsPath = cmd.String("tests")
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)

	registry := execute.NewRegistry()
	if cfg.LanguagesPath != "" {
		if err := registry.LoadFile(cfg.LanguagesPath); err != nil {
			return nil, err
		}
	}
	lang, err := registry.Get(cfg.Language)
	if err != nil {
		return nil, err
	}

	engine := execute.NewEngine(lang, cfg.TimeLimit, logger)
	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		engine:   engine,
		grader:   grading.NewGrader(engine, lang.ID, logger),
	}, nil
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	if a.awsCfg != nil {
		return *a.awsCfg, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(a.cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	a.awsCfg = &cfg
	return cfg, nil
}

func (a *app) store(ctx context.Context) (*questions.Store, error) {
	var s3Client questions.ObjectGetter
	if isS3(a.cfg.QuestionPath) || isS3(a.cfg.TestsPath) {
		awsCfg, err := a.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		s3Client = s3.NewFromConfig(awsCfg)
	}

	start := time.Now()
	store, err := questions.NewStore(ctx, questions.NewFetcher(s3Client), a.cfg.QuestionPath, a.cfg.TestsPath)
	if err != nil {
		return nil, err
	}
	a.logger.Info("test cases loaded",
		"path", a.cfg.TestsPath,
		"count", len(store.Tests()),
		"elapsed", time.Since(start))
	return store, nil
}

// events connects to NATS when it is configured. The returned close function
// is never nil.
func (a *app) events() (func(evalUuid string) grading.ResultGatherer, func(), error) {
	if a.cfg.NatsURL == "" {
		return nil, func() {}, nil
	}
	nc, err := natsgath.Connect(a.cfg.NatsURL, a.logger)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("publishing grading events", "url", a.cfg.NatsURL, "subject", a.cfg.NatsSubject)

	events := func(evalUuid string) grading.ResultGatherer {
		return natsgath.New(nc, a.cfg.NatsSubject, evalUuid, a.logger)
	}
	closeFn := func() {
		if err := nc.Drain(); err != nil {
			a.logger.Warn("failed to drain NATS connection", "error", err)
		}
	}
	return events, closeFn, nil
}

func (a *app) worker(ctx context.Context, store *questions.Store, events func(string) grading.ResultGatherer) (*sqsworker.Worker, error) {
	if a.cfg.SQSRequestQueueURL == "" || a.cfg.SQSResultQueueURL == "" {
		return nil, fmt.Errorf("SQS_REQUEST_QUEUE_URL and SQS_RESULT_QUEUE_URL must be set")
	}
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sqsworker.New(sqs.NewFromConfig(awsCfg),
		a.cfg.SQSRequestQueueURL, a.cfg.SQSResultQueueURL,
		store, a.grader, events, a.logger), nil
}

func isS3(location string) bool {
	_, _, ok, _ := questions.ParseS3Location(location)
	return ok
}
