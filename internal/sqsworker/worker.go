// Package sqsworker grades submissions received from an SQS queue and
// sends the reports to a result queue.
package sqsworker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/gatherer/respbuilder"
	"github.com/programme-lv/grader/internal/grading"
	"github.com/programme-lv/grader/internal/metrics"
	"github.com/programme-lv/grader/internal/questions"
)

const (
	waitTimeSeconds = 5
	retryDelay      = time.Second
)

// Client is the part of *sqs.Client the worker needs.
type Client interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type QuestionSource interface {
	Question(ctx context.Context) (*questions.Question, error)
	Tests() []api.TestCase
}

type Evaluator interface {
	Evaluate(ctx context.Context, sub grading.Submission, gath grading.ResultGatherer) (bool, []api.TestOutcome)
}

// EventsFunc returns an extra gatherer for the evaluation with the given uuid.
type EventsFunc func(evalUuid string) grading.ResultGatherer

type Worker struct {
	client     Client
	requestURL string
	resultURL  string
	store      QuestionSource
	grader     Evaluator
	events     EventsFunc
	logger     *slog.Logger
}

// New creates a worker. events may be nil.
func New(client Client, requestURL string, resultURL string, store QuestionSource, grader Evaluator, events EventsFunc, logger *slog.Logger) *Worker {
	return &Worker{
		client:     client,
		requestURL: requestURL,
		resultURL:  resultURL,
		store:      store,
		grader:     grader,
		events:     events,
		logger:     logger,
	}
}

// Run polls the request queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("sqs worker started", "queue", w.requestURL)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("failed to receive messages", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
		}
	}
}

// Poll receives at most one message and handles it.
func (w *Worker) Poll(ctx context.Context) error {
	output, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(w.requestURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     waitTimeSeconds,
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, message := range output.Messages {
		if err := w.handle(ctx, message); err != nil {
			// the message stays in the queue and is redelivered
			w.logger.Error("failed to handle message", "message_id", aws.ToString(message.MessageId), "error", err)
			continue
		}
		_, err = w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(w.requestURL),
			ReceiptHandle: message.ReceiptHandle,
		})
		if err != nil {
			w.logger.Error("failed to delete message", "message_id", aws.ToString(message.MessageId), "error", err)
		}
	}
	return nil
}

func (w *Worker) handle(ctx context.Context, message types.Message) error {
	var req api.GradeReq
	if err := json.Unmarshal([]byte(aws.ToString(message.Body)), &req); err != nil {
		// redelivery would not help
		w.logger.Warn("dropping malformed message", "message_id", aws.ToString(message.MessageId), "error", err)
		return nil
	}
	if req.EvalUuid == "" {
		req.EvalUuid = uuid.NewString()
	}

	q, err := w.store.Question(ctx)
	if err != nil {
		return err
	}

	builder := respbuilder.New(req.EvalUuid)
	var events grading.ResultGatherer
	if w.events != nil {
		events = w.events(req.EvalUuid)
	}
	sub := grading.Submission{
		Code:        req.Code,
		SampleInput: q.SampleInput,
		Tests:       w.store.Tests(),
	}
	allPassed, _ := w.grader.Evaluate(ctx, sub, grading.Multi(builder, events))
	metrics.SubmissionsTotal.WithLabelValues("sqs", metrics.Verdict(allPassed)).Inc()

	body, err := json.Marshal(builder.Report())
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = w.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(w.resultURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send result: %w", err)
	}

	w.logger.Info("submission graded", "eval_uuid", req.EvalUuid, "all_passed", allPassed)
	return nil
}
