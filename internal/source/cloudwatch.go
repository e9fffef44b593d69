// Package source implements the poller's LogSource on CloudWatch Logs.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"

	"github.com/yoskmr/cwtail/internal/poller"
)

// LogsAPI is the subset of the CloudWatch Logs API we use.
type LogsAPI interface {
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// CloudWatch tails streams of a single log group.
type CloudWatch struct {
	client       LogsAPI
	logGroupName string
}

// New creates a CloudWatch log source bound to one log group.
func New(client LogsAPI, logGroupName string) *CloudWatch {
	return &CloudWatch{client: client, logGroupName: logGroupName}
}

// ResolveStream returns the name of the most recently active stream in
// the group. A group that exists but has produced no streams yet yields
// poller.ErrStreamNotFound; a missing group is fatal.
func (s *CloudWatch) ResolveStream(ctx context.Context, logGroupName string) (string, error) {
	out, err := s.client.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(logGroupName),
		OrderBy:      types.OrderByLastEventTime,
		Descending:   aws.Bool(true),
		Limit:        aws.Int32(1),
	})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			return "", fmt.Errorf("log group %q does not exist: %w", logGroupName, err)
		}
		return "", classify(err)
	}
	if len(out.LogStreams) == 0 {
		return "", fmt.Errorf("log group %q: %w", logGroupName, poller.ErrStreamNotFound)
	}
	return aws.ToString(out.LogStreams[0].LogStreamName), nil
}

// FetchEvents returns the events recorded after nextToken. The forward
// token returned by the service always points strictly past the last
// delivered event, so carrying it forward never re-reads a page.
func (s *CloudWatch) FetchEvents(ctx context.Context, streamID string, nextToken *string) ([]poller.Event, *string, error) {
	out, err := s.client.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(s.logGroupName),
		LogStreamName: aws.String(streamID),
		NextToken:     nextToken,
		StartFromHead: aws.Bool(true),
	})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			// The stream rotated or expired; the caller re-resolves.
			return nil, nil, fmt.Errorf("log stream %q: %w", streamID, poller.ErrStreamNotFound)
		}
		return nil, nil, classify(err)
	}

	events := make([]poller.Event, 0, len(out.Events))
	for _, e := range out.Events {
		events = append(events, poller.Event{
			TimestampMs: aws.ToInt64(e.Timestamp),
			Message:     aws.ToString(e.Message),
		})
	}
	return events, out.NextForwardToken, nil
}

// classify sorts API failures into retriable and fatal. Throttling and
// availability errors, plus anything that never reached the API (DNS,
// resets, timeouts), retry on the next tick; the rest stop the loop.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ThrottlingException",
			"ServiceUnavailableException",
			"RequestTimeout",
			"RequestTimeoutException",
			"InternalFailure":
			return &poller.TransientError{Err: err}
		}
		return err
	}
	return &poller.TransientError{Err: err}
}
