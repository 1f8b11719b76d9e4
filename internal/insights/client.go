package insights

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"bedrock_usage/internal/config"
	"bedrock_usage/internal/models"
	"bedrock_usage/internal/utils"
)

// aggregationQuery groups invocation logs by identity, model and day.
const aggregationQuery = `fields @timestamp, identity.arn, modelId, input.inputTokenCount, input.cacheWriteInputTokenCount, output.outputTokenCount
| stats count() as invocations, sum(input.inputTokenCount) as total_input_tokens, sum(input.cacheWriteInputTokenCount) as total_cache_write_tokens, sum(output.outputTokenCount) as total_output_tokens by identity.arn, modelId, datefloor(@timestamp, 1d) as date_day`

// QueryClient runs the aggregated usage query over a time window.
type QueryClient interface {
	RunAggregatedQuery(ctx context.Context, start, end time.Time) ([]models.UsageRow, error)
}

// logsAPI is the subset of the CloudWatch Logs client the query loop uses.
type logsAPI interface {
	StartQuery(ctx context.Context, params *cloudwatchlogs.StartQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StartQueryOutput, error)
	GetQueryResults(ctx context.Context, params *cloudwatchlogs.GetQueryResultsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetQueryResultsOutput, error)
}

// Client runs Logs Insights queries against the Bedrock invocation
// log group and parses the aggregated results.
type Client struct {
	api          logsAPI
	logGroup     string
	queryTimeout time.Duration
	pollInterval time.Duration
	logger       *utils.Logger
}

// NewClient creates a query client using the default AWS credential chain.
func NewClient(ctx context.Context, cfg config.InsightsConfig) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		api:          cloudwatchlogs.NewFromConfig(awsCfg),
		logGroup:     cfg.LogGroup,
		queryTimeout: cfg.QueryTimeout,
		pollInterval: cfg.PollInterval,
		logger:       utils.NewLogger("insights"),
	}, nil
}

// RunAggregatedQuery starts the aggregation query for [start, end),
// polls until it completes and returns the parsed rows. A missing log
// group yields no rows rather than an error.
func (c *Client) RunAggregatedQuery(ctx context.Context, start, end time.Time) ([]models.UsageRow, error) {
	startOut, err := c.api.StartQuery(ctx, &cloudwatchlogs.StartQueryInput{
		LogGroupName: aws.String(c.logGroup),
		StartTime:    aws.Int64(start.Unix()),
		EndTime:      aws.Int64(end.Unix()),
		QueryString:  aws.String(aggregationQuery),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			c.logger.Warn("log group does not exist", "log_group", c.logGroup)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}

	deadline := time.Now().Add(c.queryTimeout)
	for {
		results, err := c.api.GetQueryResults(ctx, &cloudwatchlogs.GetQueryResultsInput{
			QueryId: startOut.QueryId,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
		}

		switch results.Status {
		case types.QueryStatusComplete:
			return parseRows(results.Results), nil
		case types.QueryStatusFailed, types.QueryStatusCancelled, types.QueryStatusTimeout:
			return nil, fmt.Errorf("%w: query finished with status %s", ErrBackendUnavailable, results.Status)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: no result after %s", ErrQueryTimeout, c.queryTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// parseRows converts Logs Insights result fields into usage rows.
// Rows missing an identity or model are dropped; numeric fields that
// fail to parse count as zero.
func parseRows(results [][]types.ResultField) []models.UsageRow {
	rows := make([]models.UsageRow, 0, len(results))
	for _, fields := range results {
		var row models.UsageRow
		for _, field := range fields {
			if field.Field == nil || field.Value == nil {
				continue
			}
			value := *field.Value
			switch *field.Field {
			case "identity.arn":
				row.UserIdentity = value
			case "modelId":
				row.ModelID = value
			case "date_day":
				if len(value) >= 10 {
					row.Date = value[:10]
				} else {
					row.Date = value
				}
			case "invocations":
				row.Invocations = parseCount(value)
			case "total_input_tokens":
				row.InputTokens = parseCount(value)
			case "total_cache_write_tokens":
				row.CacheWriteTokens = parseCount(value)
			case "total_output_tokens":
				row.OutputTokens = parseCount(value)
			}
		}
		if row.UserIdentity == "" || row.ModelID == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// parseCount parses a numeric field, tolerating the float rendering
// Logs Insights uses for sums.
func parseCount(value string) int64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}
