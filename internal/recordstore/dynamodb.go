package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"propgen/internal/blob"
	"propgen/internal/types"
)

// BatchWriteItem accepts at most 25 requests.
const dynamoBatchSize = 25

const dynamoMaxAttempts = 5

var dynamoBackoff = 200 * time.Millisecond

// DynamoAPI is the part of the DynamoDB client the sink calls.
type DynamoAPI interface {
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Dynamo puts every record as an item keyed by "id".
type Dynamo struct {
	client DynamoAPI
	table  string
	logger *zap.Logger
}

func openDynamo(ctx context.Context, table string, opts Options) (*Dynamo, error) {
	if table == "" {
		return nil, errors.New("dynamodb location needs a table name")
	}
	if opts.Truncate {
		return nil, errors.New("truncate is not supported for dynamodb; items are overwritten by id")
	}
	awsCfg, err := blob.LoadAWSConfig(ctx, opts.AWS)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if opts.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.AWS.Endpoint)
		}
	})
	return NewDynamo(client, table, opts.Logger), nil
}

func NewDynamo(client DynamoAPI, table string, logger *zap.Logger) *Dynamo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dynamo{client: client, table: table, logger: logger}
}

func marshalItem(r types.PropertyRecord) (map[string]ddbtypes.AttributeValue, error) {
	return attributevalue.MarshalMapWithOptions(r, func(o *attributevalue.EncoderOptions) {
		o.TagKey = "json"
	})
}

func (d *Dynamo) Write(ctx context.Context, records []types.PropertyRecord) error {
	for start := 0; start < len(records); start += dynamoBatchSize {
		end := min(start+dynamoBatchSize, len(records))
		reqs := make([]ddbtypes.WriteRequest, 0, end-start)
		for _, r := range records[start:end] {
			item, err := marshalItem(r)
			if err != nil {
				return types.NewStorageError(d.table, fmt.Errorf("marshal property %d: %w", r.ID, err))
			}
			reqs = append(reqs, ddbtypes.WriteRequest{PutRequest: &ddbtypes.PutRequest{Item: item}})
		}
		if err := d.writeBatch(ctx, reqs); err != nil {
			return types.NewStorageError(d.table, err)
		}
	}
	return nil
}

// writeBatch resubmits unprocessed items with a linear backoff.
func (d *Dynamo) writeBatch(ctx context.Context, reqs []ddbtypes.WriteRequest) error {
	pending := map[string][]ddbtypes.WriteRequest{d.table: reqs}
	for attempt := 1; ; attempt++ {
		out, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("batch write: %w", err)
		}
		left := out.UnprocessedItems[d.table]
		if len(left) == 0 {
			return nil
		}
		if attempt == dynamoMaxAttempts {
			return fmt.Errorf("batch write: %d items still unprocessed after %d attempts", len(left), attempt)
		}
		d.logger.Debug("retrying unprocessed items", zap.Int("items", len(left)), zap.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * dynamoBackoff):
		}
		pending = map[string][]ddbtypes.WriteRequest{d.table: left}
	}
}

func (d *Dynamo) Close() error { return nil }
