package dynamodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dreschagin/image-gallery/internal/application/port"
)

const (
	maxBatchWriteSize = 25
	maxBatchRetries   = 5
	retryBaseDelay    = 100 * time.Millisecond
)

type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type dynamoAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// exportItem - строка манифеста: одна партиция на экспорт, одна запись на изображение.
type exportItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	ExportID    string `dynamodbav:"export_id"`
	ImageID     string `dynamodbav:"image_id"`
	ObjectKey   string `dynamodbav:"object_key"`
	URL         string `dynamodbav:"url,omitempty"`
	ContentType string `dynamodbav:"content_type,omitempty"`
	SizeBytes   int64  `dynamodbav:"size_bytes,omitempty"`
	ExportedAt  int64  `dynamodbav:"exported_at"`
}

// ExportManifestRepository хранит манифест экспорта в DynamoDB.
type ExportManifestRepository struct {
	client     dynamoAPI
	tableName  string
	retryDelay time.Duration
}

func NewExportManifestRepository(ctx context.Context, cfg Config) (*ExportManifestRepository, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-2"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newExportManifestRepository(client, cfg.TableName), nil
}

func newExportManifestRepository(client dynamoAPI, tableName string) *ExportManifestRepository {
	return &ExportManifestRepository{
		client:     client,
		tableName:  strings.TrimSpace(tableName),
		retryDelay: retryBaseDelay,
	}
}

func (r *ExportManifestRepository) PutBatch(ctx context.Context, records []port.ExportRecord) error {
	if len(records) == 0 {
		return nil
	}

	for start := 0; start < len(records); start += maxBatchWriteSize {
		end := min(start+maxBatchWriteSize, len(records))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, record := range records[start:end] {
			item, err := toItem(record)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := r.writeBatchWithRetry(ctx, requests); err != nil {
			return err
		}
	}

	return nil
}

// ListByExport возвращает записи одного экспорта, упорядоченные по image id.
func (r *ExportManifestRepository) ListByExport(ctx context.Context, exportID string) ([]port.ExportRecord, error) {
	exportID = strings.TrimSpace(exportID)
	if exportID == "" {
		return nil, fmt.Errorf("export id is required")
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": "PK",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: buildPK(exportID)},
		},
	}

	records := make([]port.ExportRecord, 0)
	for {
		output, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamodb query failed: %w", err)
		}

		var items []exportItem
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal manifest items: %w", err)
		}
		for _, item := range items {
			records = append(records, fromItem(item))
		}

		if len(output.LastEvaluatedKey) == 0 {
			return records, nil
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}
}

func (r *ExportManifestRepository) writeBatchWithRetry(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{
		r.tableName: requests,
	}

	for attempt := 0; attempt < maxBatchRetries; attempt++ {
		output, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return fmt.Errorf("dynamodb batch write failed: %w", err)
		}

		if len(output.UnprocessedItems) == 0 {
			return nil
		}
		pending = output.UnprocessedItems

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * r.retryDelay):
		}
	}

	return fmt.Errorf("dynamodb batch write has unprocessed items after retries")
}

func toItem(record port.ExportRecord) (map[string]types.AttributeValue, error) {
	exportID := strings.TrimSpace(record.ExportID)
	if exportID == "" {
		return nil, fmt.Errorf("export_id is required")
	}
	if record.ImageID == "" {
		return nil, fmt.Errorf("image_id is required")
	}
	if strings.TrimSpace(record.ObjectKey) == "" {
		return nil, fmt.Errorf("object_key is required")
	}

	exportedAt := record.ExportedAt.UTC()
	if exportedAt.IsZero() {
		exportedAt = time.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(exportItem{
		PK:          buildPK(exportID),
		SK:          buildSK(record.ImageID),
		ExportID:    exportID,
		ImageID:     record.ImageID,
		ObjectKey:   record.ObjectKey,
		URL:         record.URL,
		ContentType: record.ContentType,
		SizeBytes:   record.SizeBytes,
		ExportedAt:  exportedAt.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest item: %w", err)
	}
	return item, nil
}

func fromItem(item exportItem) port.ExportRecord {
	return port.ExportRecord{
		ExportID:    item.ExportID,
		ImageID:     item.ImageID,
		ObjectKey:   item.ObjectKey,
		URL:         item.URL,
		ContentType: item.ContentType,
		SizeBytes:   item.SizeBytes,
		ExportedAt:  time.UnixMilli(item.ExportedAt).UTC(),
	}
}

func buildPK(exportID string) string {
	return "EXPORT#" + exportID
}

func buildSK(imageID string) string {
	return "IMAGE#" + imageID
}
