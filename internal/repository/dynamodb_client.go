package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jans-saya/DOIT/internal/domain"
)

const (
	pkPrefixUsage = "USAGE#"
	skPrefixReq   = "REQ#"
	ttlDuration   = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client writes the usage ledger to a DynamoDB table.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

var now = time.Now

// usagePK partitions the ledger by UTC day.
func usagePK(ts time.Time) string {
	return pkPrefixUsage + ts.UTC().Format(time.DateOnly)
}

func usageSK(ts time.Time, correlationID string) string {
	return skPrefixReq + ts.UTC().Format(time.RFC3339Nano) + "#" + correlationID
}

// RecordCompletion persists the token usage of one completed chat call.
func (c *Client) RecordCompletion(ctx context.Context, correlationID string, completion domain.Completion) error {
	if err := c.RecordUsage(ctx, NewUsageRecord(correlationID, completion)); err != nil {
		return fmt.Errorf("repository: RecordCompletion: %w", err)
	}
	return nil
}

// RecordUsage writes a ledger entry. Entries are never overwritten.
func (c *Client) RecordUsage(ctx context.Context, rec domain.UsageRecord) error {
	if rec.PK == "" || rec.SK == "" {
		return errors.New("repository: RecordUsage: PK and SK are required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                usageItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordUsage: %w", err)
	}
	return nil
}

// NewUsageRecord constructs a UsageRecord with PK/SK/TTL set from the current time.
// An empty correlationID is replaced with a fresh UUID so keys stay unique.
func NewUsageRecord(correlationID string, completion domain.Completion) domain.UsageRecord {
	ts := now().UTC()
	if strings.TrimSpace(correlationID) == "" {
		correlationID = uuid.NewString()
	}
	return domain.UsageRecord{
		PK:            usagePK(ts),
		SK:            usageSK(ts, correlationID),
		CompletionID:  completion.ID,
		CorrelationID: correlationID,
		Model:         completion.Model,
		StopReason:    completion.StopReason,
		InputTokens:   completion.Usage.InputTokens,
		OutputTokens:  completion.Usage.OutputTokens,
		CreatedAt:     ts.Format(time.RFC3339),
		TTL:           ts.Add(ttlDuration).Unix(),
	}
}

func usageItem(rec domain.UsageRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":            &types.AttributeValueMemberS{Value: rec.PK},
		"SK":            &types.AttributeValueMemberS{Value: rec.SK},
		"completionId":  &types.AttributeValueMemberS{Value: rec.CompletionID},
		"correlationId": &types.AttributeValueMemberS{Value: rec.CorrelationID},
		"model":         &types.AttributeValueMemberS{Value: rec.Model},
		"stopReason":    &types.AttributeValueMemberS{Value: rec.StopReason},
		"inputTokens":   &types.AttributeValueMemberN{Value: strconv.Itoa(rec.InputTokens)},
		"outputTokens":  &types.AttributeValueMemberN{Value: strconv.Itoa(rec.OutputTokens)},
		"createdAt":     &types.AttributeValueMemberS{Value: rec.CreatedAt},
		"ttl":           &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.TTL, 10)},
	}
}
