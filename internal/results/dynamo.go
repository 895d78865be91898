package results

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sh3r4rd/file_analysis/internal/model"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoStore keeps one item per record in a table whose partition key is
// fileId. Reads are strongly consistent so a poll right after the worker's
// write observes it.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore binds the store to table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func (s *DynamoStore) Put(ctx context.Context, rec model.ResultRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", rec.FileID, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put result %s: %w", rec.FileID, err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, fileID string) (model.ResultRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"fileId": &types.AttributeValueMemberS{Value: fileID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return model.ResultRecord{}, fmt.Errorf("get result %s: %w", fileID, err)
	}
	if len(out.Item) == 0 {
		return model.ResultRecord{}, ErrNotFound
	}
	var rec model.ResultRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return model.ResultRecord{}, fmt.Errorf("unmarshal result %s: %w", fileID, err)
	}
	return rec, nil
}

var _ Store = (*DynamoStore)(nil)
