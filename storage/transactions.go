package storage

import (
	"context"
	"errors"
	"strconv"

	"github.com/Envislon1/create-joy/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type VoteTransactionStorage interface {
	Get(ctx context.Context, reference string) (*VoteTransaction, error)
	GetAll(ctx context.Context) ([]*VoteTransaction, error)
	Create(ctx context.Context, tx *VoteTransaction) error
	// Credit settles a pending transaction and adds its votes to the
	// contestant in one atomic step. Only one caller can win the
	// pending->credited transition for a given reference.
	Credit(ctx context.Context, reference, contestantID string, votes int, amount int64) error
	MarkRejected(ctx context.Context, reference string) error
	DeleteAll(ctx context.Context) error
}

type DynamoVoteTransactionStorage struct {
	Client               *dynamodb.Client
	TableName            string
	ContestantsTableName string
}

func (s *DynamoVoteTransactionStorage) Get(ctx context.Context, reference string) (*VoteTransaction, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": reference})
	if err != nil {
		logging.Log.Errorf("TX: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("TX: GetItem for reference %s failed: %v", reference, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var tx VoteTransaction
	if err := attributevalue.UnmarshalMap(out.Item, &tx); err != nil {
		logging.Log.Errorf("TX: failed to unmarshal transaction: %v", err)
		return nil, err
	}
	return &tx, nil
}

func (s *DynamoVoteTransactionStorage) GetAll(ctx context.Context) ([]*VoteTransaction, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("TX: scan failed: %v", err)
		return nil, err
	}

	var txs []*VoteTransaction
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &txs); err != nil {
		logging.Log.Errorf("TX: failed to unmarshal transaction list: %v", err)
		return nil, err
	}
	return txs, nil
}

func (s *DynamoVoteTransactionStorage) Create(ctx context.Context, tx *VoteTransaction) error {
	item, err := attributevalue.MarshalMap(tx)
	if err != nil {
		logging.Log.Errorf("TX: failed to marshal transaction: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrTransactionAlreadyExists
		}
		logging.Log.Errorf("TX: failed to create transaction: %v", err)
		return err
	}
	return nil
}

// Credit runs a single DynamoDB transaction: the idempotency record flips
// pending->credited (recording the gateway-confirmed votes and amount) and the
// contestant counter is incremented with ADD, never read-modify-write. If the
// record already left pending the whole transaction is cancelled.
func (s *DynamoVoteTransactionStorage) Credit(ctx context.Context, reference, contestantID string, votes int, amount int64) error {
	votesAttr := &types.AttributeValueMemberN{Value: strconv.Itoa(votes)}

	_, err := s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName: aws.String(s.TableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: reference},
					},
					UpdateExpression:    aws.String("SET TxStatus = :credited, Votes = :votes, Amount = :amount"),
					ConditionExpression: aws.String("TxStatus = :pending"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":credited": &types.AttributeValueMemberS{Value: TxStatusCredited},
						":pending":  &types.AttributeValueMemberS{Value: TxStatusPending},
						":votes":    votesAttr,
						":amount":   &types.AttributeValueMemberN{Value: strconv.FormatInt(amount, 10)},
					},
				},
			},
			{
				Update: &types.Update{
					TableName: aws.String(s.ContestantsTableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: contestantID},
					},
					UpdateExpression:    aws.String("ADD Votes :votes"),
					ConditionExpression: aws.String("attribute_exists(PK)"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":votes": votesAttr,
					},
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for i, reason := range tce.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					if i == 0 {
						return ErrTransactionAlreadySettled
					}
					return ErrNotFound
				}
			}
		}
		logging.Log.Errorf("TX: credit transaction for %s failed: %v", reference, err)
		return err
	}
	logging.Log.Infof("TX: credited %d votes to %s for reference %s", votes, contestantID, reference)
	return nil
}

func (s *DynamoVoteTransactionStorage) MarkRejected(ctx context.Context, reference string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: reference},
		},
		UpdateExpression:    aws.String("SET TxStatus = :rejected"),
		ConditionExpression: aws.String("TxStatus = :pending"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rejected": &types.AttributeValueMemberS{Value: TxStatusRejected},
			":pending":  &types.AttributeValueMemberS{Value: TxStatusPending},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrTransactionAlreadySettled
		}
		logging.Log.Errorf("TX: failed to reject transaction %s: %v", reference, err)
		return err
	}
	return nil
}

func (s *DynamoVoteTransactionStorage) DeleteAll(ctx context.Context) error {
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		scanOutput, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            &s.TableName,
			ExclusiveStartKey:    lastEvaluatedKey,
			ProjectionExpression: aws.String("PK"),
		})
		if err != nil {
			logging.Log.Errorf("TX: scan for delete failed: %v", err)
			return err
		}

		var writeRequests []types.WriteRequest
		for _, item := range scanOutput.Items {
			writeRequests = append(writeRequests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": item["PK"],
					},
				},
			})
		}

		for i := 0; i < len(writeRequests); i += 25 {
			end := i + 25
			if end > len(writeRequests) {
				end = len(writeRequests)
			}
			_, err := s.Client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					s.TableName: writeRequests[i:end],
				},
			})
			if err != nil {
				logging.Log.Errorf("TX: batch delete failed: %v", err)
				return err
			}
			logging.Log.Infof("TX: deleted batch of %d transactions", end-i)
		}

		if scanOutput.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = scanOutput.LastEvaluatedKey
	}

	return nil
}
