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

type ContestantStorage interface {
	Get(ctx context.Context, id string) (*Contestant, error)
	GetAll(ctx context.Context) ([]*Contestant, error)
	Create(ctx context.Context, contestant *Contestant) error
	Approve(ctx context.Context, id string) error
	// SetVotes is the boost administrator's privileged absolute write.
	// Every other mutation of the vote counter goes through the settlement
	// transaction in VoteTransactionStorage.Credit.
	SetVotes(ctx context.Context, id string, votes int) error
	Delete(ctx context.Context, id string) error
}

type DynamoContestantStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoContestantStorage) Get(ctx context.Context, id string) (*Contestant, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("CONTESTANT: failed to marshal key for ID %s: %v", id, err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CONTESTANT: GetItem for ID %s failed: %v", id, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var contestant Contestant
	if err := attributevalue.UnmarshalMap(out.Item, &contestant); err != nil {
		logging.Log.Errorf("CONTESTANT: failed to unmarshal contestant: %v", err)
		return nil, err
	}
	return &contestant, nil
}

func (s *DynamoContestantStorage) GetAll(ctx context.Context) ([]*Contestant, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("CONTESTANT: scan failed: %v", err)
		return nil, err
	}

	var contestants []*Contestant
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &contestants); err != nil {
		logging.Log.Errorf("CONTESTANT: failed to unmarshal contestant list: %v", err)
		return nil, err
	}
	return contestants, nil
}

func (s *DynamoContestantStorage) Create(ctx context.Context, contestant *Contestant) error {
	item, err := attributevalue.MarshalMap(contestant)
	if err != nil {
		logging.Log.Errorf("CONTESTANT: failed to marshal contestant: %v", err)
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
			logging.Log.Warnf("CONTESTANT: contestant with ID %s already exists", contestant.ID)
			return ErrContestantAlreadyExists
		}
		logging.Log.Errorf("CONTESTANT: failed to create contestant: %v", err)
		return err
	}
	return nil
}

func (s *DynamoContestantStorage) Approve(ctx context.Context, id string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          aws.String("SET Approved = :val"),
		ConditionExpression:       aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":val": &types.AttributeValueMemberBOOL{Value: true}},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrNotFound
		}
		logging.Log.Errorf("CONTESTANT: failed to approve contestant %s: %v", id, err)
		return err
	}
	return nil
}

func (s *DynamoContestantStorage) SetVotes(ctx context.Context, id string, votes int) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET Votes = :votes"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":votes": &types.AttributeValueMemberN{Value: strconv.Itoa(votes)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrNotFound
		}
		logging.Log.Errorf("CONTESTANT: failed to set votes for %s: %v", id, err)
		return err
	}
	logging.Log.Infof("CONTESTANT: set votes for %s to %d", id, votes)
	return nil
}

func (s *DynamoContestantStorage) Delete(ctx context.Context, id string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("CONTESTANT: failed to marshal delete key for ID %s: %v", id, err)
		return err
	}

	_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CONTESTANT: failed to delete contestant with ID %s: %v", id, err)
		return err
	}
	logging.Log.Infof("CONTESTANT: deleted contestant with ID %s", id)
	return nil
}
