package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Envislon1/create-joy/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type ContestSettingsStorage interface {
	Get(ctx context.Context, key string) (*ContestSetting, error)
	GetAll(ctx context.Context) ([]*ContestSetting, error)
	Put(ctx context.Context, setting *ContestSetting) error
	// ClaimVoteBoost atomically flips the vote_boost_applied marker to "true".
	// Exactly one concurrent caller wins; everyone else gets
	// ErrBoostAlreadyApplied. This is the guard that makes the boost a
	// run-at-most-once operation.
	ClaimVoteBoost(ctx context.Context) error
}

// VoteBoostAppliedKey is the settings row used as the boost's one-shot guard.
const VoteBoostAppliedKey = "vote_boost_applied"

type DynamoContestSettingsStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoContestSettingsStorage) Get(ctx context.Context, key string) (*ContestSetting, error) {
	k, err := attributevalue.MarshalMap(map[string]string{"PK": key})
	if err != nil {
		logging.Log.Errorf("SETTINGS: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       k,
	})
	if err != nil {
		logging.Log.Errorf("SETTINGS: GetItem for key %s failed: %v", key, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var setting ContestSetting
	if err := attributevalue.UnmarshalMap(out.Item, &setting); err != nil {
		logging.Log.Errorf("SETTINGS: failed to unmarshal setting: %v", err)
		return nil, err
	}
	return &setting, nil
}

func (s *DynamoContestSettingsStorage) GetAll(ctx context.Context) ([]*ContestSetting, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("SETTINGS: scan failed: %v", err)
		return nil, err
	}

	var settings []*ContestSetting
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &settings); err != nil {
		logging.Log.Errorf("SETTINGS: failed to unmarshal settings list: %v", err)
		return nil, err
	}
	return settings, nil
}

func (s *DynamoContestSettingsStorage) Put(ctx context.Context, setting *ContestSetting) error {
	if setting.UpdatedAt.IsZero() {
		setting.UpdatedAt = time.Now().UTC()
	}
	item, err := attributevalue.MarshalMap(setting)
	if err != nil {
		logging.Log.Errorf("SETTINGS: failed to marshal setting: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("SETTINGS: failed to put setting %s: %v", setting.Key, err)
		return err
	}
	logging.Log.Infof("SETTINGS: updated %s", setting.Key)
	return nil
}

func (s *DynamoContestSettingsStorage) ClaimVoteBoost(ctx context.Context) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: VoteBoostAppliedKey},
		},
		UpdateExpression:    aws.String("SET SettingValue = :true, UpdatedAt = :now"),
		ConditionExpression: aws.String("attribute_not_exists(PK) OR SettingValue <> :true"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": &types.AttributeValueMemberS{Value: "true"},
			":now":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return ErrBoostAlreadyApplied
		}
		logging.Log.Errorf("SETTINGS: failed to claim vote boost: %v", err)
		return err
	}
	logging.Log.Warnf("SETTINGS: vote boost claimed")
	return nil
}
