package bwsitestore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/basewarphq/bwsite/bwsite/bwsiteerr"
	"github.com/cockroachdb/errors"
)

// DynamoAPI is the subset of the DynamoDB client used by Dynamo.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Dynamo stores fingerprints in a DynamoDB table with a "pk"/"sk" string key.
// Items are partitioned per deployment: pk is "fingerprint#{namespace}" and
// sk is the logical key.
type Dynamo struct {
	client    DynamoAPI
	table     string
	namespace string
}

// NewDynamo returns a Dynamo store on table, scoped to namespace.
func NewDynamo(client DynamoAPI, table, namespace string) *Dynamo {
	return &Dynamo{client: client, table: table, namespace: namespace}
}

const hashAttr = "hash"

func (d *Dynamo) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: "fingerprint#" + d.namespace},
		"sk": &types.AttributeValueMemberS{Value: key},
	}
}

func (d *Dynamo) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, bwsiteerr.Provider(err, "reading fingerprint %s from %s", key, d.table)
	}
	if len(out.Item) == 0 {
		return "", false, nil
	}

	v, ok := out.Item[hashAttr].(*types.AttributeValueMemberS)
	if !ok {
		return "", false, errors.Newf("fingerprint %s in %s has no string %q attribute", key, d.table, hashAttr)
	}
	return v.Value, true, nil
}

func (d *Dynamo) Put(ctx context.Context, key, hash string) error {
	item := d.key(key)
	item[hashAttr] = &types.AttributeValueMemberS{Value: hash}

	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	}); err != nil {
		return bwsiteerr.Provider(err, "writing fingerprint %s to %s", key, d.table)
	}
	return nil
}

var _ Store = (*Dynamo)(nil)
