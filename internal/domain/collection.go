package domain

import "strings"

// Collection addresses one bucket in the store and the search index covering it.
type Collection struct {
	BucketType string
	BucketName string
	Index      string
}

// NewCollection builds a Collection; the index defaults to the bucket name.
func NewCollection(bucketType, bucketName, index string) Collection {
	if index == "" {
		index = bucketName
	}
	return Collection{BucketType: bucketType, BucketName: bucketName, Index: index}
}

// KeyPrefix is the store key prefix shared by every record of the collection.
func (c Collection) KeyPrefix() string {
	return c.BucketType + ":" + c.BucketName + ":"
}

// Key returns the store key for a record id.
func (c Collection) Key(id string) string {
	return c.KeyPrefix() + id
}

// ID strips the collection prefix from a store key.
func (c Collection) ID(key string) string {
	return strings.TrimPrefix(key, c.KeyPrefix())
}
