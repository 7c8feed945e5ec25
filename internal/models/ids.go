package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseID converts a hex identifier from a path or body into an ObjectID.
func ParseID(value string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(value))
	if err != nil {
		return primitive.NilObjectID, NewInvalidIDError(value, err)
	}
	return id, nil
}

// IDStrings renders ids as hex strings, preserving order.
func IDStrings(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

// ParseIDs is the inverse of IDStrings.
func ParseIDs(values []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		id, err := ParseID(v)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
