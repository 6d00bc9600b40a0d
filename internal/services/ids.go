package services

import "go.mongodb.org/mongo-driver/bson/primitive"

// objectIDOrZero converts a hex string to an ObjectID, returning the zero
// ObjectID for malformed input so lookups miss instead of erroring
func objectIDOrZero(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}
