package model

import "go.mongodb.org/mongo-driver/mongo"

// InsertAck mirrors the store's acknowledgment of an insert.
type InsertAck struct {
	Acknowledged bool `json:"acknowledged"`
	InsertedID   any  `json:"insertedId"`
}

type UpdateAck struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
	UpsertedCount int64 `json:"upsertedCount"`
	UpsertedID    any   `json:"upsertedId"`
}

type DeleteAck struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

func NewInsertAck(res *mongo.InsertOneResult) InsertAck {
	if res == nil {
		return InsertAck{}
	}
	return InsertAck{Acknowledged: true, InsertedID: res.InsertedID}
}

func NewUpdateAck(res *mongo.UpdateResult) UpdateAck {
	if res == nil {
		return UpdateAck{}
	}
	return UpdateAck{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}

func NewDeleteAck(res *mongo.DeleteResult) DeleteAck {
	if res == nil {
		return DeleteAck{}
	}
	return DeleteAck{Acknowledged: true, DeletedCount: res.DeletedCount}
}
