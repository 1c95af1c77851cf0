package services

import (
	"context"
	"fmt"
	"time"

	"momentum/internal/database"
	"momentum/internal/ordering"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// loadSiblings returns the ordered sibling set for a parent, as the position
// planner expects it: sorted by position, createdAt, _id.
func loadSiblings(ctx context.Context, coll *mongo.Collection, parentField string, parentID primitive.ObjectID) ([]ordering.Sibling, error) {
	opts := options.Find().
		SetSort(siblingSort).
		SetProjection(bson.M{"_id": 1, "position": 1})
	cursor, err := coll.Find(ctx, bson.M{parentField: parentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load siblings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID       primitive.ObjectID `bson:"_id"`
		Position int                `bson:"position"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode siblings: %w", err)
	}

	siblings := make([]ordering.Sibling, len(docs))
	for i, d := range docs {
		siblings[i] = ordering.Sibling{ID: d.ID.Hex(), Position: d.Position}
	}
	return siblings, nil
}

// applyMovePlan persists a move plan. Single-write plans update only the moved
// document; renumber plans rewrite every sibling inside one transaction so a
// concurrent reader never observes a half-renumbered set. movedSet carries
// extra fields for the moved document (e.g. the new parent on a cross-group
// move).
func applyMovePlan(ctx context.Context, db *database.MongoDB, coll *mongo.Collection, plan ordering.Plan, movedID primitive.ObjectID, movedSet bson.M) error {
	now := time.Now()

	write := func(sc context.Context, w ordering.Write) error {
		id, err := primitive.ObjectIDFromHex(w.ID)
		if err != nil {
			return fmt.Errorf("invalid sibling id %q: %w", w.ID, err)
		}
		set := bson.M{"position": w.Position, "updatedAt": now}
		if id == movedID {
			for k, v := range movedSet {
				set[k] = v
			}
		}
		if _, err := coll.UpdateOne(sc, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
			return fmt.Errorf("failed to write position: %w", err)
		}
		return nil
	}

	if !plan.Renumber {
		return write(ctx, plan.Writes[0])
	}

	return db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		for _, w := range plan.Writes {
			if err := write(sc, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// nextAppendPosition returns the position key for a new entity appended at
// the end of the parent's sibling set.
func nextAppendPosition(ctx context.Context, coll *mongo.Collection, parentField string, parentID primitive.ObjectID) (int, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "position", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"position": 1})
	var doc struct {
		Position int `bson:"position"`
	}
	err := coll.FindOne(ctx, bson.M{parentField: parentID}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return ordering.Append(0, false), nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find max position: %w", err)
	}
	return ordering.Append(doc.Position, true), nil
}
