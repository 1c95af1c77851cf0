package services

import (
	"context"
	"fmt"
	"log"

	"momentum/internal/database"
	"momentum/internal/ordering"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MaintenanceService runs the background position-key sweeps. Sibling sets
// whose adjacent gaps have worn thin are renumbered back to full spacing so
// interactive moves stay single-write.
type MaintenanceService struct {
	db      *database.MongoDB
	groups  *mongo.Collection
	tasks   *mongo.Collection
	metrics *Metrics
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(db *database.MongoDB, metrics *Metrics) *MaintenanceService {
	return &MaintenanceService{
		db:      db,
		groups:  db.Collection(database.CollectionTaskGroups),
		tasks:   db.Collection(database.CollectionTasks),
		metrics: metrics,
	}
}

// RebalanceAll sweeps every sibling set in both ordered collections and
// renumbers the ones that need it. Returns the number of sets renumbered.
func (s *MaintenanceService) RebalanceAll(ctx context.Context) (int, error) {
	total := 0

	n, err := s.sweep(ctx, s.groups, "projectId", "task_group")
	if err != nil {
		return total, err
	}
	total += n

	n, err = s.sweep(ctx, s.tasks, "taskGroupId", "task")
	if err != nil {
		return total, err
	}
	total += n

	if total > 0 {
		log.Printf("🔧 Position rebalance renumbered %d sibling set(s)", total)
	}
	return total, nil
}

func (s *MaintenanceService) sweep(ctx context.Context, coll *mongo.Collection, parentField, kind string) (int, error) {
	parents, err := coll.Distinct(ctx, parentField, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to list %s parents: %w", kind, err)
	}

	renumbered := 0
	for _, p := range parents {
		parentID, ok := p.(primitive.ObjectID)
		if !ok {
			continue
		}

		siblings, err := loadSiblings(ctx, coll, parentField, parentID)
		if err != nil {
			return renumbered, err
		}
		if !ordering.NeedsRebalance(siblings) {
			continue
		}

		writes := ordering.Renumber(siblings)
		err = s.db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
			for _, w := range writes {
				id, err := primitive.ObjectIDFromHex(w.ID)
				if err != nil {
					return fmt.Errorf("invalid sibling id %q: %w", w.ID, err)
				}
				if _, err := coll.UpdateOne(sc, bson.M{"_id": id}, bson.M{"$set": bson.M{"position": w.Position}}); err != nil {
					return fmt.Errorf("failed to renumber sibling: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return renumbered, err
		}

		renumbered++
		if s.metrics != nil {
			s.metrics.PositionRenumbers.WithLabelValues(kind).Inc()
		}
	}
	return renumbered, nil
}
