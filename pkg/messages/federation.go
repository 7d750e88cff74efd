package messages

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"chatdb/pkg/models"
)

// reactionEventPath is the dynamic map path for one (reaction, event id)
// correlation. The event id is escaped; all reads and writes of this path
// stay in escaped space.
func reactionEventPath(reaction, federationEventID string) string {
	return "reactions." + reaction + ".federationReactionEventIds." + EscapeFederationEventID(federationEventID)
}

// SetFederationEventIDByID correlates a message with its external federated
// event.
func (r *Repo) SetFederationEventIDByID(ctx context.Context, id, federationEventID string) error {
	_, err := r.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "federation.eventId", Value: federationEventID}}}},
	)
	return err
}

// FindOneByFederationID returns the message correlated with the given
// external event, or (nil, nil).
func (r *Repo) FindOneByFederationID(ctx context.Context, federationEventID string) (*models.Message, error) {
	return r.FindOne(ctx, bson.D{{Key: "federation.eventId", Value: federationEventID}})
}

// SetFederationReactionEventID records, under the reaction's federation map,
// which username the external reaction event belongs to.
func (r *Repo) SetFederationReactionEventID(ctx context.Context, username, id, reaction, federationEventID string) error {
	_, err := r.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: reactionEventPath(reaction, federationEventID), Value: username}}}},
	)
	return err
}

// UnsetFederationReactionEventID removes a reaction's federation correlation
// entry.
func (r *Repo) UnsetFederationReactionEventID(ctx context.Context, federationEventID, id, reaction string) error {
	_, err := r.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$unset", Value: bson.D{{Key: reactionEventPath(reaction, federationEventID), Value: 1}}}},
	)
	return err
}

// federationReactionPipeline flattens the reaction map into {k, v} pairs so
// the dynamic event-id key can be matched alongside the username, then
// restores the original document shape. The flattening never leaks into the
// result.
func federationReactionPipeline(federationEventID, username string) []bson.D {
	return []bson.D{
		{{Key: "$match", Value: bson.D{
			{Key: "t", Value: bson.D{{Key: "$ne", Value: models.TypeRemoved}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "document", Value: "$$ROOT"},
			{Key: "reactions", Value: bson.D{{Key: "$objectToArray", Value: "$reactions"}}},
		}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$reactions"}}}},
		{{Key: "$match", Value: bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "reactions.v.usernames", Value: bson.D{{Key: "$in", Value: bson.A{username}}}}},
			bson.D{{Key: "reactions.v.federationReactionEventIds." + EscapeFederationEventID(federationEventID), Value: username}},
		}}}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$document"}}}},
	}
}

// FindOneByFederationIDAndUsernameOnReactions returns the message holding a
// reaction whose federation map correlates the given external event with the
// given username, or (nil, nil). The read is non-authoritative and prefers a
// secondary replica.
func (r *Repo) FindOneByFederationIDAndUsernameOnReactions(ctx context.Context, federationEventID, username string) (*models.Message, error) {
	cur, err := r.AggregateSecondary(ctx, federationReactionPipeline(federationEventID, username))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if !cur.Next(ctx) {
		return nil, cur.Err()
	}
	var m models.Message
	if err := cur.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}
