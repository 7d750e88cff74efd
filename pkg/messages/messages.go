// Package messages is the domain repository over the message collection:
// visibility-filtered reads, starring/pinning, discussions, livechat
// transcripts, federation event correlation and synthetic history entries.
// Every operation builds a filter (or pipeline) and delegates to the generic
// base repository.
package messages

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"chatdb/pkg/models"
	"chatdb/pkg/repo"
	"chatdb/pkg/store"
)

// Repo is the message repository.
type Repo struct {
	*repo.Base[models.Message]
}

// New binds the repository to the messages collection of the opened store.
func New() *Repo {
	return &Repo{Base: repo.New[models.Message](store.MessagesCollection)}
}

// NewWithCollections binds the repository to explicit collection handles.
func NewWithCollections(col, secondary *mongo.Collection) *Repo {
	return &Repo{Base: repo.NewWithCollections[models.Message](store.MessagesCollection, col, secondary)}
}

// Indexes declares the structural indexes of the message collection. The
// federation event id index is sparse since most messages never carry one;
// it serves lookup speed, uniqueness is a caller-level contract.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "federation.eventId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
}

// EnsureIndexes declares the message indexes on the store.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.Base.EnsureIndexes(ctx, Indexes())
	return err
}

// notHidden is the visibility predicate shared by every timeline-facing
// query.
func notHidden() bson.E {
	return bson.E{Key: "_hidden", Value: bson.D{{Key: "$ne", Value: true}}}
}

// threadExclusion restricts to messages that are not thread replies, or are
// replies explicitly surfaced on the main timeline.
func threadExclusion() bson.E {
	return bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: "tmid", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "tshow", Value: true}},
	}}
}

// typeAbsentOrLivechatClose matches the livechat transcript: ordinary
// messages plus the closing marker.
func typeAbsentOrLivechatClose() bson.E {
	return bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: "t", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "t", Value: models.TypeLivechatClose}},
	}}
}

// ciText matches the message body against text case-insensitively. The text
// is escaped before use as a pattern so user input cannot inject pattern
// syntax.
func ciText(text string) bson.E {
	return bson.E{Key: "msg", Value: bson.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}}
}

func visibleByMentionFilter(username, roomID string) bson.D {
	return bson.D{
		notHidden(),
		{Key: "mentions.username", Value: username},
		{Key: "rid", Value: roomID},
	}
}

func starredByUserAtRoomFilter(userID, roomID string) bson.D {
	return bson.D{
		notHidden(),
		{Key: "starred._id", Value: userID},
		{Key: "rid", Value: roomID},
	}
}

func byRoomAndTypeFilter(roomID, t string) bson.D {
	return bson.D{
		{Key: "rid", Value: roomID},
		{Key: "t", Value: t},
	}
}

func discussionsByRoomFilter(roomID string) bson.D {
	return bson.D{
		{Key: "rid", Value: roomID},
		{Key: "drid", Value: bson.D{{Key: "$exists", Value: true}}},
	}
}

func discussionsByRoomAndTextFilter(roomID, text string) bson.D {
	return append(discussionsByRoomFilter(roomID), ciText(text))
}

func livechatClosedFilter(roomID, searchTerm string) bson.D {
	q := bson.D{
		{Key: "rid", Value: roomID},
		typeAbsentOrLivechatClose(),
	}
	if searchTerm != "" {
		q = append(q, ciText(searchTerm))
	}
	return q
}

func livechatWithoutClosingFilter(roomID string) bson.D {
	return bson.D{
		{Key: "rid", Value: roomID},
		{Key: "t", Value: bson.D{{Key: "$exists", Value: false}}},
	}
}

func visibleNotContainingTypesBeforeTsFilter(roomID string, types []string, ts time.Time, showThreadMessages bool) bson.D {
	q := bson.D{
		notHidden(),
		{Key: "rid", Value: roomID},
		{Key: "ts", Value: bson.D{{Key: "$lt", Value: ts}}},
	}
	if !showThreadMessages {
		q = append(q, threadExclusion())
	}
	if len(types) > 0 {
		q = append(q, bson.E{Key: "t", Value: bson.D{{Key: "$nin", Value: types}}})
	}
	return q
}

func visibleNotContainingTypesAndUsersFilter(roomID string, types, users []string, showThreadMessages bool) bson.D {
	q := bson.D{notHidden()}
	if len(users) > 0 {
		q = append(q, bson.E{Key: "u._id", Value: bson.D{{Key: "$nin", Value: users}}})
	}
	q = append(q, bson.E{Key: "rid", Value: roomID})
	if !showThreadMessages {
		q = append(q, threadExclusion())
	}
	if len(types) > 0 {
		q = append(q, bson.E{Key: "t", Value: bson.D{{Key: "$nin", Value: types}}})
	}
	return q
}

func pinnedFilter(roomID string) bson.D {
	q := bson.D{
		{Key: "t", Value: bson.D{{Key: "$ne", Value: models.TypeRemoved}}},
		notHidden(),
		{Key: "pinned", Value: true},
	}
	if roomID != "" {
		q = append(q, bson.E{Key: "rid", Value: roomID})
	}
	return q
}

func starredFilter() bson.D {
	return bson.D{
		notHidden(),
		{Key: "starred._id", Value: bson.D{{Key: "$exists", Value: true}}},
	}
}

// FindVisibleByMentionAndRoomID returns the visible messages of a room that
// mention the given username.
func (r *Repo) FindVisibleByMentionAndRoomID(ctx context.Context, username, roomID string, opts ...options.Lister[options.FindOptions]) (*repo.Paginated[models.Message], error) {
	return r.FindPaginated(ctx, visibleByMentionFilter(username, roomID), opts...)
}

// FindStarredByUserAtRoom returns the visible messages of a room starred by
// the given user.
func (r *Repo) FindStarredByUserAtRoom(ctx context.Context, userID, roomID string, opts ...options.Lister[options.FindOptions]) (*repo.Paginated[models.Message], error) {
	return r.FindPaginated(ctx, starredByUserAtRoomFilter(userID, roomID), opts...)
}

// FindByRoomIDAndType returns exactly the messages of a room with the given
// type tag.
func (r *Repo) FindByRoomIDAndType(ctx context.Context, roomID, t string, opts ...options.Lister[options.FindOptions]) (*repo.Paginated[models.Message], error) {
	return r.FindPaginated(ctx, byRoomAndTypeFilter(roomID, t), opts...)
}

// FindDiscussionsByRoom returns the messages of a room that started a
// discussion.
func (r *Repo) FindDiscussionsByRoom(ctx context.Context, roomID string, opts ...options.Lister[options.FindOptions]) (*repo.Cursor[models.Message], error) {
	return r.Find(ctx, discussionsByRoomFilter(roomID), opts...)
}

// FindDiscussionsByRoomAndText additionally matches the body against text,
// case-insensitively.
func (r *Repo) FindDiscussionsByRoomAndText(ctx context.Context, roomID, text string, opts ...options.Lister[options.FindOptions]) (*repo.Paginated[models.Message], error) {
	return r.FindPaginated(ctx, discussionsByRoomAndTextFilter(roomID, text), opts...)
}

// FindLivechatClosedMessages returns the closed-conversation transcript of a
// livechat room: ordinary messages plus the closing marker, optionally
// restricted by a case-insensitive search term.
func (r *Repo) FindLivechatClosedMessages(ctx context.Context, roomID, searchTerm string, opts ...options.Lister[options.FindOptions]) (*repo.Paginated[models.Message], error) {
	return r.FindPaginated(ctx, livechatClosedFilter(roomID, searchTerm), opts...)
}

// FindLivechatClosingMessage returns the closing marker of a livechat room,
// or (nil, nil) when the conversation is still open.
func (r *Repo) FindLivechatClosingMessage(ctx context.Context, roomID string, opts ...options.Lister[options.FindOneOptions]) (*models.Message, error) {
	return r.FindOne(ctx, byRoomAndTypeFilter(roomID, models.TypeLivechatClose), opts...)
}

// FindLivechatMessages returns the livechat transcript as a lazy cursor.
func (r *Repo) FindLivechatMessages(ctx context.Context, roomID string, opts ...options.Lister[options.FindOptions]) (*repo.Cursor[models.Message], error) {
	return r.Find(ctx, livechatClosedFilter(roomID, ""), opts...)
}

// FindLivechatMessagesWithoutClosing returns the transcript without the
// closing marker.
func (r *Repo) FindLivechatMessagesWithoutClosing(ctx context.Context, roomID string, opts ...options.Lister[options.FindOptions]) (*repo.Cursor[models.Message], error) {
	return r.Find(ctx, livechatWithoutClosingFilter(roomID), opts...)
}

// FindVisibleByRoomIDNotContainingTypesBeforeTs returns the visible room
// history strictly before ts, excluding the given type tags (clause omitted
// when the set is empty). With showThreadMessages=false, thread replies not
// surfaced on the main timeline are excluded.
func (r *Repo) FindVisibleByRoomIDNotContainingTypesBeforeTs(ctx context.Context, roomID string, types []string, ts time.Time, showThreadMessages bool, opts ...options.Lister[options.FindOptions]) (*repo.Cursor[models.Message], error) {
	return r.Find(ctx, visibleNotContainingTypesBeforeTsFilter(roomID, types, ts, showThreadMessages), opts...)
}

// FindVisibleByRoomIDNotContainingTypesAndUsers returns the visible room
// history excluding the given type tags and sender ids; empty sets omit
// their clause.
func (r *Repo) FindVisibleByRoomIDNotContainingTypesAndUsers(ctx context.Context, roomID string, types, users []string, showThreadMessages bool, opts ...options.Lister[options.FindOptions]) (*repo.Cursor[models.Message], error) {
	return r.Find(ctx, visibleNotContainingTypesAndUsersFilter(roomID, types, users, showThreadMessages), opts...)
}

// FindPinned returns all visible pinned messages across rooms, skipping
// removal markers.
func (r *Repo) FindPinned(ctx context.Context, opts ...options.Lister[options.FindOptions]) (*repo.Cursor[models.Message], error) {
	return r.Find(ctx, pinnedFilter(""), opts...)
}

// FindPaginatedPinnedByRoom returns the visible pinned messages of one room.
func (r *Repo) FindPaginatedPinnedByRoom(ctx context.Context, roomID string, opts ...options.Lister[options.FindOptions]) (*repo.Paginated[models.Message], error) {
	return r.FindPaginated(ctx, pinnedFilter(roomID), opts...)
}

// FindStarred returns all visible messages starred by anyone.
func (r *Repo) FindStarred(ctx context.Context, opts ...options.Lister[options.FindOptions]) (*repo.Cursor[models.Message], error) {
	return r.Find(ctx, starredFilter(), opts...)
}

// SetBlocksByID replaces the UI blocks of a message.
func (r *Repo) SetBlocksByID(ctx context.Context, id string, blocks []bson.Raw) error {
	_, err := r.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "blocks", Value: blocks}}}},
	)
	return err
}

// AddBlocksByID appends UI blocks to a message, skipping duplicates.
func (r *Repo) AddBlocksByID(ctx context.Context, id string, blocks []bson.Raw) error {
	_, err := r.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$addToSet", Value: bson.D{
			{Key: "blocks", Value: bson.D{{Key: "$each", Value: blocks}}},
		}}},
	)
	return err
}

// CountByType counts messages with the given type tag.
func (r *Repo) CountByType(ctx context.Context, t string, opts ...options.Lister[options.CountOptions]) (int64, error) {
	return r.CountDocuments(ctx, bson.D{{Key: "t", Value: t}}, opts...)
}

// RemoveByRoomID permanently removes every message of a room. This is the
// only removal path; there is no soft delete.
func (r *Repo) RemoveByRoomID(ctx context.Context, roomID string) (int64, error) {
	return r.DeleteMany(ctx, bson.D{{Key: "rid", Value: roomID}})
}
