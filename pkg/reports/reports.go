package reports

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"chatdb/pkg/messages"
	"chatdb/pkg/models"
	"chatdb/pkg/store"
)

// Engine runs the cross-entity analytics aggregations. It reuses only the
// message repository's raw pipeline execution; every read prefers a
// secondary replica since reports are non-authoritative.
type Engine struct {
	msgs *messages.Repo
}

// NewEngine binds the engine to a message repository.
func NewEngine(msgs *messages.Repo) *Engine {
	return &Engine{msgs: msgs}
}

// TransferredRoomsOptions scopes the transfer-count report.
type TransferredRoomsOptions struct {
	Start        time.Time
	End          time.Time
	DepartmentID string // optional: restrict to one department
	Sort         bson.D // applied to the grouped result; default name asc
	Offset       int64  // pagination; 0 means from the start
	Limit        int64  // pagination; 0 means unbounded
}

// DepartmentTransferCount is one grouped row of the transfer report. The
// department id is null for rooms without one.
type DepartmentTransferCount struct {
	DepartmentID string `bson:"_id"`
	Count        int64  `bson:"count"`
}

// transferredRoomsPipeline assembles the transfer-count aggregation:
// transfer-history messages in range, joined to their room, grouped by the
// room's department.
func transferredRoomsPipeline(opts TransferredRoomsOptions, onlyCount bool) *Pipeline {
	sort := opts.Sort
	if sort == nil {
		sort = bson.D{{Key: "name", Value: 1}}
	}
	p := NewPipeline(
		Match(bson.D{
			{Key: "t", Value: models.TypeTransferHistory},
			{Key: "ts", Value: bson.D{
				{Key: "$gte", Value: opts.Start},
				{Key: "$lte", Value: opts.End},
			}},
		}),
		Lookup(store.RoomsCollection, "rid", "_id", "room"),
		Unwind("$room", true),
	)
	p.AppendIf(opts.DepartmentID != "", Match(bson.D{{Key: "room.departmentId", Value: opts.DepartmentID}}))
	p.Append(Group(bson.D{
		{Key: "_id", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "departmentId", Value: "$room.departmentId"},
		}},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
	}))
	p.Append(Project(bson.D{
		{Key: "_id", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$_id.departmentId", nil}}}},
		{Key: "count", Value: 1},
	}))
	p.Append(Sort(sort))
	if onlyCount {
		return p.Append(Count("total"))
	}
	p.AppendIf(opts.Offset > 0, Skip(opts.Offset))
	p.AppendIf(opts.Limit > 0, Limit(opts.Limit))
	return p
}

// TransferredRoomsByDepartment returns the transfer counts grouped by
// department. With Offset/Limit set the result is one page; otherwise it is
// unbounded and the store may spill intermediate groupings to disk.
func (e *Engine) TransferredRoomsByDepartment(ctx context.Context, opts TransferredRoomsOptions) ([]DepartmentTransferCount, error) {
	p := transferredRoomsPipeline(opts, false)
	cur, err := e.msgs.AggregateSecondary(ctx, p.Docs(), options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, err
	}
	var out []DepartmentTransferCount
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountTransferredRooms returns only the number of grouped departments for
// the same report scope.
func (e *Engine) CountTransferredRooms(ctx context.Context, opts TransferredRoomsOptions) (int64, error) {
	p := transferredRoomsPipeline(opts, true)
	cur, err := e.msgs.AggregateSecondary(ctx, p.Docs())
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	if !cur.Next(ctx) {
		return 0, cur.Err()
	}
	var res struct {
		Total int64 `bson:"total"`
	}
	if err := cur.Decode(&res); err != nil {
		return 0, err
	}
	return res.Total, nil
}

// MessagesByDateOptions scopes the messages-sent-by-day report.
type MessagesByDateOptions struct {
	Start time.Time
	End   time.Time
	Sort  bson.D
	Limit int64
}

// RoomSummary is the room identity attached to a by-day row.
type RoomSummary struct {
	ID        string   `bson:"_id" json:"_id"`
	Name      string   `bson:"name" json:"name"`
	Type      string   `bson:"t" json:"t"`
	Usernames []string `bson:"usernames" json:"usernames"`
}

// DayRoomMessages is one (day, room) bucket of sent messages. Date is the
// fixed-width YYYYMMDD day key.
type DayRoomMessages struct {
	Date     string      `bson:"date" json:"date"`
	Room     RoomSummary `bson:"room" json:"room"`
	Type     string      `bson:"type" json:"type"`
	Messages int64       `bson:"messages" json:"messages"`
}

// dayKeyExpr slices the fixed-width textual form of ts into its
// year/month/day substrings and concatenates them. The timestamp is a
// native date, so the sortable text is produced first; the substring
// offsets must stay as they are to keep grouping output stable.
func dayKeyExpr() bson.D {
	tsText := bson.D{{Key: "$dateToString", Value: bson.D{
		{Key: "format", Value: "%Y-%m-%dT%H:%M:%S"},
		{Key: "date", Value: "$ts"},
	}}}
	return bson.D{{Key: "$concat", Value: bson.A{
		bson.D{{Key: "$substrBytes", Value: bson.A{tsText, 0, 4}}},
		bson.D{{Key: "$substrBytes", Value: bson.A{tsText, 5, 2}}},
		bson.D{{Key: "$substrBytes", Value: bson.A{tsText, 8, 2}}},
	}}}
}

func messagesByDatePipeline(opts MessagesByDateOptions) *Pipeline {
	p := NewPipeline(
		Match(bson.D{
			{Key: "t", Value: bson.D{{Key: "$exists", Value: false}}},
			{Key: "ts", Value: bson.D{
				{Key: "$gte", Value: opts.Start},
				{Key: "$lte", Value: opts.End},
			}},
		}),
		Lookup(store.RoomsCollection, "rid", "_id", "room"),
		Unwind("$room", false),
		Group(bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "_id", Value: "$room._id"},
				{Key: "name", Value: bson.D{{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$ifNull", Value: bson.A{"$room.fname", false}}},
					"$room.fname",
					"$room.name",
				}}}},
				{Key: "t", Value: "$room.t"},
				{Key: "usernames", Value: bson.D{{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$ifNull", Value: bson.A{"$room.usernames", false}}},
					"$room.usernames",
					bson.A{},
				}}}},
				{Key: "date", Value: dayKeyExpr()},
			}},
			{Key: "messages", Value: bson.D{{Key: "$sum", Value: 1}}},
		}),
		Project(bson.D{
			{Key: "_id", Value: 0},
			{Key: "date", Value: "$_id.date"},
			{Key: "room", Value: bson.D{
				{Key: "_id", Value: "$_id._id"},
				{Key: "name", Value: "$_id.name"},
				{Key: "t", Value: "$_id.t"},
				{Key: "usernames", Value: "$_id.usernames"},
			}},
			{Key: "type", Value: "messages"},
			{Key: "messages", Value: 1},
		}),
	)
	p.AppendIf(opts.Sort != nil, Sort(opts.Sort))
	p.AppendIf(opts.Limit > 0, Limit(opts.Limit))
	return p
}

// MessagesSentByDate buckets ordinary messages (no type tag) per room and
// day over the given range.
func (e *Engine) MessagesSentByDate(ctx context.Context, opts MessagesByDateOptions) ([]DayRoomMessages, error) {
	p := messagesByDatePipeline(opts)
	cur, err := e.msgs.AggregateSecondary(ctx, p.Docs())
	if err != nil {
		return nil, err
	}
	var out []DayRoomMessages
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// distinctRoomCountPipeline deduplicates matching messages by room, then
// collapses to a single total.
func distinctRoomCountPipeline(match bson.D) *Pipeline {
	return NewPipeline(
		Match(match),
		Group(bson.D{{Key: "_id", Value: "$rid"}}),
		Group(bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
		}),
	)
}

func (e *Engine) distinctRoomCount(ctx context.Context, match bson.D) (int64, error) {
	cur, err := e.msgs.AggregateSecondary(ctx, distinctRoomCountPipeline(match).Docs())
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	// no matches collapse to zero rather than an error
	if !cur.Next(ctx) {
		return 0, cur.Err()
	}
	var res struct {
		Total int64 `bson:"total"`
	}
	if err := cur.Decode(&res); err != nil {
		return 0, err
	}
	return res.Total, nil
}

// CountRoomsWithStarredMessages returns how many distinct rooms contain at
// least one starred message.
func (e *Engine) CountRoomsWithStarredMessages(ctx context.Context) (int64, error) {
	return e.distinctRoomCount(ctx, bson.D{
		{Key: "starred._id", Value: bson.D{{Key: "$exists", Value: true}}},
	})
}

// CountRoomsWithMessageType returns how many distinct rooms contain at
// least one message with the given type tag.
func (e *Engine) CountRoomsWithMessageType(ctx context.Context, t string) (int64, error) {
	return e.distinctRoomCount(ctx, bson.D{{Key: "t", Value: t}})
}

// CountRoomsWithPinnedMessages returns how many distinct rooms contain at
// least one pinned message.
func (e *Engine) CountRoomsWithPinnedMessages(ctx context.Context) (int64, error) {
	return e.distinctRoomCount(ctx, bson.D{{Key: "pinned", Value: true}})
}

// CountMessagesByType is a direct document count by type tag; no
// aggregation needed.
func (e *Engine) CountMessagesByType(ctx context.Context, t string) (int64, error) {
	return e.msgs.CountByType(ctx, t)
}
