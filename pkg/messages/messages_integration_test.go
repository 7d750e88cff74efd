package messages

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"chatdb/pkg/models"
	"chatdb/pkg/store"
)

// Store-backed tests. They run against the instance named by
// CHATDB_TEST_MONGO_URI and are skipped when it is unset; each test run
// uses a throwaway database.

func setupTestRepo(t *testing.T) *Repo {
	t.Helper()
	uri := os.Getenv("CHATDB_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CHATDB_TEST_MONGO_URI not set; skipping store-backed test")
	}
	dbName := fmt.Sprintf("chatdb_test_%d", time.Now().UnixNano())
	if err := store.Open(uri, dbName); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Database().Drop(context.Background())
		_ = store.Close()
	})
	r := New()
	if err := r.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return r
}

func seed(t *testing.T, r *Repo, m models.Message) models.Message {
	t.Helper()
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	if m.User.ID == "" {
		m.User = models.UserSnapshot{ID: "u-system", Username: "system"}
	}
	if _, err := r.InsertOne(context.Background(), m); err != nil {
		t.Fatalf("InsertOne %s: %v", m.ID, err)
	}
	return m
}

func ids(t *testing.T, msgs []models.Message) map[string]bool {
	t.Helper()
	out := map[string]bool{}
	for _, m := range msgs {
		out[m.ID] = true
	}
	return out
}

func TestHiddenNeverVisible(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	seed(t, r, models.Message{
		ID: "m-hidden", RoomID: "r1", Hidden: true, Pinned: true,
		Starred:  []models.StarredBy{{ID: "u1"}},
		Mentions: []models.UserSnapshot{{ID: "u1", Username: "alice"}},
	})
	visible := seed(t, r, models.Message{
		ID: "m-visible", RoomID: "r1", Pinned: true,
		Starred:  []models.StarredBy{{ID: "u1"}},
		Mentions: []models.UserSnapshot{{ID: "u1", Username: "alice"}},
	})

	byMention, err := r.FindVisibleByMentionAndRoomID(ctx, "alice", "r1")
	if err != nil {
		t.Fatalf("FindVisibleByMentionAndRoomID: %v", err)
	}
	got, err := byMention.Cursor.All(ctx)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	if len(got) != 1 || got[0].ID != visible.ID || byMention.Total != 1 {
		t.Fatalf("hidden message leaked into mention query: %v (total %d)", ids(t, got), byMention.Total)
	}

	starred, err := r.FindStarredByUserAtRoom(ctx, "u1", "r1")
	if err != nil {
		t.Fatalf("FindStarredByUserAtRoom: %v", err)
	}
	got, _ = starred.Cursor.All(ctx)
	if len(got) != 1 || got[0].ID != visible.ID {
		t.Fatalf("hidden message leaked into starred query: %v", ids(t, got))
	}

	pinned, err := r.FindPinned(ctx)
	if err != nil {
		t.Fatalf("FindPinned: %v", err)
	}
	pgot, _ := pinned.All(ctx)
	if len(pgot) != 1 || pgot[0].ID != visible.ID {
		t.Fatalf("hidden message leaked into pinned query: %v", ids(t, pgot))
	}
}

func TestByRoomAndTypeExact(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	want := seed(t, r, models.Message{ID: "m1", RoomID: "r1", Type: models.TypeLivechatClose})
	seed(t, r, models.Message{ID: "m2", RoomID: "r1"})
	seed(t, r, models.Message{ID: "m3", RoomID: "r2", Type: models.TypeLivechatClose})

	page, err := r.FindByRoomIDAndType(ctx, "r1", models.TypeLivechatClose)
	if err != nil {
		t.Fatalf("FindByRoomIDAndType: %v", err)
	}
	got, err := page.Cursor.All(ctx)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	if len(got) != 1 || got[0].ID != want.ID {
		t.Fatalf("expected exactly %s; got %v", want.ID, ids(t, got))
	}
}

func TestLivechatClosedExample(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	seed(t, r, models.Message{ID: "m1", RoomID: "r1", Text: "hello"})
	seed(t, r, models.Message{ID: "m2", RoomID: "r1", Type: models.TypeLivechatClose, Text: "closed"})
	seed(t, r, models.Message{ID: "m3", RoomID: "r1", Type: models.TypeTransferHistory})

	page, err := r.FindLivechatClosedMessages(ctx, "r1", "")
	if err != nil {
		t.Fatalf("FindLivechatClosedMessages: %v", err)
	}
	got, _ := page.Cursor.All(ctx)
	if len(got) != 2 {
		t.Fatalf("transcript must hold the ordinary and closing messages: %v", ids(t, got))
	}

	page, err = r.FindLivechatClosedMessages(ctx, "r1", "foo")
	if err != nil {
		t.Fatalf("FindLivechatClosedMessages(foo): %v", err)
	}
	got, _ = page.Cursor.All(ctx)
	if len(got) != 0 || page.Total != 0 {
		t.Fatalf("non-matching term must yield empty: %v", ids(t, got))
	}

	closing, err := r.FindLivechatClosingMessage(ctx, "r1")
	if err != nil {
		t.Fatalf("FindLivechatClosingMessage: %v", err)
	}
	if closing == nil || closing.ID != "m2" {
		t.Fatalf("expected closing marker m2; got %+v", closing)
	}

	closing, err = r.FindLivechatClosingMessage(ctx, "r-open")
	if err != nil {
		t.Fatalf("FindLivechatClosingMessage(open): %v", err)
	}
	if closing != nil {
		t.Fatalf("open conversation must yield an absent closing message")
	}
}

func TestThreadExclusion(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	cutoff := time.Now().UTC().Add(time.Hour)

	seed(t, r, models.Message{ID: "main", RoomID: "r1"})
	seed(t, r, models.Message{ID: "reply-hidden", RoomID: "r1", ThreadParentID: "main"})
	seed(t, r, models.Message{ID: "reply-shown", RoomID: "r1", ThreadParentID: "main", ThreadShow: true})

	cur, err := r.FindVisibleByRoomIDNotContainingTypesBeforeTs(ctx, "r1", nil, cutoff, false)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	got, err := cur.All(ctx)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	seen := ids(t, got)
	if !seen["main"] || !seen["reply-shown"] || seen["reply-hidden"] {
		t.Fatalf("thread exclusion violated: %v", seen)
	}

	// with thread messages shown, everything surfaces
	cur, err = r.FindVisibleByRoomIDNotContainingTypesBeforeTs(ctx, "r1", nil, cutoff, true)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	got, _ = cur.All(ctx)
	if len(got) != 3 {
		t.Fatalf("expected all 3 messages; got %v", ids(t, got))
	}
}

func TestFederationRoundTrip(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	m := seed(t, r, models.Message{ID: "m1", RoomID: "r1"})
	const eventID = "$ev.1:example.org"

	if err := r.SetFederationEventIDByID(ctx, m.ID, eventID); err != nil {
		t.Fatalf("SetFederationEventIDByID: %v", err)
	}
	got, err := r.FindOneByFederationID(ctx, eventID)
	if err != nil {
		t.Fatalf("FindOneByFederationID: %v", err)
	}
	if got == nil || got.ID != m.ID {
		t.Fatalf("round trip failed; got %+v", got)
	}

	missing, err := r.FindOneByFederationID(ctx, "$unknown:example.org")
	if err != nil {
		t.Fatalf("FindOneByFederationID(miss): %v", err)
	}
	if missing != nil {
		t.Fatalf("unknown event id must yield an absent message")
	}
}

func TestReactionFederationLookup(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	seed(t, r, models.Message{
		ID: "m1", RoomID: "r1",
		Reactions: map[string]models.Reaction{
			":smile:": {Usernames: []string{"alice"}},
		},
	})
	const eventID = "$reaction.ev:example.org"

	if err := r.SetFederationReactionEventID(ctx, "alice", "m1", ":smile:", eventID); err != nil {
		t.Fatalf("SetFederationReactionEventID: %v", err)
	}

	got, err := r.FindOneByFederationIDAndUsernameOnReactions(ctx, eventID, "alice")
	if err != nil {
		t.Fatalf("compound lookup: %v", err)
	}
	if got == nil || got.ID != "m1" {
		t.Fatalf("compound lookup missed the message; got %+v", got)
	}
	// the query-internal flattening must not leak into the result shape
	reaction, ok := got.Reactions[":smile:"]
	if !ok || len(reaction.Usernames) != 1 {
		t.Fatalf("result lost its original reaction shape: %+v", got.Reactions)
	}
	if reaction.FederationReactionEventIDs[EscapeFederationEventID(eventID)] != "alice" {
		t.Fatalf("correlation entry missing: %+v", reaction.FederationReactionEventIDs)
	}

	// wrong username must not match
	got, err = r.FindOneByFederationIDAndUsernameOnReactions(ctx, eventID, "bob")
	if err != nil {
		t.Fatalf("compound lookup(bob): %v", err)
	}
	if got != nil {
		t.Fatalf("lookup must pin both event id and username")
	}

	if err := r.UnsetFederationReactionEventID(ctx, eventID, "m1", ":smile:"); err != nil {
		t.Fatalf("UnsetFederationReactionEventID: %v", err)
	}
	got, err = r.FindOneByFederationIDAndUsernameOnReactions(ctx, eventID, "alice")
	if err != nil {
		t.Fatalf("compound lookup after unset: %v", err)
	}
	if got != nil {
		t.Fatalf("unset correlation must no longer match")
	}
}

func TestHistoryEntries(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	actor := models.UserSnapshot{ID: "u1", Username: "alice", Name: "Alice"}

	slaID, err := r.CreateSLAHistory(ctx, "r1", actor, &models.SLAInfo{Name: "gold"})
	if err != nil {
		t.Fatalf("CreateSLAHistory: %v", err)
	}
	clearedID, err := r.CreateSLAHistory(ctx, "r1", actor, nil)
	if err != nil {
		t.Fatalf("CreateSLAHistory(cleared): %v", err)
	}
	if _, err := r.CreatePriorityHistory(ctx, "r1", actor, &models.PriorityInfo{Name: "high", I18n: "High"}); err != nil {
		t.Fatalf("CreatePriorityHistory: %v", err)
	}

	page, err := r.FindByRoomIDAndType(ctx, "r1", models.TypeSLAChangeHistory)
	if err != nil {
		t.Fatalf("FindByRoomIDAndType: %v", err)
	}
	got, _ := page.Cursor.All(ctx)
	if len(got) != 2 {
		t.Fatalf("expected both SLA history entries; got %v", ids(t, got))
	}
	for _, m := range got {
		if m.SLAData == nil || m.SLAData.DefinedBy.Username != "alice" {
			t.Fatalf("history entry misses the actor: %+v", m)
		}
		switch m.ID {
		case slaID:
			if m.SLAData.SLA == nil || m.SLAData.SLA.Name != "gold" {
				t.Fatalf("assignment entry must carry the SLA name: %+v", m.SLAData)
			}
		case clearedID:
			if m.SLAData.SLA != nil {
				t.Fatalf("cleared entry must omit the SLA: %+v", m.SLAData)
			}
		}
		if m.Groupable == nil || *m.Groupable {
			t.Fatalf("history entries are never groupable: %+v", m)
		}
	}

	n, err := r.CountByType(ctx, models.TypePriorityChangeHistory)
	if err != nil {
		t.Fatalf("CountByType: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 priority history entry; got %d", n)
	}
}

func TestBlocksUpdates(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	seed(t, r, models.Message{ID: "m1", RoomID: "r1"})

	block := func(id string) bson.Raw {
		b, err := bson.Marshal(bson.D{{Key: "type", Value: "section"}, {Key: "blockId", Value: id}})
		if err != nil {
			t.Fatalf("marshal block: %v", err)
		}
		return bson.Raw(b)
	}

	if err := r.SetBlocksByID(ctx, "m1", []bson.Raw{block("b1")}); err != nil {
		t.Fatalf("SetBlocksByID: %v", err)
	}
	if err := r.AddBlocksByID(ctx, "m1", []bson.Raw{block("b2"), block("b2")}); err != nil {
		t.Fatalf("AddBlocksByID: %v", err)
	}

	got, err := r.FindOne(ctx, bson.D{{Key: "_id", Value: "m1"}})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	// duplicate append collapses, so b1 + b2
	if got == nil || len(got.Blocks) != 2 {
		t.Fatalf("expected 2 blocks; got %+v", got)
	}
}

func TestRemoveByRoomID(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	seed(t, r, models.Message{ID: "m1", RoomID: "r1"})
	seed(t, r, models.Message{ID: "m2", RoomID: "r1"})
	seed(t, r, models.Message{ID: "m3", RoomID: "r2"})

	n, err := r.RemoveByRoomID(ctx, "r1")
	if err != nil {
		t.Fatalf("RemoveByRoomID: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 removed; got %d", n)
	}
	left, err := r.CountDocuments(ctx, bson.D{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if left != 1 {
		t.Fatalf("expected 1 message left; got %d", left)
	}
}

func TestVisibleExcludingTypesAndUsers(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	seed(t, r, models.Message{ID: "m1", RoomID: "r1", User: models.UserSnapshot{ID: "u1", Username: "alice"}})
	seed(t, r, models.Message{ID: "m2", RoomID: "r1", User: models.UserSnapshot{ID: "u2", Username: "bob"}})
	seed(t, r, models.Message{ID: "m3", RoomID: "r1", Type: models.TypeLivechatClose, User: models.UserSnapshot{ID: "u3", Username: "carol"}})

	cur, err := r.FindVisibleByRoomIDNotContainingTypesAndUsers(ctx, "r1", []string{models.TypeLivechatClose}, []string{"u2"}, true)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	got, err := cur.All(ctx)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("expected only m1; got %v", ids(t, got))
	}
}
