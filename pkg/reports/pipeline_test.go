package reports

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestPipelineAppendIf(t *testing.T) {
	p := NewPipeline(Match(bson.D{{Key: "t", Value: "x"}}))
	p.AppendIf(false, Skip(10))
	p.AppendIf(true, Limit(5))
	kinds := make([]StageKind, 0, len(p.Stages()))
	for _, s := range p.Stages() {
		kinds = append(kinds, s.Kind)
	}
	want := []StageKind{StageMatch, StageLimit}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("unexpected stage kinds %v", kinds)
	}
}

func TestStageDocs(t *testing.T) {
	cases := []struct {
		stage Stage
		want  bson.D
	}{
		{
			Lookup("rooms", "rid", "_id", "room"),
			bson.D{{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: "rooms"},
				{Key: "localField", Value: "rid"},
				{Key: "foreignField", Value: "_id"},
				{Key: "as", Value: "room"},
			}}},
		},
		{
			Unwind("$room", true),
			bson.D{{Key: "$unwind", Value: bson.D{
				{Key: "path", Value: "$room"},
				{Key: "preserveNullAndEmptyArrays", Value: true},
			}}},
		},
		{
			Unwind("$room", false),
			bson.D{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$room"}}}},
		},
		{
			Count("total"),
			bson.D{{Key: "$count", Value: "total"}},
		},
		{
			Skip(20),
			bson.D{{Key: "$skip", Value: int64(20)}},
		},
	}
	for i, c := range cases {
		if !reflect.DeepEqual(c.stage.Doc(), c.want) {
			t.Fatalf("case %d: unexpected stage doc %v", i, c.stage.Doc())
		}
	}
}

func TestPipelineDocsOrder(t *testing.T) {
	p := NewPipeline(
		Match(bson.D{{Key: "a", Value: 1}}),
		Sort(bson.D{{Key: "b", Value: -1}}),
	)
	docs := p.Docs()
	if len(docs) != 2 || docs[0][0].Key != "$match" || docs[1][0].Key != "$sort" {
		t.Fatalf("docs must preserve stage order: %v", docs)
	}
}
