// Package reports builds and runs the multi-stage analytics aggregations.
// Pipelines are assembled from a closed set of stage variants by conditional
// append, so their shape is testable without a store.
package reports

import "go.mongodb.org/mongo-driver/v2/bson"

// StageKind tags the closed set of pipeline stage variants.
type StageKind int

const (
	StageMatch StageKind = iota
	StageLookup
	StageUnwind
	StageGroup
	StageProject
	StageSort
	StageSkip
	StageLimit
	StageCount
	StageReplaceRoot
)

// Stage is one tagged pipeline stage.
type Stage struct {
	Kind StageKind
	doc  bson.D
}

// Doc returns the stage's wire form.
func (s Stage) Doc() bson.D { return s.doc }

// Match filters documents.
func Match(filter bson.D) Stage {
	return Stage{Kind: StageMatch, doc: bson.D{{Key: "$match", Value: filter}}}
}

// Lookup joins another collection on a local/foreign field pair.
func Lookup(from, localField, foreignField, as string) Stage {
	return Stage{Kind: StageLookup, doc: bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: foreignField},
		{Key: "as", Value: as},
	}}}}
}

// Unwind flattens an array field into one document per element.
func Unwind(path string, preserveNullAndEmpty bool) Stage {
	d := bson.D{{Key: "path", Value: path}}
	if preserveNullAndEmpty {
		d = append(d, bson.E{Key: "preserveNullAndEmptyArrays", Value: true})
	}
	return Stage{Kind: StageUnwind, doc: bson.D{{Key: "$unwind", Value: d}}}
}

// Group groups documents by the given key expression.
func Group(spec bson.D) Stage {
	return Stage{Kind: StageGroup, doc: bson.D{{Key: "$group", Value: spec}}}
}

// Project reshapes documents.
func Project(spec bson.D) Stage {
	return Stage{Kind: StageProject, doc: bson.D{{Key: "$project", Value: spec}}}
}

// Sort orders documents.
func Sort(spec bson.D) Stage {
	return Stage{Kind: StageSort, doc: bson.D{{Key: "$sort", Value: spec}}}
}

// Skip drops the first n documents.
func Skip(n int64) Stage {
	return Stage{Kind: StageSkip, doc: bson.D{{Key: "$skip", Value: n}}}
}

// Limit caps the number of documents.
func Limit(n int64) Stage {
	return Stage{Kind: StageLimit, doc: bson.D{{Key: "$limit", Value: n}}}
}

// Count replaces the stream with a single document counting its inputs.
func Count(field string) Stage {
	return Stage{Kind: StageCount, doc: bson.D{{Key: "$count", Value: field}}}
}

// ReplaceRoot promotes the given expression to the document root.
func ReplaceRoot(newRoot any) Stage {
	return Stage{Kind: StageReplaceRoot, doc: bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: newRoot}}}}}
}

// Pipeline is an ordered stage list built by conditional append.
type Pipeline struct {
	stages []Stage
}

// NewPipeline starts a pipeline from the given stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Append adds a stage unconditionally.
func (p *Pipeline) Append(s Stage) *Pipeline {
	p.stages = append(p.stages, s)
	return p
}

// AppendIf adds a stage only when cond holds; optional stages degrade to a
// no-op instead of producing vacuous clauses.
func (p *Pipeline) AppendIf(cond bool, s Stage) *Pipeline {
	if cond {
		p.stages = append(p.stages, s)
	}
	return p
}

// Stages returns the tagged stages in order.
func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// Docs returns the wire form accepted by the store's aggregate.
func (p *Pipeline) Docs() []bson.D {
	out := make([]bson.D, 0, len(p.stages))
	for _, s := range p.stages {
		out = append(out, s.doc)
	}
	return out
}
