package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Message type tags. An absent tag means an ordinary user message.
const (
	TypeTransferHistory       = "livechat_transfer_history"
	TypeSLAChangeHistory      = "omnichannel_sla_change_history"
	TypePriorityChangeHistory = "omnichannel_priority_change_history"
	TypeLivechatClose         = "livechat-close"
	TypeRemoved               = "rm"
)

// UserSnapshot is the denormalized author (or mention) captured at write
// time.
type UserSnapshot struct {
	ID       string `bson:"_id" json:"_id"`
	Username string `bson:"username" json:"username"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
}

// StarredBy records one user who starred the message.
type StarredBy struct {
	ID string `bson:"_id" json:"_id"`
}

// Reaction holds the users behind one reaction key plus the federation
// correlation map. Keys of FederationReactionEventIDs are escaped external
// event ids (see messages.EscapeFederationEventID); values are usernames.
type Reaction struct {
	Usernames                  []string          `bson:"usernames" json:"usernames"`
	FederationReactionEventIDs map[string]string `bson:"federationReactionEventIds,omitempty" json:"federationReactionEventIds,omitempty"`
}

// Federation correlates a message with an event in an external federated
// system.
type Federation struct {
	EventID string `bson:"eventId,omitempty" json:"eventId,omitempty"`
}

// DefinedBy identifies the actor recorded on a history entry.
type DefinedBy struct {
	ID       string `bson:"_id" json:"_id"`
	Username string `bson:"username" json:"username"`
}

// SLAInfo is the newly assigned SLA on an SLA-change history entry.
type SLAInfo struct {
	Name string `bson:"name" json:"name"`
}

// SLAChange is the payload of an SLA-change history entry. A nil SLA means
// the assignment was cleared.
type SLAChange struct {
	DefinedBy DefinedBy `bson:"definedBy" json:"definedBy"`
	SLA       *SLAInfo  `bson:"sla,omitempty" json:"sla,omitempty"`
}

// PriorityInfo is the newly assigned priority on a priority-change history
// entry.
type PriorityInfo struct {
	Name string `bson:"name" json:"name"`
	I18n string `bson:"i18n,omitempty" json:"i18n,omitempty"`
}

// PriorityChange is the payload of a priority-change history entry. A nil
// Priority means the assignment was cleared.
type PriorityChange struct {
	DefinedBy DefinedBy     `bson:"definedBy" json:"definedBy"`
	Priority  *PriorityInfo `bson:"priority,omitempty" json:"priority,omitempty"`
}

// Message is the sole growing entity of the store.
//
// A message belongs to a thread when ThreadParentID (tmid) is set; ThreadShow
// additionally surfaces it on the main timeline. DiscussionRoomID (drid)
// marks the message that started a discussion. Hidden messages are excluded
// from every visibility-filtered read.
type Message struct {
	ID        string       `bson:"_id" json:"_id"`
	RoomID    string       `bson:"rid" json:"rid"`
	Text      string       `bson:"msg" json:"msg"`
	Timestamp time.Time    `bson:"ts" json:"ts"`
	User      UserSnapshot `bson:"u" json:"u"`

	Type   string `bson:"t,omitempty" json:"t,omitempty"`
	Hidden bool   `bson:"_hidden,omitempty" json:"_hidden,omitempty"`

	Pinned   bool           `bson:"pinned,omitempty" json:"pinned,omitempty"`
	Starred  []StarredBy    `bson:"starred,omitempty" json:"starred,omitempty"`
	Mentions []UserSnapshot `bson:"mentions,omitempty" json:"mentions,omitempty"`

	ThreadParentID   string `bson:"tmid,omitempty" json:"tmid,omitempty"`
	ThreadShow       bool   `bson:"tshow,omitempty" json:"tshow,omitempty"`
	DiscussionRoomID string `bson:"drid,omitempty" json:"drid,omitempty"`

	Reactions map[string]Reaction `bson:"reactions,omitempty" json:"reactions,omitempty"`

	// Blocks are opaque UI-block descriptors; the store only replaces or
	// appends them.
	Blocks []bson.Raw `bson:"blocks,omitempty" json:"blocks,omitempty"`

	Groupable *bool `bson:"groupable,omitempty" json:"groupable,omitempty"`

	Federation *Federation `bson:"federation,omitempty" json:"federation,omitempty"`

	SLAData      *SLAChange      `bson:"slaData,omitempty" json:"slaData,omitempty"`
	PriorityData *PriorityChange `bson:"priorityData,omitempty" json:"priorityData,omitempty"`
}
