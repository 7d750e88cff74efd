package models

// Room carries the fields the reporting lookups read from the room
// collection. Room lifecycle is owned elsewhere; this layer only joins to
// it.
type Room struct {
	ID           string   `bson:"_id" json:"_id"`
	Name         string   `bson:"name,omitempty" json:"name,omitempty"`
	DisplayName  string   `bson:"fname,omitempty" json:"fname,omitempty"`
	Type         string   `bson:"t,omitempty" json:"t,omitempty"`
	Usernames    []string `bson:"usernames,omitempty" json:"usernames,omitempty"`
	DepartmentID string   `bson:"departmentId,omitempty" json:"departmentId,omitempty"`
}
