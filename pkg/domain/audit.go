package domain

import (
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/comses/citation/pkg/utils/cmp"
)

var ErrUnknownAuditAction = errors.New("unknown audit action")

// AuditAction classifies the operation a group of row changes ran under.
type AuditAction string

const (
	ActionSplit  AuditAction = "SPLIT"
	ActionMerge  AuditAction = "MERGE"
	ActionLoad   AuditAction = "LOAD"
	ActionManual AuditAction = "MANUAL"
)

func (aa AuditAction) String() string {
	return string(aa)
}

func AsAuditAction(s string) (AuditAction, error) {
	switch AuditAction(s) {
	case ActionSplit:
		return ActionSplit, nil
	case ActionMerge:
		return ActionMerge, nil
	case ActionLoad:
		return ActionLoad, nil
	case ActionManual:
		return ActionManual, nil
	default:
		return AuditAction(s), fmt.Errorf("%w: %s", ErrUnknownAuditAction, s)
	}
}

var ErrUnknownLogAction = errors.New("unknown log action")

// LogAction is the kind of row change an AuditLog records.
type LogAction string

const (
	LogInsert LogAction = "INSERT"
	LogUpdate LogAction = "UPDATE"
	LogDelete LogAction = "DELETE"
)

func (la LogAction) String() string {
	return string(la)
}

func AsLogAction(s string) (LogAction, error) {
	switch LogAction(s) {
	case LogInsert:
		return LogInsert, nil
	case LogUpdate:
		return LogUpdate, nil
	case LogDelete:
		return LogDelete, nil
	default:
		return LogAction(s), fmt.Errorf("%w: %s", ErrUnknownLogAction, s)
	}
}

// AuditCommand groups the row changes of one logical operation.
//
// Id is zero until the command reaches the database. The row is written
// lazily, together with the first AuditLog recorded under it, so commands
// which end up changing nothing leave no trace.
type AuditCommand struct {
	Id        int
	Action    AuditAction
	Creator   string
	Message   string
	DateAdded time.Time
}

// Saved reports whether the command has reached the database.
func (ac *AuditCommand) Saved() bool {
	return ac != nil && ac.Id != 0
}

func (ac *AuditCommand) Equal(o *AuditCommand) bool {
	if (ac == nil) || (o == nil) {
		return (ac == nil) && (o == nil)
	}
	return ac.Id == o.Id &&
		ac.Action == o.Action &&
		ac.Creator == o.Creator &&
		ac.Message == o.Message &&
		ac.DateAdded.Equal(o.DateAdded)
}

// FieldChange is the value of an UPDATE payload entry.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// LogPayload describes what an AuditLog did to its row.
//
// For INSERT and DELETE, Data holds the whole row, column by column.
// For UPDATE, Data holds only modified fields, each as {"old": ..., "new": ...}.
// Labels hold human readable names for the row and renamed relations.
type LogPayload struct {
	Data   map[string]any `json:"data"`
	Labels map[string]any `json:"labels"`
}

// Equal compares payloads by their canonical JSON form, so a payload
// built from Go values matches the same payload read back from the
// audit table.
func (lp *LogPayload) Equal(o *LogPayload) bool {
	if (lp == nil) || (o == nil) {
		return (lp == nil) && (o == nil)
	}
	return jsonEq(lp.Data, o.Data) && jsonEq(lp.Labels, o.Labels)
}

// jsonEq compares two values after a round trip through JSON.
func jsonEq(a, b any) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	var da, db any
	if json.Unmarshal(ja, &da) != nil || json.Unmarshal(jb, &db) != nil {
		return false
	}
	return cmp.JsonEq(da, db)
}

// AuditLog records one row change under an AuditCommand.
type AuditLog struct {
	Id        int
	CommandId int
	Action    LogAction
	Table     string
	RowId     int

	// Publication the changed row belongs to, 0 when not publication-scoped.
	PublicationId int

	Payload   *LogPayload
	Message   string
	DateAdded time.Time
}

func (al *AuditLog) Equal(o *AuditLog) bool {
	if (al == nil) || (o == nil) {
		return (al == nil) && (o == nil)
	}
	return al.Id == o.Id &&
		al.CommandId == o.CommandId &&
		al.Action == o.Action &&
		al.Table == o.Table &&
		al.RowId == o.RowId &&
		al.PublicationId == o.PublicationId &&
		al.Payload.Equal(o.Payload) &&
		al.Message == o.Message &&
		al.DateAdded.Equal(o.DateAdded)
}

// AuditTrail is one command with the row changes recorded under it.
type AuditTrail struct {
	Command AuditCommand
	Logs    []AuditLog
}

func (at *AuditTrail) Equal(o *AuditTrail) bool {
	if (at == nil) || (o == nil) {
		return (at == nil) && (o == nil)
	}
	return at.Command.Equal(&o.Command) &&
		cmp.SliceEqWith(at.Logs, o.Logs, func(a, b AuditLog) bool { return a.Equal(&b) })
}

// Contribution summarizes the hand-entered changes on a publication,
// per curator.
type Contribution struct {
	Creator string

	// Percentage of the publication's manual changes made by Creator.
	Contribution int

	// Timestamp of the most recent change by Creator.
	DateAdded time.Time
}

func (c Contribution) Equal(o Contribution) bool {
	return c.Creator == o.Creator &&
		c.Contribution == o.Contribution &&
		c.DateAdded.Equal(o.DateAdded)
}
