package postgres

import (
	"context"

	json "github.com/goccy/go-json"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
	"github.com/comses/citation/pkg/utils/cmp"
)

// EnsureCommand writes cmd unless it has reached the database already.
//
// Commands are written lazily so that operations changing nothing leave
// no audit trace. cmd is updated with the generated id and timestamp.
func EnsureCommand(ctx context.Context, conn kpool.Queryer, cmd *domain.AuditCommand) error {
	if cmd.Saved() {
		return nil
	}
	return conn.QueryRow(
		ctx,
		`
		insert into "audit_command" ("action", "creator", "message")
		values ($1, $2, $3)
		returning "id", "date_added"
		`,
		string(cmd.Action), cmd.Creator, cmd.Message,
	).Scan(&cmd.Id, &cmd.DateAdded)
}

// InsertLog records one row change under cmd, writing cmd first when needed.
//
// The returned AuditLog is l completed with the generated id, command id
// and timestamp.
func InsertLog(ctx context.Context, conn kpool.Queryer, cmd *domain.AuditCommand, l domain.AuditLog) (domain.AuditLog, error) {
	if err := EnsureCommand(ctx, conn, cmd); err != nil {
		return domain.AuditLog{}, err
	}

	var payload *string
	if l.Payload != nil {
		b, err := json.Marshal(l.Payload)
		if err != nil {
			return domain.AuditLog{}, err
		}
		s := string(b)
		payload = &s
	}

	l.CommandId = cmd.Id
	if err := conn.QueryRow(
		ctx,
		`
		insert into "audit_log"
			("audit_command_id", "action", "table_name", "row_id", "publication_id", "payload", "message")
		values ($1, $2, $3, $4, nullif($5, 0), $6::jsonb, $7)
		returning "id", "date_added"
		`,
		cmd.Id, string(l.Action), l.Table, l.RowId, l.PublicationId, payload, l.Message,
	).Scan(&l.Id, &l.DateAdded); err != nil {
		return domain.AuditLog{}, err
	}
	return l, nil
}

// NewRowPayload builds the payload of an INSERT or DELETE log.
//
// data holds the whole row, column by column, values already serialized
// (timestamps as strings). Rows referencing other audited rows pass their
// labels; otherwise the row's own label is recorded under the table name,
// so every payload carries at least one human readable name.
func NewRowPayload(table, label string, data map[string]any, labels map[string]any) *domain.LogPayload {
	if len(labels) == 0 {
		labels = map[string]any{table: label}
	}
	return &domain.LogPayload{Data: data, Labels: labels}
}

// NewVersionedPayload builds the payload of an UPDATE log.
//
// old and new hold column values before and after, serialized as in
// NewRowPayload. Unchanged columns are dropped. It returns nil when no
// column changed, meaning the update needs no log at all.
func NewVersionedPayload(table, label string, old, new map[string]any, labels map[string]any) *domain.LogPayload {
	data := map[string]any{}
	for col, n := range new {
		if o := old[col]; !cmp.JsonEq(o, n) {
			data[col] = domain.FieldChange{Old: o, New: n}
		}
	}
	if len(data) == 0 && len(labels) == 0 {
		return nil
	}
	if len(labels) == 0 {
		labels = map[string]any{table: label}
	}
	return &domain.LogPayload{Data: data, Labels: labels}
}
