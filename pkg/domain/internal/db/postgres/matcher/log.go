package matcher

import (
	"fmt"
	"time"

	"github.com/comses/citation/pkg/domain"
)

// AuditLog matches audit_log rows field by field.
// Leave a field as Any to ignore it.
type AuditLog struct {
	Action        Matcher[domain.LogAction]
	Table         Matcher[string]
	RowId         Matcher[int]
	PublicationId Matcher[int]
	Payload       Matcher[*domain.LogPayload]
	Message       Matcher[string]
	DateAdded     Matcher[time.Time]
}

func (m AuditLog) Match(actual domain.AuditLog) bool {
	return m.Action.Match(actual.Action) &&
		m.Table.Match(actual.Table) &&
		m.RowId.Match(actual.RowId) &&
		m.PublicationId.Match(actual.PublicationId) &&
		m.Payload.Match(actual.Payload) &&
		m.Message.Match(actual.Message) &&
		m.DateAdded.Match(actual.DateAdded)
}

func (m AuditLog) String() string {
	return fmt.Sprintf(
		"{Action:%s Table:%s RowId:%s PublicationId:%s Payload:%s Message:%s DateAdded:%s}",
		m.Action, m.Table, m.RowId, m.PublicationId, m.Payload, m.Message, m.DateAdded,
	)
}

func (m AuditLog) Format(s fmt.State, _ rune) {
	fmt.Fprint(s, m.String())
}
