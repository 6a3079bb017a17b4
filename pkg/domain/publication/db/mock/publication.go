package mocks

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
	dbmock "github.com/comses/citation/pkg/domain/internal/db/mock"
	kdbpub "github.com/comses/citation/pkg/domain/publication/db"
)

type PublicationInterface struct {
	Impl struct {
		Get         func(context.Context, []int) (map[int]domain.Publication, error)
		Find        func(context.Context, domain.PublicationFilter) ([]int, error)
		Update      func(context.Context, *domain.AuditCommand, int, kdbpub.PublicationDelta) error
		UpdateVocab func(context.Context, *domain.AuditCommand, int, domain.VocabKind, []int) error
		Flag        func(context.Context, *domain.AuditCommand, int, string) (domain.Note, error)
		Unflag      func(context.Context, *domain.AuditCommand, int) error
		Notes       func(context.Context, int) ([]domain.Note, error)
		AddNote     func(context.Context, *domain.AuditCommand, int, string) (domain.Note, error)
		DeleteNote  func(context.Context, *domain.AuditCommand, int) error
	}
	Calls struct {
		Get  dbmock.CallLog[struct{ Ids []int }]
		Find dbmock.CallLog[domain.PublicationFilter]
		Update dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Id      int
			Delta   kdbpub.PublicationDelta
		}]
		UpdateVocab dbmock.CallLog[struct {
			Command   *domain.AuditCommand
			Id        int
			Kind      domain.VocabKind
			RecordIds []int
		}]
		Flag dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Id      int
			Message string
		}]
		Unflag dbmock.CallLog[struct {
			Command *domain.AuditCommand
			Id      int
		}]
		Notes dbmock.CallLog[struct{ PublicationId int }]
		AddNote dbmock.CallLog[struct {
			Command       *domain.AuditCommand
			PublicationId int
			Text          string
		}]
		DeleteNote dbmock.CallLog[struct {
			Command *domain.AuditCommand
			NoteId  int
		}]
	}
}

func NewPublicationInterface() *PublicationInterface {
	return &PublicationInterface{}
}

var _ kdbpub.PublicationInterface = &PublicationInterface{}

func (pi *PublicationInterface) Get(ctx context.Context, ids []int) (map[int]domain.Publication, error) {
	pi.Calls.Get = append(pi.Calls.Get, struct{ Ids []int }{Ids: ids})
	if pi.Impl.Get != nil {
		return pi.Impl.Get(ctx, ids)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PublicationInterface) Find(ctx context.Context, filter domain.PublicationFilter) ([]int, error) {
	pi.Calls.Find = append(pi.Calls.Find, filter)
	if pi.Impl.Find != nil {
		return pi.Impl.Find(ctx, filter)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PublicationInterface) Update(ctx context.Context, cmd *domain.AuditCommand, id int, delta kdbpub.PublicationDelta) error {
	pi.Calls.Update = append(pi.Calls.Update, struct {
		Command *domain.AuditCommand
		Id      int
		Delta   kdbpub.PublicationDelta
	}{Command: cmd, Id: id, Delta: delta})
	if pi.Impl.Update != nil {
		return pi.Impl.Update(ctx, cmd, id, delta)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PublicationInterface) UpdateVocab(ctx context.Context, cmd *domain.AuditCommand, id int, kind domain.VocabKind, recordIds []int) error {
	pi.Calls.UpdateVocab = append(pi.Calls.UpdateVocab, struct {
		Command   *domain.AuditCommand
		Id        int
		Kind      domain.VocabKind
		RecordIds []int
	}{Command: cmd, Id: id, Kind: kind, RecordIds: recordIds})
	if pi.Impl.UpdateVocab != nil {
		return pi.Impl.UpdateVocab(ctx, cmd, id, kind, recordIds)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PublicationInterface) Flag(ctx context.Context, cmd *domain.AuditCommand, id int, message string) (domain.Note, error) {
	pi.Calls.Flag = append(pi.Calls.Flag, struct {
		Command *domain.AuditCommand
		Id      int
		Message string
	}{Command: cmd, Id: id, Message: message})
	if pi.Impl.Flag != nil {
		return pi.Impl.Flag(ctx, cmd, id, message)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PublicationInterface) Unflag(ctx context.Context, cmd *domain.AuditCommand, id int) error {
	pi.Calls.Unflag = append(pi.Calls.Unflag, struct {
		Command *domain.AuditCommand
		Id      int
	}{Command: cmd, Id: id})
	if pi.Impl.Unflag != nil {
		return pi.Impl.Unflag(ctx, cmd, id)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PublicationInterface) Notes(ctx context.Context, publicationId int) ([]domain.Note, error) {
	pi.Calls.Notes = append(pi.Calls.Notes, struct{ PublicationId int }{PublicationId: publicationId})
	if pi.Impl.Notes != nil {
		return pi.Impl.Notes(ctx, publicationId)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PublicationInterface) AddNote(ctx context.Context, cmd *domain.AuditCommand, publicationId int, text string) (domain.Note, error) {
	pi.Calls.AddNote = append(pi.Calls.AddNote, struct {
		Command       *domain.AuditCommand
		PublicationId int
		Text          string
	}{Command: cmd, PublicationId: publicationId, Text: text})
	if pi.Impl.AddNote != nil {
		return pi.Impl.AddNote(ctx, cmd, publicationId, text)
	}
	panic(errors.New("it should not be called"))
}

func (pi *PublicationInterface) DeleteNote(ctx context.Context, cmd *domain.AuditCommand, noteId int) error {
	pi.Calls.DeleteNote = append(pi.Calls.DeleteNote, struct {
		Command *domain.AuditCommand
		NoteId  int
	}{Command: cmd, NoteId: noteId})
	if pi.Impl.DeleteNote != nil {
		return pi.Impl.DeleteNote(ctx, cmd, noteId)
	}
	panic(errors.New("it should not be called"))
}
