package tables

import (
	"context"
	"fmt"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
)

// Declare premise of test.
//
// Records are inserted in foreign key order, then serial sequences are
// synced so the tested code can keep inserting.
type Operation struct {
	Curators []Curator

	Containers       []Container
	ContainerAliases []ContainerAlias

	Authors       []Author
	AuthorAliases []AuthorAlias

	Publications         []Publication
	PublicationAuthors   []PublicationAuthor
	PublicationCitations []PublicationCitation

	Platforms           []Vocab
	Sponsors            []Vocab
	Tags                []Vocab
	ModelDocumentations []Vocab

	PublicationPlatforms           []PublicationVocab
	PublicationSponsors            []PublicationVocab
	PublicationTags                []PublicationVocab
	PublicationModelDocumentations []PublicationVocab

	UrlCategories   []CodeArchiveUrlCategory
	UrlPatterns     []CodeArchiveUrlPattern
	CodeArchiveUrls []CodeArchiveUrl
	UrlStatusLogs   []UrlStatusLog

	Notes []Note

	AuditCommands []AuditCommand
	AuditLogs     []AuditLog

	Raws       []Raw
	RawAuthors []RawAuthor

	SuggestedMerges []SuggestedMerge

	Caches []Cache
}

func (prem *Operation) Apply(ctx context.Context, pool kpool.Pool) error {
	tbls := New(ctx, pool)

	for _, c := range prem.Curators {
		if err := tbls.InsertCurator(&c); err != nil {
			return err
		}
	}

	for _, c := range prem.Containers {
		if err := tbls.InsertContainer(&c); err != nil {
			return err
		}
	}
	for _, a := range prem.ContainerAliases {
		if err := tbls.InsertContainerAlias(&a); err != nil {
			return err
		}
	}

	for _, a := range prem.Authors {
		if err := tbls.InsertAuthor(&a); err != nil {
			return err
		}
	}
	for _, a := range prem.AuthorAliases {
		if err := tbls.InsertAuthorAlias(&a); err != nil {
			return err
		}
	}

	for _, p := range prem.Publications {
		if err := tbls.InsertPublication(&p); err != nil {
			return err
		}
	}
	for _, pa := range prem.PublicationAuthors {
		if err := tbls.InsertPublicationAuthor(&pa); err != nil {
			return err
		}
	}
	for _, pc := range prem.PublicationCitations {
		if err := tbls.InsertPublicationCitation(&pc); err != nil {
			return err
		}
	}

	for kind, records := range map[domain.VocabKind][]Vocab{
		domain.VocabPlatform:           prem.Platforms,
		domain.VocabSponsor:            prem.Sponsors,
		domain.VocabTag:                prem.Tags,
		domain.VocabModelDocumentation: prem.ModelDocumentations,
	} {
		for _, v := range records {
			if err := tbls.InsertVocab(kind, &v); err != nil {
				return fmt.Errorf("@ %s: %w", kind, err)
			}
		}
	}
	for kind, joins := range map[domain.VocabKind][]PublicationVocab{
		domain.VocabPlatform:           prem.PublicationPlatforms,
		domain.VocabSponsor:            prem.PublicationSponsors,
		domain.VocabTag:                prem.PublicationTags,
		domain.VocabModelDocumentation: prem.PublicationModelDocumentations,
	} {
		for _, j := range joins {
			if err := tbls.InsertPublicationVocab(kind, &j); err != nil {
				return fmt.Errorf("@ %s: %w", kind, err)
			}
		}
	}

	for _, c := range prem.UrlCategories {
		if err := tbls.InsertUrlCategory(&c); err != nil {
			return err
		}
	}
	for _, p := range prem.UrlPatterns {
		if err := tbls.InsertUrlPattern(&p); err != nil {
			return err
		}
	}
	for _, u := range prem.CodeArchiveUrls {
		if err := tbls.InsertCodeArchiveUrl(&u); err != nil {
			return err
		}
	}
	for _, l := range prem.UrlStatusLogs {
		if err := tbls.InsertUrlStatusLog(&l); err != nil {
			return err
		}
	}

	for _, n := range prem.Notes {
		if err := tbls.InsertNote(&n); err != nil {
			return err
		}
	}

	for _, c := range prem.AuditCommands {
		if err := tbls.InsertAuditCommand(&c); err != nil {
			return err
		}
	}
	for _, l := range prem.AuditLogs {
		if err := tbls.InsertAuditLog(&l); err != nil {
			return err
		}
	}

	for _, r := range prem.Raws {
		if err := tbls.InsertRaw(&r); err != nil {
			return err
		}
	}
	for _, ra := range prem.RawAuthors {
		if err := tbls.InsertRawAuthor(&ra); err != nil {
			return err
		}
	}

	for _, sm := range prem.SuggestedMerges {
		if err := tbls.InsertSuggestedMerge(&sm); err != nil {
			return err
		}
	}

	for _, c := range prem.Caches {
		if err := tbls.InsertCache(&c); err != nil {
			return err
		}
	}

	return tbls.SyncSequences()
}
