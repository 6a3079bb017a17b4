package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/conn/db/postgres/scanner"
	"github.com/comses/citation/pkg/domain"
	kdb "github.com/comses/citation/pkg/domain/graph/db"
	kpgintr "github.com/comses/citation/pkg/domain/internal/db/postgres"
	"github.com/comses/citation/pkg/utils/slices"
)

type pgGraph struct { // implements kdb.GraphInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.GraphInterface {
	return &pgGraph{pool: pool}
}

type citationPair struct {
	Citer int
	Cited int
}

type nameRow struct {
	PublicationId int
	Name          string
}

type bylineRow struct {
	PublicationId int
	FamilyName    string
	GivenName     string
}

func (g *pgGraph) Network(ctx context.Context, filter kdb.NetworkFilter) (domain.NetworkData, error) {
	names := filter.Filter
	if len(names) == 0 {
		names = filter.GroupBy.DefaultFilter()
	}
	groups := append(append([]string{}, names...), "others")

	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return domain.NetworkData{}, err
	}
	defer conn.Release()

	vocab := kpgintr.VocabTable(filter.GroupBy.Vocab())
	join, column := kpgintr.VocabJoinTable(filter.GroupBy.Vocab())

	pairs, err := scanner.New[citationPair]().QueryAll(
		ctx, conn,
		fmt.Sprintf(
			`
			with "filtered" as (
				select distinct p."id" as "id"
				  from "publication" p
				 inner join "%s" j on j."publication_id" = p."id"
				 inner join "%s" v on v."id" = j."%s"
				 where p."status" = 'REVIEWED' and p."is_primary"
				   and v."name" = any($1::text[])
			)
			select c."publication_id" as "citer", c."citation_id" as "cited"
			  from "publication_citations" c
			 where c."publication_id" in (select "id" from "filtered")
			   and c."citation_id" in (select "id" from "filtered")
			 order by c."publication_id", c."citation_id"
			`,
			join, vocab, column,
		),
		names,
	)
	if err != nil {
		return domain.NetworkData{}, err
	}

	ids := make([]int, 0, len(pairs)*2)
	for _, p := range pairs {
		ids = append(ids, p.Citer, p.Cited)
	}
	ids = slices.Sorted(
		slices.Deduplicate(ids),
		func(a, b int) bool { return a < b },
	)
	if len(ids) == 0 {
		return domain.NetworkData{
			Nodes: []domain.NetworkNode{}, Links: []domain.NetworkLink{}, Groups: groups,
		}, nil
	}

	titleOf, err := titlesOf(ctx, conn, ids)
	if err != nil {
		return domain.NetworkData{}, err
	}
	sponsorsOf, err := vocabNamesOf(ctx, conn, domain.VocabSponsor, ids)
	if err != nil {
		return domain.NetworkData{}, err
	}
	tagsOf, err := vocabNamesOf(ctx, conn, domain.VocabTag, ids)
	if err != nil {
		return domain.NetworkData{}, err
	}
	authorsOf, err := authorLinesOf(ctx, conn, ids)
	if err != nil {
		return domain.NetworkData{}, err
	}

	index := map[int]int{}
	nodes := make([]domain.NetworkNode, 0, len(ids))
	for nth, id := range ids {
		index[id] = nth

		grouping := sponsorsOf[id]
		if filter.GroupBy == domain.GroupByTags {
			grouping = tagsOf[id]
		}
		group, ok := slices.First(grouping, func(n string) bool { return slices.Contains(names, n) })
		if !ok {
			group = "others"
		}

		nodes = append(nodes, domain.NetworkNode{
			Name:     id,
			Group:    group,
			Tags:     orEmpty(tagsOf[id]),
			Sponsors: orEmpty(sponsorsOf[id]),
			Authors:  strings.Join(authorsOf[id], ", "),
			Title:    titleOf[id],
		})
	}

	links := slices.Map(pairs, func(p citationPair) domain.NetworkLink {
		return domain.NetworkLink{Source: index[p.Citer], Target: index[p.Cited], Value: 1}
	})

	return domain.NetworkData{Nodes: nodes, Links: links, Groups: groups}, nil
}

func orEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

func titlesOf(ctx context.Context, conn scanner.Queryer, ids []int) (map[int]string, error) {
	type titleRow struct {
		Id    int
		Title string
	}
	rows, err := scanner.New[titleRow]().QueryAll(
		ctx, conn,
		`select "id" as "id", "title" as "title" from "publication" where "id" = any($1::int[])`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	titles := map[int]string{}
	for _, r := range rows {
		titles[r.Id] = r.Title
	}
	return titles, nil
}

func vocabNamesOf(ctx context.Context, conn scanner.Queryer, kind domain.VocabKind, ids []int) (map[int][]string, error) {
	join, column := kpgintr.VocabJoinTable(kind)
	rows, err := scanner.New[nameRow]().QueryAll(
		ctx, conn,
		fmt.Sprintf(
			`
			select j."publication_id" as "publication_id", v."name" as "name"
			  from "%s" j
			 inner join "%s" v on v."id" = j."%s"
			 where j."publication_id" = any($1::int[])
			 order by j."publication_id", v."name"
			`,
			join, kpgintr.VocabTable(kind), column,
		),
		ids,
	)
	if err != nil {
		return nil, err
	}
	return slices.ToMultiMap(rows, func(r nameRow) (int, string) {
		return r.PublicationId, r.Name
	}), nil
}

func authorLinesOf(ctx context.Context, conn scanner.Queryer, ids []int) (map[int][]string, error) {
	rows, err := scanner.New[bylineRow]().QueryAll(
		ctx, conn,
		`
		select b."publication_id" as "publication_id",
		       a."family_name" as "family_name", a."given_name" as "given_name"
		  from "publication_authors" b
		 inner join "author" a on a."id" = b."author_id"
		 where b."publication_id" = any($1::int[])
		 order by b."publication_id", b."id"
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	return slices.ToMultiMap(rows, func(r bylineRow) (int, string) {
		a := domain.Author{GivenName: r.GivenName, FamilyName: r.FamilyName}
		return r.PublicationId, fmt.Sprintf("%s, %s.", a.FamilyName, a.GivenNameInitial())
	}), nil
}

func (g *pgGraph) Distribution(ctx context.Context) ([]domain.DistributionRow, error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	type pubRow struct {
		DatePublishedText string
		Available         bool
	}
	rows, err := scanner.New[pubRow]().QueryAll(
		ctx, conn,
		`
		select p."date_published_text" as "date_published_text",
		       exists(
		           select 1 from "code_archive_url" u
		            where u."publication_id" = p."id"
		              and u."is_active" and u."url" <> ''
		       ) as "available"
		  from "publication" p
		 where p."status" = 'REVIEWED' and p."is_primary"
		`,
	)
	if err != nil {
		return nil, err
	}

	available := map[int]int{}
	missing := map[int]int{}
	for _, r := range rows {
		pb := domain.PublicationBody{DatePublishedText: r.DatePublishedText}
		year, ok := pb.YearPublished()
		if !ok {
			continue
		}
		if r.Available {
			available[year] += 1
		} else {
			missing[year] += 1
		}
	}

	years := slices.Deduplicate(append(slices.KeysOf(available), slices.KeysOf(missing)...))
	sort.Ints(years)

	distribution := make([]domain.DistributionRow, 0, len(years))
	for _, year := range years {
		have, miss := available[year], missing[year]
		total := float64(have + miss)
		distribution = append(distribution, domain.DistributionRow{
			Relation:            domain.RelationGeneral,
			Name:                "Publications",
			Date:                year,
			CodeAvailable:       have,
			CodeNotAvailable:    miss,
			CodeAvailablePer:    float64(have*100) / total,
			CodeNotAvailablePer: float64(miss*100) / total,
		})
	}
	return distribution, nil
}

func (g *pgGraph) ArchivePlatformCounts(ctx context.Context) (map[string]int, error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	type countRow struct {
		Category string
		Count    int
	}
	rows, err := scanner.New[countRow]().QueryAll(
		ctx, conn,
		`
		select c."category" as "category", count(distinct u."publication_id")::int as "count"
		  from "code_archive_url_category" c
		  left join "code_archive_url" u
		    on u."category_id" = c."id"
		   and u."is_active" and u."url" <> ''
		   and exists(
		       select 1 from "publication" p
		        where p."id" = u."publication_id"
		          and p."status" = 'REVIEWED' and p."is_primary"
		   )
		 group by c."category"
		`,
	)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, r := range rows {
		counts[r.Category] = r.Count
	}
	return counts, nil
}

func (g *pgGraph) TopVocabNames(ctx context.Context, kind domain.VocabKind, limit int) ([]string, error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	join, column := kpgintr.VocabJoinTable(kind)
	return scanner.New[string]().QueryAll(
		ctx, conn,
		fmt.Sprintf(
			`
			select v."name" as "name"
			  from "%s" v
			 inner join "%s" j on j."%s" = v."id"
			 inner join "publication" p on p."id" = j."publication_id"
			 where p."status" = 'REVIEWED' and p."is_primary"
			 group by v."id", v."name"
			 order by count(*) desc, v."name"
			 limit $1
			`,
			kpgintr.VocabTable(kind), join, column,
		),
		limit,
	)
}
