package postgres

import (
	"context"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/domain"
)

// GetContainers fetches containers by id. Unknown ids are dropped.
func GetContainers(ctx context.Context, conn kpool.Queryer, ids []int) (map[int]domain.Container, error) {
	if len(ids) == 0 {
		return map[int]domain.Container{}, nil
	}

	rows, err := conn.Query(
		ctx,
		`
		select "id", "type", "name", coalesce("issn", ''), coalesce("eissn", '')
		from "container"
		where "id" = any($1::int[])
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	containers := map[int]domain.Container{}
	for rows.Next() {
		c := domain.Container{}
		if err := rows.Scan(&c.Id, &c.Type, &c.Name, &c.Issn, &c.Eissn); err != nil {
			return nil, err
		}
		containers[c.Id] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return containers, nil
}

// GetContainerAliases fetches alternate names, grouped by container.
func GetContainerAliases(ctx context.Context, conn kpool.Queryer, containerIds []int) (map[int][]domain.ContainerAlias, error) {
	aliases := map[int][]domain.ContainerAlias{}
	if len(containerIds) == 0 {
		return aliases, nil
	}

	rows, err := conn.Query(
		ctx,
		`
		select "id", "container_id", "name"
		from "container_alias"
		where "container_id" = any($1::int[])
		order by "id"
		`,
		containerIds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		al := domain.ContainerAlias{}
		if err := rows.Scan(&al.Id, &al.ContainerId, &al.Name); err != nil {
			return nil, err
		}
		aliases[al.ContainerId] = append(aliases[al.ContainerId], al)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return aliases, nil
}
