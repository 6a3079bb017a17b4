package domain

// domain package contains the Domain Models and Interfaces for the citation catalog.
//
// `domain/citation` package exposes the root object for the application.
// Entrypoints of applications should instantiate the Citation object and use it to interact with the domain.
//
// `domain/ENTITY.go` has high-level entities (Domain Model types) and functions.
// For example, `domain/publication.go` contains the `Publication` entity.
//
// `domain/ENTITY` directory contains the "physical" representation of the domain entities in the RDB.
// For example, `domain/publication/db` contains the database interface of the publication entity
// described in `domain/publication.go`, and `domain/publication/db/postgres` its implementation.
//
// `domain/ENTITY/interface.go` exposes the client interface to handle the domain entity in DB.
//
// # Entities
//
// Core entities in the domain are:
//
// - `publication`: A research publication referencing a computational model.
// Publications are primary (catalogued directly) or secondary (known only by being cited).
// Each carries identifiers (DOI, ISI), a review status, a container (journal or proceedings),
// ordered creators, and links to platforms, sponsors, tags and model documentation.
// Publications cite each other, and the citation edges among reviewed primary
// publications form the network served by the graph endpoints.
//
// - `author` and `container`: Canonical persons/organizations and journals.
// Both keep aliases, recording every alternate spelling met during ingest or merge.
//
// - `vocab`: Curated vocabularies sharing one shape (Platform, Sponsor, Tag, ModelDocumentation).
//
// And others:
//
// - `archive`: Code archive URLs attached to publications, the categories and URL patterns
// used to classify them, and the status log written by the URL health checker.
// A publication's archive status is the best status among its active URLs.
//
// - `audit`: Every mutation runs under an AuditCommand (LOAD, MERGE, SPLIT or MANUAL),
// and AuditLog rows record row-level payloads under it. The command row is written
// lazily, when the first log under it is written.
//
// - `raw`: Provenance payloads (BibTeX entries and references, Crossref responses)
// linked to the publications they gave rise to.
//
// - `ingest`: Registers parsed BibTeX/Crossref records into the catalog.
// It deduplicates against existing publications and augments the existing row
// instead of inserting when a duplicate is found.
//
// - `merge`: Suggested and applied merges of duplicate authors, containers,
// publications and vocabulary records.
//
// - `cache`: Postgres-backed cache for expensive aggregates (the graph datasets).
// Entries are refreshed under a row lock so that concurrent refreshers do not
// duplicate work.
//
// - `curator`: Accounts allowed to call the write API, with salted password hashes.
//
// - `schema`: Version of the database schema and its upgrade machinery.
