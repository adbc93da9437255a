// Package directory provides tenant and user lookups for the engine.
//
// [StaticTenants] and [StaticUsers] serve fixed lists, typically loaded from
// the CLI configuration file. [PostgresTenants] and [PostgresUsers] read the
// same shapes from PostgreSQL through pgx. The schema is owned by the
// deployment; the queries only assume the columns they select.
package directory
