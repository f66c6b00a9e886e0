// Package client contains the CLI's building blocks for talking to the
// KidsBank server and for opening its local store.
//
// # Overview
//
//  1. Client is the server API contract: client registration, accounts,
//     authToken, push, pull and export.
//  2. HTTPClient implements it over JSON/HTTP with a bearer token.
//  3. InitDatabase and RunMigrations open the local SQLite file and apply
//     the embedded goose migrations.
//
// # Error Handling
//
// Transport failures are reported as ErrUnavailable. HTTP statuses map to
// common.ErrorValidation (400), ErrUnauthorized (401) and ErrNotFound (404),
// each wrapped with the server's reason. Match them with errors.Is.
package client
