// Package sec provides authentication and security primitives for the web
// application and the JSON API.
//
// # Authentication
//
// Authentication uses HTTP Basic Auth. Credentials are validated against
// bcrypt password hashes stored in the database.
//
// IMPORTANT: Basic Auth transmits credentials in base64 encoding (not
// encrypted). TLS must be used in production to protect credentials in
// transit.
//
// # Components
//
//   - [Authenticate]: Validates Basic Auth credentials against the user store
//   - [GetAuthenticatedUser], [SetAuthenticatedUser]: Context accessors for user info
//   - [HashPassword], [ComparePassword]: bcrypt password hashing utilities
package sec
