// Package services implements the driving port interfaces.
// Services hold the query session logic (pagination, answer streaming,
// orchestration) and reach the backend only through driven ports.
//
// Services are pure Go with no knowledge of HTTP, SQL or terminals.
package services
