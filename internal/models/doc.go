// Package models defines the domain models shared by the identity service
// and the client-side authentication state.
//
// # Models
//
//   - User: an account known to the identity provider. The server stores it
//     with a password hash; clients only ever see ID, email and display
//     name.
//
// # Design Principles
//
//  1. **One type, two views**: the server and the client share User; the
//     API layer copies only the public fields onto the wire, so the
//     client never receives PasswordHash.
//  2. **IDs as strings**: relationships use UUID strings, never pointers.
package models
