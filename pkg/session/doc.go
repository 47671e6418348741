// Package session talks to the external session collaborator over
// HTTP: the hasJoined verify behind online-mode logins, its client-side
// join counterpart, profile and name lookups, blocked-server hashes,
// and player attributes. The Microsoft authenticator runs the account
// chain (OAuth code, Xbox Live, XSTS, Minecraft session) that produces
// the access tokens those calls need.
package session
