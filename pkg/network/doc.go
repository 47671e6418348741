// Package network runs the framed packet pipeline and the
// per-connection phase state machine on both sides of the protocol.
//
// A Conn layers three transforms between packets and the octet
// stream: length-prefixed framing, optional zlib compression behind a
// threshold, and optional AES/CFB8 stream encryption negotiated during
// login. The Gateway accepts connections and drives the server-side
// flows (status, login with session verify, configuration, keep-alive);
// the Dialer and the ClientLogin/ClientConfigure helpers drive the
// client side. Packets themselves are decoded through the registry in
// package protocol.
package network
