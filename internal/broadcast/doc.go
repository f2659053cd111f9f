// Package broadcast keeps playlist collections in step across running instances over Redis pub/sub.
//
// A [Publisher] is registered as a playlist store change listener. Every change publishes the whole
// collection, plus the songs it references when a resolver is available, as one JSON [Message] on a
// channel (jukebox:playlists by default). Messages carry the publishing instance id.
//
// A [Subscriber] listens on the same channel, drops messages from its own instance and malformed
// payloads, and hands the rest to a callback. The CLI applies them with Store.Initialise.
//
// Publishing is best effort: failures are logged and counted, never returned to the store.
package broadcast
