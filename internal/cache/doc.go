// Package cache stores synthesized PCM audio so repeated units are not sent
// to the engine again. A bounded in-memory LRU (L1) sits in front of a
// persistent, optionally zstd-compressed disk store (L2).
package cache
