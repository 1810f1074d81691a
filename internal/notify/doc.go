// Package notify implements the bounded notification log shown on the bot
// dashboard.
//
// The log is a single cache entry holding at most MaxLog events, oldest
// first. Append stamps each event with the server time, drops the oldest
// event when the log is full, and returns the stamped event.
package notify
