// Package telegram sends a run's events to a Telegram chat as a digest.
//
// The digest groups events by date label, formatted with Telegram's HTML parse
// mode, and is split across several messages when it exceeds the API's message
// size limit.
package telegram
