package handlers

import (
	"mingle/notify"
	"mingle/store"
)

// Store and Notifier are wired in main (and swapped for fakes in tests).
var (
	Store    store.ChatStore
	Notifier notify.Sink
)
