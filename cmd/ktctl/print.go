package main

import (
	"fmt"
	"io"
	"sort"

	"kt-assistant-be/pkg/events"
)

func printEvent(w io.Writer, event events.Event) {
	_, _ = headColor.Fprintf(w, "%s %s\n", event.Timestamp().Format("15:04:05"), event.EventType())

	payload := event.Payload()
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s: %v\n", k, payload[k])
	}
}
