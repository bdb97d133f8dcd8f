package telegram

import "github.com/samsonite000/Discord-bot/internal/tracker"

func helpNotification(prefix string) tracker.Notification {
	return tracker.Notification{
		Title:    "Dynasty Tracker Bot Help",
		Body:     "Here are the available commands:",
		Severity: tracker.SeverityInfo,
		Fields: []tracker.Field{
			{
				Name:  prefix + "status [dynasty]",
				Value: "Check the ready status of a dynasty or all dynasties.",
			},
			{
				Name:  prefix + "notify [dynasty]",
				Value: "Notify users who haven't marked as ready yet.",
			},
			{
				Name:  prefix + "reset [dynasty]",
				Value: "Reset the ready status for a dynasty or all dynasties.",
			},
			{
				Name:  prefix + "help",
				Value: "Display this help message.",
			},
			{
				Name:  "Marking Ready",
				Value: "Simply type '[Dynasty] ready' in the chat to mark yourself as ready.\nExample: 'ADHNN ready'",
			},
		},
	}
}
