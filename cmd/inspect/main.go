// Command inspect dumps the stored messages of a chat-hub database as
// a table, one room at a time. The database is opened read-only so it
// can run next to a live server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"chat-hub/repositories"
)

func main() {
	dbPath := flag.String("db", "/tmp/chat-hub/badger", "Path to badger DB")
	room := flag.String("room", "", "Only dump this room")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	repo := repositories.NewMessageRepository(db, logs.GetLoggerFromString("warn"), nil)
	ctx := context.Background()

	rooms := []string{*room}
	if *room == "" {
		rooms, err = repo.Rooms(ctx)
		if err != nil {
			log.Fatal("Error while listing rooms: ", err)
		}
		sort.Strings(rooms)
	}

	for _, name := range rooms {
		messages, err := repo.FindByRoom(ctx, name)
		if err != nil {
			log.Fatal("Error while reading room ", name, ": ", err)
		}

		header := color.New(color.BgBlack, color.FgGreen).
			Render(fmt.Sprintf(" Room %q (%d messages) ", name, len(messages)))
		fmt.Println(header)

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "At", "Sender", "Kind", "Status", "Body"})
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)

		for _, m := range messages {
			body := m.Body
			if !m.IsText() {
				body = m.FileName
			}
			if len(body) > 60 {
				body = body[:57] + "..."
			}
			table.Append([]string{
				m.ID.String()[:8],
				m.CreatedAt.Format(time.TimeOnly),
				m.Sender,
				string(m.Kind),
				string(m.Status),
				body,
			})
		}
		table.Render()
		fmt.Println()
	}
}
