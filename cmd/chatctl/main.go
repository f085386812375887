// chatctl scans the message store and pretty-prints its contents.
// Intended for local debugging; the server must not hold the database.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, chat:, user:)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	color.Bold.Printf("Scanning %q in %s\n", *prefix, *dbPath)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Entity", "Timestamp", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				entity, timestamp, detail := describe(key, v)
				table.Append([]string{key, entity, timestamp, detail})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
	color.Green.Printf("%d entries\n", rows)
}

type messageRow struct {
	ChatID  int       `json:"chat_id"`
	Author  string    `json:"author"`
	Content string    `json:"content"`
	Lang    string    `json:"lang"`
	At      time.Time `json:"at"`
}

type chatRow struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Owner   string   `json:"owner"`
	Members []string `json:"members"`
}

type userRow struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func describe(key string, value []byte) (entity, timestamp, detail string) {
	switch {
	case len(key) >= 4 && key[:4] == "msg:":
		var m messageRow
		if err := json.Unmarshal(value, &m); err != nil {
			return "MESSAGE", "", "unreadable: " + err.Error()
		}
		return "MESSAGE", m.At.Format(time.RFC3339),
			fmt.Sprintf("[chat %d] %s (%s): %s", m.ChatID, m.Author, m.Lang, m.Content)
	case len(key) >= 5 && key[:5] == "chat:":
		var c chatRow
		if err := json.Unmarshal(value, &c); err != nil {
			return "CHAT", "", "unreadable: " + err.Error()
		}
		return "CHAT", "", fmt.Sprintf("#%d %q owner=%s members=%v", c.ID, c.Title, c.Owner, c.Members)
	case len(key) >= 5 && key[:5] == "user:":
		var u userRow
		if err := json.Unmarshal(value, &u); err != nil {
			return "USER", "", "unreadable: " + err.Error()
		}
		return "USER", u.CreatedAt.Format(time.RFC3339), fmt.Sprintf("%s <%s>", u.Username, u.Email)
	default:
		return "RAW", "", fmt.Sprintf("%d bytes", len(value))
	}
}
