// inspect dumps the most recent visible messages of one room as JSON lines.
// Handy for eyeballing what the query layer actually returns.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"chatdb/pkg/logger"
	"chatdb/pkg/messages"
	"chatdb/pkg/store"
)

func main() {
	uri := flag.String("uri", "mongodb://localhost:27017", "document store connection URI")
	db := flag.String("db", "chatdb", "database name")
	room := flag.String("room", "", "room id to dump")
	limit := flag.Int64("limit", 20, "max messages to print")
	flag.Parse()

	logger.InitWithLevel("error", "")

	if *room == "" {
		fmt.Fprintln(os.Stderr, "missing -room")
		os.Exit(1)
	}
	if err := store.Open(*uri, *db); err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msgs := messages.New()
	cur, err := msgs.FindVisibleByRoomIDNotContainingTypesBeforeTs(
		ctx, *room, nil, time.Now().UTC(), true,
		options.Find().SetSort(bson.D{{Key: "ts", Value: -1}}).SetLimit(*limit),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query: %v\n", err)
		os.Exit(1)
	}
	defer cur.Close(ctx)

	enc := json.NewEncoder(os.Stdout)
	for cur.Next(ctx) {
		m, err := cur.Decode()
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode: %v\n", err)
			os.Exit(1)
		}
		_ = enc.Encode(m)
	}
	if err := cur.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "cursor: %v\n", err)
		os.Exit(1)
	}
}
