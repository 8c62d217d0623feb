package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/infrastructure/providers"
	"github.com/totegamma/carelog/internal/present/rest"
	"github.com/totegamma/carelog/schemas"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream new documents for this identity and its linked record set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, agent *providers.Agent) error {
			var prefixes []string
			if identity := agent.Session.Identity(); identity != "" {
				prefixes = append(prefixes, carelog.ComposeDocumentURI(identity, "", ""))
			}
			if l := agent.Session.Linkage(); l != nil {
				prefixes = append(prefixes, carelog.ComposeDocumentURI(l.LinkedUUID, schemas.CollectionHealthRecords, ""))
			}
			if len(prefixes) == 0 {
				return fmt.Errorf("nothing to watch without an identity")
			}

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, agent.Client.RealtimeURL(ctx), nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.WriteJSON(rest.Request{Type: "listen", Prefixes: prefixes}); err != nil {
				return err
			}

			go heartbeat(ctx, conn)
			go func() {
				<-ctx.Done()
				conn.Close()
			}()

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				var event carelog.Event
				if err := json.Unmarshal(msg, &event); err != nil {
					slog.WarnContext(ctx, "malformed event", slog.String("module", "watch"), slog.String("error", err.Error()))
					continue
				}
				owner, collection, id, err := carelog.ParseDocumentURI(event.URI)
				if err != nil {
					slog.WarnContext(ctx, "event with bad uri", slog.String("module", "watch"), slog.String("uri", event.URI))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-18s %s  owner=%s by %s\n",
					event.Timestamp.Format(time.RFC3339), collection, id, owner, event.Sender)
			}
		})
	},
}

func heartbeat(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteJSON(rest.Request{Type: "h"}); err != nil {
				return
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
