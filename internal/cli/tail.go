package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"pulse/internal/notifications"

	"github.com/spf13/cobra"
)

// NewTailCommand creates the tail command.
func NewTailCommand(rootOpts *RootOptions) *cobra.Command {
	var recipient string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print notification events as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.open()
			if err != nil {
				return err
			}
			if rt.Redis == nil {
				return errors.New("tail requires REDIS_URL")
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var mu sync.Mutex
			err = notifications.NewNotifier(rt.Redis).StartPatternSubscriber(ctx,
				func(recipientID string, event notifications.Event) {
					if recipient != "" && recipientID != recipient {
						return
					}
					mu.Lock()
					defer mu.Unlock()
					_ = printEvent(out, rootOpts.Format, event)
				})
			if err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&recipient, "user", "", "only show events for this recipient")
	return cmd
}

func printEvent(w io.Writer, format string, e notifications.Event) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(e)
	}
	_, err := fmt.Fprintf(w, "%s %s -> %s [%s] %s\n",
		e.CreatedAt.Format("15:04:05"), e.SenderID, e.RecipientID, e.Type, e.Message)
	return err
}
