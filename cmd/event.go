package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/performance-tracker/internal/core/events"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish events on the application bus. Audited event types land in the audit log.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish an event",
	Long:  `Publish an event to the application bus and wait for every handler to finish`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishEvent(args[0])
	},
}

var (
	eventData     string
	eventEntity   string
	eventEntityID string
)

func publishEvent(eventType string) {
	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	logger := app.Logger

	app.EventBus.SubscribeAll(func(ctx context.Context, event events.Event) error {
		logger.Info("event delivered",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	event := events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message":            eventData,
			"source":             "cli",
			events.KeyEntityType: eventEntity,
			events.KeyEntityID:   eventEntityID,
		},
	}

	logger.Info("publishing event", "event_type", eventType, "event_id", event.ID)

	if err := app.EventBus.PublishSync(context.Background(), event); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}
	logger.Info("event published")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "manual event", "Event message")
	publishEventCmd.Flags().StringVar(&eventEntity, "entity", "system", "Entity type recorded with the event")
	publishEventCmd.Flags().StringVar(&eventEntityID, "entity-id", "", "Entity id recorded with the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
