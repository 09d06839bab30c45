package main

import (
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"dev/gridwatch/regulatory-automation-go/pkg/temporal/activities"
	"dev/gridwatch/regulatory-automation-go/pkg/temporal/workflows"
)

const TaskQueue = "portal-automation"

func main() {
	// Get Temporal host from environment
	temporalHost := os.Getenv("TEMPORAL_HOST")
	if temporalHost == "" {
		temporalHost = "localhost:7233"
	}

	// Create Temporal client
	c, err := client.Dial(client.Options{
		HostPort: temporalHost,
	})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

	// Screenshot directory
	screenshotDir := getEnvOrDefault("SCREENSHOT_DIR", "/tmp/screenshots")

	// Create activities
	acts := activities.NewActivities(screenshotDir)

	// Create worker. Browser sessions are heavy, keep concurrency low.
	w := worker.New(c, TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     2,
		MaxConcurrentWorkflowTaskExecutionSize: 10,
	})

	// Register workflows
	w.RegisterWorkflow(workflows.AutomationRunWorkflow)

	// Register activities
	w.RegisterActivity(acts.InitializeBrowserActivity)
	w.RegisterActivity(acts.CloseBrowserActivity)
	w.RegisterActivity(acts.ExecuteStepActivity)
	w.RegisterActivity(acts.FetchLatestOrderActivity)
	w.RegisterActivity(acts.TakeScreenshotActivity)

	log.Printf("Starting Temporal worker on task queue: %s", TaskQueue)
	log.Printf("Temporal host: %s", temporalHost)

	// Start worker
	err = w.Run(worker.InterruptCh())
	if err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
