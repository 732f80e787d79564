package jobs

import (
	"os"

	"github.com/robfig/cron/v3"

	"github.com/mindoroparts/pos-app/controllers"
	"github.com/mindoroparts/pos-app/services"
	"github.com/mindoroparts/pos-app/utils"
)

// Start schedules the background jobs and returns the running
// scheduler so the caller can stop it on shutdown.
func Start(orders *services.OrderService) *cron.Cron {
	c := cron.New()

	spec := os.Getenv("PICKUP_SWEEP_SPEC")
	if spec == "" {
		// Daily at 01:00, before the shop opens.
		spec = "0 1 * * *"
	}

	_, err := c.AddFunc(spec, func() {
		swept, err := orders.SweepStaleForPickup(controllers.PickupHoldDays())
		if err != nil {
			utils.ErrorLogger.Printf("pickup sweep failed: %v", err)
			return
		}
		if swept > 0 {
			utils.InfoLogger.Printf("pickup sweep cancelled %d stale orders", swept)
		}
	})
	if err != nil {
		utils.ErrorLogger.Fatalf("invalid PICKUP_SWEEP_SPEC %q: %v", spec, err)
	}

	c.Start()
	return c
}
