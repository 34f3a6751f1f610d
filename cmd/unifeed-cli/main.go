package main

import (
	"context"
	"unifeed-backend/cmd/unifeed-cli/commands"
	"unifeed-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false, telemetry.LogConfig{})
	commands.ExecuteContext(context.Background())
}
