package main

import (
	"os"
)

// @title           MongoDB Log Insights API
// @version         1.0
// @description     Read-only access to the datasets extracted from a mongod structured log.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @tag.name         reports
// @tag.description  Identity facts and event tables from the latest analysis

// @tag.name         analysis
// @tag.description  Trigger a new pass over the log file

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
