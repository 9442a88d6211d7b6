package main

import "worksite/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()
	app.MustEnsureTasksSchema()

	app.MustConnectS3()

	app.MustListenAndServeHTTP()
}
