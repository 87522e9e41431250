package main

import "studwork_backend/internal/app"

func main() {
	app.Run()
}
