package main

import "kalyana/internal/app"

// @title           Kalyana Connection API
// @version         1.0
// @description     Surplus food matching between event providers and NGOs.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.Run()
}
