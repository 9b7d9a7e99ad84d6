package main

import "estatecrm/internal/app"

// @title        EstateCRM API
// @version      1.0
// @description  REST API риэлторской CRM: лиды, объекты, команда, дашборд.
// @BasePath     /api
func main() {
	app.Run()
}
