package app

// registerRoutes sets up all HTTP handlers for the application.
func (a *App) registerRoutes() {
	a.Mux.HandleFunc("GET /api/reports/latest", a.handleLatest)
	a.Mux.HandleFunc("GET /api/reports", a.handleList)
	a.Mux.HandleFunc("GET /api/schema", a.handleSchema)
	if a.Hub != nil {
		a.Mux.HandleFunc("GET /ws", a.Hub.ServeWS)
	}
}
