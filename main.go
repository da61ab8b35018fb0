package main

import (
	"net/http"
	"os"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/discovery"
	"clementus360/behavior-intel/handlers"
	"clementus360/behavior-intel/learning"
	"clementus360/behavior-intel/middleware"
	"clementus360/behavior-intel/orchestrator"
	"clementus360/behavior-intel/routes"
	"clementus360/behavior-intel/store"
	"clementus360/behavior-intel/validation"
)

func main() {

	config.LoadEnv()
	config.InitLogger()

	st, err := store.NewSupabase()
	if err != nil {
		config.Logger.Fatal("Failed to initialize store:", err)
	}

	engine := discovery.NewEngine(st, config.Discovery)
	validator := validation.NewSystem(st, config.Validation, nil)
	processor := learning.NewProcessor(st, config.Learning, engine)
	orch := orchestrator.New(st, config.Orchestrator, engine, validator, processor)

	mux := http.NewServeMux()
	routes.RegisterRoutes(mux, handlers.New(orch))

	handler := middleware.Chain(
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware,
	)(mux)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	config.Logger.Info("Server is running on port " + port)
	config.Logger.Fatal(http.ListenAndServe(":"+port, handler))
}
