package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/E-bethel/wholesaleNaja-backend/internal/config"
	"github.com/E-bethel/wholesaleNaja-backend/internal/database"
	"github.com/E-bethel/wholesaleNaja-backend/internal/routes"
	"github.com/E-bethel/wholesaleNaja-backend/internal/settings"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	if err := settings.NewService(db, log).Seed(context.Background()); err != nil {
		log.WithError(err).Fatal("failed to seed settings defaults")
	}

	app := fiber.New(fiber.Config{
		AppName: "WholesaleNaija Backend",
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	routes.Register(app, db, cfg, log)

	log.WithField("port", cfg.AppPort).Info("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.WithError(err).Fatal("fiber.Listen error")
	}
}
