package main

import (
	"fmt"

	"polizas-backend/config"
	"polizas-backend/controllers"
	"polizas-backend/routes"
	"polizas-backend/services"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB

	identities   services.IdentityResolver
	notices      *services.NoticeService
	reminders    *services.ReminderService
	clients      *services.ClientService
	housekeeping *services.HousekeepingScheduler
}

func bootstrap() (*app, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}
	db, err := config.ConnectDB(cfg.DBURL)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	notices := services.NewNoticeService(
		services.NewGormNoticeStore(db),
		logger.Named("notices"),
		services.WithLocation(cfg.Location),
	)

	var sender services.MessageSender
	if cfg.Twilio.Enabled() {
		sender = services.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
	} else {
		logger.Warn("twilio credentials missing, reminders disabled")
	}
	reminders := services.NewReminderService(
		notices,
		services.NewGormReminderLogStore(db),
		sender,
		services.ReminderOptions{
			SMSFrom:      cfg.Twilio.PhoneNumber,
			WhatsAppFrom: cfg.Twilio.WhatsAppNumber,
			Template:     cfg.ReminderTemplate,
		},
		logger.Named("reminders"),
	)

	housekeeping, err := services.NewHousekeepingScheduler(
		notices, cfg.HousekeepingCron, cfg.HousekeepingReimburse, cfg.Location, logger.Named("housekeeping"),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid HOUSEKEEPING_CRON %q: %w", cfg.HousekeepingCron, err)
	}

	return &app{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		identities:   services.NewGormIdentityResolver(db),
		notices:      notices,
		reminders:    reminders,
		clients:      services.NewClientService(db, logger.Named("clients")),
		housekeeping: housekeeping,
	}, nil
}

func (a *app) handlers() routes.Handlers {
	return routes.Handlers{
		Auth: &controllers.AuthController{
			DB:        a.db,
			JWTSecret: a.cfg.JWTSecret,
			TokenTTL:  a.cfg.JWTExpiry,
			Logger:    a.logger,
		},
		Notices: &controllers.NoticeController{
			Notices:    a.notices,
			Reminders:  a.reminders,
			Identities: a.identities,
		},
		Clients:   &controllers.ClientController{Clients: a.clients},
		Companies: &controllers.CompanyController{DB: a.db, Logger: a.logger},
		Dashboard: &controllers.DashboardController{DB: a.db, Notices: a.notices, Logger: a.logger},
	}
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}
