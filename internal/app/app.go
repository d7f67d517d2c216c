// README: App bundles the core services with an explicit open/close
// lifecycle; the UI layer holds one App and calls its services directly.
package app

import (
	"context"
	"database/sql"
	"time"

	"navette/internal/auth"
	"navette/internal/config"
	"navette/internal/infra"
	"navette/internal/modules/company"
	"navette/internal/modules/kilometrage"
	"navette/internal/modules/mission"
	"navette/internal/modules/notification"
	"navette/internal/modules/user"
	"navette/internal/modules/vehicle"
	"navette/internal/modules/worktime"
)

type App struct {
	DB *sql.DB

	Auth          *auth.Service
	Companies     *company.Store
	Users         *user.Store
	Vehicles      *vehicle.Service
	Missions      *mission.Service
	Kilometrage   *kilometrage.Service
	Notifications *notification.Service
	WorkTimes     *worktime.Service
	Bus           *notification.Bus
}

// New opens the embedded store and wires every service. Callers own the
// returned App and must Close it.
func New(cfg config.Config) (*App, error) {
	db, err := infra.OpenDB(cfg.Data.Dir, cfg.Data.DBFile)
	if err != nil {
		return nil, err
	}
	return build(db, cfg), nil
}

// NewWithDB wires services over an already-open database; used by tests.
func NewWithDB(db *sql.DB, cfg config.Config) *App {
	return build(db, cfg)
}

func build(db *sql.DB, cfg config.Config) *App {
	companyStore := company.NewStore(db)
	userStore := user.NewStore(db)
	vehicleStore := vehicle.NewStore(db)
	missionStore := mission.NewStore(db)

	missionSvc := mission.NewService(missionStore, companyStore, userStore, vehicleStore)

	bus := notification.NewBus()
	notifSvc := notification.NewService(notification.NewStore(db), missionSvc, userStore, bus,
		time.Duration(cfg.Notify.TickSeconds)*time.Second)
	missionSvc.SetNotifier(notifSvc)

	return &App{
		DB:            db,
		Auth:          auth.NewService(db, userStore, time.Duration(cfg.Session.TTLHours)*time.Hour),
		Companies:     companyStore,
		Users:         userStore,
		Vehicles:      vehicle.NewService(vehicleStore),
		Missions:      missionSvc,
		Kilometrage:   kilometrage.NewService(kilometrage.NewStore(db), missionStore, vehicleStore),
		Notifications: notifSvc,
		WorkTimes:     worktime.NewService(worktime.NewStore(db)),
		Bus:           bus,
	}
}

// Run starts the background reminder ticker until ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	a.Notifications.RunReminderTicker(ctx)
}

func (a *App) Close() error {
	return a.DB.Close()
}
