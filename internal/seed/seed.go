// README: Demo data seeding for first runs, guarded by config.
package seed

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"navette/internal/auth"
	"navette/internal/modules/company"
	"navette/internal/modules/mission"
	"navette/internal/modules/user"
	"navette/internal/modules/vehicle"
	"navette/internal/types"
)

// Demo inserts a small demo fleet when the database is empty.
func Demo(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	companies := company.NewStore(db)
	users := user.NewStore(db)
	vehicles := vehicle.NewStore(db)
	missions := mission.NewStore(db)

	co := &company.Company{Name: "Transports Horizon", Address: "12 rue du Dépôt, Lyon", Phone: "+33 4 00 00 00 00"}
	if err := companies.Create(ctx, co); err != nil {
		return err
	}

	hash, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}
	admin := &user.User{Email: "admin@horizon.example", PasswordHash: hash,
		FirstName: "Ana", LastName: "Morel", Role: types.RoleAdmin, CompanyID: co.ID}
	driver1 := &user.User{Email: "driver1@horizon.example", PasswordHash: hash,
		FirstName: "Karim", LastName: "Bensaïd", Role: types.RoleDriver, CompanyID: co.ID}
	driver2 := &user.User{Email: "driver2@horizon.example", PasswordHash: hash,
		FirstName: "Lucie", LastName: "Param", Role: types.RoleDriver, CompanyID: co.ID}
	for _, u := range []*user.User{admin, driver1, driver2} {
		if err := users.Create(ctx, u); err != nil {
			return err
		}
	}

	bus1 := &vehicle.Vehicle{Brand: "Iveco", Model: "Crossway", LicensePlate: "AB-123-CD",
		FleetNumber: "H-01", Mileage: 182450, IsActive: true, FuelType: "diesel", SeatCount: 55, Category: "coach"}
	bus2 := &vehicle.Vehicle{Brand: "Mercedes", Model: "Sprinter", LicensePlate: "EF-456-GH",
		FleetNumber: "H-02", Mileage: 96210, IsActive: true, FuelType: "diesel", SeatCount: 19, Category: "minibus"}
	for _, v := range []*vehicle.Vehicle{bus1, bus2} {
		if err := vehicles.Create(ctx, v); err != nil {
			return err
		}
	}

	m := &mission.Mission{
		Title:                "School outing to Parc de la Tête d'Or",
		Status:               mission.StatusPending,
		DepartureName:        "Collège Jean Moulin",
		DepartureAddress:     "3 avenue des Écoles, Lyon",
		Departure:            types.Point{Lat: 45.7485, Lng: 4.8467},
		ArrivalName:          "Parc de la Tête d'Or",
		ArrivalAddress:       "Place Général Leclerc, Lyon",
		Arrival:              types.Point{Lat: 45.7797, Lng: 4.8527},
		ScheduledDepartureAt: time.Now().Add(48 * time.Hour),
		MaxPassengers:        50,
		CompanyID:            co.ID,
		VehicleID:            &bus1.ID,
	}
	if err := missions.Create(ctx, m); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"company": co.Name,
		"users":   3,
		"buses":   2,
	}).Info("seeded demo data")
	return nil
}
