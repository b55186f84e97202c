// Package filter selects garages and disabled parking spots with expr-lang expressions.
//
// Expressions see the record's fields as variables (Name, Capacity, HasCapacity,
// ChargingStations, Address, City, Provider, SpotID, Number, Status, Active,
// Longitude, Latitude, CreatedAt, UpdatedAt, ...) and a few helpers:
//
//	Capacity > 400 and ChargingStations > 0
//	Address contains "Léopold" and Active
//	distanceTo(50.6413, 5.5686) < 1.5
//	UpdatedAt > daysAgo(90)
//	containsFold(Provider, "interparking")
package filter
