package models

// AmenityCount is one row of the amenity frequency table.
type AmenityCount struct {
	Amenity string
	Count   int
}

// InsightReport summarises a derived room view.
type InsightReport struct {
	TotalRooms       int
	SavedRooms       int
	AverageOccupancy float64
	RoomsByDorm      map[string]int
	RoomsByOccupancy map[int]int
	TopAmenities     []AmenityCount
}
