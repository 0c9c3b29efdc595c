package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"dormhop/models"
)

const topAmenities = 5

type InsightService struct {
	logger *zap.Logger
}

func NewInsightService(logger *zap.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises rooms. saved marks which of them the user has saved.
func (s *InsightService) Generate(rooms []models.Room, saved map[int]struct{}) *models.InsightReport {
	report := &models.InsightReport{
		RoomsByDorm:      make(map[string]int),
		RoomsByOccupancy: make(map[int]int),
	}

	if len(rooms) == 0 {
		return report
	}

	report.TotalRooms = len(rooms)

	amenities := make(map[string]int)
	var occupancyTotal, occupancyRooms int

	for _, r := range rooms {
		if _, ok := saved[r.ID]; ok {
			report.SavedRooms++
		}
		if r.Dorm != "" {
			report.RoomsByDorm[r.Dorm]++
		}
		if r.Occupancy > 0 {
			report.RoomsByOccupancy[r.Occupancy]++
			occupancyTotal += r.Occupancy
			occupancyRooms++
		}
		for _, a := range r.Amenities {
			if a = strings.TrimSpace(a); a != "" {
				amenities[a]++
			}
		}
	}

	if occupancyRooms > 0 {
		report.AverageOccupancy = round2(float64(occupancyTotal) / float64(occupancyRooms))
	}

	for a, n := range amenities {
		report.TopAmenities = append(report.TopAmenities, models.AmenityCount{Amenity: a, Count: n})
	}
	sort.Slice(report.TopAmenities, func(i, j int) bool {
		ai, aj := report.TopAmenities[i], report.TopAmenities[j]
		if ai.Count != aj.Count {
			return ai.Count > aj.Count
		}
		return ai.Amenity < aj.Amenity
	})
	if len(report.TopAmenities) > topAmenities {
		report.TopAmenities = report.TopAmenities[:topAmenities]
	}

	s.logger.Debug("Generated room insights",
		zap.Int("rooms", report.TotalRooms),
		zap.Int("saved", report.SavedRooms),
	)
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	banner := color.New(color.FgMagenta, color.Bold)
	heading := color.New(color.FgYellow, color.Bold)
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen, color.Bold)

	fmt.Fprintln(w)
	banner.Fprintln(w, sep)
	banner.Fprintln(w, "  DORMHOP ROOM INSIGHTS")
	banner.Fprintln(w, sep)
	fmt.Fprintln(w)

	heading.Fprintln(w, "  Overview")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Rooms in view     : %s\n", bold.Sprint(r.TotalRooms))
	fmt.Fprintf(w, "  Saved in view     : %s\n", bold.Sprint(r.SavedRooms))
	if r.AverageOccupancy > 0 {
		fmt.Fprintf(w, "  Average occupancy : %s\n", green.Sprintf("%.2f", r.AverageOccupancy))
	}
	fmt.Fprintln(w)

	heading.Fprintln(w, "  Rooms by Occupancy")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.RoomsByOccupancy) == 0 {
		fmt.Fprintln(w, "  No occupancy data")
	} else {
		occs := make([]int, 0, len(r.RoomsByOccupancy))
		for o := range r.RoomsByOccupancy {
			occs = append(occs, o)
		}
		sort.Ints(occs)
		for _, o := range occs {
			n := r.RoomsByOccupancy[o]
			fmt.Fprintf(w, "  %-30s %s (%d)\n", OccupancyLabel(o), strings.Repeat("█", n), n)
		}
	}
	fmt.Fprintln(w)

	heading.Fprintf(w, "  Top %d Amenities\n", topAmenities)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopAmenities) == 0 {
		fmt.Fprintln(w, "  No amenities listed")
	} else {
		for i, a := range r.TopAmenities {
			fmt.Fprintf(w, "  %s %-40s %s\n", bold.Sprintf("%d.", i+1), truncate(a.Amenity, 38), green.Sprint(a.Count))
		}
	}
	fmt.Fprintln(w)

	heading.Fprintln(w, "  Rooms by Dorm")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.RoomsByDorm) == 0 {
		fmt.Fprintln(w, "  No dorm data")
	} else {
		type dormCount struct {
			dorm  string
			count int
		}
		var dorms []dormCount
		for d, n := range r.RoomsByDorm {
			dorms = append(dorms, dormCount{d, n})
		}
		sort.Slice(dorms, func(i, j int) bool {
			if dorms[i].count != dorms[j].count {
				return dorms[i].count > dorms[j].count
			}
			return dorms[i].dorm < dorms[j].dorm
		})
		for _, dc := range dorms {
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(dc.dorm, 28), strings.Repeat("█", dc.count), dc.count)
		}
	}

	fmt.Fprintln(w)
	banner.Fprintln(w, sep)
	fmt.Fprintln(w)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
