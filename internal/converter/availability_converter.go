package converter

import (
	"go-booking-engine/internal/delivery/dto"
	"go-booking-engine/internal/engine"
)

// AvailabilityToResponse converts engine availability to AvailabilityResponse DTO.
// Slot instants are rendered in the provider's time zone.
func AvailabilityToResponse(a *engine.Availability) *dto.AvailabilityResponse {
	if a == nil {
		return nil
	}

	response := &dto.AvailabilityResponse{
		ProviderID:      a.ProviderID,
		ServiceID:       a.ServiceID,
		StaffID:         a.StaffID,
		Timezone:        a.Location.String(),
		DurationMinutes: a.Duration.Minutes(),
		Days:            make([]dto.DayAvailabilityResponse, len(a.Days)),
	}

	for i, day := range a.Days {
		d := dto.DayAvailabilityResponse{
			Date:   day.Date.String(),
			Closed: day.Hours.Closed,
			Source: string(day.Hours.Source),
			Reason: day.Hours.Reason,
			Slots:  make([]dto.SlotResponse, len(day.Slots)),
			Summary: dto.HeatmapResponse{
				AvailableCount:   day.Summary.AvailableCount,
				BookedCount:      day.Summary.BookedCount,
				BlockedCount:     day.Summary.BlockedCount,
				AvailablePercent: day.Summary.AvailablePercent,
				BookedPercent:    day.Summary.BookedPercent,
				BlockedPercent:   day.Summary.BlockedPercent,
			},
		}
		if !day.Hours.Closed {
			d.Open = day.Hours.Open.String()
			d.Close = day.Hours.Close.String()
			for _, b := range day.Hours.Breaks {
				d.Breaks = append(d.Breaks, dto.BreakResponse{Start: b.Start().String(), End: b.End().String()})
			}
		}
		for j, s := range day.Slots {
			d.Slots[j] = dto.SlotResponse{
				StartAt: s.Start().In(a.Location),
				EndAt:   s.End().In(a.Location),
			}
		}
		response.Days[i] = d
	}

	return response
}
