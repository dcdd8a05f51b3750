package schedule

import (
	"context"
	"fmt"
	"time"
)

// SeedDoctors loads the demo roster on first boot. It is a no-op when
// any doctor already exists, so restarts never duplicate rows.
func (r *Repo) SeedDoctors(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().Model((*Doctor)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count doctors: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	doctors := seedDoctors()
	for i := range doctors {
		doctors[i].CreatedAt = now
		doctors[i].UpdatedAt = now
	}

	if _, err := r.db.NewInsert().Model(&doctors).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert seed doctors: %w", err)
	}
	return len(doctors), nil
}

func seedDoctors() []Doctor {
	return []Doctor{
		{
			Name:                "Dr. Rajesh Ahuja",
			Specialization:      "Cardiology",
			Email:               "dr.ahuja@hospital.com",
			Phone:               "+91-98765-43210",
			AvailableDays:       []string{"Monday", "Tuesday", "Wednesday", "Friday"},
			AvailableStartTime:  NewTimeOfDay(9, 0),
			AvailableEndTime:    NewTimeOfDay(17, 0),
			SlotDurationMinutes: DefaultSlotMinutes,
		},
		{
			Name:                "Dr. Priya Sharma",
			Specialization:      "General Physician",
			Email:               "dr.sharma@hospital.com",
			Phone:               "+91-98765-43211",
			AvailableDays:       []string{"Monday", "Wednesday", "Thursday", "Friday", "Saturday"},
			AvailableStartTime:  NewTimeOfDay(8, 0),
			AvailableEndTime:    NewTimeOfDay(16, 0),
			SlotDurationMinutes: DefaultSlotMinutes,
		},
		{
			Name:                "Dr. Amit Patel",
			Specialization:      "Orthopedics",
			Email:               "dr.patel@hospital.com",
			Phone:               "+91-98765-43212",
			AvailableDays:       []string{"Tuesday", "Thursday", "Friday", "Saturday"},
			AvailableStartTime:  NewTimeOfDay(10, 0),
			AvailableEndTime:    NewTimeOfDay(18, 0),
			SlotDurationMinutes: DefaultSlotMinutes,
		},
		{
			Name:                "Dr. Sneha Reddy",
			Specialization:      "Pediatrics",
			Email:               "dr.reddy@hospital.com",
			Phone:               "+91-98765-43213",
			AvailableDays:       []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
			AvailableStartTime:  NewTimeOfDay(9, 0),
			AvailableEndTime:    NewTimeOfDay(15, 0),
			SlotDurationMinutes: DefaultSlotMinutes,
		},
		{
			Name:                "Dr. Vikram Singh",
			Specialization:      "Dermatology",
			Email:               "dr.singh@hospital.com",
			Phone:               "+91-98765-43214",
			AvailableDays:       []string{"Monday", "Wednesday", "Friday", "Saturday"},
			AvailableStartTime:  NewTimeOfDay(11, 0),
			AvailableEndTime:    NewTimeOfDay(19, 0),
			SlotDurationMinutes: DefaultSlotMinutes,
		},
		{
			Name:                "Dr. Anita Gupta",
			Specialization:      "Neurology",
			Email:               "dr.gupta@hospital.com",
			Phone:               "+91-98765-43215",
			AvailableDays:       []string{"Tuesday", "Wednesday", "Thursday", "Saturday"},
			AvailableStartTime:  NewTimeOfDay(9, 0),
			AvailableEndTime:    NewTimeOfDay(17, 0),
			SlotDurationMinutes: DefaultSlotMinutes,
		},
		{
			Name:                "Dr. Rahul Mehta",
			Specialization:      "General Physician",
			Email:               "dr.mehta@hospital.com",
			Phone:               "+91-98765-43216",
			AvailableDays:       []string{"Monday", "Tuesday", "Friday", "Saturday", "Sunday"},
			AvailableStartTime:  NewTimeOfDay(7, 0),
			AvailableEndTime:    NewTimeOfDay(15, 0),
			SlotDurationMinutes: DefaultSlotMinutes,
		},
		{
			Name:                "Dr. Kavita Desai",
			Specialization:      "Gynecology",
			Email:               "dr.desai@hospital.com",
			Phone:               "+91-98765-43217",
			AvailableDays:       []string{"Monday", "Wednesday", "Thursday", "Friday"},
			AvailableStartTime:  NewTimeOfDay(10, 0),
			AvailableEndTime:    NewTimeOfDay(18, 0),
			SlotDurationMinutes: DefaultSlotMinutes,
		},
	}
}
